package ledger

import (
	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SetEntitlement changes the entitled quantity and value of an import item
// and resets its balances to the new entitlement. Fields that are not valid
// keep their current value.
//
// The item is locked and must not be referenced by any allotment line.
// tx should be a transaction so that the lock is held until the change is
// committed.
func SetEntitlement(tx *gorm.DB, id uuid.UUID, quantity, value decimal.NullDecimal) (models.ImportItem, error) {
	item, err := lockItem(tx, id)
	if err != nil {
		return models.ImportItem{}, err
	}

	hasLines, err := item.HasLines(tx)
	if err != nil {
		return models.ImportItem{}, err
	}

	if hasLines {
		return models.ImportItem{}, ErrEntitlementLocked
	}

	if quantity.Valid {
		item.Quantity = quantity.Decimal
	}

	if value.Valid {
		item.CIFValue = value.Decimal
	}

	item.BalanceQuantity = item.Quantity
	item.BalanceCIFValue = item.CIFValue

	err = item.Validate()
	if err != nil {
		return models.ImportItem{}, err
	}

	result := tx.
		Model(&models.ImportItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]any{
			"quantity":          item.Quantity,
			"cif_value":         item.CIFValue,
			"balance_quantity":  item.BalanceQuantity,
			"balance_cif_value": item.BalanceCIFValue,
			"version":           item.Version + 1,
		})

	if result.Error != nil {
		return models.ImportItem{}, result.Error
	}

	if result.RowsAffected == 0 {
		return models.ImportItem{}, ErrConcurrencyConflict
	}

	item.Version++
	return item, nil
}
