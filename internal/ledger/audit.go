package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Drift is an import item whose stored balance does not match its
// entitlement minus the allotment lines referencing it.
type Drift struct {
	ItemID                  uuid.UUID       `json:"itemId" example:"0d4b0a35-53a5-4d3e-8c2a-7b0a4c1bd1a7"`
	LicenseID               uuid.UUID       `json:"licenseId" example:"6e5c4cbb-0c02-4a3e-9a4c-4a1a8d7dfa08"`
	Quantity                decimal.Decimal `json:"quantity" example:"1000"`
	CIFValue                decimal.Decimal `json:"cifValue" example:"5000"`
	BalanceQuantity         decimal.Decimal `json:"balanceQuantity" example:"800"`
	BalanceCIFValue         decimal.Decimal `json:"balanceCifValue" example:"4000"`
	ExpectedBalanceQuantity decimal.Decimal `json:"expectedBalanceQuantity" example:"700"`
	ExpectedBalanceCIFValue decimal.Decimal `json:"expectedBalanceCifValue" example:"3500"`
}

// auditPrecision is the number of decimal places compared by Audit.
const auditPrecision = 6

// Audit recomputes the balance of every import item from its allotment lines
// and returns all items where the stored balance differs.
func Audit(ctx context.Context, db *gorm.DB) ([]Drift, error) {
	db = db.WithContext(ctx)

	var items []models.ImportItem
	err := db.Order("license_id, serial_number").Find(&items).Error
	if err != nil {
		return nil, err
	}

	var sums []struct {
		ItemID   uuid.UUID
		Quantity decimal.Decimal
		Value    decimal.Decimal
	}

	err = db.
		Table("allotment_lines").
		Select("item_id, SUM(quantity) AS quantity, SUM(cif_value) AS value").
		Group("item_id").
		Scan(&sums).
		Error
	if err != nil {
		return nil, err
	}

	type total struct{ quantity, value decimal.Decimal }
	allotted := make(map[uuid.UUID]total, len(sums))
	for _, s := range sums {
		allotted[s.ItemID] = total{s.Quantity, s.Value}
	}

	drifts := make([]Drift, 0)
	for _, item := range items {
		a := allotted[item.ID]
		quantity := item.Quantity.Sub(a.quantity)
		value := item.CIFValue.Sub(a.value)

		if quantity.Round(auditPrecision).Equal(item.BalanceQuantity.Round(auditPrecision)) &&
			value.Round(auditPrecision).Equal(item.BalanceCIFValue.Round(auditPrecision)) {
			continue
		}

		drifts = append(drifts, Drift{
			ItemID:                  item.ID,
			LicenseID:               item.LicenseID,
			Quantity:                item.Quantity,
			CIFValue:                item.CIFValue,
			BalanceQuantity:         item.BalanceQuantity,
			BalanceCIFValue:         item.BalanceCIFValue,
			ExpectedBalanceQuantity: quantity,
			ExpectedBalanceCIFValue: value,
		})
	}

	return drifts, nil
}
