package ledger

import (
	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Balance is what an allotment request for one import item and one
// allotment is evaluated against.
//
// A new request replaces the existing line for the same import item and
// allotment. Therefore, the quantity and value of that line are added back
// to the import item balance and are not part of the allotted totals.
type Balance struct {
	ItemQuantity     decimal.Decimal       // Balance quantity of the import item, including the existing line
	ItemValue        decimal.Decimal       // Balance CIF value of the import item, including the existing line
	AllottedQuantity decimal.Decimal       // Quantity of all other lines of the allotment
	AllottedValue    decimal.Decimal       // CIF value of all other lines of the allotment
	Line             *models.AllotmentLine // The existing line, nil if there is none
}

// Snapshot returns the Balance for an import item and an allotment.
// It does not lock anything and is meant for display purposes, the
// Engine takes its own snapshot while holding the locks.
func Snapshot(db *gorm.DB, itemID, allotmentID uuid.UUID) (Balance, error) {
	var item models.ImportItem
	err := db.First(&item, "id = ?", itemID).Error
	if err != nil {
		return Balance{}, err
	}

	var allotment models.Allotment
	err = db.First(&allotment, "id = ?", allotmentID).Error
	if err != nil {
		return Balance{}, err
	}

	return snapshot(db, item, allotment)
}

func snapshot(db *gorm.DB, item models.ImportItem, allotment models.Allotment) (Balance, error) {
	line, err := findLine(db, item.ID, allotment.ID)
	if err != nil {
		return Balance{}, err
	}

	quantity, value, err := models.LineTotals(db, "allotment_id", allotment.ID)
	if err != nil {
		return Balance{}, err
	}

	b := Balance{
		ItemQuantity:     item.BalanceQuantity,
		ItemValue:        item.BalanceCIFValue,
		AllottedQuantity: quantity,
		AllottedValue:    value,
		Line:             line,
	}

	if line != nil {
		b.ItemQuantity = b.ItemQuantity.Add(line.Quantity)
		b.ItemValue = b.ItemValue.Add(line.CIFValue)
		b.AllottedQuantity = b.AllottedQuantity.Sub(line.Quantity)
		b.AllottedValue = b.AllottedValue.Sub(line.CIFValue)
	}

	return b, nil
}

// findLine returns the allotment line for the import item and allotment
// or nil if there is none.
func findLine(db *gorm.DB, itemID, allotmentID uuid.UUID) (*models.AllotmentLine, error) {
	var lines []models.AllotmentLine
	err := db.
		Where("item_id = ? AND allotment_id = ?", itemID, allotmentID).
		Limit(1).
		Find(&lines).
		Error
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return nil, nil
	}

	return &lines[0], nil
}
