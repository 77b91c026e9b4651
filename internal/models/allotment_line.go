package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AllotmentLine records the quantity and CIF value of one import item that
// is reserved for one allotment.
//
// There is at most one line per import item and allotment. Lines are never
// soft deleted so that the unique index always reflects the live lines.
type AllotmentLine struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Item        ImportItem      `json:"-"`
	ItemID      uuid.UUID       `gorm:"uniqueIndex:allotment_line_item_allotment"`
	Allotment   Allotment       `json:"-"`
	AllotmentID uuid.UUID       `gorm:"uniqueIndex:allotment_line_item_allotment"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:DECIMAL(20,8)"`
	CIFValue    decimal.Decimal `gorm:"column:cif_value;type:DECIMAL(20,8)"`
}

func (l *AllotmentLine) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	return nil
}

func (l *AllotmentLine) AfterFind(_ *gorm.DB) error {
	inUTC(&l.CreatedAt, &l.UpdatedAt)

	return nil
}

// LineTotals sums quantity and CIF value of all allotment lines where
// column equals id. column is either "item_id" or "allotment_id".
func LineTotals(db *gorm.DB, column string, id uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var totals struct {
		Quantity decimal.NullDecimal
		Value    decimal.NullDecimal
	}

	err := db.
		Table("allotment_lines").
		Select("SUM(quantity) AS quantity, SUM(cif_value) AS value").
		Where(fmt.Sprintf("%s = ?", column), id).
		Scan(&totals).
		Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	// If no lines are found, the sums are NULL. SQLite sums in floating
	// point, rounding to the column scale removes the noise.
	quantity, value := decimal.Zero, decimal.Zero
	if totals.Quantity.Valid {
		quantity = totals.Quantity.Decimal.Round(8)
	}

	if totals.Value.Valid {
		value = totals.Value.Decimal.Round(8)
	}

	return quantity, value, nil
}
