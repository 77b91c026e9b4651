package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Allotment is a demand to reserve quantity and CIF value from one or more
// import items for a buyer or shipment.
type Allotment struct {
	DefaultModel
	Company          string          // The buyer the allotment is made for
	Goods            string          // Description of the goods to be imported
	RequiredQuantity decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	RequiredValue    decimal.Decimal `gorm:"type:DECIMAL(20,8)"` // CIF value in foreign currency
	UnitPrice        decimal.Decimal `gorm:"type:DECIMAL(20,8)"` // Links quantity and value: value = quantity * unit price
	ExchangeRate     decimal.Decimal `gorm:"type:DECIMAL(20,8)"` // Rate to convert the foreign currency CIF value to INR
	EstimatedArrival *time.Time
	Note             string
	Version          uint64 `gorm:"not null;default:0"`

	AllottedQuantity decimal.Decimal `gorm:"-"` // Sum of the quantity of all lines
	AllottedValue    decimal.Decimal `gorm:"-"` // Sum of the CIF value of all lines
}

func (a *Allotment) BeforeSave(_ *gorm.DB) error {
	a.Company = strings.TrimSpace(a.Company)
	a.Goods = strings.TrimSpace(a.Goods)
	a.Note = strings.TrimSpace(a.Note)

	return nil
}

func (a *Allotment) BeforeCreate(tx *gorm.DB) error {
	_ = a.DefaultModel.BeforeCreate(tx)

	a.Version = 0
	a.DeriveUnitPrice()
	return a.Validate()
}

// DeriveUnitPrice sets the unit price from the required value and quantity
// if it is not set.
func (a *Allotment) DeriveUnitPrice() {
	if a.UnitPrice.IsZero() && a.RequiredQuantity.IsPositive() && a.RequiredValue.IsPositive() {
		a.UnitPrice = a.RequiredValue.DivRound(a.RequiredQuantity, 3)
	}
}

// Validate checks that no amount is negative.
func (a Allotment) Validate() error {
	if a.RequiredQuantity.IsNegative() || a.RequiredValue.IsNegative() || a.UnitPrice.IsNegative() || a.ExchangeRate.IsNegative() {
		return ErrAllotmentRequiredNegative
	}

	return nil
}

// WithCalculations computes the allotted totals from the allotment lines.
func (a Allotment) WithCalculations(db *gorm.DB) (Allotment, error) {
	quantity, value, err := LineTotals(db, "allotment_id", a.ID)
	if err != nil {
		return Allotment{}, err
	}

	a.AllottedQuantity = quantity
	a.AllottedValue = value

	return a, nil
}

// HasLines reports if the allotment has any allotment line.
func (a Allotment) HasLines(tx *gorm.DB) (bool, error) {
	var count int64
	err := tx.Model(&AllotmentLine{}).Where("allotment_id = ?", a.ID).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// BalanceQuantity is the quantity that still needs to be allotted.
func (a Allotment) BalanceQuantity() decimal.Decimal {
	return a.RequiredQuantity.Sub(a.AllottedQuantity)
}

// BalanceValue is the CIF value that still needs to be allotted.
func (a Allotment) BalanceValue() decimal.Decimal {
	return a.RequiredValue.Sub(a.AllottedValue)
}

// IsAllotted reports if the allotment is fully served. The value side
// accepts the tolerance that absorbs rounding of line values.
func (a Allotment) IsAllotted(tolerance decimal.Decimal) bool {
	if a.RequiredQuantity.IsPositive() && a.AllottedQuantity.GreaterThanOrEqual(a.RequiredQuantity) {
		return true
	}

	return a.RequiredValue.IsPositive() && a.BalanceValue().LessThanOrEqual(tolerance)
}
