package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ImportItem is one entitlement line of a license.
//
// BalanceQuantity and BalanceCIFValue are running counters. They are only
// changed by the allotment engine, which moves quantity and value between
// them and the allotment lines referencing the item. Version is incremented
// with every balance change and guards against lost updates.
type ImportItem struct {
	DefaultModel
	License         License   `json:"-"`
	LicenseID       uuid.UUID `gorm:"uniqueIndex:item_serial_license"`
	SerialNumber    int       `gorm:"uniqueIndex:item_serial_license"`
	Description     string
	HSCode          string          `gorm:"column:hs_code"`
	Unit            string          // Unit of measurement, e.g. KGS
	Quantity        decimal.Decimal `gorm:"column:quantity;type:DECIMAL(20,8)"`          // Entitled quantity
	CIFValue        decimal.Decimal `gorm:"column:cif_value;type:DECIMAL(20,8)"`         // Entitled CIF value in foreign currency
	BalanceQuantity decimal.Decimal `gorm:"column:balance_quantity;type:DECIMAL(20,8)"`  // Quantity not reserved by any allotment line
	BalanceCIFValue decimal.Decimal `gorm:"column:balance_cif_value;type:DECIMAL(20,8)"` // CIF value not reserved by any allotment line
	Version         uint64          `gorm:"not null;default:0"`
}

func (i *ImportItem) BeforeSave(_ *gorm.DB) error {
	i.Description = strings.TrimSpace(i.Description)
	i.HSCode = strings.TrimSpace(i.HSCode)
	i.Unit = strings.ToUpper(strings.TrimSpace(i.Unit))

	return nil
}

// BeforeCreate verifies that the license exists and starts the item
// with its full entitlement available.
func (i *ImportItem) BeforeCreate(tx *gorm.DB) error {
	_ = i.DefaultModel.BeforeCreate(tx)

	i.BalanceQuantity = i.Quantity
	i.BalanceCIFValue = i.CIFValue
	i.Version = 0

	err := i.Validate()
	if err != nil {
		return err
	}

	return tx.First(&License{}, "id = ?", i.LicenseID).Error
}

// Validate checks that the entitlement is not negative and that the balances
// are within the entitlement.
func (i ImportItem) Validate() error {
	if i.Quantity.IsNegative() || i.CIFValue.IsNegative() {
		return ErrItemEntitlementNegative
	}

	if i.BalanceQuantity.IsNegative() || i.BalanceCIFValue.IsNegative() ||
		i.BalanceQuantity.GreaterThan(i.Quantity) || i.BalanceCIFValue.GreaterThan(i.CIFValue) {
		return ErrItemBalanceOutOfRange
	}

	return nil
}

// AllottedQuantity is the quantity reserved by allotment lines.
func (i ImportItem) AllottedQuantity() decimal.Decimal {
	return i.Quantity.Sub(i.BalanceQuantity)
}

// AllottedCIFValue is the CIF value reserved by allotment lines.
func (i ImportItem) AllottedCIFValue() decimal.Decimal {
	return i.CIFValue.Sub(i.BalanceCIFValue)
}

// HasLines reports if any allotment line references the item.
func (i ImportItem) HasLines(tx *gorm.DB) (bool, error) {
	var count int64
	err := tx.Model(&AllotmentLine{}).Where("item_id = ?", i.ID).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// BeforeDelete refuses to delete import items that allotment lines reference.
func (i *ImportItem) BeforeDelete(tx *gorm.DB) error {
	hasLines, err := i.HasLines(tx)
	if err != nil {
		return err
	}

	if hasLines {
		return ErrItemHasLines
	}

	return nil
}
