package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// LicenseKind is the scheme a license was issued under.
type LicenseKind string

const (
	LicenseKindDFIA    LicenseKind = "DFIA"
	LicenseKindAdvance LicenseKind = "ADVANCE"
)

var ErrLicenseKindInvalid = errors.New("the license kind must be DFIA or ADVANCE")

// License is a government-issued import entitlement. Its import items
// carry the quantity and CIF value that can be allotted.
type License struct {
	DefaultModel
	Number    string `gorm:"uniqueIndex:license_number"`
	Kind      LicenseKind
	Port      string // Port of registration
	Exporter  string
	IssuedOn  *time.Time
	ExpiresOn *time.Time
	Note      string
}

func (l *License) BeforeSave(_ *gorm.DB) error {
	l.Number = strings.TrimSpace(l.Number)
	l.Port = strings.TrimSpace(l.Port)
	l.Exporter = strings.TrimSpace(l.Exporter)
	l.Note = strings.TrimSpace(l.Note)
	l.Kind = LicenseKind(strings.ToUpper(strings.TrimSpace(string(l.Kind))))

	if l.Kind == "" {
		l.Kind = LicenseKindDFIA
	}

	return nil
}

func (l *License) BeforeCreate(tx *gorm.DB) error {
	_ = l.DefaultModel.BeforeCreate(tx)
	return l.Validate()
}

// Validate checks the license fields that do not depend on other resources.
func (l License) Validate() error {
	if strings.TrimSpace(l.Number) == "" {
		return ErrLicenseNumberEmpty
	}

	if l.Kind != "" && l.Kind != LicenseKindDFIA && l.Kind != LicenseKindAdvance {
		return ErrLicenseKindInvalid
	}

	if l.IssuedOn != nil && l.ExpiresOn != nil && l.ExpiresOn.Before(*l.IssuedOn) {
		return ErrLicenseExpiryBeforeIssue
	}

	return nil
}

// BeforeDelete refuses to delete licenses that still have import items.
func (l *License) BeforeDelete(tx *gorm.DB) error {
	var count int64
	err := tx.Model(&ImportItem{}).Where("license_id = ?", l.ID).Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrLicenseHasItems
	}

	return nil
}
