package ledger

import (
	"errors"

	"github.com/licensedesk/backend/internal/models"
)

var (
	// ErrNotFound is returned when the import item, allotment or allotment line does not exist.
	// It wraps models.ErrResourceNotFound.
	ErrNotFound = models.ErrResourceNotFound

	// ErrInvalidRequest is returned when neither quantity nor value are set, or when they cannot be used.
	ErrInvalidRequest = errors.New("an allotment quantity or an allotment value must be set")

	// ErrCeilingExceeded is returned when the allotment would exceed its required quantity or value.
	ErrCeilingExceeded = errors.New("the allotment would exceed its required quantity or value")

	// ErrInsufficientBalance is returned when the import item does not have enough quantity or value left.
	ErrInsufficientBalance = errors.New("the import item does not have enough balance quantity or value")

	// ErrEntitlementLocked is returned when the entitlement of an import item is changed while
	// allotment lines reference it.
	ErrEntitlementLocked = errors.New("the quantity and CIF value of an import item cannot be changed while allotment lines reference it")

	// ErrConcurrencyConflict is returned when another commit changed the import item or allotment
	// between reading and writing them.
	ErrConcurrencyConflict = errors.New("the import item or allotment was changed by another request, please try again")
)

// Message returns the message shown to users for an error of the engine.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrCeilingExceeded):
		return "Please Reduce Allotment Exceed Required"
	case errors.Is(err, ErrInsufficientBalance):
		return "Insufficient Value or Quantity"
	case errors.Is(err, ErrConcurrencyConflict):
		return "The license balance changed while processing your request, please try again"
	}

	return err.Error()
}
