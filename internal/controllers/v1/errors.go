package v1

import (
	"errors"
	"net/http"

	"github.com/licensedesk/backend/internal/ledger"
	"github.com/licensedesk/backend/internal/models"
)

type httpError struct {
	Error string `json:"error" example:"the specified resource ID is not a valid UUID"`
}

// status returns the appropriate status for an error
func status(err error) int {
	switch {
	case errors.Is(err, models.ErrGeneral):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrCeilingExceeded), errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		return http.StatusConflict
	}

	return http.StatusBadRequest
}

// Import item errors
var (
	errLicenseParameter   = errors.New("the license parameter must be set")
	errImportRowsRejected = errors.New("some rows of the file could not be imported")
)

// Allotment errors
var (
	errAllotmentPriceLocked  = errors.New("the unit price of an allotment cannot be changed while it has allotment lines")
	errRequiredBelowAllotted = errors.New("the required quantity and value cannot be lower than what is allotted")
)

// Allot errors
var (
	errAllotTarget = errors.New("row and allotment must be set to the IDs of an import item and an allotment")
)
