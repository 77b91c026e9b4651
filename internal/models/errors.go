package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
)

// License errors
var (
	ErrLicenseNumberNotUnique   = errors.New("the license number must be unique")
	ErrLicenseNumberEmpty       = errors.New("the license number must not be empty")
	ErrLicenseHasItems          = errors.New("the license still has import items, delete them first")
	ErrLicenseExpiryBeforeIssue = errors.New("the license cannot expire before it is issued")
)

// Import item errors
var (
	ErrItemSerialNotUnique     = errors.New("the serial number must be unique for the license")
	ErrItemEntitlementNegative = errors.New("the quantity and CIF value of an import item must not be negative")
	ErrItemBalanceOutOfRange   = errors.New("the balance of an import item must be between zero and its entitlement")
	ErrItemHasLines            = errors.New("the import item is referenced by allotment lines, remove them first")
)

// Allotment errors
var (
	ErrAllotmentRequiredNegative = errors.New("the required quantity, required value and unit price must not be negative")
	ErrAllotmentLineNotUnique    = errors.New("there is already an allotment line for this import item and allotment")
)
