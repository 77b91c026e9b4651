package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Request is a requested allotment where both quantity and value are known.
type Request struct {
	Quantity decimal.Decimal
	Value    decimal.Decimal
}

// Derive completes a requested allotment that was entered either by quantity
// or by value.
//
// If the quantity is set, the value is the quantity times the unit price,
// rounded half up to two decimal places. Otherwise, the quantity is the value
// divided by the unit price.
func Derive(quantity, value, unitPrice decimal.Decimal) (Request, error) {
	if quantity.IsNegative() || value.IsNegative() {
		return Request{}, fmt.Errorf("%w: quantity and value must not be negative", ErrInvalidRequest)
	}

	if !quantity.IsZero() {
		return Request{
			Quantity: quantity,
			Value:    quantity.Mul(unitPrice).Round(2),
		}, nil
	}

	if value.IsZero() {
		return Request{}, ErrInvalidRequest
	}

	if !unitPrice.IsPositive() {
		return Request{}, fmt.Errorf("%w: the allotment has no unit price to derive the quantity from the value", ErrInvalidRequest)
	}

	return Request{
		Quantity: value.Div(unitPrice),
		Value:    value,
	}, nil
}
