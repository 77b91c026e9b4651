package ledger

import (
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Decision is an accepted allotment request.
type Decision struct {
	Quantity          decimal.Decimal // Quantity of the line to commit
	Value             decimal.Decimal // CIF value of the line to commit
	AllotmentQuantity decimal.Decimal // Allotted quantity of the allotment after the commit
	AllotmentValue    decimal.Decimal // Allotted CIF value of the allotment after the commit
}

// Decide checks a request against the allotment's required totals and the
// import item's balance.
//
// The value ceiling of the allotment accepts the tolerance on top of the
// required value, the quantity ceiling is strict.
//
// The committed quantity is the requested quantity truncated to an integer.
// The committed value is the untruncated requested quantity times the unit
// price, rounded to two decimal places.
func Decide(b Balance, allotment models.Allotment, r Request, tolerance decimal.Decimal) (Decision, error) {
	err := CheckCeiling(allotment, b.AllottedQuantity.Add(r.Quantity), b.AllottedValue.Add(r.Value), tolerance)
	if err != nil {
		return Decision{}, err
	}

	quantity := r.Quantity.Truncate(0)
	value := r.Quantity.Mul(allotment.UnitPrice).Round(2)

	if b.ItemQuantity.LessThan(r.Quantity) || b.ItemValue.LessThan(decimal.Max(r.Value, value)) {
		return Decision{}, ErrInsufficientBalance
	}

	return Decision{
		Quantity:          quantity,
		Value:             value,
		AllotmentQuantity: b.AllottedQuantity.Add(quantity),
		AllotmentValue:    b.AllottedValue.Add(value),
	}, nil
}

// CheckCeiling returns ErrCeilingExceeded if the allotted quantity or value
// exceed the required figures of the allotment.
func CheckCeiling(allotment models.Allotment, quantity, value, tolerance decimal.Decimal) error {
	if value.GreaterThan(allotment.RequiredValue.Add(tolerance)) || quantity.GreaterThan(allotment.RequiredQuantity) {
		return ErrCeilingExceeded
	}

	return nil
}
