package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

// AllotmentEditable represents all user configurable parameters
type AllotmentEditable struct {
	Company          string          `json:"company" example:"Shree Polymers" default:""`                    // The buyer the allotment is made for
	Goods            string          `json:"goods" example:"Polypropylene granules" default:""`              // Description of the goods
	RequiredQuantity decimal.Decimal `json:"requiredQuantity" example:"1000" default:"0"`                    // Quantity to be allotted
	RequiredValue    decimal.Decimal `json:"requiredValue" example:"5000" default:"0"`                       // CIF value to be allotted, in foreign currency
	UnitPrice        decimal.Decimal `json:"unitPrice" example:"5" default:"0"`                              // CIF value per unit. Derived from required value and quantity if not set
	ExchangeRate     decimal.Decimal `json:"exchangeRate" example:"83.25" default:"0"`                       // Rate to convert the CIF value to INR
	EstimatedArrival *time.Time      `json:"estimatedArrival" example:"2024-06-15T00:00:00Z"`                // Estimated arrival of the shipment
	Note             string          `json:"note" example:"Shipment via Nhava Sheva, BL pending" default:""` // A note
}

func (editable AllotmentEditable) model() models.Allotment {
	return models.Allotment{
		Company:          editable.Company,
		Goods:            editable.Goods,
		RequiredQuantity: editable.RequiredQuantity,
		RequiredValue:    editable.RequiredValue,
		UnitPrice:        editable.UnitPrice,
		ExchangeRate:     editable.ExchangeRate,
		EstimatedArrival: editable.EstimatedArrival,
		Note:             editable.Note,
	}
}

type AllotmentLinks struct {
	Self  string `json:"self" example:"https://example.com/api/v1/allotments/5ac1a4f1-7a2f-4a0b-9d6a-1f2b3c4d5e6f"`                 // The allotment itself
	Lines string `json:"lines" example:"https://example.com/api/v1/allotment-lines?allotment=5ac1a4f1-7a2f-4a0b-9d6a-1f2b3c4d5e6f"` // Allotment lines of the allotment
	Allot string `json:"allot" example:"https://example.com/api/v1/allot"`                                                          // Endpoint to allot import items
}

type Allotment struct {
	models.DefaultModel
	AllotmentEditable
	AllottedQuantity decimal.Decimal `json:"allottedQuantity" example:"800"`    // Sum of the quantity of all allotment lines
	AllottedValue    decimal.Decimal `json:"allottedValue" example:"4000"`      // Sum of the CIF value of all allotment lines
	BalanceQuantity  decimal.Decimal `json:"balanceQuantity" example:"200"`     // Quantity that still needs to be allotted
	BalanceValue     decimal.Decimal `json:"balanceValue" example:"1000"`       // CIF value that still needs to be allotted
	AllottedValueINR decimal.Decimal `json:"allottedValueInr" example:"333000"` // Allotted CIF value converted with the exchange rate, zero without exchange rate
	IsAllotted       bool            `json:"isAllotted" example:"false"`        // If the allotment is fully served
	Version          uint64          `json:"version" example:"4"`               // Incremented with every change of the allotment lines
	Links            AllotmentLinks  `json:"links"`
}

// newAllotment returns the API representation of an allotment. The model must
// contain the allotted totals.
func newAllotment(c *gin.Context, model models.Allotment) Allotment {
	url := c.GetString(string(models.DBContextURL))

	return Allotment{
		DefaultModel: model.DefaultModel,
		AllotmentEditable: AllotmentEditable{
			Company:          model.Company,
			Goods:            model.Goods,
			RequiredQuantity: model.RequiredQuantity,
			RequiredValue:    model.RequiredValue,
			UnitPrice:        model.UnitPrice,
			ExchangeRate:     model.ExchangeRate,
			EstimatedArrival: model.EstimatedArrival,
			Note:             model.Note,
		},
		AllottedQuantity: model.AllottedQuantity,
		AllottedValue:    model.AllottedValue,
		BalanceQuantity:  model.BalanceQuantity(),
		BalanceValue:     model.BalanceValue(),
		AllottedValueINR: model.AllottedValue.Mul(model.ExchangeRate).Round(2),
		IsAllotted:       model.IsAllotted(tolerance(c)),
		Version:          model.Version,
		Links: AllotmentLinks{
			Self:  fmt.Sprintf("%s/v1/allotments/%s", url, model.ID),
			Lines: fmt.Sprintf("%s/v1/allotment-lines?allotment=%s", url, model.ID),
			Allot: fmt.Sprintf("%s/v1/allot", url),
		},
	}
}

type AllotmentListResponse struct {
	Data       []Allotment `json:"data"`                                                          // List of allotments
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type AllotmentCreateResponse struct {
	Data  []AllotmentResponse `json:"data"`                                                          // List of the created allotments or their respective error
	Error *string             `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (a *AllotmentCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	a.Data = append(a.Data, AllotmentResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type AllotmentResponse struct {
	Data  *Allotment `json:"data"`                                                          // Data for the allotment
	Error *string    `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type AllotmentQueryFilter struct {
	Company string `form:"company" filterField:"false"` // By company
	Goods   string `form:"goods" filterField:"false"`   // By goods
	Search  string `form:"search" filterField:"false"`  // By string in company, goods or note
	Offset  uint   `form:"offset" filterField:"false"`  // The offset of the first allotment returned. Defaults to 0.
	Limit   int    `form:"limit" filterField:"false"`   // Maximum number of allotments to return. Defaults to 50.
}
