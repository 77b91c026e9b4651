package v1

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/ledger"
	ledger_uuid "github.com/licensedesk/backend/internal/uuid"
	"github.com/shopspring/decimal"
)

// AllotRequest allots an import item to an allotment. Either the quantity or the value is set,
// the other one is derived with the unit price of the allotment.
type AllotRequest struct {
	Row               ledger_uuid.UUID `json:"row" form:"row" swaggertype:"string" example:"0d4b0a35-53a5-4d3e-8c2a-7b0a4c1bd1a7"`             // ID of the import item
	Allotment         ledger_uuid.UUID `json:"allotment" form:"allotment" swaggertype:"string" example:"5ac1a4f1-7a2f-4a0b-9d6a-1f2b3c4d5e6f"` // ID of the allotment
	AllotmentQuantity float64          `json:"allotment_quantity" form:"allotment_quantity" example:"200" default:"0"`                         // Quantity to allot
	AllotmentValue    float64          `json:"allotment_value" form:"allotment_value" example:"0" default:"0"`                                 // CIF value to allot
}

// AllotResponse is the state after a successful allotment.
type AllotResponse struct {
	AllotmentQuantity  float64 `json:"allotment_quantity" example:"200"`   // Quantity of the allotment line
	AllotmentValue     float64 `json:"allotment_value" example:"1000"`     // CIF value of the allotment line
	AllotedQuantity    float64 `json:"alloted_quantity" example:"800"`     // Allotted quantity of the allotment over all lines
	BalanceQuantity    float64 `json:"balance_quantity" example:"200"`     // Quantity the allotment still requires
	IndBalanceQuantity float64 `json:"ind_balance_quantity" example:"800"` // Balance quantity of the import item
	IndBalanceValue    float64 `json:"ind_balance_value" example:"4000"`   // Balance CIF value of the import item
	Message            string  `json:"message" example:"Allotment Done Sucessfully"`
	Status             bool    `json:"status" example:"true"`
}

// AllotRejection is returned when an allotment is not possible.
type AllotRejection struct {
	Message string `json:"message" example:"Insufficient Value or Quantity"` // The reason
	Status  bool   `json:"status" example:"false"`
}

// RegisterAllotRoutes registers the allot endpoint with the RouterGroup that is passed.
func RegisterAllotRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsAllot)
	r.POST("", Allot)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allot
// @Success		204
// @Router			/v1/allot [options]
func OptionsAllot(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allot an import item
// @Description	Reserves quantity and CIF value of an import item for an allotment. An existing line for the
// @Description	same import item and allotment is replaced. The allotment must not exceed its required quantity
// @Description	and value and the import item must have enough balance.
// @Tags			Allot
// @Accept			json,x-www-form-urlencoded
// @Produce		json
// @Success		200		{object}	AllotResponse
// @Failure		400		{object}	AllotRejection
// @Failure		404		{object}	AllotRejection
// @Failure		409		{object}	AllotRejection
// @Failure		422		{object}	AllotRejection
// @Failure		500		{object}	AllotRejection
// @Param			request	body		AllotRequest	true	"Allotment request"
// @Router			/v1/allot [post]
func Allot(c *gin.Context) {
	var request AllotRequest

	err := httputil.BindBody(c, &request)
	if err == nil && (!request.Row.IsSet() || !request.Allotment.IsSet()) {
		err = errAllotTarget
	}

	if err != nil {
		c.JSON(status(err), AllotRejection{
			Message: err.Error(),
		})
		return
	}

	quantity, err := amount(request.AllotmentQuantity)
	if err != nil {
		c.JSON(status(err), AllotRejection{Message: err.Error()})
		return
	}

	value, err := amount(request.AllotmentValue)
	if err != nil {
		c.JSON(status(err), AllotRejection{Message: err.Error()})
		return
	}

	result, err := engine(c).Allot(c.Request.Context(), ledger.Command{
		ItemID:      request.Row.UUID,
		AllotmentID: request.Allotment.UUID,
		Quantity:    quantity,
		Value:       value,
	})
	if err != nil {
		c.JSON(status(err), AllotRejection{
			Message: ledger.Message(err),
		})
		return
	}

	c.JSON(http.StatusOK, AllotResponse{
		AllotmentQuantity:  result.Line.Quantity.InexactFloat64(),
		AllotmentValue:     result.Line.CIFValue.InexactFloat64(),
		AllotedQuantity:    result.Allotment.AllottedQuantity.InexactFloat64(),
		BalanceQuantity:    result.Allotment.BalanceQuantity().InexactFloat64(),
		IndBalanceQuantity: result.Item.BalanceQuantity.InexactFloat64(),
		IndBalanceValue:    result.Item.BalanceCIFValue.InexactFloat64(),
		Message:            "Allotment Done Sucessfully",
		Status:             true,
	})
}

// amount converts a requested quantity or value. Form values like "NaN" and
// "Inf" parse as floats but have no decimal representation.
func amount(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v is not a number", ledger.ErrInvalidRequest, f)
	}

	return decimal.NewFromFloat(f), nil
}
