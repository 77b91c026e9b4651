package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

type AllotmentLineLinks struct {
	Self      string `json:"self" example:"https://example.com/api/v1/allotment-lines/9b3a0f4e-1d2c-4b5a-8e7f-6a5b4c3d2e1f"` // The allotment line itself
	Item      string `json:"item" example:"https://example.com/api/v1/import-items/0d4b0a35-53a5-4d3e-8c2a-7b0a4c1bd1a7"`    // The import item
	Allotment string `json:"allotment" example:"https://example.com/api/v1/allotments/5ac1a4f1-7a2f-4a0b-9d6a-1f2b3c4d5e6f"` // The allotment
}

// AllotmentLine is the quantity and CIF value of an import item reserved for an allotment.
// Allotment lines are created and replaced with the allot endpoint.
type AllotmentLine struct {
	ID          uuid.UUID          `json:"id" example:"9b3a0f4e-1d2c-4b5a-8e7f-6a5b4c3d2e1f"`          // UUID for the allotment line
	CreatedAt   time.Time          `json:"createdAt" example:"2024-05-02T10:28:44.491514Z"`            // Time the allotment line was created
	UpdatedAt   time.Time          `json:"updatedAt" example:"2024-05-03T08:14:01.048145Z"`            // Last time the allotment line was replaced
	ItemID      uuid.UUID          `json:"itemId" example:"0d4b0a35-53a5-4d3e-8c2a-7b0a4c1bd1a7"`      // ID of the import item
	AllotmentID uuid.UUID          `json:"allotmentId" example:"5ac1a4f1-7a2f-4a0b-9d6a-1f2b3c4d5e6f"` // ID of the allotment
	Quantity    decimal.Decimal    `json:"quantity" example:"200"`                                     // Reserved quantity
	CIFValue    decimal.Decimal    `json:"cifValue" example:"1000"`                                    // Reserved CIF value
	Links       AllotmentLineLinks `json:"links"`
}

func newAllotmentLine(c *gin.Context, model models.AllotmentLine) AllotmentLine {
	url := c.GetString(string(models.DBContextURL))

	return AllotmentLine{
		ID:          model.ID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		ItemID:      model.ItemID,
		AllotmentID: model.AllotmentID,
		Quantity:    model.Quantity,
		CIFValue:    model.CIFValue,
		Links: AllotmentLineLinks{
			Self:      fmt.Sprintf("%s/v1/allotment-lines/%s", url, model.ID),
			Item:      fmt.Sprintf("%s/v1/import-items/%s", url, model.ItemID),
			Allotment: fmt.Sprintf("%s/v1/allotments/%s", url, model.AllotmentID),
		},
	}
}

type AllotmentLineListResponse struct {
	Data       []AllotmentLine `json:"data"`                                                          // List of allotment lines
	Error      *string         `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination     `json:"pagination"`                                                    // Pagination information
}

type AllotmentLineResponse struct {
	Data  *AllotmentLine `json:"data"`                                                          // Data for the allotment line
	Error *string        `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type AllotmentLineQueryFilter struct {
	ItemID      string `form:"item"`                       // By ID of the import item
	AllotmentID string `form:"allotment"`                  // By ID of the allotment
	Offset      uint   `form:"offset" filterField:"false"` // The offset of the first allotment line returned. Defaults to 0.
	Limit       int    `form:"limit" filterField:"false"`  // Maximum number of allotment lines to return. Defaults to 50.
}

func (f AllotmentLineQueryFilter) model() (models.AllotmentLine, error) {
	itemID, err := httputil.UUIDFromString(f.ItemID)
	if err != nil {
		return models.AllotmentLine{}, err
	}

	allotmentID, err := httputil.UUIDFromString(f.AllotmentID)
	if err != nil {
		return models.AllotmentLine{}, err
	}

	return models.AllotmentLine{
		ItemID:      itemID,
		AllotmentID: allotmentID,
	}, nil
}
