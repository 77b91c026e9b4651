package v1

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

// ImportItemEditable represents all user configurable parameters
type ImportItemEditable struct {
	LicenseID    uuid.UUID       `json:"licenseId" example:"3b1ea324-d438-4419-882a-2fc91d71772f"` // ID of the license the item belongs to
	SerialNumber int             `json:"serialNumber" example:"1"`                                 // Serial number on the license, unique per license
	Description  string          `json:"description" example:"Polypropylene granules" default:""`  // Description of the goods
	HSCode       string          `json:"hsCode" example:"39021000" default:""`                     // HS code of the goods
	Unit         string          `json:"unit" example:"KGS" default:""`                            // Unit of the quantity
	Quantity     decimal.Decimal `json:"quantity" example:"1000" default:"0"`                      // Entitled quantity
	CIFValue     decimal.Decimal `json:"cifValue" example:"5000" default:"0"`                      // Entitled CIF value in foreign currency
}

func (editable ImportItemEditable) model() models.ImportItem {
	return models.ImportItem{
		LicenseID:    editable.LicenseID,
		SerialNumber: editable.SerialNumber,
		Description:  editable.Description,
		HSCode:       editable.HSCode,
		Unit:         editable.Unit,
		Quantity:     editable.Quantity,
		CIFValue:     editable.CIFValue,
	}
}

type ImportItemLinks struct {
	Self           string `json:"self" example:"https://example.com/api/v1/import-items/0d4b0a35-53a5-4d3e-8c2a-7b0a4c1bd1a7"`                   // The import item itself
	License        string `json:"license" example:"https://example.com/api/v1/licenses/3b1ea324-d438-4419-882a-2fc91d71772f"`                    // The license of the import item
	AllotmentLines string `json:"allotmentLines" example:"https://example.com/api/v1/allotment-lines?item=0d4b0a35-53a5-4d3e-8c2a-7b0a4c1bd1a7"` // Allotment lines reserving parts of the import item
}

type ImportItem struct {
	models.DefaultModel
	ImportItemEditable
	BalanceQuantity  decimal.Decimal `json:"balanceQuantity" example:"800"`   // Quantity that can still be allotted
	BalanceCIFValue  decimal.Decimal `json:"balanceCifValue" example:"4000"`  // CIF value that can still be allotted
	AllottedQuantity decimal.Decimal `json:"allottedQuantity" example:"200"`  // Quantity reserved by allotment lines
	AllottedCIFValue decimal.Decimal `json:"allottedCifValue" example:"1000"` // CIF value reserved by allotment lines
	Version          uint64          `json:"version" example:"3"`             // Incremented with every change of the balance
	Links            ImportItemLinks `json:"links"`
}

func newImportItem(c *gin.Context, model models.ImportItem) ImportItem {
	url := c.GetString(string(models.DBContextURL))

	return ImportItem{
		DefaultModel: model.DefaultModel,
		ImportItemEditable: ImportItemEditable{
			LicenseID:    model.LicenseID,
			SerialNumber: model.SerialNumber,
			Description:  model.Description,
			HSCode:       model.HSCode,
			Unit:         model.Unit,
			Quantity:     model.Quantity,
			CIFValue:     model.CIFValue,
		},
		BalanceQuantity:  model.BalanceQuantity,
		BalanceCIFValue:  model.BalanceCIFValue,
		AllottedQuantity: model.AllottedQuantity(),
		AllottedCIFValue: model.AllottedCIFValue(),
		Version:          model.Version,
		Links: ImportItemLinks{
			Self:           fmt.Sprintf("%s/v1/import-items/%s", url, model.ID),
			License:        fmt.Sprintf("%s/v1/licenses/%s", url, model.LicenseID),
			AllotmentLines: fmt.Sprintf("%s/v1/allotment-lines?item=%s", url, model.ID),
		},
	}
}

type ImportItemListResponse struct {
	Data       []ImportItem `json:"data"`                                                          // List of import items
	Error      *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination  `json:"pagination"`                                                    // Pagination information
}

type ImportItemCreateResponse struct {
	Data  []ImportItemResponse `json:"data"`                                                          // List of the created import items or their respective error
	Error *string              `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (i *ImportItemCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	i.Data = append(i.Data, ImportItemResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type ImportItemResponse struct {
	Data  *ImportItem `json:"data"`                                                          // Data for the import item
	Error *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type ImportItemQueryFilter struct {
	LicenseID string `form:"license"`                    // By ID of the license
	Unit      string `form:"unit"`                       // By unit
	HSCode    string `form:"hsCode" filterField:"false"` // By HS code. "*" matches any characters, e.g. "3902*"
	Search    string `form:"search" filterField:"false"` // By string in description or HS code
	Offset    uint   `form:"offset" filterField:"false"` // The offset of the first import item returned. Defaults to 0.
	Limit     int    `form:"limit" filterField:"false"`  // Maximum number of import items to return. Defaults to 50.
}

func (f ImportItemQueryFilter) model() (models.ImportItem, error) {
	licenseID, err := httputil.UUIDFromString(f.LicenseID)
	if err != nil {
		return models.ImportItem{}, err
	}

	return models.ImportItem{
		LicenseID: licenseID,
		Unit:      strings.ToUpper(f.Unit),
	}, nil
}

type ImportItemImportResponse struct {
	Data  []ImportItemResponse `json:"data"`                                                        // The created import items or the error for each rejected row
	Error *string              `json:"error" example:"some rows of the file could not be imported"` // The error, if any occurred
}
