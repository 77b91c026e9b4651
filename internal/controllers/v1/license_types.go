package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

// LicenseEditable represents all user configurable parameters
type LicenseEditable struct {
	Number    string             `json:"number" example:"0310823456" default:""`                       // License number, unique
	Kind      models.LicenseKind `json:"kind" example:"DFIA" default:"DFIA"`                           // DFIA or ADVANCE
	Port      string             `json:"port" example:"INNSA1" default:""`                             // Port of registration
	Exporter  string             `json:"exporter" example:"Acme Exports Pvt. Ltd." default:""`         // Exporter the license was issued to
	IssuedOn  *time.Time         `json:"issuedOn" example:"2024-04-01T00:00:00Z"`                      // Date of issue
	ExpiresOn *time.Time         `json:"expiresOn" example:"2025-03-31T00:00:00Z"`                     // Date of expiry
	Note      string             `json:"note" example:"Transferred from the Mumbai office" default:""` // A note
}

func (editable LicenseEditable) model() models.License {
	return models.License{
		Number:    editable.Number,
		Kind:      editable.Kind,
		Port:      editable.Port,
		Exporter:  editable.Exporter,
		IssuedOn:  editable.IssuedOn,
		ExpiresOn: editable.ExpiresOn,
		Note:      editable.Note,
	}
}

type LicenseLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/licenses/3b1ea324-d438-4419-882a-2fc91d71772f"`                      // The license itself
	ImportItems string `json:"importItems" example:"https://example.com/api/v1/import-items?license=3b1ea324-d438-4419-882a-2fc91d71772f"`   // Import items of the license
	Ledger      string `json:"ledger" example:"https://example.com/api/v1/licenses/3b1ea324-d438-4419-882a-2fc91d71772f/ledger"`             // Balances of the import items
	Import      string `json:"import" example:"https://example.com/api/v1/import-items/import?license=3b1ea324-d438-4419-882a-2fc91d71772f"` // Upload endpoint for import items
}

type License struct {
	models.DefaultModel
	LicenseEditable
	Links LicenseLinks `json:"links"`
}

func newLicense(c *gin.Context, model models.License) License {
	url := c.GetString(string(models.DBContextURL))

	return License{
		DefaultModel: model.DefaultModel,
		LicenseEditable: LicenseEditable{
			Number:    model.Number,
			Kind:      model.Kind,
			Port:      model.Port,
			Exporter:  model.Exporter,
			IssuedOn:  model.IssuedOn,
			ExpiresOn: model.ExpiresOn,
			Note:      model.Note,
		},
		Links: LicenseLinks{
			Self:        fmt.Sprintf("%s/v1/licenses/%s", url, model.ID),
			ImportItems: fmt.Sprintf("%s/v1/import-items?license=%s", url, model.ID),
			Ledger:      fmt.Sprintf("%s/v1/licenses/%s/ledger", url, model.ID),
			Import:      fmt.Sprintf("%s/v1/import-items/import?license=%s", url, model.ID),
		},
	}
}

type LicenseListResponse struct {
	Data       []License   `json:"data"`                                                          // List of licenses
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type LicenseCreateResponse struct {
	Data  []LicenseResponse `json:"data"`                                                          // List of the created licenses or their respective error
	Error *string           `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (l *LicenseCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	l.Data = append(l.Data, LicenseResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type LicenseResponse struct {
	Data  *License `json:"data"`                                                          // Data for the license
	Error *string  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type LicenseQueryFilter struct {
	Number   string             `form:"number" filterField:"false"`   // By license number
	Kind     models.LicenseKind `form:"kind"`                         // By kind
	Port     string             `form:"port"`                         // By port of registration
	Exporter string             `form:"exporter" filterField:"false"` // By exporter
	Search   string             `form:"search" filterField:"false"`   // By string in number, exporter or note
	Offset   uint               `form:"offset" filterField:"false"`   // The offset of the first license returned. Defaults to 0.
	Limit    int                `form:"limit" filterField:"false"`    // Maximum number of licenses to return. Defaults to 50.
}

func (f LicenseQueryFilter) model() models.License {
	return models.License{
		Kind: f.Kind,
		Port: f.Port,
	}
}

// LedgerItem is the balance of one import item of a license.
type LedgerItem struct {
	ID               uuid.UUID       `json:"id" example:"0d4b0a35-53a5-4d3e-8c2a-7b0a4c1bd1a7"` // ID of the import item
	SerialNumber     int             `json:"serialNumber" example:"1"`                          // Serial number on the license
	Description      string          `json:"description" example:"Polypropylene granules"`      // Description of the goods
	HSCode           string          `json:"hsCode" example:"39021000"`                         // HS code of the goods
	Unit             string          `json:"unit" example:"KGS"`                                // Unit of the quantity
	Quantity         decimal.Decimal `json:"quantity" example:"1000"`                           // Entitled quantity
	CIFValue         decimal.Decimal `json:"cifValue" example:"5000"`                           // Entitled CIF value
	AllottedQuantity decimal.Decimal `json:"allottedQuantity" example:"200"`                    // Quantity reserved by allotment lines
	AllottedCIFValue decimal.Decimal `json:"allottedCifValue" example:"1000"`                   // CIF value reserved by allotment lines
	BalanceQuantity  decimal.Decimal `json:"balanceQuantity" example:"800"`                     // Quantity that can still be allotted
	BalanceCIFValue  decimal.Decimal `json:"balanceCifValue" example:"4000"`                    // CIF value that can still be allotted
	Lines            int64           `json:"lines" example:"2"`                                 // Number of allotment lines
}

// LicenseLedger is the balance of all import items of a license.
type LicenseLedger struct {
	License          License         `json:"license"`                         // The license
	Items            []LedgerItem    `json:"items"`                           // Balances per import item
	CIFValue         decimal.Decimal `json:"cifValue" example:"5000"`         // Sum of the entitled CIF values
	AllottedCIFValue decimal.Decimal `json:"allottedCifValue" example:"1000"` // Sum of the allotted CIF values
	BalanceCIFValue  decimal.Decimal `json:"balanceCifValue" example:"4000"`  // Sum of the balance CIF values
}

type LicenseLedgerResponse struct {
	Data  *LicenseLedger `json:"data"`                                                          // Balances of the license
	Error *string        `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}
