package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/models"
)

type Response struct {
	Links Links `json:"links"` // Links for the v1 API
}

type Links struct {
	Licenses       string `json:"licenses" example:"https://example.com/api/v1/licenses"`              // URL of license list endpoint
	ImportItems    string `json:"importItems" example:"https://example.com/api/v1/import-items"`       // URL of import item list endpoint
	Allotments     string `json:"allotments" example:"https://example.com/api/v1/allotments"`          // URL of allotment list endpoint
	AllotmentLines string `json:"allotmentLines" example:"https://example.com/api/v1/allotment-lines"` // URL of allotment line list endpoint
	Allot          string `json:"allot" example:"https://example.com/api/v1/allot"`                    // URL of the allot endpoint
	Audit          string `json:"audit" example:"https://example.com/api/v1/audit"`                    // URL of the balance audit
	Balances       string `json:"balances" example:"https://example.com/api/v1/reports/balances"`      // URL of the balance report
}

// RegisterRoutes registers the v1 API with the RouterGroup that is passed.
func RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", Get)
	r.OPTIONS("", Options)

	RegisterLicenseRoutes(r.Group("/licenses"))
	RegisterImportItemRoutes(r.Group("/import-items"))
	RegisterAllotmentRoutes(r.Group("/allotments"))
	RegisterAllotmentLineRoutes(r.Group("/allotment-lines"))
	RegisterAllotRoutes(r.Group("/allot"))
	RegisterAuditRoutes(r.Group("/audit"))
	RegisterReportRoutes(r.Group("/reports"))
}

// @Summary		v1 API
// @Description	Returns general information about the v1 API
// @Tags			v1
// @Success		200	{object}	Response
// @Router			/v1 [get]
func Get(c *gin.Context) {
	url := c.GetString(string(models.DBContextURL))

	c.JSON(http.StatusOK, Response{
		Links: Links{
			Licenses:       url + "/v1/licenses",
			ImportItems:    url + "/v1/import-items",
			Allotments:     url + "/v1/allotments",
			AllotmentLines: url + "/v1/allotment-lines",
			Allot:          url + "/v1/allot",
			Audit:          url + "/v1/audit",
			Balances:       url + "/v1/reports/balances",
		},
	})
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			v1
// @Success		204
// @Router			/v1 [options]
func Options(c *gin.Context) {
	httputil.OptionsGet(c)
}
