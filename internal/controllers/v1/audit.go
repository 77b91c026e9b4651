package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/ledger"
	"github.com/licensedesk/backend/internal/models"
)

type AuditResponse struct {
	Data  []ledger.Drift `json:"data"`                                                                // Import items where the balance does not match the allotment lines
	Error *string        `json:"error" example:"an error occurred on the server during your request"` // The error, if any occurred
}

// RegisterAuditRoutes registers the audit endpoint with the RouterGroup that is passed.
func RegisterAuditRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsAudit)
	r.GET("", GetAudit)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Audit
// @Success		204
// @Router			/v1/audit [options]
func OptionsAudit(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Audit balances
// @Description	Recomputes the balance of every import item from its allotment lines and
// @Description	returns the items where the stored balance differs. An empty list means all balances are consistent.
// @Tags			Audit
// @Produce		json
// @Success		200	{object}	AuditResponse
// @Failure		500	{object}	AuditResponse
// @Router			/v1/audit [get]
func GetAudit(c *gin.Context) {
	drifts, err := ledger.Audit(c.Request.Context(), models.DB)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AuditResponse{Error: &s})
		return
	}

	c.JSON(http.StatusOK, AuditResponse{Data: drifts})
}
