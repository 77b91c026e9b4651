package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/models"
	"github.com/licensedesk/backend/internal/report"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RegisterReportRoutes registers the report endpoints with the RouterGroup that is passed.
func RegisterReportRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/balances", OptionsBalanceReport)
	r.GET("/balances", GetBalanceReport)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Reports
// @Success		204
// @Router			/v1/reports/balances [options]
func OptionsBalanceReport(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Balance report
// @Description	Returns an Excel workbook with the balance of every import item and a summary per license
// @Tags			Reports
// @Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success		200
// @Failure		400		{object}	httpError
// @Failure		404		{object}	httpError
// @Failure		500		{object}	httpError
// @Param			license	query		string	false	"Only include the license with this ID"
// @Router			/v1/reports/balances [get]
func GetBalanceReport(c *gin.Context) {
	licenseID, err := httputil.UUIDFromString(c.Query("license"))
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	f, err := report.Balances(c.Request.Context(), models.DB, licenseID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("balances-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)

	_, err = f.WriteTo(c.Writer)
	if err != nil {
		log.Error().Err(err).Msg("writing balance report")
	}
}
