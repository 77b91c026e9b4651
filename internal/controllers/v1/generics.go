package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/ledger"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

// resourceOptionsDetail returns the appropriate response for an HTTP OPTIONS request for a specific resource.
func resourceOptionsDetail[R models.License | models.ImportItem | models.Allotment | models.AllotmentLine](c *gin.Context, resource R, options gin.HandlerFunc) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&resource, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	options(c)
}

// tolerance returns the value tolerance for allotments set by the router.
func tolerance(c *gin.Context) decimal.Decimal {
	if t, ok := c.Get(string(models.DBContextTolerance)); ok {
		if d, ok := t.(decimal.Decimal); ok {
			return d
		}
	}

	return ledger.DefaultTolerance
}

// engine returns the allotment engine for a request.
func engine(c *gin.Context) *ledger.Engine {
	return ledger.New(models.DB).WithTolerance(tolerance(c))
}
