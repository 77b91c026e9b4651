package version

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/httputil"
	"github.com/licensedesk/backend/internal/models"
)

// Version of the backend, set by RegisterRoutes.
var apiVersion = "0.0.0"

type Response struct {
	Data Object `json:"data"` // Data object for the version endpoint
}

type Object struct {
	Version  string `json:"version" example:"1.4.0"`   // The running version of the backend
	Go       string `json:"go" example:"go1.25.5"`     // Go version the backend was built with
	Database string `json:"database" example:"sqlite"` // Database driver in use, empty if not connected
}

// RegisterRoutes registers the version endpoint. The version is set at build
// time, see the Makefile.
func RegisterRoutes(r *gin.RouterGroup, version string) {
	apiVersion = version

	r.GET("", Get)
	r.OPTIONS("", Options)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			General
// @Success		204
// @Router			/version [options]
func Options(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Backend version
// @Description	Returns the software version of the backend and the database driver it uses
// @Tags			General
// @Success		200	{object}	Response
// @Router			/version [get]
func Get(c *gin.Context) {
	var database string
	if models.DB != nil {
		database = models.DB.Dialector.Name()
	}

	c.JSON(http.StatusOK, Response{
		Data: Object{
			Version:  apiVersion,
			Go:       runtime.Version(),
			Database: database,
		},
	})
}
