package router

import (
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	docs "github.com/licensedesk/backend/api"
	"github.com/licensedesk/backend/internal/controllers/healthz"
	"github.com/licensedesk/backend/internal/controllers/root"
	v1 "github.com/licensedesk/backend/internal/controllers/v1"
	"github.com/licensedesk/backend/internal/controllers/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// This is set at build time, see Makefile.
var buildVersion = "0.0.0"

type errorResponse struct {
	Error string `json:"error"`
}

// Config creates the gin engine with all middlewares. tolerance is the value
// tolerance for allotments. The returned function unregisters the Prometheus
// metrics and must be called once the engine is discarded.
func Config(url *url.URL, tolerance decimal.Decimal) (*gin.Engine, func(), error) {
	r := gin.New()

	// Client IPs are never used, so neither forwarding headers nor proxies are trusted
	r.ForwardedByClientIP = false
	_ = r.SetTrustedProxies([]string{})

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{
			Error: "This HTTP method is not allowed for the endpoint you called",
		})
	})

	r.Use(
		gin.Recovery(),
		requestid.New(),
		URLMiddleware(url),
		ToleranceMiddleware(tolerance),
		MetricsMiddleware(),
		requestLogger(),
	)

	if origins, ok := os.LookupEnv("CORS_ALLOW_ORIGINS"); ok {
		r.Use(corsMiddleware(origins))
	}

	// Route registration output only clutters the (test) logs
	gin.DebugPrintRouteFunc = func(_, _, _ string, _ int) {}

	log.Debug().Str("url", url.String()).Msg("Router")
	log.Info().Str("version", buildVersion).Str("tolerance", tolerance.String()).Msg("Router")

	docs.SwaggerInfo.Host = url.Host
	docs.SwaggerInfo.BasePath = url.Path
	docs.SwaggerInfo.Title = "License Ledger"
	docs.SwaggerInfo.Version = buildVersion
	docs.SwaggerInfo.Description = "The backend for tracking DFIA and advance license balances and their allotment to shipments."

	err := registerMetrics()
	if err != nil {
		return nil, func() {}, err
	}

	return r, func() { unregisterMetrics() }, nil
}

// requestLogger logs every request with its request id. Client errors are
// expected during normal operation and logged at info level.
func requestLogger() gin.HandlerFunc {
	return logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithLogger(func(c *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.With().
				Str("request-id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Int("size", c.Writer.Size()).
				Logger()
		}))
}

// corsMiddleware allows the space separated origins.
func corsMiddleware(origins string) gin.HandlerFunc {
	log.Debug().Str("origins", origins).Msg("CORS")

	return cors.New(cors.Config{
		AllowOrigins:     strings.Fields(origins),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		AllowCredentials: true,
	})
}

// AttachRoutes registers all routes on group.
func AttachRoutes(group *gin.RouterGroup) {
	group.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if os.Getenv("ENABLE_PPROF") == "true" {
		pprof.RouteRegister(group, "debug/pprof")
	}

	group.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	root.RegisterRoutes(group.Group(""))
	healthz.RegisterRoutes(group.Group("/healthz"))
	version.RegisterRoutes(group.Group("/version"), buildVersion)
	v1.RegisterRoutes(group.Group("/v1"))
}
