package router

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/audit"
	"github.com/licensedesk/backend/internal/ledger"
	"github.com/licensedesk/backend/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func URLMiddleware(url *url.URL) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(models.DBContextURL), url.String())
		c.Next()
	}
}

// ToleranceMiddleware sets the value tolerance used for allotments.
func ToleranceMiddleware(tolerance decimal.Decimal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(models.DBContextTolerance), tolerance)
		c.Next()
	}
}

var requestCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "requests_total",
		Help: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	},
	[]string{"code", "method", "url"},
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "request_duration_seconds",
		Help: "The HTTP request latencies in seconds.",
	},
	[]string{"code", "method", "url"},
)

// metrics returns all collectors exposed on /metrics.
func metrics() []prometheus.Collector {
	collectors := []prometheus.Collector{requestCount, requestDuration}
	collectors = append(collectors, ledger.Collectors()...)
	return append(collectors, audit.Collectors()...)
}

// registerMetrics registers all Prometheus metrics with the default registry.
// Collectors that are already registered are skipped.
func registerMetrics() error {
	for _, c := range metrics() {
		err := prometheus.Register(c)

		var alreadyRegistered prometheus.AlreadyRegisteredError
		if err != nil && !errors.As(err, &alreadyRegistered) {
			return fmt.Errorf("could not register %s with Prometheus: %w", c, err)
		}
	}

	return nil
}

// unregisterMetrics unregisters all Prometheus metrics.
//
// This is needed to cleanly exit.
func unregisterMetrics() bool {
	ok := true
	for _, c := range metrics() {
		ok = prometheus.Unregister(c) && ok
	}

	return ok
}

// MetricsMiddleware updates Prometheus metrics.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := float64(time.Since(start)) / float64(time.Second)

		// Replace all URL parameters with their name to reduce cardinality
		// https://prometheus.io/docs/practices/naming/#labels
		url := c.Request.URL.Path
		for _, p := range c.Params {
			url = strings.Replace(url, p.Value, fmt.Sprintf(":%s", p.Key), 1)
		}

		requestDuration.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		requestCount.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}
