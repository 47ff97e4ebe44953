package middlewares

import (
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// ActionKey is where the dispatcher leaves the resolved action for metrics and logs.
	ActionKey = "action"
	// OutcomeKey overrides the outcome derived from the HTTP status.
	OutcomeKey = "outcome"
)

// Envelope outcomes. Validation failures answer 200 with success=false, so
// the status code alone cannot tell them apart from successes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
)

const namespace = "hiryo"

// apiMetrics groups the collectors of one registry so tests can use a
// private registry.
type apiMetrics struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	operations    *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

func newAPIMetrics(reg prometheus.Registerer) *apiMetrics {
	factory := promauto.With(reg)
	return &apiMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API calls by resource, action and envelope outcome.",
		}, []string{"resource", "action", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving an API action.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"resource", "action"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "operations_total",
			Help:      "Order lifecycle operations (place, update_status, finalize, broadcast, consume) by result.",
		}, []string{"operation", "result"}),
		invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "cache_invalidations_total",
			Help:      "Dashboard statistics cache drops after committed writes.",
		}, []string{"result"}),
	}
}

var metrics = newAPIMetrics(prometheus.DefaultRegisterer)

// PrometheusMiddleware counts every API call under its resource
// (/api/orders -> orders) and dispatched action.
func PrometheusMiddleware() gin.HandlerFunc {
	return metrics.middleware()
}

func (m *apiMetrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		resource := "unmatched"
		if route := c.FullPath(); route != "" {
			resource = path.Base(route)
		}
		action := c.GetString(ActionKey)
		m.requests.WithLabelValues(resource, action, outcome(c)).Inc()
		m.latency.WithLabelValues(resource, action).Observe(time.Since(start).Seconds())
	}
}

func outcome(c *gin.Context) string {
	if o := c.GetString(OutcomeKey); o != "" {
		return o
	}
	switch status := c.Writer.Status(); {
	case status >= 500:
		return OutcomeError
	case status == 401 || status == 403:
		return OutcomeDenied
	case status >= 400:
		return OutcomeRejected
	}
	return OutcomeOK
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordOrderOperation counts one order lifecycle operation by result.
func RecordOrderOperation(operation string, success bool) {
	metrics.operations.WithLabelValues(operation, result(success)).Inc()
}

// RecordStatsInvalidation counts one dashboard cache drop.
func RecordStatsInvalidation(success bool) {
	metrics.invalidations.WithLabelValues(result(success)).Inc()
}
