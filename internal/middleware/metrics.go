package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	reportSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_submissions_total",
			Help: "Total number of citizen report submissions by consolidation outcome",
		},
		[]string{"outcome"},
	)

	reportsMergedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_merged_total",
			Help: "Total number of duplicate reports folded into a canonical report",
		},
		[]string{"mode"},
	)

	reportsReopenedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reports_reopened_total",
			Help: "Total number of resolved reports reopened by a recurrence",
		},
	)

	consolidationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consolidation_failures_total",
			Help: "Total number of merge actions that failed mid-apply",
		},
	)

	consolidationSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "consolidation_sweep_duration_seconds",
			Help:    "Batch consolidation sweep duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)
)

// MetricsMiddleware collects Prometheus metrics for HTTP requests.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

// RecordSubmission records the consolidation outcome of one citizen
// submission (standalone, merged, reopened).
func RecordSubmission(outcome string) {
	reportSubmissionsTotal.WithLabelValues(outcome).Inc()
	switch outcome {
	case "merged":
		reportsMergedTotal.WithLabelValues("online").Inc()
	case "reopened":
		reportsReopenedTotal.Inc()
	}
}

// RecordSweep records the result of a batch consolidation run.
func RecordSweep(applied, failed int, duration time.Duration) {
	reportsMergedTotal.WithLabelValues("batch").Add(float64(applied))
	consolidationFailuresTotal.Add(float64(failed))
	consolidationSweepDuration.Observe(duration.Seconds())
}
