// Package metrics provides Prometheus metrics for registry API calls.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all registry client metrics.
type Metrics struct {
	RequestsTotal          *prometheus.CounterVec   // Upstream calls by operation and status code
	RequestDurationSeconds *prometheus.HistogramVec // Upstream call latency by operation
	RetriesTotal           *prometheus.CounterVec   // Retry attempts by operation
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_registry_requests_total",
			Help: "Total number of registry API calls by operation and HTTP status",
		}, []string{"operation", "status"}),

		RequestDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loyalty_registry_request_duration_seconds",
			Help:    "Duration of registry API calls by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		RetriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_registry_retries_total",
			Help: "Total number of retried registry API calls by operation",
		}, []string{"operation"}),
	}
}

// RecordRequest records a completed upstream call.
func (m *Metrics) RecordRequest(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.RequestDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRetry records a retried upstream call.
func (m *Metrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(operation).Inc()
}
