// Package metrics provides Prometheus metrics for phone enrollment.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for resolution attempts.
const (
	OutcomeMatched = "matched"
	OutcomeCreated = "created"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics contains all enrollment metrics.
type Metrics struct {
	ResolutionsTotal *prometheus.CounterVec // Resolutions by outcome
	PagesScanned     prometheus.Histogram   // Registry pages fetched per resolution
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		ResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_enroll_resolutions_total",
			Help: "Total number of phone resolutions by outcome",
		}, []string{"outcome"}),

		PagesScanned: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "loyalty_enroll_pages_scanned",
			Help:    "Number of registry pages fetched per phone resolution",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// RecordResolution records a completed resolution attempt.
func (m *Metrics) RecordResolution(outcome string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
}

// RecordPagesScanned records how many pages a search walked.
func (m *Metrics) RecordPagesScanned(pages int) {
	if m == nil {
		return
	}
	m.PagesScanned.Observe(float64(pages))
}
