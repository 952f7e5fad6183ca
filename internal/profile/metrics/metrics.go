// Package metrics provides Prometheus metrics for profile upserts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for upsert and update attempts.
const (
	OutcomeCreated = "created"
	OutcomeExists  = "exists"
	OutcomeUpdated = "updated"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics contains all profile metrics.
type Metrics struct {
	UpsertsTotal *prometheus.CounterVec // Upserts by outcome
	UpdatesTotal *prometheus.CounterVec // Updates by outcome
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		UpsertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_profile_upserts_total",
			Help: "Total number of profile upserts by outcome",
		}, []string{"outcome"}),

		UpdatesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_profile_updates_total",
			Help: "Total number of profile updates by outcome",
		}, []string{"outcome"}),
	}
}

// RecordUpsert records a completed upsert attempt.
func (m *Metrics) RecordUpsert(outcome string) {
	if m == nil {
		return
	}
	m.UpsertsTotal.WithLabelValues(outcome).Inc()
}

// RecordUpdate records a completed update attempt.
func (m *Metrics) RecordUpdate(outcome string) {
	if m == nil {
		return
	}
	m.UpdatesTotal.WithLabelValues(outcome).Inc()
}
