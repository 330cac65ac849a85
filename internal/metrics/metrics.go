// Package metrics exposes Prometheus counters for the claim path.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ClaimOutcome labels for the claims counter.
const (
	OutcomeAllocated   = "allocated"
	OutcomeNoInventory = "no_inventory"
	OutcomeCooldown    = "cooldown"
	OutcomeAnomaly     = "anomaly"
	OutcomeError       = "error"
)

// ClaimMetrics aggregates counters for allocation activity.
type ClaimMetrics struct {
	claims *prometheus.CounterVec
}

var (
	claimMetricsOnce sync.Once
	claimRegistry    *ClaimMetrics
)

// Claims returns the lazily-initialised claim metrics, registered on the
// default registry.
func Claims() *ClaimMetrics {
	claimMetricsOnce.Do(func() {
		claimRegistry = &ClaimMetrics{
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "coupondrop",
				Subsystem: "claims",
				Name:      "requests_total",
				Help:      "Claim requests segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(claimRegistry.claims)
	})
	return claimRegistry
}

// Observe records one claim request outcome.
func (m *ClaimMetrics) Observe(outcome string) {
	m.claims.WithLabelValues(outcome).Inc()
}
