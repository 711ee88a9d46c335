package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for key resolution.
type Metrics struct {
	// Key cache lookups by result: "hit", "miss", "error"
	CacheLookups *prometheus.CounterVec

	// Remote resolution latency by outcome
	ResolveLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all key resolution metrics registered.
func New() *Metrics {
	return &Metrics{
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerguard_key_cache_lookups_total",
			Help: "Key cache lookups by result",
		}, []string{"result"}),

		ResolveLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledgerguard_key_resolve_duration_seconds",
			Help:    "Duration of remote key resolution by outcome",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"outcome"}), // outcome: "found", "not_found", "unavailable"
	}
}

// IncrementCacheLookup records a cache lookup result.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveResolveLatency records the duration of a remote lookup.
func (m *Metrics) ObserveResolveLatency(outcome string, d time.Duration) {
	if m != nil {
		m.ResolveLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}
