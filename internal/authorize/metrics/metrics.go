package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authorize module.
type Metrics struct {
	// Authorization results by outcome ("authorized", "not_applicable") or error kind
	Outcomes *prometheus.CounterVec

	// Full authorization latency including verification
	AuthorizeLatency prometheus.Histogram

	// Signature verification latency by number of proofs
	VerifyLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all authorize module metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerguard_authorize_outcomes_total",
			Help: "Total authorization results by outcome",
		}, []string{"outcome"}),

		AuthorizeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerguard_authorize_duration_seconds",
			Help:    "Duration of full document authorization",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		VerifyLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledgerguard_signature_verify_duration_seconds",
			Help:    "Duration of signature verification for one signed object",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"proofs"}),
	}
}

// IncrementOutcome records an authorization result.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}

// ObserveAuthorizeLatency records the total authorization duration.
func (m *Metrics) ObserveAuthorizeLatency(d time.Duration) {
	if m != nil {
		m.AuthorizeLatency.Observe(d.Seconds())
	}
}

// ObserveVerifyLatency records verification time. Proof counts above 10 share a bucket.
func (m *Metrics) ObserveVerifyLatency(proofs int, d time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(proofs)
	if proofs > 10 {
		label = "10+"
	}
	m.VerifyLatency.WithLabelValues(label).Observe(d.Seconds())
}
