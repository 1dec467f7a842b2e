package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the counters.
const (
	OutcomeOK = "ok"
)

// Metrics holds the Prometheus counters for check-in operations.
type Metrics struct {
	Registrations   *prometheus.CounterVec
	Verifications   *prometheus.CounterVec
	DuplicateChecks *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them process-wide, or a fresh
// prometheus.NewRegistry() to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_registrations_total",
			Help: "Registration attempts by outcome (ok or error code)",
		}, []string{"outcome"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_verifications_total",
			Help: "Verification attempts by display category",
		}, []string{"category"}),
		DuplicateChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_duplicate_checks_total",
			Help: "Live duplicate-ID checks by result",
		}, []string{"result"}),
	}
}

// ObserveRegistration counts one registration attempt.
func (m *Metrics) ObserveRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

// ObserveVerification counts one verification attempt.
func (m *Metrics) ObserveVerification(category string) {
	m.Verifications.WithLabelValues(category).Inc()
}

// ObserveDuplicateCheck counts one duplicate check.
// result is "duplicate", "clear", "skipped" or "error".
func (m *Metrics) ObserveDuplicateCheck(result string) {
	m.DuplicateChecks.WithLabelValues(result).Inc()
}
