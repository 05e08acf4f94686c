package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exposes the service counters. A nil *Recorder records nothing.
type Recorder struct {
	decisions     *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	enrollments   *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "solux",
				Subsystem: "authorization",
				Name:      "decisions_total",
				Help:      "Card authorization decisions by outcome and decline reason",
			},
			[]string{"outcome", "reason"},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "solux",
				Subsystem: "provider",
				Name:      "calls_total",
				Help:      "Provider gateway calls by operation and response source",
			},
			[]string{"operation", "source"},
		),
		enrollments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "solux",
				Subsystem: "enrollment",
				Name:      "completed_total",
				Help:      "Finished enrollment attempts by result",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(r.decisions, r.providerCalls, r.enrollments)
	}
	return r
}

// Decision counts one authorization outcome.
func (r *Recorder) Decision(approved bool, reason string) {
	if r == nil {
		return
	}
	outcome := "declined"
	if approved {
		outcome = "approved"
	}
	r.decisions.WithLabelValues(outcome, reason).Inc()
}

// ProviderCall counts one gateway call. source is live, simulated or error.
func (r *Recorder) ProviderCall(operation, source string) {
	if r == nil {
		return
	}
	r.providerCalls.WithLabelValues(operation, source).Inc()
}

// Enrollment counts a finished enrollment attempt.
func (r *Recorder) Enrollment(result string) {
	if r == nil {
		return
	}
	r.enrollments.WithLabelValues(result).Inc()
}
