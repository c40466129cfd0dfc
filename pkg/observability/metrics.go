// Package observability exposes Prometheus instrumentation for the gate
// protocol and session lifecycle.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one Hub.
type Metrics struct {
	GatesOpened     *prometheus.CounterVec
	GateResolutions *prometheus.CounterVec
	StaleResponses  prometheus.Counter
	SessionsActive  prometheus.Gauge
	AnalysisSeconds prometheus.Histogram
}

// Resolution outcome labels.
const (
	OutcomeResolved  = "resolved"
	OutcomeCancelled = "cancelled"
	OutcomeTimeout   = "timeout"
)

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GatesOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heydev_gates_opened_total",
				Help: "Gates opened, by action.",
			},
			[]string{"action"},
		),
		GateResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heydev_gate_resolutions_total",
				Help: "Gate terminations, by action and outcome.",
			},
			[]string{"action", "outcome"},
		),
		StaleResponses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "heydev_stale_responses_total",
				Help: "Responses rejected by resolution-time validation.",
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "heydev_sessions_active",
				Help: "Sessions with a running flow.",
			},
		),
		AnalysisSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "heydev_analysis_duration_seconds",
				Help:    "Repository analysis duration.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
	}

	reg.MustRegister(
		m.GatesOpened,
		m.GateResolutions,
		m.StaleResponses,
		m.SessionsActive,
		m.AnalysisSeconds,
	)
	return m
}

// NewNopMetrics creates unregistered collectors for tests and embedded use.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
