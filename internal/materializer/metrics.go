package materializer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the materializer call collectors.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetstack",
				Subsystem: "materializer",
				Name:      "calls_total",
				Help:      "Total number of materializer calls by entity kind, operation and result",
			},
			[]string{"kind", "operation", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fleetstack",
				Subsystem: "materializer",
				Name:      "call_duration_seconds",
				Help:      "Duration of materializer calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"kind", "operation"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

// Calls returns the call counter.
func (m *Metrics) Calls() *prometheus.CounterVec {
	return m.calls
}
