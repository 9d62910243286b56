package provisioning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/fleetstack/internal/materializer"
)

// Run operation labels.
const (
	OperationApply    = "apply"
	OperationTeardown = "teardown"
)

// Run result labels.
const (
	resultSuccess = "success"
	resultPartial = "partial"
	resultError   = "error"
)

// Metrics holds the collectors of provisioning runs. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Materializer *materializer.Metrics

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	entities *prometheus.GaugeVec
	retries  *prometheus.CounterVec
}

// NewMetrics creates the run collectors plus the materializer call
// collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Materializer: materializer.NewMetrics(reg),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetstack",
				Name:      "runs_total",
				Help:      "Total number of provisioning runs by operation and result",
			},
			[]string{"operation", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fleetstack",
				Name:      "run_duration_seconds",
				Help:      "Duration of provisioning runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~27m
			},
			[]string{"operation"},
		),
		entities: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fleetstack",
				Name:      "entities",
				Help:      "Number of entities by status after the last run",
			},
			[]string{"status"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetstack",
				Name:      "retries_total",
				Help:      "Total number of retried entity operations by kind",
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.duration, m.entities, m.retries)
	}
	return m
}

func (m *Metrics) observeRun(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := resultSuccess
	switch {
	case err == nil:
	case IsPartialFailure(err), IsPartialTeardown(err):
		result = resultPartial
	default:
		result = resultError
	}
	m.runs.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) setEntities(r *runReport) {
	if m == nil {
		return
	}
	m.entities.WithLabelValues("complete").Set(float64(len(r.complete)))
	m.entities.WithLabelValues("failed").Set(float64(len(r.failed)))
	m.entities.WithLabelValues("blocked").Set(float64(len(r.blocked)))
	m.entities.WithLabelValues("pending").Set(float64(len(r.pending)))
}

func (m *Metrics) retried(kind string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(kind).Inc()
}

// Runs returns the run counter.
func (m *Metrics) Runs() *prometheus.CounterVec {
	return m.runs
}

// Entities returns the entity status gauge.
func (m *Metrics) Entities() *prometheus.GaugeVec {
	return m.entities
}

// Retries returns the retry counter.
func (m *Metrics) Retries() *prometheus.CounterVec {
	return m.retries
}
