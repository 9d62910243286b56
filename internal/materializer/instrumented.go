package materializer

import (
	"context"
	"time"

	"github.com/imamik/fleetstack/internal/topology"
)

// Operation labels.
const (
	OperationCreateOrUpdate = "create_or_update"
	OperationDelete         = "delete"
)

// resultError labels calls that returned an error.
const resultError = "error"

type instrumented struct {
	next    Materializer
	metrics *Metrics
}

// Instrument wraps m so that every call is counted and timed. A nil
// metrics returns m unchanged.
func Instrument(m Materializer, metrics *Metrics) Materializer {
	if metrics == nil {
		return m
	}
	return &instrumented{next: m, metrics: metrics}
}

func (i *instrumented) CreateOrUpdate(ctx context.Context, desired Desired) (Result, error) {
	start := time.Now()
	res, err := i.next.CreateOrUpdate(ctx, desired)
	i.observe(desired.Key, OperationCreateOrUpdate, start, res, err)
	return res, err
}

func (i *instrumented) Delete(ctx context.Context, target Target) (Result, error) {
	start := time.Now()
	res, err := i.next.Delete(ctx, target)
	i.observe(target.Key, OperationDelete, start, res, err)
	return res, err
}

func (i *instrumented) observe(key topology.Key, op string, start time.Time, res Result, err error) {
	result := string(res.Status)
	if err != nil {
		result = resultError
	}
	kind := string(key.Kind)
	i.metrics.calls.WithLabelValues(kind, op, result).Inc()
	i.metrics.duration.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())
}
