package materializer_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/materializer/memory"
	"github.com/imamik/fleetstack/internal/topology"
)

type entity struct{ key topology.Key }

func (e entity) Key() topology.Key            { return e.key }
func (e entity) Dependencies() []topology.Key { return nil }

func TestInstrumentCountsCalls(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := materializer.NewMetrics(reg)
	sim := memory.New()
	m := materializer.Instrument(sim, metrics)
	ctx := context.Background()

	key := topology.Key{Kind: topology.KindNetwork, Region: "us-east-1", Name: "vpc"}
	d := materializer.Desired{Key: key, Spec: entity{key: key}, Hash: "h"}

	_, err := m.CreateOrUpdate(ctx, d)
	require.NoError(t, err)
	sim.FailCreate(key, 1, "boom")
	_, err = m.CreateOrUpdate(ctx, d)
	require.NoError(t, err)
	_, err = m.Delete(ctx, materializer.Target{Key: key})
	require.NoError(t, err)

	calls := metrics.Calls()
	assert.Equal(t, 1.0, testutil.ToFloat64(calls.WithLabelValues("network", materializer.OperationCreateOrUpdate, "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(calls.WithLabelValues("network", materializer.OperationCreateOrUpdate, "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(calls.WithLabelValues("network", materializer.OperationDelete, "complete")))

	count, err := testutil.GatherAndCount(reg, "fleetstack_materializer_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInstrumentLabelsErrors(t *testing.T) {
	t.Parallel()

	metrics := materializer.NewMetrics(nil)
	m := materializer.Instrument(memory.New(), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	key := topology.Key{Kind: topology.KindFleet, Region: "us-east-1", Name: "app"}
	_, err := m.CreateOrUpdate(ctx, materializer.Desired{Key: key, Spec: entity{key: key}})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calls().WithLabelValues("fleet", materializer.OperationCreateOrUpdate, "error")))
}
