package provisioning

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetstack/internal/config"
	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/state"
	fstest "github.com/imamik/fleetstack/internal/testing"
	"github.com/imamik/fleetstack/internal/topology"
)

// newTestContext returns a context with fast timeouts and a built topology.
func newTestContext(t *testing.T, ctx context.Context, cfg *config.Config, m materializer.Materializer, store state.Store) (*Context, *MockObserver) {
	t.Helper()
	obs := NewMockObserver()
	pctx := NewContext(ctx, cfg, m, store, obs)
	pctx.Timeouts = config.FastTimeouts()
	pctx.Owner = "test"
	require.NoError(t, NewValidationPhase().Provision(pctx))
	return pctx, obs
}

// apply runs a fresh materialize phase against fx.
func apply(t *testing.T, fx *fstest.Fixture) (*Context, *MockObserver, error) {
	t.Helper()
	pctx, obs := newTestContext(t, fstest.TestContext(t), fx.Config, fx.Materializer, fx.Store)
	return pctx, obs, NewAssembler().Provision(pctx)
}

// orderRecorder records the first CreateOrUpdate of every key.
type orderRecorder struct {
	mu    sync.Mutex
	order []topology.Key
}

func (r *orderRecorder) hook(_ context.Context, d materializer.Desired) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.order, d.Key) {
		r.order = append(r.order, d.Key)
	}
}

func (r *orderRecorder) index(k topology.Key) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Index(r.order, k)
}

func regionKeys(topo *topology.Topology, region string) []topology.Key {
	return topo.Graph().InRegion(region)
}
