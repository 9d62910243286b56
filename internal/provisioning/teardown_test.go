package provisioning

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetstack/internal/config"
	fstest "github.com/imamik/fleetstack/internal/testing"
	"github.com/imamik/fleetstack/internal/topology"
)

func teardown(t *testing.T, fx *fstest.Fixture, region string) (*Context, *MockObserver, error) {
	t.Helper()
	pctx, obs := newTestContext(t, fstest.TestContext(t), fx.Config, fx.Materializer, fx.Store)
	return pctx, obs, NewTeardownPhase(region).Provision(pctx)
}

func TestTeardown_WholeTopologyInReverseOrder(t *testing.T) {
	t.Parallel()
	fx := fstest.NewFixture(fstest.FullConfig())
	_, _, err := apply(t, fx)
	require.NoError(t, err)

	pctx, obs, err := teardown(t, fx, "")
	require.NoError(t, err)

	assert.Zero(t, fx.Materializer.Live())
	deleted := fx.Materializer.Deleted()
	graph := pctx.Topology.Graph()
	require.Len(t, deleted, graph.Len())
	for _, k := range graph.Keys() {
		for _, d := range graph.Dependencies(k) {
			assert.Less(t, slices.Index(deleted, k), slices.Index(deleted, d), "%s deleted after its dependency %s", k, d)
		}
	}

	snap, err := fx.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.Len())
	assert.Len(t, obs.EventsOf(EventResourceDeleted), graph.Len())
}

func TestTeardown_Region(t *testing.T) {
	t.Parallel()
	fx := fstest.NewFixture(fstest.FullConfig())
	_, _, err := apply(t, fx)
	require.NoError(t, err)

	pctx, _, err := teardown(t, fx, "us-west-2")
	require.NoError(t, err)

	west := regionKeys(pctx.Topology, "us-west-2")
	assert.ElementsMatch(t, west, fx.Materializer.Deleted())
	assert.True(t, fx.Materializer.Exists(pctx.Topology.Table.Key()))
	for _, k := range regionKeys(pctx.Topology, "us-east-1") {
		assert.True(t, fx.Materializer.Exists(k))
	}

	require.NotNil(t, pctx.State.Outputs)
	assert.Equal(t, []string{"us-west-2"}, pctx.State.Outputs.FailedRegions)
	_, ok := pctx.State.Outputs.Region("us-east-1")
	assert.True(t, ok)
}

func TestTeardown_ScopeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		region string
		want   string
	}{
		{name: "global table", region: topology.GlobalRegion, want: "global"},
		{name: "unknown region", region: "eu-west-1", want: "not part of topology"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := fstest.NewFixture(fstest.FullConfig())
			_, _, err := apply(t, fx)
			require.NoError(t, err)

			_, _, err = teardown(t, fx, tt.region)
			require.Error(t, err)
			assert.True(t, config.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, fx.Materializer.Deleted())
		})
	}
}

func TestTeardown_FailureBlocksDependencies(t *testing.T) {
	t.Parallel()
	fx := fstest.NewFixture(fstest.FullConfig())
	first, _, err := apply(t, fx)
	require.NoError(t, err)
	east := first.Topology.Regions[0]
	fx.Materializer.FailDelete(east.Compute.Fleet.Key(), -1, "scaling activity in progress")

	_, _, err = teardown(t, fx, "")

	var pt *PartialTeardownError
	require.ErrorAs(t, err, &pt)
	assert.Equal(t, []topology.Key{east.Compute.Fleet.Key()}, pt.Failed)
	assert.Contains(t, pt.Blocked, east.Network.Key())
	assert.Contains(t, pt.Blocked, east.Compute.Template.Key())
	assert.Contains(t, pt.Blocked, first.Topology.Table.Key())

	// The edge depends on the fleet and goes first.
	assert.Contains(t, fx.Materializer.Deleted(), east.Edge.Key())
	assert.True(t, fx.Materializer.Exists(east.Network.Key()))

	// The other region is gone entirely.
	for _, k := range regionKeys(first.Topology, "us-west-2") {
		assert.False(t, fx.Materializer.Exists(k), "%s should be deleted", k)
	}

	snap, err := fx.Snapshot(context.Background())
	require.NoError(t, err)
	_, ok := snap.Get(east.Compute.Fleet.Key())
	assert.True(t, ok)
	_, ok = snap.Get(east.Edge.Key())
	assert.False(t, ok)
}

func TestTeardown_NothingRecorded(t *testing.T) {
	t.Parallel()
	fx := fstest.NewFixture(fstest.FullConfig())

	_, obs, err := teardown(t, fx, "")
	require.NoError(t, err)
	assert.Contains(t, obs.Messages(), "[Teardown] Nothing recorded for tictactoe")
}

func TestTeardown_RemovesUndeclaredRegion(t *testing.T) {
	t.Parallel()
	fx := fstest.NewFixture(fstest.FullConfig())
	first, _, err := apply(t, fx)
	require.NoError(t, err)
	west := regionKeys(first.Topology, "us-west-2")

	// us-west-2 is dropped from the declaration but stays recorded.
	fx.Config = fstest.NewConfigBuilder().WithRegions("us-east-1").WithReplicaRegions("us-east-1", "us-west-2").Build()
	second, obs, err := apply(t, fx)
	require.NoError(t, err)
	assert.Empty(t, second.State.Pruned)
	assert.True(t, slices.ContainsFunc(obs.Messages(), func(m string) bool {
		return m == "[Materialize] 6 recorded entities belong to undeclared regions; run destroy --region to remove them"
	}))

	_, _, err = teardown(t, fx, "us-west-2")
	require.NoError(t, err)
	assert.ElementsMatch(t, west, fx.Materializer.Deleted())
}
