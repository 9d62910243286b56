package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetstack/internal/config"
)

func TestNewEdge(t *testing.T) {
	t.Parallel()

	net := testNetwork(t, "us-east-1", "10.0.0.0/16")
	stack, err := NewFleet(net, testTable(t, "us-east-1"), testFleetSpec("app"))
	require.NoError(t, err)

	edge, err := NewEdge(net, stack, testEdgeSpec("alb"))
	require.NoError(t, err)

	assert.Equal(t, "load balancer", edge.Tier)
	assert.Equal(t, stack.Fleet.Key(), edge.Fleet)
	assert.Equal(t, stack.SecurityGroup.Key(), edge.FleetSecurityGroup)
	assert.Equal(t, 80, edge.ListenPort)
	assert.Equal(t, 8080, edge.BackendPort)
	assert.Equal(t, config.DefaultSessionAffinity, edge.SessionAffinity)
	assert.True(t, edge.Open())
	assert.True(t, edge.InternetFacing)
	assert.ElementsMatch(t, []Key{net.Key(), stack.Fleet.Key(), stack.SecurityGroup.Key()}, edge.Dependencies())
}

func TestNewEdgeRestrictedListener(t *testing.T) {
	t.Parallel()

	net := testNetwork(t, "us-east-1", "10.0.0.0/16")
	stack, err := NewFleet(net, testTable(t, "us-east-1"), testFleetSpec("app"))
	require.NoError(t, err)

	spec := testEdgeSpec("alb")
	spec.Open = false
	spec.AllowedCIDRs = []string{"203.0.113.0/24"}

	edge, err := NewEdge(net, stack, spec)
	require.NoError(t, err)
	assert.False(t, edge.Open())
	assert.Equal(t, []string{"203.0.113.0/24"}, edge.Sources)
}

func TestNewEdgeRejectsCrossNetworkFleet(t *testing.T) {
	t.Parallel()

	table := testTable(t, "us-east-1")
	home := testNetwork(t, "us-east-1", "10.0.0.0/16")
	other, err := NewNetwork(NetworkSpec{
		Name:    "other",
		Region:  "us-east-1",
		CIDR:    "10.1.0.0/16",
		AZCount: 2,
		Tiers:   TiersFromConfig(config.DefaultFleetTiers()),
	})
	require.NoError(t, err)

	stack, err := NewFleet(home, table, testFleetSpec("app"))
	require.NoError(t, err)

	_, err = NewEdge(other, stack, testEdgeSpec("alb"))
	require.Error(t, err)
	assert.True(t, config.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "lives in network")
}

func TestNewEdgeErrors(t *testing.T) {
	t.Parallel()

	net := testNetwork(t, "us-east-1", "10.0.0.0/16")
	stack, err := NewFleet(net, testTable(t, "us-east-1"), testFleetSpec("app"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*EdgeSpec)
		field  string
	}{
		{"listen port zero", func(s *EdgeSpec) { s.ListenPort = 0 }, "listen_port"},
		{"backend port too high", func(s *EdgeSpec) { s.BackendPort = 70000 }, "backend_port"},
		{"no affinity", func(s *EdgeSpec) { s.SessionAffinity = 0 }, "session_affinity"},
		{"closed without cidrs", func(s *EdgeSpec) { s.Open = false }, "allowed_cidrs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec := testEdgeSpec("alb")
			tt.mutate(&spec)

			_, err := NewEdge(net, stack, spec)
			require.Error(t, err)
			assert.True(t, config.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
