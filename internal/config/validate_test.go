package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	t.Parallel()
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()
	closed := false

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "missing name", mutate: func(c *Config) { c.Name = "" }, field: "name"},
		{name: "no fleet regions", mutate: func(c *Config) { c.Regions = nil }, field: "regions"},
		{name: "duplicate region", mutate: func(c *Config) { c.Regions = []string{"us-east-1", "us-east-1"} }, field: "regions"},
		{name: "unknown region", mutate: func(c *Config) {
			c.Regions = []string{"mars-1"}
			c.Table.ReplicaRegions = []string{"mars-1"}
		}, field: "regions"},
		{name: "missing access region", mutate: func(c *Config) { c.AccessRegion = "" }, field: "access_region"},
		{name: "access region shared with fleet", mutate: func(c *Config) { c.AccessRegion = "us-west-2" }, field: "access_region"},
		{name: "empty replica set", mutate: func(c *Config) { c.Table.ReplicaRegions = []string{} }, field: "table.replica_regions"},
		{name: "fleet region outside replica set", mutate: func(c *Config) { c.Table.ReplicaRegions = []string{"us-east-1"} }, field: "table.replica_regions"},
		{name: "bad key type", mutate: func(c *Config) { c.Table.PartitionKey.Type = "X" }, field: "table.partition_key.type"},
		{name: "bad billing mode", mutate: func(c *Config) { c.Table.BillingMode = "FREE" }, field: "table.billing_mode"},
		{name: "capacity below two", mutate: func(c *Config) { c.Fleet.MinCapacity = 1 }, field: "fleet.min_capacity"},
		{name: "max below min", mutate: func(c *Config) { c.Fleet.MaxCapacity = 1 }, field: "fleet.max_capacity"},
		{name: "bad architecture", mutate: func(c *Config) { c.Fleet.Image.Architecture = "sparc" }, field: "fleet.image.architecture"},
		{name: "listen port", mutate: func(c *Config) { c.Edge.ListenPort = 70000 }, field: "edge.listen_port"},
		{name: "backend port", mutate: func(c *Config) { c.Edge.BackendPort = -1 }, field: "edge.backend_port"},
		{name: "affinity too long", mutate: func(c *Config) { c.Edge.SessionAffinity = 8 * MaxSessionAffinity }, field: "edge.session_affinity"},
		{name: "closed without cidrs", mutate: func(c *Config) { c.Edge.Open = &closed }, field: "edge.allowed_cidrs"},
		{name: "bad allowed cidr", mutate: func(c *Config) { c.Edge.AllowedCIDRs = []string{"nope"} }, field: "edge.allowed_cidrs"},
		{name: "override for non-fleet region", mutate: func(c *Config) {
			c.NetworkOverrides = map[string]NetworkConfig{"eu-west-1": {CIDR: "10.9.0.0/16"}}
		}, field: "network_overrides"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.State.Backend = StateBackendS3 }, field: "state.s3.bucket"},
		{name: "unknown backend", mutate: func(c *Config) { c.State.Backend = "etcd" }, field: "state.backend"},
		{name: "unknown materializer", mutate: func(c *Config) { c.Materializer = "terraform" }, field: "materializer"},
		{name: "short account", mutate: func(c *Config) { c.Account = "1234" }, field: "account"},
		{name: "non-numeric account", mutate: func(c *Config) { c.Account = "12345678901x" }, field: "account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_UnknownRegionListsKnownOnes(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.AccessRegion = "mars-1"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "us-east-2")
	assert.Contains(t, err.Error(), "add others to region_capacity")
}

func TestValidate_ClosedEdgeWithCIDRs(t *testing.T) {
	t.Parallel()
	closed := false
	cfg := validConfig()
	cfg.Edge.Open = &closed
	cfg.Edge.AllowedCIDRs = []string{"203.0.113.0/24"}

	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.EdgeOpen())
}

func TestValidate_ReplicasWithoutFleetAllowed(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Table.ReplicaRegions = []string{"us-east-1", "us-west-2", "eu-west-1"}

	require.NoError(t, cfg.Validate())
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Name = ""
	cfg.Fleet.MinCapacity = 1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "fleet.min_capacity")
}

func TestConfigurationError(t *testing.T) {
	t.Parallel()
	err := Errorf("edge", "bad port %d", 1)
	assert.Equal(t, "configuration error: edge: bad port 1", err.Error())

	noField := &ConfigurationError{Message: "boom"}
	assert.Equal(t, "configuration error: boom", noField.Error())
}
