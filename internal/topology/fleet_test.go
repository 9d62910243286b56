package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetstack/internal/config"
)

func TestNewFleet(t *testing.T) {
	t.Parallel()

	net := testNetwork(t, "us-east-1", "10.0.0.0/16")
	table := testTable(t, "us-east-1", "us-west-2")

	stack, err := NewFleet(net, table, testFleetSpec("app"))
	require.NoError(t, err)

	assert.True(t, stack.Identity.HasDataGrantOn(table.Key()))
	assert.True(t, stack.Identity.HasManagementGrant())
	assert.Equal(t, ComputeServicePrincipal, stack.Identity.TrustPrincipal)
	assert.Equal(t, []Key{table.Key()}, stack.Identity.Dependencies())

	f := stack.Fleet
	assert.Equal(t, 2, f.MinCapacity)
	assert.Equal(t, 2, f.MaxCapacity)
	assert.Equal(t, "application", f.Tier)
	assert.Equal(t, HealthSourceEdge, f.HealthCheck.Source)
	assert.Equal(t, config.DefaultHealthCheckGrace, f.HealthCheck.Grace)
	assert.Equal(t, stack.Template.Key(), f.Template)
	assert.ElementsMatch(t, []Key{net.Key(), stack.Template.Key()}, f.Dependencies())

	tpl := stack.Template
	assert.Equal(t, stack.Identity.Key(), tpl.Identity)
	assert.Equal(t, stack.SecurityGroup.Key(), tpl.SecurityGroup)
	assert.Equal(t, []byte(config.DefaultPayload), tpl.Payload)
	assert.Regexp(t, `^app-lt-[0-9a-f]{10}$`, tpl.Name)

	assert.Len(t, stack.Entities(), 4)
}

func TestNewFleetNeverSharesIdentityOrTemplate(t *testing.T) {
	t.Parallel()

	table := testTable(t, "us-east-1", "us-west-2")
	a, err := NewFleet(testNetwork(t, "us-east-1", "10.0.0.0/16"), table, testFleetSpec("app-a"))
	require.NoError(t, err)
	b, err := NewFleet(testNetwork(t, "us-west-2", "10.0.0.0/16"), table, testFleetSpec("app-b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Identity.Key(), b.Identity.Key())
	assert.NotEqual(t, a.Template.Key(), b.Template.Key())
	assert.NotEqual(t, a.SecurityGroup.Key(), b.SecurityGroup.Key())
}

func TestNewFleetTemplateChangesWithContent(t *testing.T) {
	t.Parallel()

	net := testNetwork(t, "us-east-1", "10.0.0.0/16")
	table := testTable(t, "us-east-1")

	first, err := NewFleet(net, table, testFleetSpec("app"))
	require.NoError(t, err)
	again, err := NewFleet(net, table, testFleetSpec("app"))
	require.NoError(t, err)
	assert.Equal(t, first.Template.Key(), again.Template.Key(), "same content must yield the same template")

	spec := testFleetSpec("app")
	spec.Payload = []byte("#!/bin/bash\necho v2\n")
	changed, err := NewFleet(net, table, spec)
	require.NoError(t, err)
	assert.NotEqual(t, first.Template.Key(), changed.Template.Key(), "changed content must yield a new template")
	assert.Equal(t, changed.Template.Key(), changed.Fleet.Template)
}

func TestComputeTemplateSupersedes(t *testing.T) {
	t.Parallel()

	net := testNetwork(t, "us-east-1", "10.0.0.0/16")
	table := testTable(t, "us-east-1")

	old, err := NewFleet(net, table, testFleetSpec("app"))
	require.NoError(t, err)
	spec := testFleetSpec("app")
	spec.Payload = []byte("#!/bin/bash\necho v2\n")
	current, err := NewFleet(net, table, spec)
	require.NoError(t, err)
	other, err := NewFleet(net, table, testFleetSpec("api"))
	require.NoError(t, err)

	tmpl := current.Template
	assert.True(t, tmpl.Supersedes(old.Template.Key()))
	assert.False(t, tmpl.Supersedes(tmpl.Key()), "a template does not supersede itself")
	assert.False(t, tmpl.Supersedes(other.Template.Key()), "different base name")
	assert.False(t, tmpl.Supersedes(current.Fleet.Key()), "not a template")

	moved := old.Template.Key()
	moved.Region = "us-west-2"
	assert.False(t, tmpl.Supersedes(moved), "different region")
}

func TestNewFleetTagsDoNotChangeTemplate(t *testing.T) {
	t.Parallel()

	net := testNetwork(t, "us-east-1", "10.0.0.0/16")
	table := testTable(t, "us-east-1")

	plain, err := NewFleet(net, table, testFleetSpec("app"))
	require.NoError(t, err)
	spec := testFleetSpec("app")
	spec.Tags = map[string]string{"team": "games"}
	tagged, err := NewFleet(net, table, spec)
	require.NoError(t, err)

	assert.Equal(t, plain.Template.Key(), tagged.Template.Key())
}

func TestNewFleetErrors(t *testing.T) {
	t.Parallel()

	net := testNetwork(t, "us-west-2", "10.0.0.0/16")

	tests := []struct {
		name     string
		replicas []string
		mutate   func(*FleetSpec)
		field    string
	}{
		{"empty replica set", []string{}, nil, "empty replica set"},
		{"region outside replica set", []string{"eu-west-1"}, nil, "not in the replica set"},
		{"capacity below two", []string{"us-west-2"}, func(s *FleetSpec) { s.MinCapacity = 1 }, "min_capacity"},
		{"max below min", []string{"us-west-2"}, func(s *FleetSpec) { s.MaxCapacity = 1 }, "max_capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			table := testTable(t, tt.replicas...)
			spec := testFleetSpec("app")
			if tt.mutate != nil {
				tt.mutate(&spec)
			}

			_, err := NewFleet(net, table, spec)
			require.Error(t, err)
			assert.True(t, config.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNewFleetNeedsPrivateTier(t *testing.T) {
	t.Parallel()

	net, err := NewNetwork(NetworkSpec{
		Name:    "public",
		Region:  "us-east-1",
		CIDR:    "10.0.0.0/16",
		AZCount: 2,
		Tiers:   []SubnetTier{{Name: "edge", Visibility: Public, Mask: 24}},
	})
	require.NoError(t, err)

	_, err = NewFleet(net, testTable(t, "us-east-1"), testFleetSpec("app"))
	require.Error(t, err)
	assert.True(t, config.IsConfigurationError(err))
}
