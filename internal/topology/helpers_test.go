package topology

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetstack/internal/config"
)

func testConfig(regions ...string) *config.Config {
	cfg := &config.Config{
		Name:          "tictactoe",
		PrimaryRegion: "us-east-1",
		Regions:       regions,
		AccessRegion:  "us-east-2",
	}
	cfg.ApplyDefaults()
	return cfg
}

func testNetwork(t *testing.T, region, cidr string) *Network {
	t.Helper()
	n, err := NewNetwork(NetworkSpec{
		Name:       "net-" + region,
		Region:     region,
		CIDR:       cidr,
		AZCount:    2,
		AZCapacity: 3,
		Tiers:      TiersFromConfig(config.DefaultFleetTiers()),
	})
	require.NoError(t, err)
	return n
}

func testTable(t *testing.T, replicas ...string) *ReplicatedTable {
	t.Helper()
	tbl, err := NewReplicatedTable(TableSpec{
		Name:           "tictactoe",
		PrimaryRegion:  "us-east-1",
		ReplicaRegions: replicas,
		PartitionKey:   config.KeyAttribute{Name: "id", Type: "S"},
		BillingMode:    config.DefaultBillingMode,
	})
	require.NoError(t, err)
	return tbl
}

func testFleetSpec(name string) FleetSpec {
	return FleetSpec{
		Name:             name,
		InstanceType:     config.DefaultInstanceType,
		Image:            MachineImage{Family: config.DefaultImageFamily, Architecture: config.DefaultArchitecture},
		Payload:          []byte(config.DefaultPayload),
		MinCapacity:      2,
		HealthCheckGrace: config.DefaultHealthCheckGrace,
	}
}

func testEdgeSpec(name string) EdgeSpec {
	return EdgeSpec{
		Name:            name,
		ListenPort:      80,
		BackendPort:     8080,
		SessionAffinity: config.DefaultSessionAffinity,
		Open:            true,
	}
}
