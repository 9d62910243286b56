package testing

import (
	"maps"
	"slices"

	"github.com/imamik/fleetstack/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with the two-region
// topology of the original deployment: fleets in us-east-1 and us-west-2,
// the access node in us-east-2.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.Config{
			Name:          "tictactoe",
			PrimaryRegion: "us-east-1",
			Regions:       []string{"us-east-1", "us-west-2"},
			AccessRegion:  "us-east-2",
			State:         config.StateConfig{Backend: config.StateBackendMemory},
		},
	}
}

// WithName sets the topology name.
func (b *ConfigBuilder) WithName(name string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Name = name
	return newBuilder
}

// WithRegions sets the fleet regions. The primary region follows the first
// one.
func (b *ConfigBuilder) WithRegions(regions ...string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Regions = slices.Clone(regions)
	newBuilder.cfg.PrimaryRegion = ""
	if len(regions) > 0 {
		newBuilder.cfg.PrimaryRegion = regions[0]
	}
	return newBuilder
}

// WithAccessRegion sets the access region.
func (b *ConfigBuilder) WithAccessRegion(region string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.AccessRegion = region
	return newBuilder
}

// WithReplicaRegions sets the table replica regions explicitly.
func (b *ConfigBuilder) WithReplicaRegions(regions ...string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Table.ReplicaRegions = slices.Clone(regions)
	if newBuilder.cfg.Table.ReplicaRegions == nil {
		newBuilder.cfg.Table.ReplicaRegions = []string{}
	}
	return newBuilder
}

// WithNetworkOverride overrides the network CIDR of one region.
func (b *ConfigBuilder) WithNetworkOverride(region, cidr string) *ConfigBuilder {
	newBuilder := b.clone()
	if newBuilder.cfg.NetworkOverrides == nil {
		newBuilder.cfg.NetworkOverrides = make(map[string]config.NetworkConfig)
	}
	newBuilder.cfg.NetworkOverrides[region] = config.NetworkConfig{CIDR: cidr}
	return newBuilder
}

// WithPayload sets the inline startup payload of the fleets.
func (b *ConfigBuilder) WithPayload(payload string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Fleet.Payload = payload
	return newBuilder
}

// WithConcurrency sets the materialization concurrency.
func (b *ConfigBuilder) WithConcurrency(n int) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Concurrency = n
	return newBuilder
}

// WithTags sets the extra resource tags.
func (b *ConfigBuilder) WithTags(tags map[string]string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Tags = maps.Clone(tags)
	return newBuilder
}

// Build returns the constructed config with defaults applied.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	cfg.ApplyDefaults()
	return &cfg
}

// clone creates a deep copy of the builder for immutability.
func (b *ConfigBuilder) clone() *ConfigBuilder {
	newCfg := b.cfg
	newCfg.Regions = slices.Clone(b.cfg.Regions)
	newCfg.Table.ReplicaRegions = slices.Clone(b.cfg.Table.ReplicaRegions)
	if b.cfg.Table.ReplicaRegions != nil && newCfg.Table.ReplicaRegions == nil {
		newCfg.Table.ReplicaRegions = []string{}
	}
	newCfg.Tags = maps.Clone(b.cfg.Tags)
	newCfg.NetworkOverrides = maps.Clone(b.cfg.NetworkOverrides)
	newCfg.RegionCapacity = maps.Clone(b.cfg.RegionCapacity)
	return &ConfigBuilder{cfg: newCfg}
}

// MinimalConfig returns a single-region config for simple tests.
func MinimalConfig() *config.Config {
	return NewConfigBuilder().WithRegions("us-east-1").Build()
}

// FullConfig returns the two-region topology of the original deployment.
func FullConfig() *config.Config {
	return NewConfigBuilder().Build()
}
