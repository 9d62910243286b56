package topology

import (
	"errors"
	"fmt"
	"sort"

	"github.com/imamik/fleetstack/internal/config"
	"github.com/imamik/fleetstack/internal/util/labels"
	"github.com/imamik/fleetstack/internal/util/naming"
)

// RegionStack is the Network, Fleet and Edge of one target region.
type RegionStack struct {
	Region  string
	Network *Network
	Compute *FleetStack
	Edge    *Edge
}

// Entities returns the region's entities in dependency order.
func (s *RegionStack) Entities() []Entity {
	out := []Entity{s.Network}
	out = append(out, s.Compute.Entities()...)
	return append(out, s.Edge)
}

// Topology is the complete set of entities of one deployment and the
// dependency graph between them. It is built once per run and passed
// explicitly to every component.
type Topology struct {
	Name    string
	Table   *ReplicatedTable
	Regions []*RegionStack
	Access  *AccessStack

	graph *Graph
}

// Graph returns the dependency graph.
func (t *Topology) Graph() *Graph {
	return t.graph
}

// Region returns the stack of a target region.
func (t *Topology) Region(name string) (*RegionStack, bool) {
	for _, r := range t.Regions {
		if r.Region == name {
			return r, true
		}
	}
	return nil, false
}

// FleetRegions returns the target regions, sorted.
func (t *Topology) FleetRegions() []string {
	out := make([]string, 0, len(t.Regions))
	for _, r := range t.Regions {
		out = append(out, r.Region)
	}
	return out
}

// Fleets returns every fleet stack in region order.
func (t *Topology) Fleets() []*FleetStack {
	out := make([]*FleetStack, 0, len(t.Regions))
	for _, r := range t.Regions {
		out = append(out, r.Compute)
	}
	return out
}

// Build assembles the topology described by cfg. cfg must have defaults
// applied. Every descriptor error is a ConfigurationError and is returned
// before anything is materialized. The result does not depend on the order
// of cfg.Regions.
func Build(cfg *config.Config) (*Topology, error) {
	if len(cfg.Regions) == 0 {
		return nil, config.Errorf("regions", "at least one target region is required")
	}

	regions := append([]string(nil), cfg.Regions...)
	sort.Strings(regions)
	for i := 1; i < len(regions); i++ {
		if regions[i] == regions[i-1] {
			return nil, config.Errorf("regions", "region %q is listed twice", regions[i])
		}
	}

	table, err := NewReplicatedTable(TableSpec{
		Name:           cfg.Table.Name,
		PrimaryRegion:  cfg.PrimaryRegion,
		ReplicaRegions: cfg.Table.ReplicaRegions,
		PartitionKey:   cfg.Table.PartitionKey,
		BillingMode:    cfg.Table.BillingMode,
		Tags:           tags(cfg, GlobalRegion, labels.RoleData),
	})
	if err != nil {
		return nil, err
	}

	t := &Topology{Name: cfg.Name, Table: table, graph: NewGraph()}

	var errs []error
	for _, region := range regions {
		stack, err := buildRegion(cfg, table, region)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		t.Regions = append(t.Regions, stack)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	access, err := buildAccess(cfg, regions)
	if err != nil {
		return nil, err
	}
	t.Access = access

	entities := []Entity{table}
	for _, r := range t.Regions {
		entities = append(entities, r.Entities()...)
	}
	entities = append(entities, access.Entities()...)
	for _, e := range entities {
		if err := t.graph.Add(e); err != nil {
			return nil, fmt.Errorf("failed to assemble topology %s: %w", cfg.Name, err)
		}
	}
	if err := t.graph.Validate(); err != nil {
		return nil, fmt.Errorf("failed to assemble topology %s: %w", cfg.Name, err)
	}

	return t, nil
}

func buildRegion(cfg *config.Config, table *ReplicatedTable, region string) (*RegionStack, error) {
	capacity, ok := cfg.AZCapacity(region)
	if !ok {
		return nil, config.Errorf("regions", "unknown region %q; add it to region_capacity", region)
	}

	netCfg := cfg.NetworkFor(region)
	network, err := NewNetwork(NetworkSpec{
		Name:       naming.Network(cfg.Name, region),
		Region:     region,
		CIDR:       netCfg.CIDR,
		AZCount:    netCfg.AZCount,
		AZCapacity: capacity,
		Tiers:      TiersFromConfig(netCfg.Tiers),
		Tags:       tags(cfg, region, labels.RoleNetwork),
	})
	if err != nil {
		return nil, err
	}

	compute, err := NewFleet(network, table, FleetSpec{
		Name:             naming.Fleet(cfg.Name, region),
		InstanceType:     cfg.Fleet.InstanceType,
		Image:            MachineImage{Family: cfg.Fleet.Image.Family, Architecture: cfg.Fleet.Image.Architecture},
		Payload:          []byte(cfg.Fleet.Payload),
		MinCapacity:      cfg.Fleet.MinCapacity,
		MaxCapacity:      cfg.Fleet.MaxCapacity,
		HealthCheckGrace: cfg.Fleet.HealthCheckGrace,
		Tags:             tags(cfg, region, labels.RoleApp),
	})
	if err != nil {
		return nil, err
	}

	edge, err := NewEdge(network, compute, EdgeSpec{
		Name:            naming.Edge(cfg.Name, region),
		ListenPort:      cfg.Edge.ListenPort,
		BackendPort:     cfg.Edge.BackendPort,
		SessionAffinity: cfg.Edge.SessionAffinity,
		Open:            cfg.EdgeOpen(),
		AllowedCIDRs:    cfg.Edge.AllowedCIDRs,
		Tags:            tags(cfg, region, labels.RoleEdge),
	})
	if err != nil {
		return nil, err
	}

	return &RegionStack{Region: region, Network: network, Compute: compute, Edge: edge}, nil
}

func buildAccess(cfg *config.Config, fleetRegions []string) (*AccessStack, error) {
	region := cfg.AccessRegion
	if region == "" {
		return nil, config.Errorf("access_region", "an access region is required")
	}
	capacity, ok := cfg.AZCapacity(region)
	if !ok {
		return nil, config.Errorf("access_region", "unknown region %q; add it to region_capacity", region)
	}

	a := cfg.Access
	network, err := NewNetwork(NetworkSpec{
		Name:       naming.AccessNetwork(cfg.Name, region),
		Region:     region,
		CIDR:       a.Network.CIDR,
		AZCount:    a.Network.AZCount,
		AZCapacity: capacity,
		Tiers:      TiersFromConfig(a.Network.Tiers),
		Tags:       tags(cfg, region, labels.RoleAccess),
	})
	if err != nil {
		return nil, err
	}

	return NewAccessNode(network, fleetRegions, AccessSpec{
		Name:         naming.AccessNode(cfg.Name, region),
		Tier:         a.Tier,
		InstanceType: a.InstanceType,
		Image:        MachineImage{Family: a.Image.Family, Architecture: a.Image.Architecture},
		InstanceName: a.InstanceName,
		Tags:         tags(cfg, region, labels.RoleAccess),
	})
}

func tags(cfg *config.Config, region, role string) map[string]string {
	return labels.NewLabelBuilder(cfg.Name).WithRegion(region).WithRole(role).Merge(cfg.Tags).Build()
}
