package topology

import (
	"fmt"
	"time"

	"github.com/imamik/fleetstack/internal/config"
)

// HealthSourceEdge delegates fleet health to the attached edge's probe.
const HealthSourceEdge = "edge"

// HealthCheck describes how a fleet judges its members.
type HealthCheck struct {
	Source string
	Grace  time.Duration
}

// Fleet is an elastically sized group of identical nodes. Its members are
// only considered live once an Edge is attached: health comes exclusively
// from the edge probe.
type Fleet struct {
	Name        string
	Region      string
	Network     Key
	Tier        string
	Template    Key
	Identity    Key
	MinCapacity int
	MaxCapacity int
	HealthCheck HealthCheck
	Tags        map[string]string `hash:"ignore"`
}

// Key implements Entity.
func (f *Fleet) Key() Key {
	return Key{Kind: KindFleet, Region: f.Region, Name: f.Name}
}

// Dependencies implements Entity.
func (f *Fleet) Dependencies() []Key {
	return []Key{f.Network, f.Template}
}

// FleetSpec is the input of the compute fleet descriptor.
type FleetSpec struct {
	Name             string
	InstanceType     string
	Image            MachineImage
	Payload          []byte
	MinCapacity      int
	MaxCapacity      int
	HealthCheckGrace time.Duration
	Tags             map[string]string
}

// FleetStack is everything one fleet declaration produces. Nothing in it
// is shared with another fleet, even when parameters are identical.
type FleetStack struct {
	Identity      *Identity
	SecurityGroup *SecurityGroup
	Template      *ComputeTemplate
	Fleet         *Fleet
}

// Entities returns the stack's entities in dependency order.
func (s *FleetStack) Entities() []Entity {
	return []Entity{s.Identity, s.SecurityGroup, s.Template, s.Fleet}
}

// NewFleet declares a fleet in the private tier of network, with read-write
// access to table and the management channel.
func NewFleet(network *Network, table *ReplicatedTable, spec FleetSpec) (*FleetStack, error) {
	field := fmt.Sprintf("fleet[%s]", network.Region)

	if len(table.ReplicaRegions) == 0 {
		return nil, config.Errorf("table.replica_regions", "table %q has an empty replica set but fleet %s references it", table.Name, spec.Name)
	}
	if !table.HostsRegion(network.Region) {
		return nil, config.Errorf("table.replica_regions", "fleet region %q is not in the replica set %v of table %q", network.Region, table.Regions(), table.Name)
	}
	if spec.MinCapacity < config.MinFleetCapacity {
		return nil, config.Errorf(field+".min_capacity", "must be at least %d for availability, got %d", config.MinFleetCapacity, spec.MinCapacity)
	}
	maxCapacity := spec.MaxCapacity
	if maxCapacity == 0 {
		maxCapacity = spec.MinCapacity
	}
	if maxCapacity < spec.MinCapacity {
		return nil, config.Errorf(field+".max_capacity", "must be >= min capacity %d, got %d", spec.MinCapacity, maxCapacity)
	}

	tier, ok := network.FirstTier(PrivateWithEgress)
	if !ok {
		return nil, config.Errorf(field, "network %s has no private-with-egress tier for the fleet", network.Name)
	}

	identity := &Identity{
		Name:           spec.Name + "-role",
		Region:         network.Region,
		TrustPrincipal: ComputeServicePrincipal,
		Grants:         []Grant{ReadWriteGrant(table.Key()), ManagementGrant()},
		Tags:           spec.Tags,
	}

	sg := &SecurityGroup{
		Name:    spec.Name + "-sg",
		Region:  network.Region,
		Network: network.Key(),
		Tags:    spec.Tags,
	}

	template, err := NewComputeTemplate(TemplateSpec{
		BaseName:      spec.Name + "-lt",
		Region:        network.Region,
		InstanceType:  spec.InstanceType,
		Image:         spec.Image,
		Payload:       spec.Payload,
		Identity:      identity.Key(),
		SecurityGroup: sg.Key(),
		Tags:          spec.Tags,
	})
	if err != nil {
		return nil, err
	}

	fleet := &Fleet{
		Name:        spec.Name,
		Region:      network.Region,
		Network:     network.Key(),
		Tier:        tier.Name,
		Template:    template.Key(),
		Identity:    identity.Key(),
		MinCapacity: spec.MinCapacity,
		MaxCapacity: maxCapacity,
		HealthCheck: HealthCheck{Source: HealthSourceEdge, Grace: spec.HealthCheckGrace},
		Tags:        spec.Tags,
	}

	return &FleetStack{Identity: identity, SecurityGroup: sg, Template: template, Fleet: fleet}, nil
}
