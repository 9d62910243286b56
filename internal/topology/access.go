package topology

import (
	"fmt"

	"github.com/imamik/fleetstack/internal/config"
)

// AccessNode is the single standing node for operator access. It is never
// a load balancing target and holds no data grant.
type AccessNode struct {
	Name         string
	Region       string
	Network      Key
	Tier         string
	Template     Key
	Identity     Key
	InstanceName string
	Tags         map[string]string `hash:"ignore"`
}

// Key implements Entity.
func (a *AccessNode) Key() Key {
	return Key{Kind: KindAccessNode, Region: a.Region, Name: a.Name}
}

// Dependencies implements Entity.
func (a *AccessNode) Dependencies() []Key {
	return []Key{a.Network, a.Template}
}

// AccessSpec is the input of the access descriptor.
type AccessSpec struct {
	Name         string
	Tier         string
	InstanceType string
	Image        MachineImage
	InstanceName string
	Tags         map[string]string
}

// AccessStack is everything the access declaration produces.
type AccessStack struct {
	Network       *Network
	Identity      *Identity
	SecurityGroup *SecurityGroup
	Template      *ComputeTemplate
	Node          *AccessNode
}

// Entities returns the stack's entities in dependency order.
func (s *AccessStack) Entities() []Entity {
	return []Entity{s.Network, s.Identity, s.SecurityGroup, s.Template, s.Node}
}

// NewAccessNode declares the bastion in the private tier of its own
// network. fleetRegions are the regions hosting fleets; the access region
// must not be one of them.
func NewAccessNode(network *Network, fleetRegions []string, spec AccessSpec) (*AccessStack, error) {
	field := fmt.Sprintf("access[%s]", network.Region)

	for _, r := range fleetRegions {
		if r == network.Region {
			return nil, config.Errorf("access_region", "access region %q also hosts a fleet", r)
		}
	}

	tier, ok := network.Tier(spec.Tier)
	if !ok {
		return nil, config.Errorf(field+".tier", "network %s has no tier %q", network.Name, spec.Tier)
	}
	if tier.Visibility != PrivateWithEgress {
		return nil, config.Errorf(field+".tier", "tier %q must be private, the access node has no public inbound path", spec.Tier)
	}

	identity := &Identity{
		Name:           spec.Name + "-role",
		Region:         network.Region,
		TrustPrincipal: ComputeServicePrincipal,
		Grants:         []Grant{ManagementGrant()},
		Tags:           spec.Tags,
	}

	// No ingress rules: the node is reached over the management channel only.
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
		Identity:      identity.Key(),
		SecurityGroup: sg.Key(),
		Tags:          spec.Tags,
	})
	if err != nil {
		return nil, err
	}

	node := &AccessNode{
		Name:         spec.Name,
		Region:       network.Region,
		Network:      network.Key(),
		Tier:         tier.Name,
		Template:     template.Key(),
		Identity:     identity.Key(),
		InstanceName: spec.InstanceName,
		Tags:         spec.Tags,
	}

	return &AccessStack{Network: network, Identity: identity, SecurityGroup: sg, Template: template, Node: node}, nil
}
