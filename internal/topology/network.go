package topology

import (
	"fmt"

	"github.com/imamik/fleetstack/internal/config"
)

// Visibility of a subnet tier.
type Visibility string

// Subnet tier visibilities.
const (
	Public            Visibility = config.VisibilityPublic
	PrivateWithEgress Visibility = config.VisibilityPrivateWithEgress
)

// SubnetTier is one layer of a network, repeated in every AZ.
type SubnetTier struct {
	Name       string
	Visibility Visibility
	Mask       int
}

// Subnet is a tier's slice of the address block in one AZ.
type Subnet struct {
	Tier       string
	Visibility Visibility
	AZ         int
	CIDR       string
}

// Network is a region-scoped address space.
type Network struct {
	Name    string
	Region  string
	CIDR    string
	AZCount int
	Tiers   []SubnetTier
	Subnets []Subnet

	// NATSubnet is the public subnet hosting the network's single NAT
	// egress point, empty when no tier needs egress. One NAT per network
	// is a deliberate cost trade-off: losing its AZ cuts egress for every
	// private subnet.
	NATSubnet string
	Tags      map[string]string `hash:"ignore"`
}

// NetworkSpec is the input of the network descriptor.
type NetworkSpec struct {
	Name       string
	Region     string
	CIDR       string
	AZCount    int
	AZCapacity int
	Tiers      []SubnetTier
	Tags       map[string]string
}

// NewNetwork declares a network with one subnet per tier per AZ. Subnets
// are carved from the block in tier order, AZ by AZ, the way
// Terraform's cidrsubnet numbers them.
func NewNetwork(spec NetworkSpec) (*Network, error) {
	field := fmt.Sprintf("network[%s]", spec.Region)

	if spec.Region == "" {
		return nil, config.Errorf(field, "region is required")
	}
	prefix, err := config.ParseIPv4Prefix(spec.CIDR)
	if err != nil {
		return nil, &config.ConfigurationError{Field: field + ".cidr", Message: err.Error(), Err: err}
	}
	if spec.AZCount < 1 {
		return nil, config.Errorf(field+".az_count", "must be at least 1, got %d", spec.AZCount)
	}
	if spec.AZCapacity > 0 && spec.AZCount > spec.AZCapacity {
		return nil, config.Errorf(field+".az_count", "%d availability zones requested but %s offers %d", spec.AZCount, spec.Region, spec.AZCapacity)
	}
	if len(spec.Tiers) == 0 {
		return nil, config.Errorf(field+".tiers", "at least one subnet tier is required")
	}

	n := &Network{
		Name:    spec.Name,
		Region:  spec.Region,
		CIDR:    prefix.String(),
		AZCount: spec.AZCount,
		Tiers:   append([]SubnetTier(nil), spec.Tiers...),
		Tags:    spec.Tags,
	}

	seen := make(map[string]bool)
	needsEgress := false
	// next is the offset of the first free address in the block. Each tier
	// is aligned to its own subnet size before carving.
	var next uint64
	for _, tier := range spec.Tiers {
		tierField := fmt.Sprintf("%s.tiers[%s]", field, tier.Name)
		if tier.Name == "" {
			return nil, config.Errorf(field+".tiers", "tier name is required")
		}
		if seen[tier.Name] {
			return nil, config.Errorf(tierField, "duplicate tier name")
		}
		seen[tier.Name] = true

		switch tier.Visibility {
		case Public:
		case PrivateWithEgress:
			needsEgress = true
		default:
			return nil, config.Errorf(tierField, "unknown visibility %q", tier.Visibility)
		}
		if tier.Mask < prefix.Bits() || tier.Mask > 28 {
			return nil, config.Errorf(tierField, "mask /%d must be between /%d and /28", tier.Mask, prefix.Bits())
		}

		size := uint64(1) << (32 - tier.Mask)
		if rem := next % size; rem != 0 {
			next += size - rem
		}
		for az := 0; az < spec.AZCount; az++ {
			netnum := next / size
			cidr, err := config.CIDRSubnet(n.CIDR, tier.Mask-prefix.Bits(), int(netnum))
			if err != nil {
				return nil, &config.ConfigurationError{
					Field:   tierField,
					Message: fmt.Sprintf("address block %s exhausted: %v", n.CIDR, err),
					Err:     err,
				}
			}
			n.Subnets = append(n.Subnets, Subnet{Tier: tier.Name, Visibility: tier.Visibility, AZ: az, CIDR: cidr})
			next += size
		}
	}

	if needsEgress {
		nat := n.firstSubnet(Public)
		if nat == nil {
			return nil, config.Errorf(field+".tiers", "private-with-egress tiers need a public tier to host the NAT gateway")
		}
		n.NATSubnet = nat.CIDR
	}

	return n, nil
}

// Key implements Entity.
func (n *Network) Key() Key {
	return Key{Kind: KindNetwork, Region: n.Region, Name: n.Name}
}

// Dependencies implements Entity. Networks have none.
func (n *Network) Dependencies() []Key {
	return nil
}

// Tier returns the tier with the given name.
func (n *Network) Tier(name string) (SubnetTier, bool) {
	for _, t := range n.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return SubnetTier{}, false
}

// FirstTier returns the first tier with the given visibility.
func (n *Network) FirstTier(v Visibility) (SubnetTier, bool) {
	for _, t := range n.Tiers {
		if t.Visibility == v {
			return t, true
		}
	}
	return SubnetTier{}, false
}

// SubnetsIn returns the subnets of a tier, one per AZ.
func (n *Network) SubnetsIn(tier string) []Subnet {
	var out []Subnet
	for _, s := range n.Subnets {
		if s.Tier == tier {
			out = append(out, s)
		}
	}
	return out
}

// NATGateways returns the number of NAT egress points of the network.
func (n *Network) NATGateways() int {
	if n.NATSubnet == "" {
		return 0
	}
	return 1
}

func (n *Network) firstSubnet(v Visibility) *Subnet {
	for i := range n.Subnets {
		if n.Subnets[i].Visibility == v {
			return &n.Subnets[i]
		}
	}
	return nil
}

// TiersFromConfig converts configured tiers.
func TiersFromConfig(tiers []config.TierConfig) []SubnetTier {
	out := make([]SubnetTier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, SubnetTier{Name: t.Name, Visibility: Visibility(t.Visibility), Mask: t.Mask})
	}
	return out
}
