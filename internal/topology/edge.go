package topology

import (
	"fmt"
	"time"

	"github.com/imamik/fleetstack/internal/config"
)

// AnyIPv4 is the source of an open listener.
const AnyIPv4 = "0.0.0.0/0"

// Edge is a public entry point distributing load across one fleet.
type Edge struct {
	Name    string
	Region  string
	Network Key
	Tier    string
	Fleet   Key

	// FleetSecurityGroup receives the ingress rule admitting the edge on
	// BackendPort.
	FleetSecurityGroup Key

	ListenPort      int
	BackendPort     int
	SessionAffinity time.Duration
	Sources         []string
	InternetFacing  bool
	Tags            map[string]string `hash:"ignore"`
}

// Key implements Entity.
func (e *Edge) Key() Key {
	return Key{Kind: KindEdge, Region: e.Region, Name: e.Name}
}

// Dependencies implements Entity. The edge waits for the fleet to exist,
// not for it to be fully scaled.
func (e *Edge) Dependencies() []Key {
	return []Key{e.Network, e.Fleet, e.FleetSecurityGroup}
}

// Open reports whether the listener admits all inbound traffic.
func (e *Edge) Open() bool {
	return len(e.Sources) == 1 && e.Sources[0] == AnyIPv4
}

// EdgeSpec is the input of the edge descriptor.
type EdgeSpec struct {
	Name            string
	ListenPort      int
	BackendPort     int
	SessionAffinity time.Duration

	// Open admits everyone. When false, only AllowedCIDRs may connect.
	Open         bool
	AllowedCIDRs []string
	Tags         map[string]string
}

// NewEdge declares the load balancer in the public tier of network, in
// front of stack's fleet. The fleet must live in that same network.
func NewEdge(network *Network, stack *FleetStack, spec EdgeSpec) (*Edge, error) {
	field := fmt.Sprintf("edge[%s]", network.Region)

	if stack.Fleet.Network != network.Key() {
		return nil, config.Errorf(field, "fleet %s lives in network %s, not %s", stack.Fleet.Name, stack.Fleet.Network, network.Key())
	}
	if spec.ListenPort < 1 || spec.ListenPort > 65535 {
		return nil, config.Errorf(field+".listen_port", "port %d out of range", spec.ListenPort)
	}
	if spec.BackendPort < 1 || spec.BackendPort > 65535 {
		return nil, config.Errorf(field+".backend_port", "port %d out of range", spec.BackendPort)
	}
	if spec.SessionAffinity <= 0 {
		return nil, config.Errorf(field+".session_affinity", "must be positive")
	}

	tier, ok := network.FirstTier(Public)
	if !ok {
		return nil, config.Errorf(field, "network %s has no public tier for the edge", network.Name)
	}

	sources := []string{AnyIPv4}
	if !spec.Open {
		if len(spec.AllowedCIDRs) == 0 {
			return nil, config.Errorf(field+".allowed_cidrs", "a closed listener needs at least one allowed CIDR")
		}
		sources = append([]string(nil), spec.AllowedCIDRs...)
	}

	return &Edge{
		Name:               spec.Name,
		Region:             network.Region,
		Network:            network.Key(),
		Tier:               tier.Name,
		Fleet:              stack.Fleet.Key(),
		FleetSecurityGroup: stack.SecurityGroup.Key(),
		ListenPort:         spec.ListenPort,
		BackendPort:        spec.BackendPort,
		SessionAffinity:    spec.SessionAffinity,
		Sources:            sources,
		InternetFacing:     true,
		Tags:               spec.Tags,
	}, nil
}
