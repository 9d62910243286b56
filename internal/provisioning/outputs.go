package provisioning

import (
	"fmt"
	"sort"

	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/state"
	"github.com/imamik/fleetstack/internal/topology"
)

// Output names, as exported by the original stacks.
const (
	OutputLoadBalancerDNSName    = "LoadBalancerDNSName"
	OutputARNLoadBalancer        = "ARNLoadBalancer"
	OutputHostedZoneLoadBalancer = "HostedZoneLoadBalancer"
	OutputARNAutoScalingGroup    = "ARNAutoScalingGroup"
	OutputVPCID                  = "VPCID"
	OutputBastionID              = "BastionID"
	OutputTableID                = "TableID"
)

// RegionOutputs are the identifiers of one target region.
type RegionOutputs struct {
	Region         string `yaml:"region" json:"region"`
	NetworkID      string `yaml:"network_id" json:"network_id"`
	EdgeDNSName    string `yaml:"edge_dns_name" json:"edge_dns_name"`
	EdgeARN        string `yaml:"edge_arn" json:"edge_arn"`
	EdgeHostedZone string `yaml:"edge_hosted_zone" json:"edge_hosted_zone"`
	FleetARN       string `yaml:"fleet_arn" json:"fleet_arn"`
}

// AccessOutputs are the identifiers of the access branch.
type AccessOutputs struct {
	Region    string `yaml:"region" json:"region"`
	NodeID    string `yaml:"node_id" json:"node_id"`
	NetworkID string `yaml:"network_id" json:"network_id"`
}

// Outputs are the identifiers a run emits. A region appears in Regions only
// when all of its outputs are realized; otherwise it is listed in
// FailedRegions.
type Outputs struct {
	Topology      string          `yaml:"topology" json:"topology"`
	TableID       string          `yaml:"table_id,omitempty" json:"table_id,omitempty"`
	Regions       []RegionOutputs `yaml:"regions,omitempty" json:"regions,omitempty"`
	FailedRegions []string        `yaml:"failed_regions,omitempty" json:"failed_regions,omitempty"`
	Access        *AccessOutputs  `yaml:"access,omitempty" json:"access,omitempty"`
}

// OutputsFromSnapshot derives the outputs of topo from the complete entries
// of snap.
func OutputsFromSnapshot(topo *topology.Topology, snap *state.Snapshot) *Outputs {
	out := &Outputs{Topology: topo.Name}

	complete := func(k topology.Key) (state.Entry, bool) {
		e, ok := snap.Get(k)
		if !ok || e.Status != materializer.StatusComplete || e.Identity == "" {
			return state.Entry{}, false
		}
		return e, true
	}

	if e, ok := complete(topo.Table.Key()); ok {
		out.TableID = e.Identity
	}

	for _, r := range topo.Regions {
		network, nok := complete(r.Network.Key())
		fleet, fok := complete(r.Compute.Fleet.Key())
		edge, eok := complete(r.Edge.Key())
		if !nok || !fok || !eok {
			out.FailedRegions = append(out.FailedRegions, r.Region)
			continue
		}
		out.Regions = append(out.Regions, RegionOutputs{
			Region:         r.Region,
			NetworkID:      network.Identity,
			EdgeDNSName:    edge.Attributes[materializer.AttrDNSName],
			EdgeARN:        edge.Identity,
			EdgeHostedZone: edge.Attributes[materializer.AttrHostedZoneID],
			FleetARN:       fleet.Identity,
		})
	}

	if a := topo.Access; a != nil {
		network, nok := complete(a.Network.Key())
		node, aok := complete(a.Node.Key())
		if nok && aok {
			out.Access = &AccessOutputs{Region: a.Node.Region, NodeID: node.Identity, NetworkID: network.Identity}
		}
	}

	return out
}

// Region returns the outputs of region.
func (o *Outputs) Region(region string) (RegionOutputs, bool) {
	for _, r := range o.Regions {
		if r.Region == region {
			return r, true
		}
	}
	return RegionOutputs{}, false
}

// Complete reports whether every declared region and the access branch
// produced outputs.
func (o *Outputs) Complete() bool {
	return o.TableID != "" && len(o.FailedRegions) == 0 && o.Access != nil
}

// Named flattens the outputs into region-qualified names such as
// "us-east-1/LoadBalancerDNSName".
func (o *Outputs) Named() map[string]string {
	out := make(map[string]string)
	if o.TableID != "" {
		out[OutputTableID] = o.TableID
	}
	for _, r := range o.Regions {
		out[qualify(r.Region, OutputLoadBalancerDNSName)] = r.EdgeDNSName
		out[qualify(r.Region, OutputARNLoadBalancer)] = r.EdgeARN
		out[qualify(r.Region, OutputHostedZoneLoadBalancer)] = r.EdgeHostedZone
		out[qualify(r.Region, OutputARNAutoScalingGroup)] = r.FleetARN
		out[qualify(r.Region, OutputVPCID)] = r.NetworkID
	}
	if a := o.Access; a != nil {
		out[qualify(a.Region, OutputBastionID)] = a.NodeID
		out[qualify(a.Region, OutputVPCID)] = a.NetworkID
	}
	return out
}

// NamedKeys returns the keys of Named in sorted order.
func (o *Outputs) NamedKeys() []string {
	named := o.Named()
	keys := make([]string, 0, len(named))
	for k := range named {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func qualify(region, name string) string {
	return fmt.Sprintf("%s/%s", region, name)
}
