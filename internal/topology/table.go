package topology

import (
	"slices"
	"sort"

	"github.com/imamik/fleetstack/internal/config"
)

// ReplicatedTable is a single logical keyed dataset replicated across
// regions. Its identity is the same in every region it is replicated to.
type ReplicatedTable struct {
	Name           string
	PrimaryRegion  string
	ReplicaRegions []string
	PartitionKey   config.KeyAttribute
	BillingMode    string
	Tags           map[string]string `hash:"ignore"`
}

// TableSpec is the input of the data tier descriptor.
type TableSpec struct {
	Name           string
	PrimaryRegion  string
	ReplicaRegions []string
	PartitionKey   config.KeyAttribute
	BillingMode    string
	Tags           map[string]string
}

// NewReplicatedTable declares the data tier. The replica set may be empty
// here; NewFleet rejects a table without replicas.
func NewReplicatedTable(spec TableSpec) (*ReplicatedTable, error) {
	if spec.Name == "" {
		return nil, config.Errorf("table.name", "table name is required")
	}
	if spec.PrimaryRegion == "" {
		return nil, config.Errorf("primary_region", "table %q needs a primary region", spec.Name)
	}

	replicas := make([]string, 0, len(spec.ReplicaRegions))
	for _, r := range spec.ReplicaRegions {
		if !slices.Contains(replicas, r) {
			replicas = append(replicas, r)
		}
	}
	sort.Strings(replicas)

	return &ReplicatedTable{
		Name:           spec.Name,
		PrimaryRegion:  spec.PrimaryRegion,
		ReplicaRegions: replicas,
		PartitionKey:   spec.PartitionKey,
		BillingMode:    spec.BillingMode,
		Tags:           spec.Tags,
	}, nil
}

// Key implements Entity.
func (t *ReplicatedTable) Key() Key {
	return Key{Kind: KindTable, Region: GlobalRegion, Name: t.Name}
}

// Dependencies implements Entity. The table has none.
func (t *ReplicatedTable) Dependencies() []Key {
	return nil
}

// Regions returns every region hosting a copy of the table, sorted.
func (t *ReplicatedTable) Regions() []string {
	out := append([]string(nil), t.ReplicaRegions...)
	if !slices.Contains(out, t.PrimaryRegion) {
		out = append(out, t.PrimaryRegion)
	}
	sort.Strings(out)
	return out
}

// HostsRegion reports whether the table is readable and writable locally in
// region.
func (t *ReplicatedTable) HostsRegion(region string) bool {
	return region == t.PrimaryRegion || slices.Contains(t.ReplicaRegions, region)
}
