package topology

import (
	"fmt"
	"strings"
)

// Kind is the type of an infrastructure entity.
type Kind string

// Entity kinds, in the order they are usually materialized.
const (
	KindTable         Kind = "table"
	KindNetwork       Kind = "network"
	KindIdentity      Kind = "identity"
	KindSecurityGroup Kind = "security-group"
	KindTemplate      Kind = "template"
	KindFleet         Kind = "fleet"
	KindEdge          Kind = "edge"
	KindAccessNode    Kind = "access-node"
)

// GlobalRegion is the region component of keys for entities that span
// regions, such as the replicated table.
const GlobalRegion = "global"

// Key identifies an entity within a topology. Keys are plain values: an
// entity refers to its dependencies by key and receives their realized
// identities at materialization time, never a live handle.
type Key struct {
	Kind   Kind   `yaml:"kind"`
	Region string `yaml:"region"`
	Name   string `yaml:"name"`
}

// String renders the key as kind/region/name.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Region, k.Name)
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Key{}, fmt.Errorf("invalid entity key %q", s)
	}
	return Key{Kind: Kind(parts[0]), Region: parts[1], Name: parts[2]}, nil
}

// Entity is a node of the topology graph.
type Entity interface {
	// Key returns the stable identity key of the entity.
	Key() Key
	// Dependencies returns the keys that must be fully realized before the
	// entity may be materialized.
	Dependencies() []Key
}

// TagsOf returns the tags declared on e.
func TagsOf(e Entity) map[string]string {
	switch v := e.(type) {
	case *ReplicatedTable:
		return v.Tags
	case *Network:
		return v.Tags
	case *Identity:
		return v.Tags
	case *SecurityGroup:
		return v.Tags
	case *ComputeTemplate:
		return v.Tags
	case *Fleet:
		return v.Tags
	case *Edge:
		return v.Tags
	case *AccessNode:
		return v.Tags
	default:
		return nil
	}
}
