package topology

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// kindRank orders ready entities of different kinds deterministically.
var kindRank = map[Kind]int{
	KindTable:         0,
	KindNetwork:       1,
	KindIdentity:      2,
	KindSecurityGroup: 3,
	KindTemplate:      4,
	KindFleet:         5,
	KindEdge:          6,
	KindAccessNode:    7,
}

// Graph is the dependency DAG of a topology. Edges run from an entity to
// each of its dependencies.
type Graph struct {
	nodes      map[Key]Entity
	dependents map[Key][]Key
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[Key]Entity),
		dependents: make(map[Key][]Key),
	}
}

// Add inserts an entity. Keys must be unique.
func (g *Graph) Add(e Entity) error {
	k := e.Key()
	if k.Kind == "" || k.Region == "" || k.Name == "" {
		return fmt.Errorf("entity key %q is incomplete", k)
	}
	if _, exists := g.nodes[k]; exists {
		return fmt.Errorf("duplicate entity %s", k)
	}
	g.nodes[k] = e
	for _, d := range e.Dependencies() {
		g.dependents[d] = append(g.dependents[d], k)
	}
	return nil
}

// Get returns the entity stored under k.
func (g *Graph) Get(k Key) (Entity, bool) {
	e, ok := g.nodes[k]
	return e, ok
}

// Len returns the number of entities.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Keys returns every key in deterministic order.
func (g *Graph) Keys() []Key {
	keys := make([]Key, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Dependencies returns the direct dependencies of k.
func (g *Graph) Dependencies(k Key) []Key {
	e, ok := g.nodes[k]
	if !ok {
		return nil
	}
	return e.Dependencies()
}

// Dependents returns the entities that directly depend on k, sorted.
func (g *Graph) Dependents(k Key) []Key {
	out := slices.Clone(g.dependents[k])
	sortKeys(out)
	return out
}

// InRegion returns the keys declared in region, sorted.
func (g *Graph) InRegion(region string) []Key {
	var out []Key
	for k := range g.nodes {
		if k.Region == region {
			out = append(out, k)
		}
	}
	sortKeys(out)
	return out
}

// Validate checks that every dependency is declared and that the graph is
// acyclic.
func (g *Graph) Validate() error {
	var errs []error
	for _, k := range g.Keys() {
		for _, d := range g.nodes[k].Dependencies() {
			if _, ok := g.nodes[d]; !ok {
				errs = append(errs, fmt.Errorf("%s depends on undeclared entity %s", k, d))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	_, err := g.TopologicalOrder()
	return err
}

// TopologicalOrder returns the keys ordered so that every entity comes after
// its dependencies. Ties are broken by kind, then by key, so the order is
// stable across runs.
func (g *Graph) TopologicalOrder() ([]Key, error) {
	indegree := make(map[Key]int, len(g.nodes))
	for k, e := range g.nodes {
		n := 0
		for _, d := range e.Dependencies() {
			if _, ok := g.nodes[d]; ok {
				n++
			}
		}
		indegree[k] = n
	}

	var ready []Key
	for k, n := range indegree {
		if n == 0 {
			ready = append(ready, k)
		}
	}

	order := make([]Key, 0, len(g.nodes))
	for len(ready) > 0 {
		sortKeys(ready)
		k := ready[0]
		ready = ready[1:]
		order = append(order, k)
		for _, dep := range g.dependents[k] {
			if _, ok := indegree[dep]; !ok {
				continue
			}
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, &CycleError{Path: g.findCycle(indegree)}
	}
	return order, nil
}

// findCycle walks unresolved entities until one repeats.
func (g *Graph) findCycle(indegree map[Key]int) []Key {
	var start Key
	for _, k := range g.Keys() {
		if indegree[k] > 0 {
			start = k
			break
		}
	}
	seen := make(map[Key]int)
	var path []Key
	for k := start; ; {
		if i, ok := seen[k]; ok {
			return append(path[i:], k)
		}
		seen[k] = len(path)
		path = append(path, k)
		next := Key{}
		for _, d := range g.nodes[k].Dependencies() {
			if indegree[d] > 0 {
				next = d
				break
			}
		}
		if next.IsZero() {
			return path
		}
		k = next
	}
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := kindRank[keys[i].Kind], kindRank[keys[j].Kind]
		if ri != rj {
			return ri < rj
		}
		return keys[i].String() < keys[j].String()
	})
}
