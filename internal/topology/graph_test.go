package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// node is a minimal Entity for graph tests.
type node struct {
	key  Key
	deps []Key
}

func (n node) Key() Key             { return n.key }
func (n node) Dependencies() []Key { return n.deps }

func k(kind Kind, name string) Key {
	return Key{Kind: kind, Region: "r", Name: name}
}

func TestGraphAdd(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	require.NoError(t, g.Add(node{key: k(KindNetwork, "a")}))
	assert.Error(t, g.Add(node{key: k(KindNetwork, "a")}), "duplicate keys are rejected")
	assert.Error(t, g.Add(node{key: Key{Kind: KindNetwork, Name: "no-region"}}))
	assert.Equal(t, 1, g.Len())
}

func TestGraphTopologicalOrder(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	table := k(KindTable, "t")
	net := k(KindNetwork, "n")
	id := k(KindIdentity, "i")
	fleet := k(KindFleet, "f")
	edge := k(KindEdge, "e")

	// Insert in reverse to show order does not depend on insertion.
	require.NoError(t, g.Add(node{key: edge, deps: []Key{net, fleet}}))
	require.NoError(t, g.Add(node{key: fleet, deps: []Key{net, id}}))
	require.NoError(t, g.Add(node{key: id, deps: []Key{table}}))
	require.NoError(t, g.Add(node{key: net}))
	require.NoError(t, g.Add(node{key: table}))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []Key{table, net, id, fleet, edge}, order)

	assert.Equal(t, []Key{fleet, edge}, g.Dependents(net))
	assert.Equal(t, []Key{net, id}, g.Dependencies(fleet))
}

func TestGraphValidateMissingDependency(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	require.NoError(t, g.Add(node{key: k(KindFleet, "f"), deps: []Key{k(KindNetwork, "missing")}}))

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared entity network/r/missing")
}

func TestGraphValidateCycle(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	a, b, c := k(KindFleet, "a"), k(KindFleet, "b"), k(KindFleet, "c")
	require.NoError(t, g.Add(node{key: a, deps: []Key{b}}))
	require.NoError(t, g.Add(node{key: b, deps: []Key{c}}))
	require.NoError(t, g.Add(node{key: c, deps: []Key{a}}))
	require.NoError(t, g.Add(node{key: k(KindTable, "free")}))

	err := g.Validate()
	require.Error(t, err)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	require.GreaterOrEqual(t, len(cycle.Path), 4)
	assert.Equal(t, cycle.Path[0], cycle.Path[len(cycle.Path)-1])
}

func TestGraphInRegion(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	require.NoError(t, g.Add(node{key: Key{Kind: KindNetwork, Region: "a", Name: "n"}}))
	require.NoError(t, g.Add(node{key: Key{Kind: KindFleet, Region: "a", Name: "f"}}))
	require.NoError(t, g.Add(node{key: Key{Kind: KindNetwork, Region: "b", Name: "n"}}))

	keys := g.InRegion("a")
	require.Len(t, keys, 2)
	assert.Equal(t, KindNetwork, keys[0].Kind)
	assert.Equal(t, KindFleet, keys[1].Kind)
}
