package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph(t *testing.T) {
	g := New()
	require.NotNil(t, g.Nodes)
	require.NotNil(t, g.NameIndex)
	assert.Equal(t, 0, g.NodeCount())
}

func TestAddNodeAndLookup(t *testing.T) {
	g := New()
	id := NewNodeID("plate")
	g.AddNode(&Node{ID: id, Kind: NodePrimitive, Name: "plate", Data: BoxData{Dimensions: Vec3{100, 50, 10}}})
	g.AddRoot(id)

	assert.Equal(t, 1, g.NodeCount())
	require.NotNil(t, g.Lookup("plate"))
	assert.Equal(t, id, g.MustLookup("plate").ID)
	assert.Nil(t, g.Lookup("nonexistent"))
	assert.Panics(t, func() { g.MustLookup("nonexistent") })
	assert.Equal(t, "plate", g.Get(id).Name)
}

func TestChildrenSkipsMissing(t *testing.T) {
	g := New()
	a, b := NewNodeID("a"), NewNodeID("b")
	g.AddNode(&Node{ID: a, Kind: NodePrimitive, Data: BoxData{Dimensions: Vec3{1, 1, 1}}})
	grp := &Node{ID: NewNodeID("g"), Kind: NodeGroup, Children: []NodeID{a, b}}
	g.AddNode(grp)
	children := g.Children(grp)
	require.Len(t, children, 1)
	assert.Equal(t, a, children[0].ID)
}

func TestNodeID(t *testing.T) {
	id := NewNodeID("bracket/hole")
	assert.Equal(t, id, NewNodeID("bracket/hole"))
	assert.NotEqual(t, id, NewNodeID("bracket/slot"))
	assert.Len(t, id.Short(), 8)
	assert.Equal(t, "ab", NodeID("ab").Short())
	assert.True(t, NodeID("").IsZero())
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "boolean", NodeBoolean.String())
	assert.Equal(t, "unknown", NodeKind(99).String())
	assert.Equal(t, "difference", OpDifference.String())
	assert.Equal(t, "BooleanOp(7)", BooleanOp(7).String())
}
