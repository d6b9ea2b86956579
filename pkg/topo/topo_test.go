package topo

import (
	"testing"

	"github.com/chazu/brep/pkg/geom"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitBox(t *testing.T) Shape {
	t.Helper()
	b, err := MakeBox(geom.Point{}, 1, 1, 1)
	require.NoError(t, err)
	return b
}

func TestBoxCounts(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	b := unitBox(t)
	c := Count(b)
	assert.Equal(t, 8, c.Vertices)
	assert.Equal(t, 12, c.Edges)
	assert.Equal(t, 6, c.Wires)
	assert.Equal(t, 6, c.Faces)
	assert.Equal(t, 1, c.Shells)
	assert.Equal(t, 1, c.Solids)
	assert.Empty(t, Check(b))
}

func TestMassProperties(t *testing.T) {
	b, err := MakeBox(geom.Point{X: 1, Y: 2, Z: 3}, 2, 3, 4)
	require.NoError(t, err)
	assert.InDelta(t, 24.0, Volume(b), 1e-9)
	assert.InDelta(t, 2*(6+8+12), Area(b), 1e-9)
	assert.InDelta(t, 4*(2+3+4), Length(b), 1e-9)
	assert.InDelta(t, -24.0, Volume(b.Reversed()), 1e-9)
}

func TestPrism(t *testing.T) {
	// L-shaped profile, given clockwise on purpose
	profile := []geom.Point{
		{X: 0, Y: 0}, {X: 0, Y: 2}, {X: 1, Y: 2}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 0},
	}
	p, err := MakePrism(profile, geom.Vec{Z: 1})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, Volume(p), 1e-9)
	c := Count(p)
	assert.Equal(t, 8, c.Faces)
	assert.Equal(t, 18, c.Edges)
	assert.Empty(t, Check(p))
}

func TestEdgeOrientation(t *testing.T) {
	v1 := MakeVertex(geom.Point{}, geom.Confusion)
	v2 := MakeVertex(geom.Point{X: 1}, geom.Confusion)
	e, err := MakeSegment(v1, v2)
	require.NoError(t, err)
	a, b := EdgeVertices(e)
	assert.True(t, a.IsSame(v1))
	assert.True(t, b.IsSame(v2))
	a, b = EdgeVertices(e.Reversed())
	assert.True(t, a.IsSame(v2))
	assert.True(t, b.IsSame(v1))
	p, q := EdgeEnds(e.Reversed())
	assert.InDelta(t, 1.0, p.X, 1e-12)
	assert.InDelta(t, 0.0, q.X, 1e-12)
	assert.True(t, e.IsSame(e.Reversed()))
	assert.False(t, e.IsEqual(e.Reversed()))
}

func TestClassifyPointInFace(t *testing.T) {
	f, err := MakePolygonFace(geom.Point{}, geom.Point{X: 2}, geom.Point{X: 2, Y: 2}, geom.Point{Y: 2})
	require.NoError(t, err)
	tests := []struct {
		name string
		p    geom.Point
		want State
	}{
		{"inside", geom.Point{X: 1, Y: 1}, StateIn},
		{"outside", geom.Point{X: 3, Y: 1}, StateOut},
		{"on edge", geom.Point{X: 2, Y: 1}, StateOn},
		{"on vertex", geom.Point{}, StateOn},
		{"above plane", geom.Point{X: 1, Y: 1, Z: 0.1}, StateOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPointInFace(f, tt.p, 1e-7); got != tt.want {
				t.Errorf("ClassifyPointInFace(%v) = %s, want %s", tt.p, got, tt.want)
			}
		})
	}
}

func TestClassifyPointInSolid(t *testing.T) {
	b := unitBox(t)
	tests := []struct {
		name string
		p    geom.Point
		want State
	}{
		{"center", geom.Point{X: 0.5, Y: 0.5, Z: 0.5}, StateIn},
		{"outside", geom.Point{X: 1.5, Y: 0.5, Z: 0.5}, StateOut},
		{"on face", geom.Point{X: 1, Y: 0.5, Z: 0.5}, StateOn},
		{"near corner", geom.Point{X: 0.01, Y: 0.99, Z: 0.01}, StateIn},
		{"diagonal outside", geom.Point{X: 2, Y: 2, Z: 2}, StateOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyPointInSolid(b, tt.p, 1e-7)
			require.NoError(t, err)
			if got != tt.want {
				t.Errorf("ClassifyPointInSolid(%v) = %s, want %s", tt.p, got, tt.want)
			}
		})
	}
}

func TestCheckFindsOpenShell(t *testing.T) {
	b := unitBox(t)
	faces := Explore(b, KindFace)
	open := MakeSolid(MakeShell(faces[:5]...))
	ps := Check(open)
	require.True(t, HasErrors(ps))
	assert.Equal(t, CodeOpenShell, ps[0].Code)
	assert.Contains(t, ps[0].Error(), "OPEN_SHELL")
}

func TestCheckFindsSelfIntersection(t *testing.T) {
	f, err := MakePolygonFace(geom.Point{}, geom.Point{X: 4}, geom.Point{X: 4, Y: 3}, geom.Point{X: 2, Y: -1}, geom.Point{Y: 3})
	require.NoError(t, err)
	ps := Check(f)
	require.True(t, HasErrors(ps))
	found := false
	for _, p := range ps {
		found = found || p.Code == CodeSelfIntersection
	}
	assert.True(t, found)
}

func TestCheckNull(t *testing.T) {
	ps := Check(Shape{})
	require.Len(t, ps, 1)
	assert.Equal(t, CodeNullShape, ps[0].Code)
}

func TestTransformedKeepsSharing(t *testing.T) {
	b := unitBox(t)
	moved := Translated(b, geom.Vec{X: 5})
	c := Count(moved)
	assert.Equal(t, 8, c.Vertices)
	assert.Equal(t, 12, c.Edges)
	assert.InDelta(t, 1.0, Volume(moved), 1e-9)
	box := BoundingBox(moved)
	assert.InDelta(t, 5.0, box.Min.X, 1e-12)
	assert.InDelta(t, 6.0, box.Max.X, 1e-12)
	assert.True(t, IsClosedShell(moved.Children()[0]))
}

func TestExploreUnique(t *testing.T) {
	b := unitBox(t)
	edges := Explore(b, KindEdge)
	assert.Len(t, edges, 12)
	seen := map[*TShape]bool{}
	for _, e := range edges {
		assert.False(t, seen[e.TShape()])
		seen[e.TShape()] = true
	}
	assert.Len(t, Explore(MakeCompound(b, b), KindSolid), 1)
	assert.True(t, IsEmpty(MakeCompound()))
}
