package bop

import (
	"testing"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segment(t *testing.T, p, q geom.Point) topo.Shape {
	t.Helper()
	e, err := topo.MakeSegment(topo.MakeVertex(p, geom.Confusion), topo.MakeVertex(q, geom.Confusion))
	require.NoError(t, err)
	return e
}

func TestFillPaves(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	e := segment(t, geom.Point{}, geom.Point{X: 4})
	reg, err := ds.Build([]topo.Shape{e}, ds.Options{Epsilon: DefaultEpsilon})
	require.NoError(t, err)
	ei, ok := reg.Index(e)
	require.True(t, ok)
	v1, v2 := reg.EdgeVertices(ei)

	a := reg.NewVertex(geom.Point{X: 3}, 1e-3)
	b := reg.NewVertex(geom.Point{X: 1}, 1e-3)
	c := reg.NewVertex(geom.Point{X: 1.0005}, 1e-3) // clusters with b
	d := reg.NewVertex(geom.Point{X: 1e-5}, 1e-4)   // clusters with the start vertex
	for _, p := range []ds.Pave{{Vertex: a, T: 3}, {Vertex: c, T: 1.0005}, {Vertex: b, T: 1}, {Vertex: d, T: 1e-5}} {
		reg.AddPave(ei, p)
	}

	pbs, err := FillPaves(reg, ei)
	require.NoError(t, err)
	require.Len(t, pbs, 3)
	assert.Equal(t, v1, pbs[0].Pave1.Vertex)
	assert.Equal(t, reg.SameDomain(b), pbs[0].Pave2.Vertex)
	assert.Equal(t, reg.SameDomain(c), reg.SameDomain(b))
	assert.Equal(t, v1, reg.SameDomain(d))
	assert.Equal(t, a, pbs[1].Pave2.Vertex)
	assert.Equal(t, v2, pbs[2].Pave2.Vertex)
	for i := 1; i < len(pbs); i++ {
		assert.Equal(t, pbs[i-1].Pave2, pbs[i].Pave1)
		assert.Less(t, pbs[i].Pave1.T, pbs[i].Pave2.T)
	}
	assert.Equal(t, pbs, reg.PaveBlocks(ei))
	assert.True(t, reg.IsSplit(ei))
}

func TestFillPavesRejectsNonEdges(t *testing.T) {
	reg, err := ds.Build([]topo.Shape{box(t, 0, 0, 0, 1)}, ds.Options{})
	require.NoError(t, err)
	_, err = FillPaves(reg, 0)
	assert.Error(t, err)
	_, err = FillPaves(reg, reg.Len())
	assert.ErrorIs(t, err, ds.ErrOutOfRange)
}

func TestTraceLoopsSplitsSquare(t *testing.T) {
	pts := []geom.Point{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	vs := make([]topo.Shape, len(pts))
	for i, p := range pts {
		vs[i] = topo.MakeVertex(p, geom.Confusion)
	}
	var arcs []arc
	for i := range vs {
		e, err := topo.MakeSegment(vs[i], vs[(i+1)%len(vs)])
		require.NoError(t, err)
		arcs = append(arcs, newArc(e))
	}
	diag, err := topo.MakeSegment(vs[0], vs[2])
	require.NoError(t, err)
	arcs = append(arcs, newArc(diag), newArc(diag.Reversed()))
	// a dangling edge into the interior
	tip := topo.MakeVertex(geom.Point{X: 0.2, Y: 0.6}, geom.Confusion)
	stub, err := topo.MakeSegment(vs[3], tip)
	require.NoError(t, err)
	arcs = append(arcs, newArc(stub), newArc(stub.Reversed()))

	arcs = removeDangling(arcs)
	assert.Len(t, arcs, 6)

	pl := geom.NewPlane(geom.Point{}, geom.Vec{Z: 1})
	faces, broken, err := makeFaces(pl, pl, arcs)
	require.NoError(t, err)
	assert.Equal(t, 0, broken)
	require.Len(t, faces, 2)
	for _, f := range faces {
		assert.InDelta(t, 0.5, topo.Area(f), 1e-12)
		assert.Equal(t, 3, topo.Count(f).Edges)
	}
}

func TestMakeFacesPlacesHoles(t *testing.T) {
	ring := func(x0, x1 float64, ccw bool) []arc {
		pts := []geom.Point{{X: x0, Y: x0}, {X: x1, Y: x0}, {X: x1, Y: x1}, {X: x0, Y: x1}}
		vs := make([]topo.Shape, len(pts))
		for i, p := range pts {
			vs[i] = topo.MakeVertex(p, geom.Confusion)
		}
		var out []arc
		for i := range vs {
			e, err := topo.MakeSegment(vs[i], vs[(i+1)%len(vs)])
			require.NoError(t, err)
			if !ccw {
				e = e.Reversed()
			}
			out = append(out, newArc(e))
		}
		return out
	}
	arcs := append(ring(0, 3, true), ring(1, 2, false)...)
	pl := geom.NewPlane(geom.Point{}, geom.Vec{Z: 1})
	faces, broken, err := makeFaces(pl, pl, arcs)
	require.NoError(t, err)
	assert.Equal(t, 0, broken)
	require.Len(t, faces, 1)
	assert.Len(t, topo.Wires(faces[0]), 2)
	assert.InDelta(t, 8.0, topo.Area(faces[0]), 1e-12)
}

func TestFillPavesPrefersWiderCreatedVertex(t *testing.T) {
	e := segment(t, geom.Point{}, geom.Point{X: 4})
	reg, err := ds.Build([]topo.Shape{e}, ds.Options{Epsilon: DefaultEpsilon})
	require.NoError(t, err)
	ei, ok := reg.Index(e)
	require.True(t, ok)

	narrow := reg.NewVertex(geom.Point{X: 2}, 1e-4)
	wide := reg.NewVertex(geom.Point{X: 2.00005}, 1e-3)
	reg.AddPave(ei, ds.Pave{Vertex: narrow, T: 2})
	reg.AddPave(ei, ds.Pave{Vertex: wide, T: 2.00005})

	pbs, err := FillPaves(reg, ei)
	require.NoError(t, err)
	require.Len(t, pbs, 2)
	assert.Equal(t, wide, pbs[0].Pave2.Vertex)
	assert.Equal(t, 2.00005, pbs[0].Pave2.T)
	assert.Equal(t, wide, reg.SameDomain(narrow))
	assert.Equal(t, pbs[0].Pave2, pbs[1].Pave1)
}
