package bop

import (
	"context"
	"testing"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seamTriangle returns a triangle in the plane x=0.5 whose corner at
// (0.5, 0, 0) carries a degenerate edge, and that edge. The curve of the
// degenerate edge runs along the x axis, on top of an edge of the unit box.
func seamTriangle(t *testing.T) (topo.Shape, topo.Shape) {
	t.Helper()
	a := topo.MakeVertex(geom.Point{X: 0.5}, geom.Confusion)
	b := topo.MakeVertex(geom.Point{X: 0.5, Y: -2}, geom.Confusion)
	c := topo.MakeVertex(geom.Point{X: 0.5, Z: -2}, geom.Confusion)
	ab, err := topo.MakeSegment(a, b)
	require.NoError(t, err)
	bc, err := topo.MakeSegment(b, c)
	require.NoError(t, err)
	ca, err := topo.MakeSegment(c, a)
	require.NoError(t, err)
	seam := topo.MakeDegenerateEdge(geom.NewLine(geom.Point{X: 0.5}, geom.Vec{X: 1}),
		geom.Range{First: -1, Last: 1}, a)
	w, err := topo.MakeWire(seam, ab, bc, ca)
	require.NoError(t, err)
	f, err := topo.MakeFace(geom.NewPlane(geom.Point{X: 0.5}, geom.Vec{X: 1}), w)
	require.NoError(t, err)
	return f, seam
}

func TestDegenerateEdgesSkipIntersection(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	f, seam := seamTriangle(t)
	reg, err := ds.Build([]topo.Shape{f, box(t, 0, 0, 0, 1)}, ds.Options{Epsilon: DefaultEpsilon})
	require.NoError(t, err)
	d, ok := reg.Index(seam)
	require.True(t, ok)

	pf := newFiller(context.Background(), reg, DefaultOptions().withDefaults(), &Report{})
	involves := func(p [2]int) bool { return p[0] == d || p[1] == d }
	require.True(t, lo.SomeBy(pf.pairs(1, 1), involves), "seam is no edge/edge candidate")
	require.True(t, lo.SomeBy(pf.pairs(1, 2), involves), "seam is no edge/face candidate")

	// the seam curve overlaps the box edge along the x axis
	hits, err := geom.IntersectCurveCurve(seam.Curve(), seam.Range(),
		geom.NewLine(geom.Point{}, geom.Vec{X: 1}), geom.Range{First: 0, Last: 1}, geom.Confusion)
	require.NoError(t, err)
	require.True(t, lo.SomeBy(hits, func(h geom.CurveHit) bool { return h.Kind == geom.HitRange }))

	pf.checkTolerances()
	for _, stage := range []func() error{pf.solveVV, pf.solveVE, pf.solveEE, pf.solveEF} {
		require.NoError(t, stage())
	}
	itf := reg.Interferences()
	assert.False(t, lo.SomeBy(itf.EE, func(ee *ds.EE) bool { return ee.E1 == d || ee.E2 == d }))
	assert.False(t, lo.SomeBy(itf.EF, func(ef *ds.EF) bool { return ef.E == d }))
	assert.Empty(t, reg.Paves(d))
}
