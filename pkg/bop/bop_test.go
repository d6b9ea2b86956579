package bop

import (
	"context"
	"errors"
	"testing"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const volTol = 1e-6

func box(t *testing.T, x, y, z, size float64) topo.Shape {
	t.Helper()
	b, err := topo.MakeBox(geom.Point{X: x, Y: y, Z: z}, size, size, size)
	require.NoError(t, err)
	return b
}

func square(t *testing.T, x0, y0, x1, y1 float64) topo.Shape {
	t.Helper()
	f, err := topo.MakePolygonFace(
		geom.Point{X: x0, Y: y0}, geom.Point{X: x1, Y: y0},
		geom.Point{X: x1, Y: y1}, geom.Point{X: x0, Y: y1})
	require.NoError(t, err)
	return f
}

func perform(t *testing.T, op Operation, a, b topo.Shape) *Result {
	t.Helper()
	opts := DefaultOptions()
	opts.Workers = 4
	r, err := Perform(context.Background(), op, a, b, opts)
	require.NoError(t, err)
	require.NotNil(t, r)
	for _, d := range r.Report().Diagnostics() {
		t.Logf("%s", d)
	}
	return r
}

func TestOverlappingCubes(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	cube1, cube2 := box(t, 0, 0, 0, 1), box(t, 0.5, 0.5, 0.5, 1)
	tests := []struct {
		op     Operation
		volume float64
		faces  int
	}{
		{OpCommon, 0.125, 6},
		{OpFuse, 1.875, 12},
		{OpCut, 0.875, 9},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			r := perform(t, tt.op, cube1, cube2)
			require.True(t, r.IsDone(), "status %s", r.Status())
			s := r.MustShape()
			assert.Equal(t, topo.KindSolid, s.Kind())
			assert.InDelta(t, tt.volume, topo.Volume(s), volTol)
			c := topo.Count(s)
			assert.Equal(t, tt.faces, c.Faces)
			assert.Equal(t, 1, c.Shells)
			assert.False(t, topo.HasErrors(topo.Check(s)))
			for _, sh := range topo.Explore(s, topo.KindShell) {
				assert.True(t, topo.IsClosedShell(sh))
			}
		})
	}
}

func TestCommonIsBox(t *testing.T) {
	r := perform(t, OpCommon, box(t, 0, 0, 0, 1), box(t, 0.5, 0.5, 0.5, 1))
	b := topo.BoundingBox(r.MustShape())
	assert.InDelta(t, 0.5, b.Min.X, volTol)
	assert.InDelta(t, 0.5, b.Min.Y, volTol)
	assert.InDelta(t, 0.5, b.Min.Z, volTol)
	assert.InDelta(t, 1.0, b.Max.X, volTol)
	assert.InDelta(t, 1.0, b.Max.Y, volTol)
	assert.InDelta(t, 1.0, b.Max.Z, volTol)
	c := topo.Count(r.MustShape())
	assert.Equal(t, 12, c.Edges)
	assert.Equal(t, 8, c.Vertices)
}

func TestCommutativity(t *testing.T) {
	a, b := box(t, 0, 0, 0, 1), box(t, 0.25, 0.5, -0.5, 1)
	for _, op := range []Operation{OpFuse, OpCommon} {
		ab := perform(t, op, a, b)
		ba := perform(t, op, b, a)
		require.True(t, ab.IsDone())
		require.True(t, ba.IsDone())
		assert.InDelta(t, topo.Volume(ab.MustShape()), topo.Volume(ba.MustShape()), volTol, "%s", op)
		assert.Equal(t, topo.Count(ab.MustShape()).Faces, topo.Count(ba.MustShape()).Faces, "%s", op)
	}
}

func TestVolumeConservation(t *testing.T) {
	pairs := [][2]topo.Shape{
		{box(t, 0, 0, 0, 1), box(t, 0.5, 0.5, 0.5, 1)},
		{box(t, 0, 0, 0, 2), box(t, 1, -0.5, 0.5, 1)},
		{box(t, 0, 0, 0, 1), box(t, 0.2, 0.2, 0.2, 0.5)},
	}
	for i, p := range pairs {
		fuse := perform(t, OpFuse, p[0], p[1])
		common := perform(t, OpCommon, p[0], p[1])
		require.True(t, fuse.IsDone(), "pair %d", i)
		require.True(t, common.IsDone(), "pair %d", i)
		lhs := topo.Volume(fuse.MustShape()) + topo.Volume(common.MustShape())
		rhs := topo.Volume(p[0]) + topo.Volume(p[1])
		assert.InDelta(t, rhs, lhs, volTol, "pair %d", i)
	}
}

func TestNestedBoxCutLeavesCavity(t *testing.T) {
	outer, inner := box(t, 0, 0, 0, 1), box(t, 0.25, 0.25, 0.25, 0.5)
	r := perform(t, OpCut, outer, inner)
	require.True(t, r.IsDone())
	s := r.MustShape()
	assert.Equal(t, topo.KindSolid, s.Kind())
	assert.Equal(t, 2, topo.Count(s).Shells)
	assert.InDelta(t, 1-0.125, topo.Volume(s), volTol)
}

func TestDisjointOperands(t *testing.T) {
	a, b := box(t, 0, 0, 0, 1), box(t, 3, 0, 0, 1)

	fuse := perform(t, OpFuse, a, b)
	require.True(t, fuse.IsDone())
	s := fuse.MustShape()
	assert.Equal(t, topo.KindCompound, s.Kind())
	kids := s.Children()
	require.Len(t, kids, 2)
	assert.True(t, kids[0].IsEqual(a))
	assert.True(t, kids[1].IsEqual(b))

	assert.True(t, perform(t, OpCommon, a, b).IsEmpty())
	assert.True(t, perform(t, OpCut, a, b).MustShape().IsEqual(a))
	assert.True(t, perform(t, OpSection, a, b).IsEmpty())
}

func TestSelfOperations(t *testing.T) {
	a := box(t, 0, 0, 0, 1)

	cut := perform(t, OpCut, a, a)
	require.True(t, cut.IsDone())
	assert.True(t, cut.IsEmpty())

	common := perform(t, OpCommon, a, a)
	require.True(t, common.IsDone())
	assert.True(t, common.MustShape().IsSame(a), "unchanged solid is returned as is")

	sec := perform(t, OpSection, a, a)
	require.True(t, sec.IsDone())
	c := topo.Count(sec.MustShape())
	assert.Equal(t, 12, c.Edges)
	assert.Equal(t, 0, c.Faces)
	assert.InDelta(t, 12.0, topo.Length(sec.MustShape()), volTol)
}

func TestSectionOfOverlappingCubes(t *testing.T) {
	r := perform(t, OpSection, box(t, 0, 0, 0, 1), box(t, 0.5, 0.5, 0.5, 1))
	require.True(t, r.IsDone())
	s := r.MustShape()
	edges := topo.Explore(s, topo.KindEdge)
	assert.Len(t, edges, 6)
	assert.InDelta(t, 3.0, topo.Length(s), volTol)
	for _, e := range edges {
		assert.InDelta(t, 0.5, e.Range().Length(), volTol)
	}
	assert.Equal(t, 0, len(lo.Filter(s.Children(), func(c topo.Shape, _ int) bool {
		return c.Kind() == topo.KindVertex
	})), "every touching point is the end of a section edge")
}

func TestFaceSharingBoxes(t *testing.T) {
	a, b := box(t, 0, 0, 0, 1), box(t, 1, 0, 0, 1)

	fuse := perform(t, OpFuse, a, b)
	require.True(t, fuse.IsDone())
	s := fuse.MustShape()
	assert.InDelta(t, 2.0, topo.Volume(s), volTol)
	c := topo.Count(s)
	assert.Equal(t, 6, c.Faces)
	assert.Equal(t, 12, c.Edges)
	assert.Equal(t, 8, c.Vertices)

	common := perform(t, OpCommon, a, b)
	require.True(t, common.IsDone())
	assert.True(t, common.IsEmpty())

	cut := perform(t, OpCut, a, b)
	require.True(t, cut.IsDone())
	assert.InDelta(t, 1.0, topo.Volume(cut.MustShape()), volTol)
	assert.Equal(t, 6, topo.Count(cut.MustShape()).Faces)
}

func TestFuseWithoutUnifyKeepsSplitFaces(t *testing.T) {
	opts := DefaultOptions()
	opts.Unify = false
	r, err := Perform(context.Background(), OpFuse, box(t, 0, 0, 0, 1), box(t, 1, 0, 0, 1), opts)
	require.NoError(t, err)
	require.True(t, r.IsDone())
	assert.Equal(t, 10, topo.Count(r.MustShape()).Faces)
	assert.InDelta(t, 2.0, topo.Volume(r.MustShape()), volTol)
}

func TestAbuttingSquares(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	a, b := square(t, 0, 0, 1, 1), square(t, 1, 0, 2, 1)

	common := perform(t, OpCommon, a, b)
	require.True(t, common.IsDone())
	assert.True(t, common.IsEmpty())

	fuse := perform(t, OpFuse, a, b)
	require.True(t, fuse.IsDone())
	s := fuse.MustShape()
	assert.Equal(t, topo.KindShell, s.Kind())
	c := topo.Count(s)
	assert.Equal(t, 1, c.Faces)
	assert.Equal(t, 4, c.Edges)
	assert.InDelta(t, 2.0, topo.Area(s), volTol)
}

func TestOverlappingSquares(t *testing.T) {
	a, b := square(t, 0, 0, 1, 1), square(t, 0.5, 0.5, 1.5, 1.5)

	common := perform(t, OpCommon, a, b)
	require.True(t, common.IsDone())
	assert.InDelta(t, 0.25, topo.Area(common.MustShape()), volTol)
	assert.Equal(t, 1, topo.Count(common.MustShape()).Faces)

	fuse := perform(t, OpFuse, a, b)
	require.True(t, fuse.IsDone())
	assert.InDelta(t, 1.75, topo.Area(fuse.MustShape()), volTol)
	assert.Equal(t, 1, topo.Count(fuse.MustShape()).Faces)
}

func TestFuseAll(t *testing.T) {
	shapes := []topo.Shape{box(t, 0, 0, 0, 1), box(t, 0.5, 0, 0, 1), box(t, 1, 0, 0, 1)}
	r, err := FuseAll(context.Background(), shapes, DefaultOptions())
	require.NoError(t, err)
	require.True(t, r.IsDone())
	assert.InDelta(t, 2.0, topo.Volume(r.MustShape()), volTol)
	assert.Equal(t, 6, topo.Count(r.MustShape()).Faces)

	_, err = FuseAll(context.Background(), nil, DefaultOptions())
	assert.Error(t, err)
}

func TestSerialAndParallelAgree(t *testing.T) {
	a, b := box(t, 0, 0, 0, 1), box(t, 0.3, 0.6, 0.1, 1)
	serial := DefaultOptions()
	serial.Workers = 1
	parallel := DefaultOptions()
	parallel.Workers = 8
	rs, err := Perform(context.Background(), OpFuse, a, b, serial)
	require.NoError(t, err)
	rp, err := Perform(context.Background(), OpFuse, a, b, parallel)
	require.NoError(t, err)
	assert.Equal(t, topo.Count(rs.MustShape()), topo.Count(rp.MustShape()))
	assert.InDelta(t, topo.Volume(rs.MustShape()), topo.Volume(rp.MustShape()), volTol)
	assert.Equal(t, rs.Report().Diagnostics(), rp.Report().Diagnostics())
}

func TestFuzzyJoinsNearlyTouchingBoxes(t *testing.T) {
	a, b := box(t, 0, 0, 0, 1), box(t, 1.00001, 0, 0, 1)
	opts := DefaultOptions()
	opts.Fuzzy = 1e-4
	r, err := Perform(context.Background(), OpFuse, a, b, opts)
	require.NoError(t, err)
	require.True(t, r.IsDone())
	assert.Equal(t, topo.KindSolid, r.MustShape().Kind())
	assert.Equal(t, 1, topo.Count(r.MustShape()).Solids)
}

func TestInvalidInput(t *testing.T) {
	open := topo.MakeSolid(topo.MakeShell(square(t, 0, 0, 1, 1)))
	r, err := Fuse(context.Background(), open, box(t, 0, 0, 0, 1))
	require.Error(t, err)
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 0, ie.Operand)
	assert.NotEmpty(t, ie.Problems)
	require.NotNil(t, r)
	assert.Equal(t, StatusFailed, r.Status())
	assert.True(t, r.Shape().IsNull())
	assert.True(t, r.Report().Has(InvalidInput))
	assert.Panics(t, func() { r.MustShape() })

	_, err = Common(context.Background(), box(t, 0, 0, 0, 1), topo.Shape{})
	assert.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.Operand)
}

func TestInvalidOptions(t *testing.T) {
	a := box(t, 0, 0, 0, 1)
	for _, opts := range []Options{{Fuzzy: -1}, {Epsilon: -1e-9}, {Workers: -2}} {
		r, err := Perform(context.Background(), OpFuse, a, a, opts)
		assert.Error(t, err)
		assert.Nil(t, r)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := Cut(ctx, box(t, 0, 0, 0, 1), box(t, 0.5, 0.5, 0.5, 1))
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, context.Canceled))
}

// flaky fails every face/face intersection and panics on curve/surface
// queries.
type flaky struct{ Analytic }

func (flaky) IntersectSurfaceSurface(geom.Surface, geom.Surface, float64) (geom.SurfaceIntersection, error) {
	return geom.SurfaceIntersection{}, geom.ErrNoConvergence
}

func (flaky) IntersectCurveSurface(geom.Curve, geom.Range, geom.Surface, float64) ([]geom.SurfaceHit, error) {
	panic("solver blew up")
}

var _ Geometry = flaky{}

func TestNonConvergenceIsReported(t *testing.T) {
	opts := DefaultOptions()
	opts.Geometry = flaky{}
	r, err := Perform(context.Background(), OpFuse, box(t, 0, 0, 0, 1), box(t, 0.5, 0.5, 0.5, 1), opts)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.Report().Has(NonConvergence))
	assert.False(t, r.Report().HasErrors())
	for _, d := range r.Report().Diagnostics() {
		assert.Equal(t, SeverityWarning, d.Severity)
	}
}

func TestToleranceWidening(t *testing.T) {
	// an edge whose end misses its vertex by 1e-4
	v1 := topo.MakeVertex(geom.Point{}, geom.Confusion)
	v2 := topo.MakeVertex(geom.Point{X: 1}, geom.Confusion)
	line, rng := geom.LineThrough(geom.Point{}, geom.Point{X: 1.0001})
	e, err := topo.MakeEdge(line, rng, v1, v2, geom.Confusion)
	require.NoError(t, err)
	r, err := Perform(context.Background(), OpSection, e, box(t, 0.5, -0.5, -0.5, 1), DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.Report().Has(ToleranceWidened))
}

func TestFuseEdgeTouchingBoxes(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	r := perform(t, OpFuse, box(t, 0, 0, 0, 1), box(t, 1, 1, 0, 1))
	require.True(t, r.IsDone())
	assert.False(t, r.Report().Has(OpenResult))
	s := r.MustShape()
	assert.Equal(t, 2, topo.Count(s).Solids)
	assert.InDelta(t, 2.0, topo.Volume(s), volTol)
	for _, sh := range topo.Explore(s, topo.KindShell) {
		assert.True(t, topo.IsClosedShell(sh))
		assert.Equal(t, 6, sh.NumChildren())
	}
}

func TestFuzzyLongerThanEdgeIsInvalid(t *testing.T) {
	opts := DefaultOptions()
	opts.Fuzzy = 0.5
	small := box(t, 0.2, 0.2, 0.2, 0.4)
	r, err := Perform(context.Background(), OpFuse, box(t, 0, 0, 0, 1), small, opts)
	require.Error(t, err)
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.Operand)
	require.Len(t, ie.Problems, 12)
	assert.Equal(t, CodeFuzzyEdge, ie.Problems[0].Code)
	require.NotNil(t, r)
	assert.Equal(t, StatusFailed, r.Status())
	assert.True(t, r.Report().Has(InvalidInput))
}
