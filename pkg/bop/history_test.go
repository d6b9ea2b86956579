package bop

import (
	"context"
	"math"
	"testing"

	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faceAtX returns the face of s lying in the plane x = x.
func faceAtX(t *testing.T, s topo.Shape, x float64) topo.Shape {
	t.Helper()
	f, ok := lo.Find(topo.Explore(s, topo.KindFace), func(f topo.Shape) bool {
		b := topo.BoundingBox(f)
		return math.Abs(b.Min.X-x) < volTol && math.Abs(b.Max.X-x) < volTol
	})
	require.True(t, ok, "no face at x=%g", x)
	return f
}

func TestCutHistory(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	a, b := box(t, 0, 0, 0, 1), box(t, 0.5, 0.5, 0.5, 1)
	r := perform(t, OpCut, a, b)
	require.True(t, r.IsDone())

	// the x=1 face of a loses a corner
	cut := faceAtX(t, a, 1)
	mod := r.Modified(cut)
	require.NotEmpty(t, mod)
	for _, f := range mod {
		assert.Equal(t, topo.KindFace, f.Kind())
		assert.InDelta(t, 1.0, topo.BoundingBox(f).Min.X, volTol)
	}
	assert.InDelta(t, 0.75, lo.SumBy(mod, topo.Area), volTol)
	assert.False(t, r.IsDeleted(cut))

	// the x=0 face of a is untouched
	kept := faceAtX(t, a, 0)
	assert.False(t, r.IsDeleted(kept))

	// the x=1.5 face of b lies outside a and is gone
	gone := faceAtX(t, b, 1.5)
	assert.True(t, r.IsDeleted(gone))
	assert.Empty(t, r.Modified(gone))

	// the x=0.5 face of b bounds the notch
	wall := faceAtX(t, b, 0.5)
	require.NotEmpty(t, r.Modified(wall))
	assert.InDelta(t, 0.25, lo.SumBy(r.Modified(wall), topo.Area), volTol)
	assert.False(t, r.IsDeleted(wall))

	assert.False(t, r.IsDeleted(a))
	assert.False(t, r.IsDeleted(b))
}

func TestSplitEdgeHistory(t *testing.T) {
	a, b := box(t, 0, 0, 0, 1), box(t, 0.5, 0.5, 0.5, 1)
	r := perform(t, OpCut, a, b)
	require.True(t, r.IsDone())

	// the vertical edge of a at x=1, y=1 keeps its lower half
	e, ok := lo.Find(topo.Explore(a, topo.KindEdge), func(e topo.Shape) bool {
		b := topo.BoundingBox(e)
		return math.Abs(b.Min.X-1) < volTol && math.Abs(b.Min.Y-1) < volTol &&
			math.Abs(b.Max.X-1) < volTol && math.Abs(b.Max.Y-1) < volTol
	})
	require.True(t, ok)
	mod := r.Modified(e)
	require.Len(t, mod, 1)
	assert.InDelta(t, 0.5, topo.Length(mod[0]), volTol)
	assert.False(t, r.IsDeleted(e))
}

func TestDisjointHistory(t *testing.T) {
	a, b := box(t, 0, 0, 0, 1), box(t, 5, 0, 0, 1)
	r, err := Cut(context.Background(), a, b)
	require.NoError(t, err)
	require.True(t, r.IsDone())
	assert.False(t, r.IsDeleted(a))
	assert.True(t, r.IsDeleted(b))
	for _, f := range topo.Explore(b, topo.KindFace) {
		assert.True(t, r.IsDeleted(f))
	}
	assert.Empty(t, r.Modified(faceAtX(t, a, 0)))
}

func TestFailedResultHasNoHistory(t *testing.T) {
	r, err := Fuse(context.Background(), box(t, 0, 0, 0, 1), topo.Shape{})
	require.Error(t, err)
	require.NotNil(t, r)
	a := box(t, 0, 0, 0, 1)
	assert.Nil(t, r.Modified(a))
	assert.False(t, r.IsDeleted(a))
}
