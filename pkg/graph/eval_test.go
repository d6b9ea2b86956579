package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/brep/pkg/bop"
	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/kernel/brep"
	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKernel() kernel.Kernel {
	return brep.New(bop.DefaultOptions())
}

func TestEvaluateNil(t *testing.T) {
	parts, err := Evaluate(nil, newKernel())
	assert.NoError(t, err)
	assert.Nil(t, parts)
}

func TestEvaluateGroupOfPlacedPrimitives(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	g := New()
	a := box(g, "a", 1, 2, 3)
	b := box(g, "b", 1, 1, 1)
	moved := node(g, "moved", NodeTransform, TransformData{Translation: &Vec3{X: 10, Y: 0, Z: 0}}, b)
	g.AddRoot(node(g, "assembly", NodeGroup, GroupData{}, a, moved))

	parts, err := Evaluate(g, newKernel())
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "a", parts[0].Name)
	assert.Equal(t, "b", parts[1].Name)
	assert.InDelta(t, 6.0, parts[0].Solid.Volume(), 1e-9)
	min, max := parts[1].Solid.BoundingBox()
	assert.Equal(t, [3]float64{10, 0, 0}, min)
	assert.Equal(t, [3]float64{11, 1, 1}, max)
}

func TestEvaluateNestedTransformsApplyInnermostFirst(t *testing.T) {
	g := New()
	b := box(g, "bar", 2, 1, 1)
	rot := node(g, "rot", NodeTransform, TransformData{Rotation: &Vec3{Z: 90}}, b)
	g.AddRoot(node(g, "shift", NodeTransform, TransformData{Translation: &Vec3{X: 5}}, rot))

	parts, err := Evaluate(g, newKernel())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	min, max := parts[0].Solid.BoundingBox()
	assert.InDelta(t, 4.0, min[0], 1e-9)
	assert.InDelta(t, 5.0, max[0], 1e-9)
	assert.InDelta(t, 2.0, max[1], 1e-9)
}

func TestEvaluateBooleans(t *testing.T) {
	tests := []struct {
		op   BooleanOp
		want float64
	}{
		{OpUnion, 1.875},
		{OpDifference, 0.875},
		{OpIntersection, 0.125},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			g := New()
			a := box(g, "a", 1, 1, 1)
			b := box(g, "b", 1, 1, 1)
			moved := node(g, "moved", NodeTransform, TransformData{Translation: &Vec3{X: .5, Y: .5, Z: .5}}, b)
			g.AddRoot(node(g, "result", NodeBoolean, BooleanData{Op: tt.op}, a, moved))

			parts, err := Evaluate(g, newKernel())
			require.NoError(t, err)
			require.Len(t, parts, 1)
			assert.Equal(t, "result", parts[0].Name)
			assert.InDelta(t, tt.want, parts[0].Solid.Volume(), 1e-6)
		})
	}
}

func TestEvaluateDrilledPlate(t *testing.T) {
	g := New()
	plate := box(g, "plate", 100, 100, 10)
	drill := node(g, "drill", NodePrimitive, CylinderData{Radius: 10, Height: 20, Segments: 16})
	at := node(g, "at", NodeTransform, TransformData{Translation: &Vec3{X: 50, Y: 50, Z: -5}}, drill)
	g.AddRoot(node(g, "drilled", NodeBoolean, BooleanData{Op: OpDifference}, plate, at))

	parts, err := Evaluate(g, newKernel())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	hole := 8 * 100 * math.Sin(2*math.Pi/16) * 10
	assert.InDelta(t, 100000-hole, parts[0].Solid.Volume(), 1e-6)
	c := topo.Count(brep.Shape(parts[0].Solid))
	assert.Equal(t, 1, c.Solids)
	assert.Equal(t, 6+16, c.Faces)
}

func TestEvaluateGroupOperandIsFused(t *testing.T) {
	g := New()
	base := box(g, "base", 4, 1, 1)
	c1 := box(g, "c1", 1, 3, 1)
	c2 := box(g, "c2", 1, 3, 1)
	m1 := node(g, "m1", NodeTransform, TransformData{Translation: &Vec3{X: .5, Y: -1, Z: .5}}, c1)
	m2 := node(g, "m2", NodeTransform, TransformData{Translation: &Vec3{X: 2.5, Y: -1, Z: .5}}, c2)
	cutters := node(g, "cutters", NodeGroup, GroupData{}, m1, m2)
	g.AddRoot(node(g, "notched", NodeBoolean, BooleanData{Op: OpDifference}, base, cutters))

	parts, err := Evaluate(g, newKernel())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.InDelta(t, 3.0, parts[0].Solid.Volume(), 1e-6)
}

func TestEvaluateRejectsInvalidGraph(t *testing.T) {
	g := New()
	g.AddRoot(box(g, "flat", 1, 0, 1))
	_, err := Evaluate(g, newKernel())
	assert.True(t, errors.Is(err, ErrInvalidGraph))
}

func TestEvaluateEmptyIntersectionFails(t *testing.T) {
	g := New()
	a := box(g, "a", 1, 1, 1)
	b := box(g, "b", 1, 1, 1)
	far := node(g, "far", NodeTransform, TransformData{Translation: &Vec3{X: 5}}, b)
	g.AddRoot(node(g, "none", NodeBoolean, BooleanData{Op: OpIntersection}, a, far))
	_, err := Evaluate(g, newKernel())
	assert.ErrorIs(t, err, kernel.ErrNotSolid)
}
