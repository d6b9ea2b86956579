package brep

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/brep/pkg/bop"
	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	k := New(bop.DefaultOptions())
	box := k.Box(100, 50, 25)
	min, max := box.BoundingBox()
	assert.Equal(t, [3]float64{0, 0, 0}, min)
	assert.Equal(t, [3]float64{100, 50, 25}, max)
	assert.InDelta(t, 125000.0, box.Volume(), 1e-6)
	c := topo.Count(Shape(box))
	assert.Equal(t, 6, c.Faces)
	assert.Equal(t, 12, c.Edges)
}

func TestCylinder(t *testing.T) {
	k := New(bop.DefaultOptions())
	cyl := k.Cylinder(50, 10, 32)
	// regular 32-gon area: n/2 r^2 sin(2pi/n)
	want := 50 * 16 * 100 * math.Sin(2*math.Pi/32)
	assert.InDelta(t, want, cyl.Volume(), 1e-6)
	assert.Equal(t, 34, topo.Count(Shape(cyl)).Faces)
	assert.Panics(t, func() { k.Box(0, 1, 1) })
}

func TestPrismRejectsDegenerateProfile(t *testing.T) {
	k := New(bop.DefaultOptions())
	_, err := k.Prism([][2]float64{{0, 0}, {1, 0}}, 1)
	assert.Error(t, err)
}

func TestBooleans(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	k := New(bop.DefaultOptions())
	a := k.Box(10, 10, 10)
	b := k.Translate(k.Box(10, 10, 10), 5, 5, 5)

	tests := []struct {
		name string
		fn   func(a, b kernel.Solid) (kernel.Solid, error)
		want float64
	}{
		{"union", k.Union, 1875},
		{"difference", k.Difference, 875},
		{"intersection", k.Intersection, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.fn(a, b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, s.Volume(), 1e-6)
		})
	}
}

func TestDifferenceDrillsHole(t *testing.T) {
	k := New(bop.DefaultOptions())
	board := k.Box(100, 100, 10)
	drill := k.Translate(k.Cylinder(20, 10, 16), 50, 50, -5)
	s, err := k.Difference(board, drill)
	require.NoError(t, err)
	hole := drill.Volume() / 2
	assert.InDelta(t, board.Volume()-hole, s.Volume(), 1e-6)
	assert.Equal(t, 1, topo.Count(Shape(s)).Solids)
}

func TestRotate(t *testing.T) {
	k := New(bop.DefaultOptions())
	s := k.Rotate(k.Box(2, 1, 1), 0, 0, 90)
	min, max := s.BoundingBox()
	assert.InDelta(t, -1.0, min[0], 1e-9)
	assert.InDelta(t, 0.0, max[0], 1e-9)
	assert.InDelta(t, 2.0, max[1], 1e-9)
	assert.InDelta(t, 2.0, s.Volume(), 1e-9)
}

func TestSection(t *testing.T) {
	k := New(bop.DefaultOptions())
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(1, 1, 1), 0.5, 0.5, 0.5)
	sec, err := k.Section(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, topo.Length(sec), 1e-9)
}

func TestInvalidOptionsSurface(t *testing.T) {
	k := New(bop.Options{Fuzzy: -1})
	_, err := k.Union(k.Box(1, 1, 1), k.Box(1, 1, 1))
	require.Error(t, err)
	assert.False(t, errors.Is(err, kernel.ErrNotSolid))
}

func TestEmptyBooleansAreNotSolid(t *testing.T) {
	k := New(bop.DefaultOptions())
	a := k.Box(1, 1, 1)

	_, err := k.Intersection(a, k.Translate(k.Box(1, 1, 1), 5, 0, 0))
	assert.ErrorIs(t, err, kernel.ErrNotSolid)

	_, err = k.Difference(a, k.Translate(k.Box(2, 2, 2), -0.5, -0.5, -0.5))
	assert.ErrorIs(t, err, kernel.ErrNotSolid)
}
