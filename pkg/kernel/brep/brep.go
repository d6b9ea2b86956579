// Package brep implements the kernel.Kernel interface with boundary
// representation solids and the Boolean operations of package bop.
package brep

import (
	"context"
	"fmt"
	"math"

	"github.com/chazu/brep/pkg/bop"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/kernel"
	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("brep.kernel")
}

// Compile-time interface check.
var _ kernel.Kernel = (*BrepKernel)(nil)

// brepSolid wraps a topo.Shape to implement kernel.Solid.
type brepSolid struct {
	s topo.Shape
}

// BoundingBox returns the axis-aligned bounding box.
func (s *brepSolid) BoundingBox() (min, max [3]float64) {
	bb := topo.BoundingBox(s.s)
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

func (s *brepSolid) Volume() float64 {
	return topo.Volume(s.s)
}

// BrepKernel implements kernel.Kernel on B-Rep shapes.
type BrepKernel struct {
	opts bop.Options
}

// New returns a kernel running Boolean operations with opts.
func New(opts bop.Options) *BrepKernel {
	return &BrepKernel{opts: opts}
}

// Shape returns the B-Rep shape behind a solid of this kernel.
func Shape(s kernel.Solid) topo.Shape {
	return unwrap(s)
}

func unwrap(s kernel.Solid) topo.Shape {
	return s.(*brepSolid).s
}

func wrap(s topo.Shape) kernel.Solid {
	return &brepSolid{s: s}
}

// Box creates a box with its minimum corner at the origin.
func (k *BrepKernel) Box(x, y, z float64) kernel.Solid {
	s, err := topo.MakeBox(geom.Point{}, x, y, z)
	if err != nil {
		panic(fmt.Sprintf("brep.Box: %v", err))
	}
	return wrap(s)
}

// Cylinder creates a prism over a regular polygon with the given number of
// segments, approximating a cylinder standing on the XY plane and centered
// on the Z axis.
func (k *BrepKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if segments < 3 {
		segments = 3
	}
	profile := make([][2]float64, segments)
	for i := range profile {
		a := 2 * math.Pi * float64(i) / float64(segments)
		profile[i] = [2]float64{radius * math.Cos(a), radius * math.Sin(a)}
	}
	s, err := k.Prism(profile, height)
	if err != nil {
		panic(fmt.Sprintf("brep.Cylinder: %v", err))
	}
	return s
}

// Prism extrudes a closed polygon in the XY plane along +Z.
func (k *BrepKernel) Prism(profile [][2]float64, height float64) (kernel.Solid, error) {
	pts := make([]geom.Point, len(profile))
	for i, p := range profile {
		pts[i] = geom.Point{X: p[0], Y: p[1]}
	}
	s, err := topo.MakePrism(pts, geom.Vec{Z: height})
	if err != nil {
		return nil, err
	}
	return wrap(s), nil
}

func (k *BrepKernel) boolean(op bop.Operation, a, b kernel.Solid) (kernel.Solid, error) {
	r, err := bop.Perform(context.Background(), op, unwrap(a), unwrap(b), k.opts)
	if err != nil {
		return nil, err
	}
	for _, d := range r.Report().Diagnostics() {
		tracer().Debugf("%s: %s", op, d)
	}
	if !r.IsDone() {
		return nil, fmt.Errorf("%w: %s ended %s", kernel.ErrNotSolid, op, r.Status())
	}
	s := r.MustShape()
	if topo.Count(s).Solids == 0 {
		return nil, fmt.Errorf("%w: %s left no solid", kernel.ErrNotSolid, op)
	}
	return wrap(s), nil
}

// Union returns the union of two solids.
func (k *BrepKernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	return k.boolean(bop.OpFuse, a, b)
}

// Difference returns the difference a - b.
func (k *BrepKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return k.boolean(bop.OpCut, a, b)
}

// Intersection returns the intersection of two solids.
func (k *BrepKernel) Intersection(a, b kernel.Solid) (kernel.Solid, error) {
	return k.boolean(bop.OpCommon, a, b)
}

// Section returns the edges along which the boundaries of a and b meet.
func (k *BrepKernel) Section(a, b kernel.Solid) (topo.Shape, error) {
	r, err := bop.Perform(context.Background(), bop.OpSection, unwrap(a), unwrap(b), k.opts)
	if err != nil {
		return topo.Shape{}, err
	}
	if !r.IsDone() {
		return topo.Shape{}, fmt.Errorf("brep: section ended %s", r.Status())
	}
	return r.MustShape(), nil
}

// Translate moves a solid by (x, y, z).
func (k *BrepKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(topo.Translated(unwrap(s), geom.Vec{X: x, Y: y, Z: z}))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *BrepKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(topo.Transformed(unwrap(s), geom.RotationXYZ(x, y, z)))
}
