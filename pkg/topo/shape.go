// Package topo implements immutable boundary-representation shapes.
//
// A Shape is a lightweight reference to a shared, immutable TShape plus an
// orientation. Two references denote the same shape when they point to the
// same TShape; sharing a TShape between two faces is how adjacency is
// expressed.
//
// Face loops are stored relative to the normal of the face surface: outer
// loops run counter-clockwise around it, holes clockwise. The orientation of
// a face reference only decides which side of the surface is the material
// side.
package topo

import (
	"fmt"

	"github.com/chazu/brep/pkg/geom"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("brep.topo")
}

// Kind is the topological type of a shape.
type Kind int

const (
	KindVertex Kind = iota
	KindEdge
	KindWire
	KindFace
	KindShell
	KindSolid
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	case KindWire:
		return "wire"
	case KindFace:
		return "face"
	case KindShell:
		return "shell"
	case KindSolid:
		return "solid"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Dim returns the dimension of primary kinds (0 vertex, 1 edge, 2 face,
// 3 solid) and -1 for the containers wire, shell and compound.
func (k Kind) Dim() int {
	switch k {
	case KindVertex:
		return 0
	case KindEdge:
		return 1
	case KindFace:
		return 2
	case KindSolid:
		return 3
	default:
		return -1
	}
}

// Orientation of a shape reference relative to its TShape.
type Orientation int

const (
	Forward Orientation = iota
	Reversed
)

func (o Orientation) String() string {
	if o == Reversed {
		return "reversed"
	}
	return "forward"
}

// Reverse returns the opposite orientation.
func (o Orientation) Reverse() Orientation {
	if o == Forward {
		return Reversed
	}
	return Forward
}

// Compose returns the orientation of a child with orientation c seen
// through a parent with orientation o.
func (o Orientation) Compose(c Orientation) Orientation {
	if o == c {
		return Forward
	}
	return Reversed
}

// Sign is +1 for Forward and -1 for Reversed.
func (o Orientation) Sign() float64 {
	if o == Reversed {
		return -1
	}
	return 1
}

// TShape holds the geometry and children of a shape. It is never modified
// after construction.
type TShape struct {
	kind     Kind
	tol      float64
	point    geom.Point
	curve    geom.Curve
	rng      geom.Range
	degen    bool
	surface  geom.Surface
	children []Shape
}

// Shape is an oriented reference to a TShape. The zero value is the null
// shape.
type Shape struct {
	t *TShape
	o Orientation
}

// IsNull reports whether s references nothing.
func (s Shape) IsNull() bool { return s.t == nil }

// TShape returns the shared underlying shape, the identity key of s.
func (s Shape) TShape() *TShape { return s.t }

// Kind returns the topological type; it must not be called on a null shape.
func (s Shape) Kind() Kind { return s.t.kind }

func (s Shape) Orientation() Orientation { return s.o }

// Reversed returns s with the opposite orientation.
func (s Shape) Reversed() Shape { return Shape{t: s.t, o: s.o.Reverse()} }

// Oriented returns s with orientation o.
func (s Shape) Oriented(o Orientation) Shape { return Shape{t: s.t, o: o} }

// IsSame reports whether s and o reference the same TShape.
func (s Shape) IsSame(o Shape) bool { return s.t == o.t }

// IsEqual reports whether s and o are the same TShape with the same
// orientation.
func (s Shape) IsEqual(o Shape) bool { return s.t == o.t && s.o == o.o }

// Tolerance returns the positional tolerance of a vertex, edge or face.
func (s Shape) Tolerance() float64 { return s.t.tol }

// Point returns the position of a vertex.
func (s Shape) Point() geom.Point { return s.t.point }

// Curve returns the curve of an edge.
func (s Shape) Curve() geom.Curve { return s.t.curve }

// Range returns the parameter range of an edge on its curve.
func (s Shape) Range() geom.Range { return s.t.rng }

// Degenerate reports whether an edge collapses to a point.
func (s Shape) Degenerate() bool { return s.t.degen }

// Surface returns the surface of a face.
func (s Shape) Surface() geom.Surface { return s.t.surface }

// Plane returns the surface of a face as a plane.
func (s Shape) Plane() (geom.Plane, bool) {
	pl, ok := s.t.surface.(geom.Plane)
	return pl, ok
}

// NumChildren returns the number of direct sub-shapes.
func (s Shape) NumChildren() int { return len(s.t.children) }

// Children returns the direct sub-shapes with their orientation composed
// with the orientation of s.
func (s Shape) Children() []Shape {
	out := make([]Shape, len(s.t.children))
	for i, c := range s.t.children {
		out[i] = Shape{t: c.t, o: s.o.Compose(c.o)}
	}
	return out
}

func (s Shape) String() string {
	if s.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%s<%p,%s>", s.t.kind, s.t, s.o)
}

// EdgeVertices returns the start and end vertex of an edge in the direction
// of travel given by its orientation.
func EdgeVertices(e Shape) (Shape, Shape) {
	v1, v2 := e.t.children[0], e.t.children[1]
	v1.o, v2.o = Forward, Forward
	if e.o == Reversed {
		return v2, v1
	}
	return v1, v2
}

// EdgeEnds returns the start and end points of an edge in the direction of
// travel given by its orientation.
func EdgeEnds(e Shape) (geom.Point, geom.Point) {
	p1, p2 := e.t.curve.Value(e.t.rng.First), e.t.curve.Value(e.t.rng.Last)
	if e.o == Reversed {
		return p2, p1
	}
	return p1, p2
}

// Wires returns the loops of a face, outer loop first, ignoring the face
// orientation.
func Wires(f Shape) []Shape {
	return f.t.children
}

// WireEdges returns the oriented edges of a wire in traversal order.
func WireEdges(w Shape) []Shape {
	return w.t.children
}
