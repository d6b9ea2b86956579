package topo

import (
	"github.com/chazu/brep/pkg/geom"
)

// Walk visits s and its sub-shapes depth first with composed orientations.
// Shared sub-shapes are visited once per occurrence. Returning false from
// fn skips the children of the visited shape.
func Walk(s Shape, fn func(Shape) bool) {
	if s.IsNull() {
		return
	}
	if !fn(s) {
		return
	}
	for _, c := range s.Children() {
		Walk(c, fn)
	}
}

// Explore returns the distinct sub-shapes of kind k in depth-first order.
// Each TShape is reported once, with the orientation of its first
// occurrence.
func Explore(s Shape, k Kind) []Shape {
	var out []Shape
	seen := make(map[*TShape]bool)
	Walk(s, func(c Shape) bool {
		if seen[c.t] {
			return false
		}
		seen[c.t] = true
		if c.Kind() == k {
			out = append(out, c)
			return k == KindCompound
		}
		return c.Kind() > k || c.Kind() == KindCompound
	})
	return out
}

// Counts tallies distinct sub-shapes by kind.
type Counts struct {
	Vertices, Edges, Wires, Faces, Shells, Solids, Compounds int
}

// Count returns the number of distinct sub-shapes of s of each kind,
// including s itself.
func Count(s Shape) Counts {
	var c Counts
	seen := make(map[*TShape]bool)
	Walk(s, func(x Shape) bool {
		if seen[x.t] {
			return false
		}
		seen[x.t] = true
		switch x.Kind() {
		case KindVertex:
			c.Vertices++
		case KindEdge:
			c.Edges++
		case KindWire:
			c.Wires++
		case KindFace:
			c.Faces++
		case KindShell:
			c.Shells++
		case KindSolid:
			c.Solids++
		case KindCompound:
			c.Compounds++
		}
		return true
	})
	return c
}

// IsEmpty reports whether s is null or a compound without any vertex.
func IsEmpty(s Shape) bool {
	return s.IsNull() || Count(s).Vertices == 0
}

// BoundingBox returns a box containing s, not enlarged by tolerances.
func BoundingBox(s Shape) geom.Box {
	b := geom.EmptyBox()
	if s.IsNull() {
		return b
	}
	switch s.Kind() {
	case KindVertex:
		return geom.BoxOf(s.Point())
	case KindEdge:
		b = geom.CurveBox(s.Curve(), s.Range())
		for _, v := range s.t.children {
			b = geom.BoxAdd(b, v.Point())
		}
		return b
	}
	for _, c := range s.t.children {
		b = geom.BoxUnion(b, BoundingBox(c))
	}
	return b
}
