package topo

import (
	"github.com/chazu/brep/pkg/geom"
)

// Transformed returns a copy of s moved through m. Sharing between
// sub-shapes is preserved.
func Transformed(s Shape, m geom.Transform) Shape {
	if s.IsNull() {
		return s
	}
	done := make(map[*TShape]*TShape)
	var copyT func(t *TShape) *TShape
	copyT = func(t *TShape) *TShape {
		if c, ok := done[t]; ok {
			return c
		}
		c := &TShape{kind: t.kind, tol: t.tol, rng: t.rng, degen: t.degen}
		switch t.kind {
		case KindVertex:
			c.point = geom.Apply(m, t.point)
		case KindEdge:
			c.curve = t.curve.Transformed(m)
		case KindFace:
			c.surface = t.surface.Transformed(m)
		}
		for _, ch := range t.children {
			c.children = append(c.children, Shape{t: copyT(ch.t), o: ch.o})
		}
		done[t] = c
		return c
	}
	return Shape{t: copyT(s.t), o: s.o}
}

// Translated returns a copy of s moved by v.
func Translated(s Shape, v geom.Vec) Shape {
	return Transformed(s, geom.Translation(v))
}
