package bop

import (
	"fmt"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
)

// patch is one face produced by the builder together with its position
// relative to the other operand.
type patch struct {
	face  topo.Shape // oriented along the surface normal
	owner int        // input face the patch was cut from
	rank  int        // operand of the owner; 0 for shared faces
	state topo.State
	// same is set for ON patches whose coincident counterpart has the same
	// outward normal.
	same bool
}

// set records the state of p. A state is final once set.
func (p *patch) set(st topo.State, same bool) error {
	if p.state != topo.StateUnknown {
		return fmt.Errorf("face %d: state %s already set, refusing %s", p.owner, p.state, st)
	}
	p.state, p.same = st, same
	return nil
}

// classifier decides for each patch whether it lies inside, outside or on
// the boundary of the other operand.
type classifier struct {
	reg    *ds.Registry
	geo    Geometry
	opts   Options
	report *Report
	solids [2][]topo.Shape
}

func newClassifier(reg *ds.Registry, opts Options, report *Report) *classifier {
	c := &classifier{reg: reg, geo: opts.Geometry, opts: opts, report: report}
	for r, op := range reg.Operands() {
		c.solids[r] = topo.Explore(op, topo.KindSolid)
	}
	return c
}

// outward returns the normal pointing away from the material of a face
// reference.
func outward(f topo.Shape) (geom.Vec, bool) {
	pl, ok := f.Plane()
	if !ok {
		return geom.Vec{}, false
	}
	return pl.Normal.MulScalar(f.Orientation().Sign()), true
}

// patches turns the splits into patches and classifies each of them.
func (c *classifier) patches(splits []split) []*patch {
	var out []*patch
	for _, sp := range splits {
		si := c.reg.MustInfo(sp.face)
		rank := 0
		if !si.InOperand(0) {
			rank = 1
		}
		for _, f := range sp.patches {
			p := &patch{face: f, owner: sp.face, rank: rank}
			if err := c.classify(p); err != nil {
				c.report.Warnf(ClassificationFailed, []int{sp.face}, "%v", err)
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

func (c *classifier) classify(p *patch) error {
	si := c.reg.MustInfo(p.owner)
	if si.Shared() {
		return p.set(topo.StateOn, si.OrientationIn(0) == si.OrientationIn(1))
	}
	tol := 2*c.reg.Tolerance(p.owner) + c.opts.Epsilon
	q, err := c.interiorPoint(p.face, tol)
	if err != nil {
		return fmt.Errorf("face %d: %w", p.owner, err)
	}
	n, _ := outward(p.face.Oriented(si.OrientationIn(p.rank)))
	for _, g := range c.reg.FaceInfo(p.owner).Coplanar {
		gs := c.reg.Shape(g)
		if c.geo.ClassifyPointInFace(gs, q, tol) != topo.StateIn {
			continue
		}
		gi := c.reg.MustInfo(g)
		gn, _ := outward(gs.Oriented(gi.OrientationIn(1 - p.rank)))
		return p.set(topo.StateOn, c.sameSide(n, gn))
	}
	other := c.solids[1-p.rank]
	if len(other) == 0 {
		return p.set(topo.StateOut, false)
	}
	for _, s := range other {
		st, err := c.geo.ClassifyPointInSolid(s, q, tol)
		if err != nil {
			c.report.Warnf(NonConvergence, []int{p.owner}, "point classification: %v", err)
			continue
		}
		switch st {
		case topo.StateIn:
			return p.set(topo.StateIn, false)
		case topo.StateOn:
			for _, h := range topo.Explore(s, topo.KindFace) {
				if c.geo.ClassifyPointInFace(h, q, tol) == topo.StateOut {
					continue
				}
				if hn, ok := outward(h); ok && geom.Parallel(n, hn) {
					return p.set(topo.StateOn, c.sameSide(n, hn))
				}
			}
			return p.set(topo.StateOut, false)
		}
	}
	return p.set(topo.StateOut, false)
}

// sameSide compares two outward normals. Faces of operands without solids
// have no material side and always count as the same.
func (c *classifier) sameSide(a, b geom.Vec) bool {
	if len(c.solids[0]) == 0 || len(c.solids[1]) == 0 {
		return true
	}
	return a.Dot(b) > 0
}

// interiorPoint returns a point strictly inside face f, found by stepping
// off the middle of a boundary edge towards the inside of the face.
func (c *classifier) interiorPoint(f topo.Shape, tol float64) (geom.Point, error) {
	pl, ok := f.Plane()
	if !ok {
		return geom.Point{}, geom.ErrUnsupported
	}
	size := geom.BoxDiagonal(c.geo.BoundingBox(f))
	for _, w := range topo.Wires(f) {
		for _, e := range topo.WireEdges(w) {
			if e.Degenerate() {
				continue
			}
			cv, r := e.Curve(), e.Range()
			t := geom.Tangent(cv, r.Mid())
			if e.Orientation() == topo.Reversed {
				t = t.Neg()
			}
			in := pl.Normal.Cross(t)
			m := cv.Value(r.Mid())
			for _, k := range []float64{1e-2, 1e-3, 1e-4} {
				q := m.Add(in.MulScalar(k * size))
				if c.geo.ClassifyPointInFace(f.Oriented(topo.Forward), q, tol) == topo.StateIn {
					return q, nil
				}
			}
		}
	}
	return geom.Point{}, fmt.Errorf("no interior point found: %w", geom.ErrNoConvergence)
}

// keep decides whether a classified patch belongs to the result of op and
// with which orientation. The patch face is oriented along its surface
// normal; the returned face carries the material orientation.
func keep(op Operation, p *patch, orient topo.Orientation) (topo.Shape, bool) {
	f := p.face.Oriented(orient)
	switch op {
	case OpFuse:
		switch p.state {
		case topo.StateOut:
			return f, true
		case topo.StateOn:
			return f, p.same && p.rank == 0
		}
	case OpCommon:
		switch p.state {
		case topo.StateIn:
			return f, true
		case topo.StateOn:
			return f, p.same && p.rank == 0
		}
	case OpCut:
		switch p.state {
		case topo.StateOut:
			return f, p.rank == 0
		case topo.StateIn:
			return f.Reversed(), p.rank == 1
		case topo.StateOn:
			return f, !p.same && p.rank == 0
		}
	}
	return topo.Shape{}, false
}

// selectFaces classifies the patches and returns the faces of the result of
// op in a deterministic order.
func (c *classifier) selectFaces(op Operation, splits []split, hist *history) []topo.Shape {
	var out []topo.Shape
	for _, p := range c.patches(splits) {
		orient := c.reg.MustInfo(p.owner).OrientationIn(p.rank)
		if f, ok := keep(op, p, orient); ok {
			hist.record(f, p.owner)
			out = append(out, f)
		}
	}
	tracer().Debugf("%s keeps %d faces", op, len(out))
	return out
}
