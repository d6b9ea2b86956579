package bop

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
)

// filler runs the intersection part of a Boolean operation: it finds all
// interferences between the operands, splits their edges into pave blocks
// and computes the section edges of intersecting faces.
type filler struct {
	ctx    context.Context
	reg    *ds.Registry
	sel    *ds.Selector
	geo    Geometry
	opts   Options
	report *Report
}

func newFiller(ctx context.Context, reg *ds.Registry, opts Options, report *Report) *filler {
	return &filler{
		ctx:    ctx,
		reg:    reg,
		sel:    ds.NewSelector(reg),
		geo:    opts.Geometry,
		opts:   opts,
		report: report,
	}
}

func (pf *filler) run() error {
	pf.checkTolerances()
	stages := []struct {
		name string
		fn   func() error
	}{
		{"VV", pf.solveVV},
		{"VE", pf.solveVE},
		{"EE", pf.solveEE},
		{"VF", pf.solveVF},
		{"EF", pf.solveEF},
		{"paves", pf.fillAllPaves},
		{"FF", pf.solveFF},
	}
	for _, st := range stages {
		if err := pf.ctx.Err(); err != nil {
			return err
		}
		if err := st.fn(); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
		tracer().Infof("stage %s done, %d interferences, %d shapes", st.name,
			pf.reg.Interferences().Len(), pf.reg.Len())
	}
	return nil
}

// tol returns the summed working tolerance of the entries plus epsilon.
func (pf *filler) tol(idx ...int) float64 {
	t := pf.opts.Epsilon
	for _, i := range idx {
		t += pf.reg.Tolerance(i)
	}
	return t
}

// pairs returns the candidate pairs of the dimensions in both operand
// orders, normalized so that the first index has dimension dimA.
func (pf *filler) pairs(dimA, dimB int) [][2]int {
	seen := make(map[[2]int]bool)
	var out [][2]int
	add := func(a, b int) {
		k := [2]int{a, b}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for a, b := range pf.sel.CandidatePairs(dimA, dimB) {
		add(a, b)
	}
	if dimA != dimB {
		for b, a := range pf.sel.CandidatePairs(dimB, dimA) {
			add(a, b)
		}
	}
	return out
}

// solvePairs evaluates solve for all pairs on the worker pool and merges the
// findings sequentially in pair order, so the outcome does not depend on
// scheduling. A pair whose solver fails is reported and skipped.
func solvePairs[T any](pf *filler, kind ds.InterferenceKind, pairs [][2]int,
	solve func(a, b int) (T, bool, error), merge func(a, b int, found T)) error {
	found := make([]T, len(pairs))
	ok := make([]bool, len(pairs))
	err := parallelFor(pf.ctx, pf.opts.Workers, len(pairs), func(i int) error {
		a, b := pairs[i][0], pairs[i][1]
		err := safely(func() error {
			var err error
			found[i], ok[i], err = solve(a, b)
			return err
		})
		if err != nil {
			ok[i] = false
			pf.report.Warnf(NonConvergence, []int{a, b}, "%s: %v", kind, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, p := range pairs {
		if ok[i] {
			merge(p[0], p[1], found[i])
		}
	}
	tracer().Debugf("%s: %d candidate pairs", kind, len(pairs))
	return nil
}

// checkTolerances widens the tolerance of vertices that do not cover the end
// of an edge they bound.
func (pf *filler) checkTolerances() {
	for _, e := range pf.inputEdges() {
		es := pf.reg.Shape(e)
		if es.Degenerate() {
			continue
		}
		v1, v2 := pf.reg.EdgeVertices(e)
		r := es.Range()
		for i, v := range [2]int{v1, v2} {
			end := es.Curve().Value([2]float64{r.First, r.Last}[i])
			d := geom.Distance(end, pf.reg.Shape(v).Point())
			if d > pf.reg.Tolerance(v) && pf.reg.WidenTolerance(v, d) {
				pf.report.Warnf(ToleranceWidened, []int{v, e}, "vertex tolerance raised to %g", d)
			}
		}
	}
}

func (pf *filler) inputEdges() []int {
	set := make(map[int]bool)
	for r := 0; r < 2; r++ {
		for _, e := range pf.reg.RangeOfDimension(1, r) {
			set[e] = true
		}
	}
	out := make([]int, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Ints(out)
	return out
}

// nearEnd reports whether p lies within vertex range of an end of edge e.
func (pf *filler) nearEnd(e int, p geom.Point) bool {
	v1, v2 := pf.reg.EdgeVertices(e)
	for _, v := range [2]int{v1, v2} {
		if geom.Distance(p, pf.reg.VertexPoint(v)) <= pf.tol(v, e) {
			return true
		}
	}
	return false
}

func (pf *filler) isEndVertex(v, e int) bool {
	v1, v2 := pf.reg.EdgeVertices(e)
	sv := pf.reg.SameDomain(v)
	return sv == pf.reg.SameDomain(v1) || sv == pf.reg.SameDomain(v2)
}

func (pf *filler) merge(a, b int) {
	w, l := pf.reg.SameDomain(a), pf.reg.SameDomain(b)
	if w == l {
		return
	}
	if l < w {
		w, l = l, w
	}
	before := pf.reg.Tolerance(w)
	pf.reg.Merge(w, l)
	if after := pf.reg.Tolerance(w); after > before {
		pf.report.Warnf(ToleranceWidened, []int{w, l}, "vertex tolerance raised to %g by merge", after)
	}
}

func (pf *filler) solveVV() error {
	return solvePairs(pf, ds.KindVV, pf.pairs(0, 0),
		func(a, b int) (float64, bool, error) {
			d := geom.Distance(pf.reg.Shape(a).Point(), pf.reg.Shape(b).Point())
			return d, d <= pf.tol(a, b), nil
		},
		func(a, b int, d float64) {
			if pf.reg.AddInterference(&ds.VV{V1: a, V2: b, Tol: d}) {
				pf.merge(a, b)
			}
		})
}

func (pf *filler) solveVE() error {
	return solvePairs(pf, ds.KindVE, pf.pairs(0, 1),
		func(v, e int) (*ds.VE, bool, error) {
			es := pf.reg.Shape(e)
			if es.Degenerate() || pf.isEndVertex(v, e) {
				return nil, false, nil
			}
			p := pf.reg.VertexPoint(v)
			t, d := geom.ProjectPoint(es.Curve(), es.Range(), p)
			if d > pf.tol(v, e) || pf.nearEnd(e, p) {
				return nil, false, nil
			}
			return &ds.VE{V: v, E: e, T: t, Tol: d}, true, nil
		},
		func(v, e int, ve *ds.VE) {
			if pf.reg.AddInterference(ve) {
				pf.reg.AddPave(e, ds.Pave{Vertex: v, T: ve.T})
			}
		})
}

func (pf *filler) solveEE() error {
	return solvePairs(pf, ds.KindEE, pf.pairs(1, 1),
		func(e1, e2 int) ([]*ds.EE, bool, error) {
			s1, s2 := pf.reg.Shape(e1), pf.reg.Shape(e2)
			if s1.Degenerate() || s2.Degenerate() {
				return nil, false, nil
			}
			tol := pf.tol(e1, e2)
			hits, err := pf.geo.IntersectCurveCurve(s1.Curve(), s1.Range(), s2.Curve(), s2.Range(), tol)
			if err != nil {
				return nil, false, err
			}
			var out []*ds.EE
			for _, h := range hits {
				switch h.Kind {
				case geom.HitRange:
					out = append(out, &ds.EE{E1: e1, E2: e2, Hit: geom.HitRange, R1: h.R1, R2: h.R2,
						Opposite: h.Opposite, Vertex: -1, Tol: tol})
				case geom.HitPoint:
					if pf.nearEnd(e1, h.Point) || pf.nearEnd(e2, h.Point) {
						continue
					}
					out = append(out, &ds.EE{E1: e1, E2: e2, Hit: geom.HitPoint, T1: h.T1, T2: h.T2,
						Point: h.Point, Vertex: -1, Tol: math.Max(h.Gap, pf.reg.MaxTolerance(e1, e2))})
				}
			}
			return out, len(out) > 0, nil
		},
		func(e1, e2 int, found []*ds.EE) {
			for _, ee := range found {
				if ee.Hit == geom.HitPoint {
					ee.Vertex = pf.reg.NewVertex(ee.Point, ee.Tol)
					pf.reg.AddPave(e1, ds.Pave{Vertex: ee.Vertex, T: ee.T1})
					pf.reg.AddPave(e2, ds.Pave{Vertex: ee.Vertex, T: ee.T2})
				}
				pf.reg.AddInterference(ee)
			}
		})
}

func (pf *filler) solveVF() error {
	return solvePairs(pf, ds.KindVF, pf.pairs(0, 2),
		func(v, f int) (*ds.VF, bool, error) {
			if pf.reg.IsSubShape(v, f) {
				return nil, false, nil
			}
			tol := pf.tol(v, f)
			if pf.geo.ClassifyPointInFace(pf.reg.Shape(f), pf.reg.VertexPoint(v), tol) != topo.StateIn {
				return nil, false, nil
			}
			return &ds.VF{V: v, F: f, Tol: tol}, true, nil
		},
		func(v, f int, vf *ds.VF) {
			if pf.reg.AddInterference(vf) {
				pf.reg.AddVertexIn(f, v)
			}
		})
}

func (pf *filler) solveEF() error {
	return solvePairs(pf, ds.KindEF, pf.pairs(1, 2),
		func(e, f int) ([]*ds.EF, bool, error) {
			es, fs := pf.reg.Shape(e), pf.reg.Shape(f)
			if es.Degenerate() || pf.reg.IsSubShape(e, f) {
				return nil, false, nil
			}
			tol := pf.tol(e, f)
			hits, err := pf.geo.IntersectCurveSurface(es.Curve(), es.Range(), fs.Surface(), tol)
			if err != nil {
				return nil, false, err
			}
			var out []*ds.EF
			for _, h := range hits {
				switch h.Kind {
				case geom.HitRange:
					out = append(out, &ds.EF{E: e, F: f, Hit: geom.HitRange, R: h.R, Vertex: -1, Tol: tol})
				case geom.HitPoint:
					if pf.nearEnd(e, h.Point) || pf.geo.ClassifyPointInFace(fs, h.Point, tol) != topo.StateIn {
						continue
					}
					out = append(out, &ds.EF{E: e, F: f, Hit: geom.HitPoint, T: h.T, Point: h.Point,
						Vertex: -1, Tol: math.Max(h.Gap, pf.reg.MaxTolerance(e, f))})
				}
			}
			return out, len(out) > 0, nil
		},
		func(e, f int, found []*ds.EF) {
			for _, ef := range found {
				if ef.Hit == geom.HitPoint {
					ef.Vertex = pf.reg.NewVertex(ef.Point, ef.Tol)
					pf.reg.AddPave(e, ds.Pave{Vertex: ef.Vertex, T: ef.T})
					pf.reg.AddVertexIn(f, ef.Vertex)
				}
				pf.reg.AddInterference(ef)
			}
		})
}
