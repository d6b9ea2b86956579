package bop

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
)

// span is a maximal stretch of a section curve lying inside both faces.
// Breaks are the parameters inside the stretch where a face boundary
// touches the curve.
type span struct {
	curve  geom.Curve
	rng    geom.Range
	breaks []float64
}

type ffResult struct {
	coplanar bool
	curves   []geom.Curve
	spans    []span
	tol      float64
}

func (pf *filler) solveFF() error {
	return solvePairs(pf, ds.KindFF, pf.pairs(2, 2),
		func(fa, fb int) (*ffResult, bool, error) {
			sa, sb := pf.reg.Shape(fa), pf.reg.Shape(fb)
			tol := pf.tol(fa, fb)
			si, err := pf.geo.IntersectSurfaceSurface(sa.Surface(), sb.Surface(), tol)
			if err != nil {
				return nil, false, err
			}
			res := &ffResult{coplanar: si.Coincident, curves: si.Curves, tol: tol}
			if si.Coincident {
				return res, true, nil
			}
			for _, c := range si.Curves {
				spans, err := pf.sectionSpans(fa, fb, c, tol)
				if err != nil {
					return nil, false, err
				}
				res.spans = append(res.spans, spans...)
			}
			return res, len(res.spans) > 0, nil
		},
		func(fa, fb int, res *ffResult) {
			ff := &ds.FF{F1: fa, F2: fb, Coplanar: res.coplanar, Curves: res.curves, Tol: res.tol}
			pf.reg.AddInterference(ff)
			if res.coplanar {
				pf.reg.AddCoplanar(fa, fb)
				return
			}
			for _, sp := range res.spans {
				id, err := pf.makeSection(fa, fb, sp, res.tol)
				if err != nil {
					pf.report.Warnf(NonConvergence, []int{fa, fb}, "section: %v", err)
					continue
				}
				if id >= 0 {
					ff.SectionIDs = append(ff.SectionIDs, id)
				}
			}
		})
}

// curveSpan returns a parameter range of c covering box b.
func curveSpan(c geom.Curve, b geom.Box) geom.Range {
	if per := geom.Period(c); per > 0 {
		return geom.Range{First: 0, Last: per}
	}
	r := geom.Range{First: math.Inf(1), Last: math.Inf(-1)}
	for i := 0; i < 8; i++ {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		t := c.Project(p)
		r.First = math.Min(r.First, t)
		r.Last = math.Max(r.Last, t)
	}
	pad := 0.1*r.Length() + 1
	return geom.Range{First: r.First - pad, Last: r.Last + pad}
}

// sectionSpans cuts the curve c at every crossing with the boundaries of
// both faces and keeps the stretches strictly inside both of them.
func (pf *filler) sectionSpans(fa, fb int, c geom.Curve, tol float64) ([]span, error) {
	sa, sb := pf.reg.Shape(fa), pf.reg.Shape(fb)
	box := geom.BoxUnion(pf.reg.MustInfo(fa).Box, pf.reg.MustInfo(fb).Box)
	rng := curveSpan(c, box)
	var params []float64
	for _, f := range []topo.Shape{sa, sb} {
		for _, e := range topo.Explore(f, topo.KindEdge) {
			if e.Degenerate() {
				continue
			}
			hits, err := pf.geo.IntersectCurveCurve(c, rng, e.Curve(), e.Range(), tol)
			if err != nil {
				return nil, err
			}
			for _, h := range hits {
				if h.Kind == geom.HitRange {
					params = append(params, h.R1.First, h.R1.Last)
				} else {
					params = append(params, h.T1)
				}
			}
		}
	}
	sort.Float64s(params)
	ptol := geom.ParamTolerance(c, tol)
	uniq := params[:0]
	for _, t := range params {
		if len(uniq) == 0 || t-uniq[len(uniq)-1] > ptol {
			uniq = append(uniq, t)
		}
	}
	var out []span
	open := false
	for i := 0; i+1 < len(uniq); i++ {
		lo, hi := uniq[i], uniq[i+1]
		m := c.Value(0.5 * (lo + hi))
		inside := pf.geo.ClassifyPointInFace(sa, m, tol) == topo.StateIn &&
			pf.geo.ClassifyPointInFace(sb, m, tol) == topo.StateIn
		switch {
		case inside && open:
			cur := &out[len(out)-1]
			cur.breaks = append(cur.breaks, lo)
			cur.rng.Last = hi
		case inside:
			out = append(out, span{curve: c, rng: geom.Range{First: lo, Last: hi}})
			open = true
		default:
			open = false
		}
	}
	return out, nil
}

// faceVertices returns the resolved vertices known on face f: paves of its
// boundary edges, vertices in its interior, and ends of blocks in it.
func (pf *filler) faceVertices(f int) []int {
	set := make(map[int]bool)
	addBlock := func(pb *ds.PaveBlock) {
		set[pf.reg.SameDomain(pb.Pave1.Vertex)] = true
		set[pf.reg.SameDomain(pb.Pave2.Vertex)] = true
	}
	for _, e := range pf.reg.FaceEdges(f) {
		for _, pb := range pf.reg.PaveBlocks(e) {
			addBlock(pb)
		}
	}
	fi := pf.reg.FaceInfo(f)
	for _, v := range fi.VerticesIn {
		set[pf.reg.SameDomain(v)] = true
	}
	for _, pb := range fi.BlocksIn {
		addBlock(pb)
	}
	for _, pb := range fi.Sections {
		addBlock(pb)
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// makeSection materializes a span as a section edge between faces fa and
// fb. The ends and breaks are snapped to known vertices of the faces. It
// returns the section id, or -1 when the span collapses to a point.
func (pf *filler) makeSection(fa, fb int, sp span, tol float64) (int, error) {
	cands := append(pf.faceVertices(fa), pf.faceVertices(fb)...)
	snap := func(t float64) int {
		p := sp.curve.Value(t)
		best, bestD := -1, math.Inf(1)
		for _, v := range cands {
			d := geom.Distance(p, pf.reg.VertexPoint(v))
			if d <= pf.reg.Tolerance(v)+tol && d < bestD {
				best, bestD = v, d
			}
		}
		if best < 0 {
			best = pf.reg.NewVertex(p, tol)
			cands = append(cands, best)
			tracer().Debugf("section of faces %d/%d: new vertex %d at %v", fa, fb, best, p)
		}
		return best
	}
	v1, v2 := snap(sp.rng.First), snap(sp.rng.Last)
	if v1 == v2 {
		return -1, nil
	}
	r := geom.Range{
		First: geom.ParameterIn(sp.curve, pf.reg.VertexPoint(v1), sp.rng),
		Last:  geom.ParameterIn(sp.curve, pf.reg.VertexPoint(v2), sp.rng),
	}
	if r.Last <= r.First {
		return -1, fmt.Errorf("section range %s collapsed", r)
	}
	etol := pf.reg.MaxTolerance(fa, fb)
	edge, err := topo.MakeEdge(sp.curve, r, pf.reg.Shape(v1), pf.reg.Shape(v2), etol)
	if err != nil {
		return -1, err
	}
	e := pf.reg.Append(edge, etol)
	for _, bt := range sp.breaks {
		v := snap(bt)
		if v == v1 || v == v2 {
			continue
		}
		pf.reg.AddPave(e, ds.Pave{Vertex: v, T: geom.ParameterIn(sp.curve, pf.reg.VertexPoint(v), r)})
	}
	pbs, err := FillPaves(pf.reg, e)
	if err != nil {
		return -1, err
	}
	id := pf.reg.AddSection(&ds.SectionCurve{F1: fa, F2: fb, Curve: sp.curve, Range: r, Edge: e, Blocks: pbs})
	tracer().P("faces", [2]int{fa, fb}).Debugf("section %d: edge %d, %d blocks", id, e, len(pbs))
	return id, nil
}
