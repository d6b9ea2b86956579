package bop

import (
	"fmt"
	"sort"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
)

// FillPaves splits edge e at the paves pooled for it. The end vertices of
// the edge are always seeded first. Paves closer than their tolerances are
// clustered into one; within a cluster an end vertex of the edge wins, then
// a vertex of the operands (lowest index), then the created vertex with the
// largest tolerance. The other vertices of a cluster are merged into the
// winner. The blocks are stored in the registry and returned in parameter
// order.
func FillPaves(reg *ds.Registry, e int) ([]*ds.PaveBlock, error) {
	info, err := reg.Info(e)
	if err != nil {
		return nil, err
	}
	if info.Kind != topo.KindEdge {
		return nil, fmt.Errorf("bop: shape %d is a %s, not an edge", e, info.Kind)
	}
	es := info.Shape
	c, r := es.Curve(), es.Range()
	v1, v2 := reg.EdgeVertices(e)

	type cand struct {
		ds.Pave
		bound bool
	}
	cands := []cand{
		{ds.Pave{Vertex: v1, T: r.First}, true},
		{ds.Pave{Vertex: v2, T: r.Last}, true},
	}
	for _, p := range reg.Paves(e) {
		cands = append(cands, cand{p, false})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].T < cands[j].T })

	speed := geom.Speed(c)
	eps := reg.Options().Epsilon
	var clusters [][]cand
	for _, cd := range cands {
		if n := len(clusters); n > 0 {
			last := clusters[n-1][len(clusters[n-1])-1]
			a, b := reg.SameDomain(last.Vertex), reg.SameDomain(cd.Vertex)
			if (cd.T-last.T)*speed <= reg.Tolerance(a)+reg.Tolerance(b)+eps {
				clusters[n-1] = append(clusters[n-1], cd)
				continue
			}
		}
		clusters = append(clusters, []cand{cd})
	}

	better := func(x, y cand) bool {
		if x.bound != y.bound {
			return x.bound
		}
		xv, yv := reg.SameDomain(x.Vertex), reg.SameDomain(y.Vertex)
		xn, yn := reg.MustInfo(xv).IsNew(), reg.MustInfo(yv).IsNew()
		if xn != yn {
			return !xn
		}
		if xn {
			if tx, ty := reg.Tolerance(xv), reg.Tolerance(yv); tx != ty {
				return tx > ty
			}
		}
		return xv < yv
	}
	paves := make([]ds.Pave, 0, len(clusters))
	for _, cl := range clusters {
		best := cl[0]
		for _, cd := range cl[1:] {
			if better(cd, best) {
				best = cd
			}
		}
		for _, cd := range cl {
			if cd.bound && best.bound {
				continue
			}
			if reg.SameDomain(cd.Vertex) != reg.SameDomain(best.Vertex) {
				reg.Merge(best.Vertex, cd.Vertex)
			}
		}
		paves = append(paves, ds.Pave{Vertex: reg.SameDomain(best.Vertex), T: best.T})
	}
	if len(paves) < 2 {
		return nil, fmt.Errorf("bop: edge %d has %d paves", e, len(paves))
	}
	pbs := make([]*ds.PaveBlock, 0, len(paves)-1)
	for i := 0; i+1 < len(paves); i++ {
		pbs = append(pbs, &ds.PaveBlock{Edge: e, Pave1: paves[i], Pave2: paves[i+1]})
	}
	reg.SetPaveBlocks(e, pbs)
	return pbs, nil
}

// fillAllPaves splits every operand edge, then groups coincident blocks
// into common blocks and attaches blocks lying in faces.
func (pf *filler) fillAllPaves() error {
	pf.transferPaves()
	for _, e := range pf.inputEdges() {
		if err := pf.ctx.Err(); err != nil {
			return err
		}
		if _, err := FillPaves(pf.reg, e); err != nil {
			return err
		}
	}
	pf.makeCommonBlocks()
	pf.makeBlocksIn()
	return nil
}

// pavesOf returns the resolved vertices known on edge e, end vertices
// included.
func (pf *filler) pavesOf(e int) []ds.Pave {
	es := pf.reg.Shape(e)
	v1, v2 := pf.reg.EdgeVertices(e)
	ps := []ds.Pave{{Vertex: v1, T: es.Range().First}, {Vertex: v2, T: es.Range().Last}}
	ps = append(ps, pf.reg.Paves(e)...)
	for i := range ps {
		ps[i].Vertex = pf.reg.SameDomain(ps[i].Vertex)
	}
	return ps
}

// transferPaves copies paves between edges overlapping over a range, until
// every pave inside an overlap is known on both edges.
func (pf *filler) transferPaves() {
	var ranges []*ds.EE
	for _, ee := range pf.reg.Interferences().EE {
		if ee.Hit == geom.HitRange {
			ranges = append(ranges, ee)
		}
	}
	for changed, round := true, 0; changed && round < 8; round++ {
		changed = false
		for _, ee := range ranges {
			changed = pf.transfer(ee.E1, ee.R1, ee.E2) || changed
			changed = pf.transfer(ee.E2, ee.R2, ee.E1) || changed
		}
	}
}

func (pf *filler) transfer(from int, r geom.Range, to int) bool {
	fs, ts := pf.reg.Shape(from), pf.reg.Shape(to)
	ptol := geom.ParamTolerance(fs.Curve(), pf.reg.Tolerance(from))
	known := make(map[int]bool)
	for _, p := range pf.pavesOf(to) {
		known[p.Vertex] = true
	}
	added := false
	for _, p := range pf.pavesOf(from) {
		if known[p.Vertex] || !r.Contains(p.T, ptol) {
			continue
		}
		t, d := geom.ProjectPoint(ts.Curve(), ts.Range(), pf.reg.VertexPoint(p.Vertex))
		if d > pf.tol(p.Vertex, to) {
			continue
		}
		pf.reg.AddPave(to, ds.Pave{Vertex: p.Vertex, T: t})
		known[p.Vertex] = true
		added = true
	}
	return added
}

func (pf *filler) blockMid(pb *ds.PaveBlock) geom.Point {
	return pf.reg.Shape(pb.Edge).Curve().Value(pb.Range().Mid())
}

func (pf *filler) blockInside(pb *ds.PaveBlock, r geom.Range) bool {
	c := pf.reg.Shape(pb.Edge).Curve()
	ptol := geom.ParamTolerance(c, pf.reg.Tolerance(pb.Edge))
	return r.Contains(pb.Pave1.T, ptol) && r.Contains(pb.Pave2.T, ptol)
}

func sameEnds(reg *ds.Registry, a, b *ds.PaveBlock) bool {
	a1, a2 := reg.SameDomain(a.Pave1.Vertex), reg.SameDomain(a.Pave2.Vertex)
	b1, b2 := reg.SameDomain(b.Pave1.Vertex), reg.SameDomain(b.Pave2.Vertex)
	return (a1 == b1 && a2 == b2) || (a1 == b2 && a2 == b1)
}

// makeCommonBlocks pairs the blocks of edges overlapping over a range that
// share both end vertices and run along each other.
func (pf *filler) makeCommonBlocks() {
	for _, ee := range pf.reg.Interferences().EE {
		if ee.Hit != geom.HitRange {
			continue
		}
		tol := pf.tol(ee.E1, ee.E2)
		for _, pb1 := range pf.reg.PaveBlocks(ee.E1) {
			if !pf.blockInside(pb1, ee.R1) {
				continue
			}
			for _, pb2 := range pf.reg.PaveBlocks(ee.E2) {
				if !pf.blockInside(pb2, ee.R2) || !sameEnds(pf.reg, pb1, pb2) {
					continue
				}
				if geom.Distance(pf.blockMid(pb1), pf.blockMid(pb2)) <= tol {
					pf.reg.MakeCommonBlock(pb1, pb2)
				}
			}
		}
	}
	tracer().Debugf("%d common blocks", len(pf.reg.CommonBlocks()))
}

// makeBlocksIn attaches the blocks of edges lying in the surface of a face
// to the face when they are inside it.
func (pf *filler) makeBlocksIn() {
	for _, ef := range pf.reg.Interferences().EF {
		if ef.Hit != geom.HitRange {
			continue
		}
		fs := pf.reg.Shape(ef.F)
		for _, pb := range pf.reg.PaveBlocks(ef.E) {
			if !pf.blockInside(pb, ef.R) || pf.onBoundary(pb, ef.F) {
				continue
			}
			if pf.geo.ClassifyPointInFace(fs, pf.blockMid(pb), pf.tol(ef.E, ef.F)) != topo.StateIn {
				continue
			}
			pf.reg.AddBlockIn(ef.F, pb)
			if pb.Common != nil {
				pf.reg.AddCommonBlockFace(pb.Common, ef.F)
			}
		}
	}
}

// onBoundary reports whether pb coincides with a block of a boundary edge
// of face f.
func (pf *filler) onBoundary(pb *ds.PaveBlock, f int) bool {
	if pb.Common == nil {
		return false
	}
	for _, x := range pb.Common.Blocks {
		if pf.reg.IsSubShape(x.Edge, f) {
			return true
		}
	}
	return false
}
