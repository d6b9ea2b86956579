package bop

import (
	"math"
	"sort"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
	"github.com/samber/lo"
)

// assembler stitches the selected faces into shells and solids.
type assembler struct {
	reg    *ds.Registry
	geo    Geometry
	opts   Options
	report *Report
}

type faceKey struct {
	t *topo.TShape
	o topo.Orientation
}

func keyOf(f topo.Shape) faceKey { return faceKey{f.TShape(), f.Orientation()} }

// shells groups faces connected through shared edges into shells. Faces
// around an edge used more than twice are paired with the next face on
// their material side, so solids touching along an edge stay apart.
func shells(faces []topo.Shape) []topo.Shape {
	uses, order := edgeFaces(faces)
	uf := newUnionFind(len(faces))
	for _, e := range order {
		fs := uses[e]
		if len(fs) <= 2 {
			for _, f := range fs[1:] {
				uf.union(fs[0], f)
			}
			continue
		}
		pairs, ok := pairAround(e, faces, fs)
		if !ok {
			pairs = lo.Map(fs[1:], func(f int, _ int) [2]int { return [2]int{fs[0], f} })
		}
		for _, p := range pairs {
			uf.union(p[0], p[1])
		}
	}
	return lo.Map(uf.groups(), func(g []int, _ int) topo.Shape {
		return topo.MakeShell(lo.Map(g, func(i int, _ int) topo.Shape { return faces[i] })...)
	})
}

// edgeUse returns the edge e as the face f traverses it, oriented so that
// the face lies to its left seen from the outward normal.
func edgeUse(f topo.Shape, e *topo.TShape) (topo.Shape, bool) {
	for _, w := range topo.Wires(f) {
		for _, ed := range topo.WireEdges(w) {
			if ed.TShape() != e {
				continue
			}
			if f.Orientation() == topo.Reversed {
				ed = ed.Reversed()
			}
			return ed, true
		}
	}
	return topo.Shape{}, false
}

// pairAround sorts the faces fs sharing edge e by their angle around the
// edge and pairs every face with its neighbour on the material side. It
// fails when a face is not planar.
func pairAround(e *topo.TShape, faces []topo.Shape, fs []int) ([][2]int, bool) {
	type wing struct {
		face  int
		angle float64
		ccw   bool
	}
	var axis, u, v geom.Vec
	var wings []wing
	for _, i := range fs {
		ed, ok := edgeUse(faces[i], e)
		n, okn := outward(faces[i])
		if !ok || !okn {
			return nil, false
		}
		t := ed.Range().Mid()
		d := geom.Tangent(ed.Curve(), t)
		if ed.Orientation() == topo.Reversed {
			d = d.Neg()
		}
		if len(wings) == 0 {
			axis = d
			u = geom.Perpendicular(axis)
			v = axis.Cross(u)
		}
		in := n.Cross(d)
		wings = append(wings, wing{
			face:  i,
			angle: math.Atan2(in.Dot(v), in.Dot(u)),
			ccw:   n.Neg().Dot(axis.Cross(in)) > 0,
		})
	}
	sort.SliceStable(wings, func(a, b int) bool { return wings[a].angle < wings[b].angle })
	var pairs [][2]int
	for k, w := range wings {
		if !w.ccw {
			continue
		}
		pairs = append(pairs, [2]int{w.face, wings[(k+1)%len(wings)].face})
	}
	return pairs, true
}

// assemble builds the result of a solid operation from the selected faces.
// It returns the shape and whether every shell closed when solids were
// expected.
func (a *assembler) assemble(faces []topo.Shape, solidExpected bool) (topo.Shape, bool) {
	if len(faces) == 0 {
		return topo.MakeCompound(), true
	}
	var items, outers, cavities []topo.Shape
	closed := true
	for _, sh := range shells(faces) {
		switch {
		case !solidExpected:
			items = append(items, sh)
		case !topo.IsClosedShell(sh):
			closed = false
			items = append(items, sh)
			a.report.Warnf(OpenResult, nil, "shell of %d faces does not close", sh.NumChildren())
		case topo.Volume(sh) < 0:
			cavities = append(cavities, sh)
		default:
			outers = append(outers, sh)
		}
	}
	holes := make([][]topo.Shape, len(outers))
	for _, c := range cavities {
		best := a.enclosing(outers, c)
		if best < 0 {
			a.report.Warnf(OpenResult, nil, "cavity shell of %d faces lies in no outer shell", c.NumChildren())
			closed = false
			items = append(items, c)
			continue
		}
		holes[best] = append(holes[best], c)
	}
	for i, o := range outers {
		items = append(items, a.solid(o, holes[i]))
	}
	if len(items) == 1 {
		return items[0], closed
	}
	return topo.MakeCompound(items...), closed
}

// enclosing returns the smallest outer shell containing the cavity c.
func (a *assembler) enclosing(outers []topo.Shape, c topo.Shape) int {
	vs := topo.Explore(c, topo.KindVertex)
	if len(vs) == 0 {
		return -1
	}
	p := vs[0].Point()
	best, bestVol := -1, math.Inf(1)
	for i, o := range outers {
		st, err := a.geo.ClassifyPointInSolid(o, p, a.opts.Epsilon+vs[0].Tolerance())
		if err != nil || st != topo.StateIn {
			continue
		}
		if v := topo.Volume(o); v < bestVol {
			best, bestVol = i, v
		}
	}
	return best
}

// solid makes a solid of an outer shell and its cavities, reusing an
// operand solid bounded by exactly the same faces.
func (a *assembler) solid(outer topo.Shape, cavities []topo.Shape) topo.Shape {
	shellList := append([]topo.Shape{outer}, cavities...)
	want := make(map[faceKey]bool)
	for _, sh := range shellList {
		for _, f := range sh.Children() {
			want[keyOf(f)] = true
		}
	}
	for _, op := range a.reg.Operands() {
		for _, s := range topo.Explore(op, topo.KindSolid) {
			fs := faceWalk(s)
			if len(fs) == len(want) && lo.EveryBy(fs, func(f topo.Shape) bool { return want[keyOf(f)] }) {
				return s
			}
		}
	}
	return topo.MakeSolid(shellList...)
}

// faceWalk returns every face occurrence of s with its composed orientation.
func faceWalk(s topo.Shape) []topo.Shape {
	var out []topo.Shape
	topo.Walk(s, func(c topo.Shape) bool {
		if c.Kind() == topo.KindFace {
			out = append(out, c)
			return false
		}
		return c.Kind() > topo.KindFace
	})
	return out
}

// section builds the result of a Section operation: the edges the operands
// have in common and the vertices where they touch without an edge.
func (a *assembler) section(im *images) (topo.Shape, error) {
	var blocks []*ds.PaveBlock
	for _, sc := range a.reg.Sections() {
		blocks = append(blocks, sc.Blocks...)
	}
	for _, cb := range a.reg.CommonBlocks() {
		blocks = append(blocks, cb.Representative())
	}
	for r := 0; r < len(a.reg.Operands()); r++ {
		for _, f := range a.reg.RangeOfDimension(2, r) {
			blocks = append(blocks, a.reg.FaceInfo(f).BlocksIn...)
		}
	}
	for _, e := range a.reg.RangeOfDimension(1, 0) {
		if a.reg.MustInfo(e).Shared() {
			blocks = append(blocks, a.reg.PaveBlocks(e)...)
		}
	}
	var items []topo.Shape
	ends := make(map[int]bool)
	for _, rb := range lo.Uniq(lo.Map(blocks, func(pb *ds.PaveBlock, _ int) *ds.PaveBlock { return pb.Real() })) {
		img, err := im.edge(rb)
		if err != nil {
			return topo.Shape{}, err
		}
		items = append(items, img)
		ends[a.reg.SameDomain(rb.Pave1.Vertex)] = true
		ends[a.reg.SameDomain(rb.Pave2.Vertex)] = true
	}
	var touch []int
	in := a.reg.Interferences()
	for _, vv := range in.VV {
		touch = append(touch, vv.V1)
	}
	for _, ve := range in.VE {
		touch = append(touch, ve.V)
	}
	for _, vf := range in.VF {
		touch = append(touch, vf.V)
	}
	for _, ee := range in.EE {
		if ee.Hit == geom.HitPoint && ee.Vertex >= 0 {
			touch = append(touch, ee.Vertex)
		}
	}
	for _, ef := range in.EF {
		if ef.Hit == geom.HitPoint && ef.Vertex >= 0 {
			touch = append(touch, ef.Vertex)
		}
	}
	for _, v := range lo.Uniq(lo.Map(touch, func(v int, _ int) int { return a.reg.SameDomain(v) })) {
		if !ends[v] {
			items = append(items, im.vertex(v))
		}
	}
	tracer().Debugf("section: %d shapes", len(items))
	return topo.MakeCompound(items...), nil
}
