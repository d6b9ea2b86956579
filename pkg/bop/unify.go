package bop

import (
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
	"github.com/samber/lo"
)

// unifier merges adjacent coplanar faces of a result that share their
// outward normal, then joins collinear line edges meeting at a vertex no
// other edge uses.
type unifier struct {
	tol    float64
	report *Report
	hist   *history
}

type unionFind []int

func newUnionFind(n int) unionFind {
	uf := make(unionFind, n)
	for i := range uf {
		uf[i] = i
	}
	return uf
}

func (uf unionFind) find(i int) int {
	for uf[i] != i {
		uf[i] = uf[uf[i]]
		i = uf[i]
	}
	return i
}

func (uf unionFind) union(a, b int) {
	a, b = uf.find(a), uf.find(b)
	if a < b {
		uf[b] = a
	} else if b < a {
		uf[a] = b
	}
}

// groups returns the classes of uf with at least one member, each in
// ascending order, ordered by their smallest member.
func (uf unionFind) groups() [][]int {
	byRoot := make(map[int][]int)
	var roots []int
	for i := range uf {
		r := uf.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	return lo.Map(roots, func(r int, _ int) []int { return byRoot[r] })
}

// edgeFaces maps every edge to the faces using it, in face order.
func edgeFaces(faces []topo.Shape) (map[*topo.TShape][]int, []*topo.TShape) {
	m := make(map[*topo.TShape][]int)
	var order []*topo.TShape
	for i, f := range faces {
		for _, e := range topo.Explore(f, topo.KindEdge) {
			if _, ok := m[e.TShape()]; !ok {
				order = append(order, e.TShape())
			}
			m[e.TShape()] = append(m[e.TShape()], i)
		}
	}
	return m, order
}

func (u *unifier) mergeable(a, b topo.Shape) bool {
	pa, oka := a.Plane()
	pb, okb := b.Plane()
	if !oka || !okb || !pa.Coincident(pb, u.tol) {
		return false
	}
	na, _ := outward(a)
	nb, _ := outward(b)
	return na.Dot(nb) > 0
}

func (u *unifier) run(faces []topo.Shape) []topo.Shape {
	uses, order := edgeFaces(faces)
	uf := newUnionFind(len(faces))
	for _, e := range order {
		fs := uses[e]
		for i := 1; i < len(fs); i++ {
			if u.mergeable(faces[fs[0]], faces[fs[i]]) {
				uf.union(fs[0], fs[i])
			}
		}
	}
	var out []topo.Shape
	for _, g := range uf.groups() {
		if len(g) == 1 {
			out = append(out, faces[g[0]])
			continue
		}
		members := lo.Map(g, func(i int, _ int) topo.Shape { return faces[i] })
		merged, ok := u.mergeFaces(members)
		if !ok {
			u.report.Warnf(FaceBuildFailed, nil, "could not merge %d coplanar faces", len(g))
			merged = members
		}
		for _, f := range merged {
			u.hist.derive(f, members...)
		}
		out = append(out, merged...)
	}
	out = u.mergeCollinear(out)
	tracer().Debugf("unify: %d faces in, %d faces out", len(faces), len(out))
	return out
}

// mergeFaces rebuilds a group of coplanar faces from the edges that are not
// shared inside the group.
func (u *unifier) mergeFaces(group []topo.Shape) ([]topo.Shape, bool) {
	pl, _ := group[0].Plane()
	if group[0].Orientation() == topo.Reversed {
		pl = pl.Reversed()
	}
	var used []topo.Shape
	count := make(map[*topo.TShape]int)
	for _, f := range group {
		for _, w := range topo.Wires(f) {
			for _, e := range topo.WireEdges(w) {
				if f.Orientation() == topo.Reversed {
					e = e.Reversed()
				}
				used = append(used, e)
				count[e.TShape()]++
			}
		}
	}
	arcs := make([]arc, 0, len(used))
	for _, e := range used {
		if count[e.TShape()] == 1 {
			arcs = append(arcs, newArc(e))
		}
	}
	faces, broken, err := makeFaces(pl, pl, arcs)
	if err != nil || broken > 0 || len(faces) == 0 {
		return nil, false
	}
	return faces, true
}

// faceLoops is a face taken apart so that its edges can be replaced.
type faceLoops struct {
	surface geom.Surface
	orient  topo.Orientation
	loops   [][]topo.Shape
	orig    topo.Shape
	changed bool
}

func explode(f topo.Shape) *faceLoops {
	fl := &faceLoops{surface: f.Surface(), orient: f.Orientation(), orig: f}
	for _, w := range topo.Wires(f) {
		fl.loops = append(fl.loops, append([]topo.Shape(nil), topo.WireEdges(w)...))
	}
	return fl
}

func (fl *faceLoops) build() (topo.Shape, error) {
	if !fl.changed {
		return fl.orig, nil
	}
	wires := make([]topo.Shape, 0, len(fl.loops))
	for _, l := range fl.loops {
		w, err := topo.MakeWire(l...)
		if err != nil {
			return topo.Shape{}, err
		}
		wires = append(wires, w)
	}
	f, err := topo.MakeFace(fl.surface, wires...)
	if err != nil {
		return topo.Shape{}, err
	}
	return f.Oriented(fl.orient), nil
}

// collinearPair returns two straight edges meeting at v that continue each
// other, when they are the only edges at v.
func collinearPair(edges []topo.Shape) (topo.Shape, topo.Shape, bool) {
	if len(edges) != 2 {
		return topo.Shape{}, topo.Shape{}, false
	}
	a, b := edges[0], edges[1]
	la, oka := a.Curve().(geom.Line)
	lb, okb := b.Curve().(geom.Line)
	if !oka || !okb || !geom.Parallel(la.Dir, lb.Dir) {
		return topo.Shape{}, topo.Shape{}, false
	}
	return a, b, true
}

// otherEnd returns the vertex of e that is not v.
func otherEnd(e topo.Shape, v *topo.TShape) topo.Shape {
	v1, v2 := topo.EdgeVertices(e)
	if v1.TShape() == v {
		return v2
	}
	return v1
}

func (u *unifier) mergeCollinear(faces []topo.Shape) []topo.Shape {
	fls := lo.Map(faces, func(f topo.Shape, _ int) *faceLoops { return explode(f) })
	for changed := true; changed; {
		changed = false
		atVertex := make(map[*topo.TShape][]topo.Shape)
		var order []*topo.TShape
		seen := make(map[*topo.TShape]bool)
		for _, fl := range fls {
			for _, l := range fl.loops {
				for _, e := range l {
					if seen[e.TShape()] {
						continue
					}
					seen[e.TShape()] = true
					v1, v2 := topo.EdgeVertices(e)
					for _, v := range []*topo.TShape{v1.TShape(), v2.TShape()} {
						if _, ok := atVertex[v]; !ok {
							order = append(order, v)
						}
						atVertex[v] = append(atVertex[v], e)
					}
				}
			}
		}
		for _, v := range order {
			a, b, ok := collinearPair(atVertex[v])
			if !ok {
				continue
			}
			p, q := otherEnd(a, v), otherEnd(b, v)
			if p.IsSame(q) {
				continue
			}
			line, r := geom.LineThrough(p.Point(), q.Point())
			joined, err := topo.MakeEdge(line, r, p, q, max(a.Tolerance(), b.Tolerance()))
			if err != nil {
				continue
			}
			u.hist.replace(a, joined)
			u.hist.replace(b, joined)
			for _, fl := range fls {
				if fl.replace(a, b, joined) {
					fl.changed = true
				}
			}
			changed = true
			break
		}
	}
	out := make([]topo.Shape, 0, len(fls))
	for i, fl := range fls {
		f, err := fl.build()
		if err != nil {
			u.report.Warnf(FaceBuildFailed, nil, "rebuilding face after edge merge: %v", err)
			f = faces[i]
		}
		u.hist.derive(f, faces[i])
		out = append(out, f)
	}
	return out
}

// replace substitutes the consecutive uses of a and b in the loops of fl by
// joined, oriented along the traversal.
func (fl *faceLoops) replace(a, b, joined topo.Shape) bool {
	hit := false
	for li, l := range fl.loops {
		n := len(l)
		for i := 0; i < n && n > 1; i++ {
			x, y := l[i], l[(i+1)%n]
			if !(x.IsSame(a) && y.IsSame(b)) && !(x.IsSame(b) && y.IsSame(a)) {
				continue
			}
			start, _ := topo.EdgeVertices(x)
			e := joined
			if j1, _ := topo.EdgeVertices(joined); !j1.IsSame(start) {
				e = joined.Reversed()
			}
			var nl []topo.Shape
			for k := 0; k < n; k++ {
				switch k {
				case i:
					nl = append(nl, e)
				case (i + 1) % n:
				default:
					nl = append(nl, l[k])
				}
			}
			fl.loops[li] = nl
			hit = true
			break
		}
	}
	return hit
}
