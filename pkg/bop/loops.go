package bop

import (
	"fmt"
	"math"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
	"github.com/samber/lo"
)

// arc is an edge oriented for traversal while tracing face loops.
type arc struct {
	edge     topo.Shape
	from, to *topo.TShape
}

func newArc(e topo.Shape) arc {
	v1, v2 := topo.EdgeVertices(e)
	return arc{edge: e, from: v1.TShape(), to: v2.TShape()}
}

// startDir and endDir are the unit tangents where the arc leaves its first
// vertex and arrives at its last.
func (a arc) startDir() geom.Vec {
	c, r := a.edge.Curve(), a.edge.Range()
	if a.edge.Orientation() == topo.Reversed {
		return geom.Tangent(c, r.Last).Neg()
	}
	return geom.Tangent(c, r.First)
}

func (a arc) endDir() geom.Vec {
	c, r := a.edge.Curve(), a.edge.Range()
	if a.edge.Orientation() == topo.Reversed {
		return geom.Tangent(c, r.First).Neg()
	}
	return geom.Tangent(c, r.Last)
}

func (a arc) isTwin(b arc) bool {
	return a.edge.IsSame(b.edge) && a.edge.Orientation() != b.edge.Orientation()
}

// points returns the chord polygon of the arc without its last point.
func (a arc) points() []geom.Point {
	c, r := a.edge.Curve(), a.edge.Range()
	pts := geom.Sample(c, r, geom.Segments(c, r))
	if a.edge.Orientation() == topo.Reversed {
		pts = lo.Reverse(pts)
	}
	return pts[:len(pts)-1]
}

// removeDangling drops arcs of edges ending at a vertex no other edge
// reaches, repeatedly.
func removeDangling(arcs []arc) []arc {
	for {
		deg := make(map[*topo.TShape]int)
		for _, e := range lo.UniqBy(arcs, func(a arc) *topo.TShape { return a.edge.TShape() }) {
			deg[e.from]++
			deg[e.to]++
		}
		kept := lo.Filter(arcs, func(a arc, _ int) bool {
			return a.from == a.to || (deg[a.from] > 1 && deg[a.to] > 1)
		})
		if len(kept) == len(arcs) {
			return kept
		}
		arcs = kept
	}
}

// traceLoops links arcs into closed loops on the plane pl. At each vertex
// the loop turns into the unused arc making the smallest clockwise angle
// with the direction it came from, which keeps the traced region on the
// left. Turning back along the same edge is the last resort. Arcs that
// cannot be closed are returned as broken.
func traceLoops(pl geom.Plane, arcs []arc) (loops [][]int, broken int) {
	leaving := make(map[*topo.TShape][]int)
	for i, a := range arcs {
		leaving[a.from] = append(leaving[a.from], i)
	}
	used := make([]bool, len(arcs))
	for start := range arcs {
		if used[start] {
			continue
		}
		used[start] = true
		loop := []int{start}
		cur, closed := start, false
		for steps := 0; steps < len(arcs); steps++ {
			if arcs[cur].to == arcs[start].from {
				closed = true
				break
			}
			next := nextArc(pl, arcs, used, leaving[arcs[cur].to], cur)
			if next < 0 {
				break
			}
			used[next] = true
			loop = append(loop, next)
			cur = next
		}
		if closed {
			loops = append(loops, loop)
		} else {
			broken++
		}
	}
	return loops, broken
}

func angle2D(pl geom.Plane, d geom.Vec) float64 {
	v := pl.DirTo2D(d)
	return math.Atan2(v[1], v[0])
}

func nextArc(pl geom.Plane, arcs []arc, used []bool, cands []int, cur int) int {
	back := angle2D(pl, arcs[cur].endDir().Neg())
	best, bestAng := -1, math.Inf(1)
	for _, j := range cands {
		if used[j] {
			continue
		}
		ang := 2 * math.Pi
		if !arcs[j].isTwin(arcs[cur]) {
			ang = math.Mod(back-angle2D(pl, arcs[j].startDir()), 2*math.Pi)
			if ang <= 0 {
				ang += 2 * math.Pi
			}
		}
		if ang < bestAng {
			best, bestAng = j, ang
		}
	}
	return best
}

type loop struct {
	arcs []arc
	poly [][2]float64
	area float64
}

func makeLoop(pl geom.Plane, arcs []arc) loop {
	var pts []geom.Point
	for _, a := range arcs {
		pts = append(pts, a.points()...)
	}
	poly := topo.To2D(pl, pts)
	return loop{arcs: arcs, poly: poly, area: topo.SignedArea(poly)}
}

// samplePoint returns a point of the loop's first arc away from its vertices.
func (l loop) samplePoint(pl geom.Plane) [2]float64 {
	e := l.arcs[0].edge
	return pl.To2D(e.Curve().Value(e.Range().Mid()))
}

// uses reports whether the loop runs along e in either direction.
func (l loop) uses(e topo.Shape) bool {
	return lo.SomeBy(l.arcs, func(a arc) bool { return a.edge.IsSame(e) })
}

func (l loop) wire() (topo.Shape, error) {
	return topo.MakeWire(lo.Map(l.arcs, func(a arc, _ int) topo.Shape { return a.edge })...)
}

// makeFaces traces the arcs on the plane pl and builds faces on surface s:
// every counter-clockwise loop bounds a face, every clockwise loop becomes a
// hole of the smallest face around it. It returns the faces and the number
// of arcs or holes that could not be placed.
func makeFaces(pl geom.Plane, s geom.Surface, arcs []arc) ([]topo.Shape, int, error) {
	idx, broken := traceLoops(pl, arcs)
	var outers, holes []loop
	for _, ix := range idx {
		l := makeLoop(pl, lo.Map(ix, func(i int, _ int) arc { return arcs[i] }))
		switch {
		case l.area > 0:
			outers = append(outers, l)
		case l.area < 0:
			holes = append(holes, l)
		default:
			broken++
		}
	}
	inner := make([][]loop, len(outers))
	for _, h := range holes {
		q := h.samplePoint(pl)
		best := -1
		for i, o := range outers {
			if o.uses(h.arcs[0].edge) {
				continue
			}
			if topo.Winding(q, o.poly) != 0 && (best < 0 || o.area < outers[best].area) {
				best = i
			}
		}
		if best < 0 {
			broken++
			continue
		}
		inner[best] = append(inner[best], h)
	}
	faces := make([]topo.Shape, 0, len(outers))
	for i, o := range outers {
		w, err := o.wire()
		if err != nil {
			return nil, broken, fmt.Errorf("outer loop: %w", err)
		}
		wires := []topo.Shape{w}
		for _, h := range inner[i] {
			hw, err := h.wire()
			if err != nil {
				return nil, broken, fmt.Errorf("hole: %w", err)
			}
			wires = append(wires, hw)
		}
		f, err := topo.MakeFace(s, wires...)
		if err != nil {
			return nil, broken, err
		}
		faces = append(faces, f)
	}
	return faces, broken, nil
}
