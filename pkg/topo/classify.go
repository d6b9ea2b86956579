package topo

import (
	"fmt"
	"math"

	"github.com/chazu/brep/pkg/geom"
)

// State is the position of a point or patch relative to another shape.
type State int

const (
	StateUnknown State = iota
	StateIn
	StateOut
	StateOn
)

func (s State) String() string {
	switch s {
	case StateIn:
		return "IN"
	case StateOut:
		return "OUT"
	case StateOn:
		return "ON"
	default:
		return "UNKNOWN"
	}
}

// LoopPoints returns the polygon approximating a wire: the start point of
// every chord, arcs split into several chords.
func LoopPoints(w Shape) []geom.Point {
	var pts []geom.Point
	for _, e := range WireEdges(w) {
		c, r := e.Curve(), e.Range()
		samp := geom.Sample(c, r, geom.Segments(c, r))
		if e.Orientation() == Reversed {
			for i, j := 0, len(samp)-1; i < j; i, j = i+1, j-1 {
				samp[i], samp[j] = samp[j], samp[i]
			}
		}
		pts = append(pts, samp[:len(samp)-1]...)
	}
	return pts
}

// FacePolygons returns the polygons of all loops of f, outer loop first.
func FacePolygons(f Shape) [][]geom.Point {
	ws := Wires(f)
	out := make([][]geom.Point, 0, len(ws))
	for _, w := range ws {
		out = append(out, LoopPoints(w))
	}
	return out
}

// Winding returns the winding number of the closed 2D polygon poly around q.
func Winding(q [2]float64, poly [][2]float64) int {
	wn := 0
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		side := (b[0]-a[0])*(q[1]-a[1]) - (q[0]-a[0])*(b[1]-a[1])
		if a[1] <= q[1] {
			if b[1] > q[1] && side > 0 {
				wn++
			}
		} else if b[1] <= q[1] && side < 0 {
			wn--
		}
	}
	return wn
}

// SignedArea returns the signed area of a 2D polygon, positive when it runs
// counter-clockwise.
func SignedArea(poly [][2]float64) float64 {
	var a float64
	n := len(poly)
	for i := 0; i < n; i++ {
		p, q := poly[i], poly[(i+1)%n]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}

// To2D projects a 3D polygon into the frame of pl.
func To2D(pl geom.Plane, pts []geom.Point) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = pl.To2D(p)
	}
	return out
}

// ClassifyPointInFace reports whether p lies inside, outside or on the
// boundary of the bounded face f. Points farther than tol from the surface
// are outside.
func ClassifyPointInFace(f Shape, p geom.Point, tol float64) State {
	pl, ok := f.Plane()
	if !ok {
		return StateUnknown
	}
	if math.Abs(pl.SignedDistance(p)) > tol {
		return StateOut
	}
	for _, w := range Wires(f) {
		for _, e := range WireEdges(w) {
			if _, d := geom.ProjectPoint(e.Curve(), e.Range(), p); d <= tol {
				return StateOn
			}
		}
	}
	q := pl.To2D(p)
	wn := 0
	for _, loop := range FacePolygons(f) {
		wn += Winding(q, To2D(pl, loop))
	}
	if wn != 0 {
		return StateIn
	}
	return StateOut
}

var rayDirections = []geom.Vec{
	{X: 0.5773, Y: 0.5811, Z: 0.5737},
	{X: -0.2673, Y: 0.8018, Z: 0.5345},
	{X: 0.7071, Y: -0.1031, Z: 0.6997},
	{X: 0.1013, Y: 0.2087, Z: -0.9727},
	{X: -0.8117, Y: -0.4329, Z: 0.3923},
	{X: 0.3119, Y: -0.9103, Z: -0.2719},
}

// ClassifyPointInSolid reports whether p lies inside, outside or on the
// boundary of the solid (or closed shell) s. It casts rays and counts
// boundary crossings; a ray grazing an edge is discarded and another
// direction tried. When every direction is degenerate the result is
// StateUnknown with geom.ErrNoConvergence.
func ClassifyPointInSolid(s Shape, p geom.Point, tol float64) (State, error) {
	faces := Explore(s, KindFace)
	for _, f := range faces {
		pl, _ := f.Plane()
		if math.Abs(pl.SignedDistance(p)) <= tol && ClassifyPointInFace(f, p, tol) != StateOut {
			return StateOn, nil
		}
	}
	for _, d := range rayDirections {
		d = d.Normalize()
		crossings, ok := castRay(faces, p, d, tol)
		if !ok {
			tracer().Debugf("ray %v from %v is degenerate, retrying", d, p)
			continue
		}
		if crossings%2 == 1 {
			return StateIn, nil
		}
		return StateOut, nil
	}
	return StateUnknown, fmt.Errorf("classify point %v: %w", p, geom.ErrNoConvergence)
}

func castRay(faces []Shape, p geom.Point, d geom.Vec, tol float64) (int, bool) {
	n := 0
	for _, f := range faces {
		pl, ok := f.Plane()
		if !ok {
			return 0, false
		}
		dn := d.Dot(pl.Normal)
		h := pl.SignedDistance(p)
		if math.Abs(dn) < 1e-9 {
			if math.Abs(h) <= tol {
				return 0, false
			}
			continue
		}
		t := -h / dn
		if t <= tol {
			continue
		}
		switch ClassifyPointInFace(f, p.Add(d.MulScalar(t)), tol) {
		case StateIn:
			n++
		case StateOn:
			return 0, false
		}
	}
	return n, true
}
