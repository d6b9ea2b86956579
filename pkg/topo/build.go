package topo

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/brep/pkg/geom"
)

// ErrConstruction is returned when a builder is given inconsistent input.
var ErrConstruction = errors.New("topo: invalid construction")

func constructionError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConstruction, fmt.Sprintf(format, args...))
}

// MakeVertex returns a vertex at p with tolerance tol.
func MakeVertex(p geom.Point, tol float64) Shape {
	return Shape{t: &TShape{kind: KindVertex, point: p, tol: tol}}
}

// MakeEdge returns an edge along c over r, bounded by v1 at r.First and v2 at
// r.Last.
func MakeEdge(c geom.Curve, r geom.Range, v1, v2 Shape, tol float64) (Shape, error) {
	if v1.IsNull() || v2.IsNull() || v1.Kind() != KindVertex || v2.Kind() != KindVertex {
		return Shape{}, constructionError("edge needs two vertices")
	}
	if r.Last < r.First {
		return Shape{}, constructionError("edge range %s is reversed", r)
	}
	t := &TShape{
		kind:     KindEdge,
		curve:    c,
		rng:      r,
		tol:      tol,
		children: []Shape{v1.Oriented(Forward), v2.Oriented(Reversed)},
	}
	return Shape{t: t}, nil
}

// MakeDegenerateEdge returns an edge collapsed onto v. Degenerate edges carry
// no length and take no part in intersections.
func MakeDegenerateEdge(c geom.Curve, r geom.Range, v Shape) Shape {
	t := &TShape{
		kind:     KindEdge,
		curve:    c,
		rng:      r,
		tol:      v.Tolerance(),
		degen:    true,
		children: []Shape{v.Oriented(Forward), v.Oriented(Reversed)},
	}
	return Shape{t: t}
}

// MakeSegment returns a straight edge from v1 to v2.
func MakeSegment(v1, v2 Shape) (Shape, error) {
	if geom.Distance(v1.Point(), v2.Point()) <= math.Max(v1.Tolerance(), v2.Tolerance()) {
		return Shape{}, constructionError("segment end points coincide")
	}
	l, r := geom.LineThrough(v1.Point(), v2.Point())
	return MakeEdge(l, r, v1, v2, math.Max(geom.Confusion, math.Max(v1.Tolerance(), v2.Tolerance())))
}

// MakeArc returns an edge along c over r. For a full circle pass the same
// vertex twice.
func MakeArc(c geom.Circle, r geom.Range, v1, v2 Shape) (Shape, error) {
	return MakeEdge(c, r, v1, v2, geom.Confusion)
}

// MakeWire returns a wire from oriented edges in traversal order. Each edge
// must start at the vertex the previous one ends at.
func MakeWire(edges ...Shape) (Shape, error) {
	if len(edges) == 0 {
		return Shape{}, constructionError("empty wire")
	}
	for i := 1; i < len(edges); i++ {
		_, last := EdgeVertices(edges[i-1])
		first, _ := EdgeVertices(edges[i])
		if !last.IsSame(first) {
			return Shape{}, constructionError("wire edges %d and %d are not connected", i-1, i)
		}
	}
	return Shape{t: &TShape{kind: KindWire, children: append([]Shape(nil), edges...)}}, nil
}

// IsClosedWire reports whether the wire ends where it starts.
func IsClosedWire(w Shape) bool {
	es := WireEdges(w)
	if len(es) == 0 {
		return false
	}
	first, _ := EdgeVertices(es[0])
	_, last := EdgeVertices(es[len(es)-1])
	return first.IsSame(last)
}

// MakeFace returns a face on s bounded by wires, the outer loop first.
func MakeFace(s geom.Surface, wires ...Shape) (Shape, error) {
	if len(wires) == 0 {
		return Shape{}, constructionError("face needs an outer wire")
	}
	for i, w := range wires {
		if w.Kind() != KindWire {
			return Shape{}, constructionError("face boundary %d is a %s", i, w.Kind())
		}
		if !IsClosedWire(w) {
			return Shape{}, constructionError("face boundary %d is not closed", i)
		}
	}
	t := &TShape{kind: KindFace, surface: s, tol: geom.Confusion}
	for _, w := range wires {
		t.children = append(t.children, w.Oriented(Forward))
	}
	return Shape{t: t}, nil
}

// MakeShell returns a shell of oriented faces.
func MakeShell(faces ...Shape) Shape {
	return Shape{t: &TShape{kind: KindShell, children: append([]Shape(nil), faces...)}}
}

// MakeSolid returns a solid bounded by shells, the outer shell first.
func MakeSolid(shells ...Shape) Shape {
	return Shape{t: &TShape{kind: KindSolid, children: append([]Shape(nil), shells...)}}
}

// MakeCompound groups arbitrary shapes.
func MakeCompound(shapes ...Shape) Shape {
	return Shape{t: &TShape{kind: KindCompound, children: append([]Shape(nil), shapes...)}}
}

// NewellNormal returns the unnormalized normal of a closed polygon; its
// length is twice the enclosed area.
func NewellNormal(pts []geom.Point) geom.Vec {
	var n geom.Vec
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// MakePolygonFace returns a planar face bounded by the closed polygon pts,
// whose normal follows the polygon winding.
func MakePolygonFace(pts ...geom.Point) (Shape, error) {
	if len(pts) < 3 {
		return Shape{}, constructionError("polygon needs at least 3 points")
	}
	vs := make([]Shape, len(pts))
	for i, p := range pts {
		vs[i] = MakeVertex(p, geom.Confusion)
	}
	return polygonFace(pts, vs, nil)
}

type edgeKey struct{ a, b int }

// polygonFace builds a face over shared vertices. Edges already present in
// cache are reused in the orientation the loop needs.
func polygonFace(pts []geom.Point, vs []Shape, cache map[edgeKey]Shape) (Shape, error) {
	n := NewellNormal(pts)
	if n.Length() <= geom.Confusion {
		return Shape{}, constructionError("polygon has no area")
	}
	edges := make([]Shape, len(vs))
	for i := range vs {
		j := (i + 1) % len(vs)
		e, err := sharedEdge(vs, i, j, cache)
		if err != nil {
			return Shape{}, err
		}
		edges[i] = e
	}
	w, err := MakeWire(edges...)
	if err != nil {
		return Shape{}, err
	}
	return MakeFace(geom.NewPlane(pts[0], n), w)
}

func sharedEdge(vs []Shape, i, j int, cache map[edgeKey]Shape) (Shape, error) {
	if cache != nil {
		if e, ok := cache[edgeKey{i, j}]; ok {
			return e, nil
		}
		if e, ok := cache[edgeKey{j, i}]; ok {
			return e.Reversed(), nil
		}
	}
	e, err := MakeSegment(vs[i], vs[j])
	if err != nil {
		return Shape{}, err
	}
	if cache != nil {
		cache[edgeKey{i, j}] = e
	}
	return e, nil
}

// MakePolyhedron returns a solid from a vertex table and faces given as
// index loops, each running counter-clockwise around the outward normal.
// Edges between the same two vertices are shared.
func MakePolyhedron(points []geom.Point, faces [][]int) (Shape, error) {
	vs := make([]Shape, len(points))
	for i, p := range points {
		vs[i] = MakeVertex(p, geom.Confusion)
	}
	cache := make(map[edgeKey]Shape)
	var fs []Shape
	for fi, loop := range faces {
		if len(loop) < 3 {
			return Shape{}, constructionError("face %d has %d corners", fi, len(loop))
		}
		pts := make([]geom.Point, len(loop))
		edges := make([]Shape, len(loop))
		for k, idx := range loop {
			if idx < 0 || idx >= len(points) {
				return Shape{}, constructionError("face %d references vertex %d", fi, idx)
			}
			pts[k] = points[idx]
		}
		for k := range loop {
			e, err := sharedEdge(vs, loop[k], loop[(k+1)%len(loop)], cache)
			if err != nil {
				return Shape{}, fmt.Errorf("face %d: %w", fi, err)
			}
			edges[k] = e
		}
		n := NewellNormal(pts)
		if n.Length() <= geom.Confusion {
			return Shape{}, constructionError("face %d has no area", fi)
		}
		w, err := MakeWire(edges...)
		if err != nil {
			return Shape{}, fmt.Errorf("face %d: %w", fi, err)
		}
		f, err := MakeFace(geom.NewPlane(pts[0], n), w)
		if err != nil {
			return Shape{}, err
		}
		fs = append(fs, f)
	}
	return MakeSolid(MakeShell(fs...)), nil
}

// MakeBox returns the axis-aligned box with its minimum corner at origin.
func MakeBox(origin geom.Point, dx, dy, dz float64) (Shape, error) {
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return Shape{}, constructionError("box dimensions must be positive")
	}
	pts := make([]geom.Point, 8)
	for i := range pts {
		p := origin
		if i&1 != 0 {
			p.X += dx
		}
		if i&2 != 0 {
			p.Y += dy
		}
		if i&4 != 0 {
			p.Z += dz
		}
		pts[i] = p
	}
	return MakePolyhedron(pts, [][]int{
		{0, 2, 3, 1}, // z min
		{4, 5, 7, 6}, // z max
		{0, 1, 5, 4}, // y min
		{2, 6, 7, 3}, // y max
		{0, 4, 6, 2}, // x min
		{1, 3, 7, 5}, // x max
	})
}

// MakePrism extrudes the closed polygon profile along dir.
func MakePrism(profile []geom.Point, dir geom.Vec) (Shape, error) {
	n := len(profile)
	if n < 3 {
		return Shape{}, constructionError("prism profile needs at least 3 points")
	}
	nn := NewellNormal(profile)
	if math.Abs(nn.Dot(dir)) <= geom.Confusion {
		return Shape{}, constructionError("extrusion direction lies in the profile plane")
	}
	base := append([]geom.Point(nil), profile...)
	if nn.Dot(dir) < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			base[i], base[j] = base[j], base[i]
		}
	}
	pts := make([]geom.Point, 0, 2*n)
	pts = append(pts, base...)
	for _, p := range base {
		pts = append(pts, p.Add(dir))
	}
	faces := make([][]int, 0, n+2)
	bottom := make([]int, n)
	top := make([]int, n)
	for i := 0; i < n; i++ {
		bottom[i] = n - 1 - i
		top[i] = n + i
	}
	faces = append(faces, bottom, top)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		faces = append(faces, []int{i, j, n + j, n + i})
	}
	return MakePolyhedron(pts, faces)
}
