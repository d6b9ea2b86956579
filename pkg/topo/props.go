package topo

import "github.com/chazu/brep/pkg/geom"

// Volume returns the enclosed volume of the solids and closed shells in s,
// computed with the divergence theorem over the oriented faces.
func Volume(s Shape) float64 {
	var v float64
	for _, f := range Explore(s, KindFace) {
		sign := f.Orientation().Sign()
		for _, loop := range FacePolygons(f) {
			p0 := loop[0]
			for i := 1; i+1 < len(loop); i++ {
				v += sign * p0.Dot(loop[i].Cross(loop[i+1]))
			}
		}
	}
	return v / 6
}

// Area returns the total area of the faces of s.
func Area(s Shape) float64 {
	var a float64
	for _, f := range Explore(s, KindFace) {
		pl, ok := f.Plane()
		if !ok {
			continue
		}
		for _, loop := range FacePolygons(f) {
			a += NewellNormal(loop).Dot(pl.Normal) / 2
		}
	}
	return a
}

// Length returns the total length of the edges of s.
func Length(s Shape) float64 {
	var l float64
	for _, e := range Explore(s, KindEdge) {
		if e.Degenerate() {
			continue
		}
		l += e.Range().Length() * geom.Speed(e.Curve())
	}
	return l
}
