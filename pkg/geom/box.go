package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
)

// Box is an axis-aligned bounding box.
type Box = sdf.Box3

// EmptyBox returns a box that contains nothing; adding a point to it yields
// the degenerate box at that point.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: Vec{X: inf, Y: inf, Z: inf},
		Max: Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmptyBox reports whether b contains no point.
func IsEmptyBox(b Box) bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func minVec(a, b Vec) Vec {
	return Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxVec(a, b Vec) Vec {
	return Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// BoxAdd returns b grown to contain p.
func BoxAdd(b Box, p Point) Box {
	return Box{Min: minVec(b.Min, p), Max: maxVec(b.Max, p)}
}

// BoxOf returns the smallest box containing all points.
func BoxOf(pts ...Point) Box {
	b := EmptyBox()
	for _, p := range pts {
		b = BoxAdd(b, p)
	}
	return b
}

// BoxUnion returns the smallest box containing a and b.
func BoxUnion(a, b Box) Box {
	if IsEmptyBox(a) {
		return b
	}
	if IsEmptyBox(b) {
		return a
	}
	return Box{Min: minVec(a.Min, b.Min), Max: maxVec(a.Max, b.Max)}
}

// BoxEnlarge grows b by gap in every direction.
func BoxEnlarge(b Box, gap float64) Box {
	if IsEmptyBox(b) {
		return b
	}
	g := Vec{X: gap, Y: gap, Z: gap}
	return Box{Min: b.Min.Sub(g), Max: b.Max.Add(g)}
}

// BoxOverlap reports whether a and b share at least one point. Touching
// boxes overlap.
func BoxOverlap(a, b Box) bool {
	if IsEmptyBox(a) || IsEmptyBox(b) {
		return false
	}
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

// BoxDiagonal returns the length of the box diagonal, or 0 for an empty box.
func BoxDiagonal(b Box) float64 {
	if IsEmptyBox(b) {
		return 0
	}
	return b.Max.Sub(b.Min).Length()
}
