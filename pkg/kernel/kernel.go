// Package kernel defines the abstract solid-modeling kernel interface.
// Implementations provide primitives, Boolean operations and placement
// behind this interface, so that callers can swap backends without
// changing the rest of the system.
package kernel

import "errors"

// ErrNotSolid is returned by Boolean operations whose outcome is not a
// closed solid, including an empty outcome such as the intersection of
// disjoint solids.
var ErrNotSolid = errors.New("kernel: result is not a closed solid")

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Volume returns the enclosed volume.
	Volume() float64
}

// Kernel is the abstract solid-modeling kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Prism(profile [][2]float64, height float64) (Solid, error)

	// Boolean operations. A result holding no solid, as the Intersection
	// of disjoint solids or the Difference of a solid and a solid covering
	// it, is an error wrapping ErrNotSolid.
	Union(a, b Solid) (Solid, error)
	Difference(a, b Solid) (Solid, error)
	Intersection(a, b Solid) (Solid, error)

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
}
