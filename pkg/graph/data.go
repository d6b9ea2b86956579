package graph

import "fmt"

// Vec3 is a vector in model units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) IsZero() bool { return v == Vec3{} }

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// BoxData is an axis-aligned box with its minimum corner at the origin.
type BoxData struct {
	Dimensions Vec3 `json:"dimensions"`
}

func (BoxData) nodeData() {}

// CylinderData is a polygonal cylinder standing on the XY plane.
type CylinderData struct {
	Radius   float64 `json:"radius"`
	Height   float64 `json:"height"`
	Segments int     `json:"segments,omitempty"` // DefaultSegments when zero
}

func (CylinderData) nodeData() {}

// DefaultSegments is the polygon resolution of cylinders without one.
const DefaultSegments = 32

// PrismData extrudes a counter-clockwise XY polygon along +Z.
type PrismData struct {
	Profile [][2]float64 `json:"profile"`
	Height  float64      `json:"height"`
}

func (PrismData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData places its children: rotation first, then translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanOp enumerates the Boolean operations of a NodeBoolean.
type BooleanOp int

const (
	OpUnion        BooleanOp = iota // all children fused
	OpDifference                    // first child minus the others
	OpIntersection                  // common part of all children
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return fmt.Sprintf("BooleanOp(%d)", int(op))
	}
}

// BooleanData folds the children of a node with Op from left to right.
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping (assembly, subassembly).
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
