package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
)

// Transform is a rigid 4x4 transformation matrix.
type Transform = sdf.M44

// Identity returns the identity transformation.
func Identity() Transform {
	return sdf.Identity3d()
}

// Translation returns a transformation moving points by v.
func Translation(v Vec) Transform {
	return sdf.Translate3d(v)
}

// RotationXYZ returns the rotation by the given angles in degrees, applied
// about X, then Y, then Z.
func RotationXYZ(x, y, z float64) Transform {
	m := sdf.RotateX(x * math.Pi / 180)
	m = sdf.RotateY(y * math.Pi / 180).Mul(m)
	return sdf.RotateZ(z * math.Pi / 180).Mul(m)
}

// Apply maps a position through m.
func Apply(m Transform, p Point) Point {
	return m.MulPosition(p)
}

// ApplyDir maps a direction through m, ignoring translation.
func ApplyDir(m Transform, d Vec) Vec {
	return m.MulPosition(d).Sub(m.MulPosition(Vec{}))
}
