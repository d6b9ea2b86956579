package geom

// SurfaceKind tags the members of the closed surface family.
type SurfaceKind int

const (
	KindPlane SurfaceKind = iota
)

func (k SurfaceKind) String() string {
	if k == KindPlane {
		return "plane"
	}
	return "unknown"
}

// Surface is a parametric surface. Plane is the only implementation.
type Surface interface {
	Kind() SurfaceKind
	Value(u, v float64) Point
	// NormalAt returns the unit normal at p.
	NormalAt(p Point) Vec
	// Project returns the parameters of the foot of p on the surface.
	Project(p Point) (u, v float64)
	Transformed(m Transform) Surface

	isSurface()
}

// Plane is parameterized over its right-handed frame (XAxis, YAxis, Normal).
type Plane struct {
	Origin Point
	Normal Vec // unit length
	XAxis  Vec // unit length, orthogonal to Normal
}

// NewPlane returns the plane through origin with the given normal.
func NewPlane(origin Point, normal Vec) Plane {
	n := normal.Normalize()
	return Plane{Origin: origin, Normal: n, XAxis: Perpendicular(n)}
}

func (Plane) Kind() SurfaceKind { return KindPlane }
func (Plane) isSurface() {}

// YAxis completes the right-handed frame.
func (pl Plane) YAxis() Vec { return pl.Normal.Cross(pl.XAxis) }

func (pl Plane) Value(u, v float64) Point {
	return pl.Origin.Add(pl.XAxis.MulScalar(u)).Add(pl.YAxis().MulScalar(v))
}

func (pl Plane) NormalAt(Point) Vec { return pl.Normal }

func (pl Plane) Project(p Point) (float64, float64) {
	d := p.Sub(pl.Origin)
	return d.Dot(pl.XAxis), d.Dot(pl.YAxis())
}

// SignedDistance is positive on the side the normal points to.
func (pl Plane) SignedDistance(p Point) float64 {
	return p.Sub(pl.Origin).Dot(pl.Normal)
}

// Reversed returns the same plane with the opposite normal. The frame stays
// right-handed.
func (pl Plane) Reversed() Plane {
	return Plane{Origin: pl.Origin, Normal: pl.Normal.Neg(), XAxis: pl.XAxis}
}

// Coincident reports whether pl and o describe the same point set within tol,
// regardless of normal direction.
func (pl Plane) Coincident(o Plane, tol float64) bool {
	return Parallel(pl.Normal, o.Normal) && abs(pl.SignedDistance(o.Origin)) <= tol
}

func (pl Plane) Transformed(m Transform) Surface {
	return Plane{
		Origin: Apply(m, pl.Origin),
		Normal: ApplyDir(m, pl.Normal).Normalize(),
		XAxis:  ApplyDir(m, pl.XAxis).Normalize(),
	}
}

// To2D returns the coordinates of p in the plane frame.
func (pl Plane) To2D(p Point) [2]float64 {
	u, v := pl.Project(p)
	return [2]float64{u, v}
}

// DirTo2D returns the in-plane components of direction d.
func (pl Plane) DirTo2D(d Vec) [2]float64 {
	return [2]float64{d.Dot(pl.XAxis), d.Dot(pl.YAxis())}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
