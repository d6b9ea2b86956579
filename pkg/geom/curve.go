package geom

import (
	"math"
)

// CurveKind tags the members of the closed curve family.
type CurveKind int

const (
	KindLine CurveKind = iota
	KindCircle
)

func (k CurveKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// Curve is a parametric 3D curve. The family is closed: Line and Circle are
// the only implementations.
type Curve interface {
	Kind() CurveKind
	// Value returns the point at parameter t.
	Value(t float64) Point
	// Derivative returns the first derivative at t.
	Derivative(t float64) Vec
	// Project returns the parameter of the foot of p on the unbounded curve.
	Project(p Point) float64
	// Transformed returns the curve mapped through m.
	Transformed(m Transform) Curve

	isCurve()
}

// Line is an infinite straight line parameterized by arc length from Origin.
type Line struct {
	Origin Point
	Dir    Vec // unit length
}

// NewLine returns the line through p in direction d.
func NewLine(p Point, d Vec) Line {
	return Line{Origin: p, Dir: d.Normalize()}
}

// LineThrough returns the line from p to q with p at parameter 0 and q at
// parameter |q-p|.
func LineThrough(p, q Point) (Line, Range) {
	d := q.Sub(p)
	return Line{Origin: p, Dir: d.Normalize()}, Range{First: 0, Last: d.Length()}
}

func (Line) Kind() CurveKind { return KindLine }
func (Line) isCurve() {}

func (l Line) Value(t float64) Point { return l.Origin.Add(l.Dir.MulScalar(t)) }
func (l Line) Derivative(float64) Vec { return l.Dir }
func (l Line) Project(p Point) float64 { return p.Sub(l.Origin).Dot(l.Dir) }
func (l Line) Distance(p Point) float64 { return Distance(p, l.Value(l.Project(p))) }
func (l Line) Transformed(m Transform) Curve {
	return Line{Origin: Apply(m, l.Origin), Dir: ApplyDir(m, l.Dir).Normalize()}
}

// Circle is parameterized by angle in radians, counter-clockwise around
// Normal starting at XAxis.
type Circle struct {
	Center Point
	Normal Vec // unit length
	XAxis  Vec // unit length, orthogonal to Normal
	Radius float64
}

// NewCircle returns the circle with the given center, axis and radius; the
// reference direction is chosen arbitrarily.
func NewCircle(center Point, normal Vec, radius float64) Circle {
	n := normal.Normalize()
	return Circle{Center: center, Normal: n, XAxis: Perpendicular(n), Radius: radius}
}

func (Circle) Kind() CurveKind { return KindCircle }
func (Circle) isCurve() {}

// YAxis completes the right-handed frame of the circle.
func (c Circle) YAxis() Vec { return c.Normal.Cross(c.XAxis) }

func (c Circle) Value(t float64) Point {
	x := c.XAxis.MulScalar(c.Radius * math.Cos(t))
	y := c.YAxis().MulScalar(c.Radius * math.Sin(t))
	return c.Center.Add(x).Add(y)
}

func (c Circle) Derivative(t float64) Vec {
	x := c.XAxis.MulScalar(-c.Radius * math.Sin(t))
	y := c.YAxis().MulScalar(c.Radius * math.Cos(t))
	return x.Add(y)
}

// Project returns an angle in [0, 2π). The center projects to 0.
func (c Circle) Project(p Point) float64 {
	d := p.Sub(c.Center)
	x, y := d.Dot(c.XAxis), d.Dot(c.YAxis())
	if math.Abs(x) < 1e-300 && math.Abs(y) < 1e-300 {
		return 0
	}
	t := math.Atan2(y, x)
	if t < 0 {
		t += 2 * math.Pi
	}
	return t
}

func (c Circle) Transformed(m Transform) Curve {
	return Circle{
		Center: Apply(m, c.Center),
		Normal: ApplyDir(m, c.Normal).Normalize(),
		XAxis:  ApplyDir(m, c.XAxis).Normalize(),
		Radius: c.Radius,
	}
}

// Period returns the parametric period of c, or 0 for open curves.
func Period(c Curve) float64 {
	if c.Kind() == KindCircle {
		return 2 * math.Pi
	}
	return 0
}

// Speed returns the ratio between arc length and parameter length, which is
// constant for every member of the family.
func Speed(c Curve) float64 {
	if ci, ok := c.(Circle); ok {
		return ci.Radius
	}
	return 1
}

// ParamTolerance converts a distance tolerance to a parameter tolerance on c.
func ParamTolerance(c Curve, tol float64) float64 {
	s := Speed(c)
	if s <= 0 {
		return tol
	}
	return tol / s
}

// ParameterIn returns the parameter of p on c, shifted by whole periods so
// that it falls into r or as close to r as possible.
func ParameterIn(c Curve, p Point, r Range) float64 {
	t := c.Project(p)
	per := Period(c)
	if per == 0 {
		return t
	}
	for t < r.First {
		t += per
	}
	for t-per >= r.First {
		t -= per
	}
	if t > r.Last && (t-r.Last) > (r.First-(t-per)) {
		t -= per
	}
	return t
}

// ProjectPoint returns the parameter of the point of the bounded curve (c, r)
// closest to p, and the distance between them.
func ProjectPoint(c Curve, r Range, p Point) (float64, float64) {
	t := r.Clamp(ParameterIn(c, p, r))
	d := Distance(p, c.Value(t))
	for _, e := range [2]float64{r.First, r.Last} {
		if de := Distance(p, c.Value(e)); de < d {
			t, d = e, de
		}
	}
	return t, d
}

// Tangent returns the unit tangent of c at t.
func Tangent(c Curve, t float64) Vec {
	return c.Derivative(t).Normalize()
}

// CurveBox returns a box containing the bounded curve. Arcs are bounded by
// the box of their full circle.
func CurveBox(c Curve, r Range) Box {
	switch cv := c.(type) {
	case Line:
		return BoxOf(cv.Value(r.First), cv.Value(r.Last))
	case Circle:
		ext := func(n float64) float64 {
			return cv.Radius * math.Sqrt(math.Max(0, 1-n*n))
		}
		e := Vec{X: ext(cv.Normal.X), Y: ext(cv.Normal.Y), Z: ext(cv.Normal.Z)}
		return Box{Min: cv.Center.Sub(e), Max: cv.Center.Add(e)}
	}
	return EmptyBox()
}

// Sample returns n+1 points evenly spread in parameter over the bounded
// curve, both ends included.
func Sample(c Curve, r Range, n int) []Point {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, c.Value(r.First+r.Length()*float64(i)/float64(n)))
	}
	return pts
}

// Segments returns a reasonable number of chords to approximate c over r.
func Segments(c Curve, r Range) int {
	if c.Kind() == KindLine {
		return 1
	}
	n := int(math.Ceil(math.Abs(r.Length()) / (math.Pi / 32)))
	if n < 4 {
		n = 4
	}
	return n
}
