// Package geom provides the geometric services consumed by the topology and
// Boolean packages: vectors and boxes (backed by sdfx), a closed family of
// curves and surfaces, and analytic intersection and projection queries.
package geom

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("brep.geom")
}

// Vec is a 3D direction or displacement.
type Vec = v3.Vec

// Point is a 3D position.
type Point = v3.Vec

// Confusion is the default positional tolerance of a shape.
const Confusion = 1e-7

// Angular is the sine below which two unit directions count as parallel.
var Angular = 1e-10

// ErrNoConvergence is returned when a geometric query cannot produce an
// answer, either because the configuration is numerically degenerate or
// because the geometry combination is not supported.
var ErrNoConvergence = errors.New("geom: no convergence")

// ErrUnsupported wraps ErrNoConvergence for curve/surface combinations the
// analytic solvers do not handle.
var ErrUnsupported = fmt.Errorf("%w: unsupported geometry", ErrNoConvergence)

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return a.Sub(b).Length()
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return a.Add(b).MulScalar(0.5)
}

// Parallel reports whether the unit directions a and b are parallel or
// anti-parallel.
func Parallel(a, b Vec) bool {
	return a.Cross(b).Length() <= Angular
}

// Perpendicular returns a unit vector orthogonal to the unit vector n.
func Perpendicular(n Vec) Vec {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	var e Vec
	switch {
	case ax <= ay && ax <= az:
		e = Vec{X: 1}
	case ay <= az:
		e = Vec{Y: 1}
	default:
		e = Vec{Z: 1}
	}
	return n.Cross(e).Normalize()
}

// Range is a closed parameter interval on a curve.
type Range struct {
	First, Last float64
}

// Length returns the extent of the interval.
func (r Range) Length() float64 { return r.Last - r.First }

// Mid returns the parameter in the middle of the interval.
func (r Range) Mid() float64 { return 0.5 * (r.First + r.Last) }

// Contains reports whether t lies in the interval extended by eps.
func (r Range) Contains(t, eps float64) bool {
	return t >= r.First-eps && t <= r.Last+eps
}

// Clamp returns t restricted to the interval.
func (r Range) Clamp(t float64) float64 {
	return math.Max(r.First, math.Min(r.Last, t))
}

// Intersect returns the common part of two intervals and whether it is
// non-empty.
func (r Range) Intersect(o Range) (Range, bool) {
	c := Range{First: math.Max(r.First, o.First), Last: math.Min(r.Last, o.Last)}
	return c, c.First <= c.Last
}

func (r Range) String() string {
	return fmt.Sprintf("[%g,%g]", r.First, r.Last)
}
