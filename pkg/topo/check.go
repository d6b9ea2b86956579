package topo

import (
	"fmt"
	"math"

	"github.com/chazu/brep/pkg/geom"
)

// Severity indicates whether a finding makes a shape unusable as a Boolean
// operand or is merely informational.
type Severity int

const (
	SeverityError   Severity = iota // rejects the shape
	SeverityWarning                 // recoverable
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Problem describes a single validity finding.
type Problem struct {
	Shape    Shape    // offending sub-shape
	Code     string   // stable machine-readable tag
	Message  string   // human-readable description
	Severity Severity // error or warning
}

func (p Problem) Error() string {
	if p.Shape.IsNull() {
		return fmt.Sprintf("[%s] %s: %s", p.Severity, p.Code, p.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", p.Severity, p.Code, p.Shape.Kind(), p.Message)
}

// Problem codes.
const (
	CodeNullShape          = "NULL_SHAPE"
	CodeShortEdge          = "SHORT_EDGE"
	CodeVertexTolerance    = "VERTEX_TOLERANCE"
	CodeOpenWire           = "OPEN_WIRE"
	CodeOffSurface         = "VERTEX_OFF_SURFACE"
	CodeZeroArea           = "ZERO_AREA"
	CodeSelfIntersection   = "FACE_SELF_INTERSECTION"
	CodeOpenShell          = "OPEN_SHELL"
	CodeUnsupportedSurface = "UNSUPPORTED_SURFACE"
)

// HasErrors reports whether any problem has error severity.
func HasErrors(ps []Problem) bool {
	for _, p := range ps {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Check runs the validity checks a shape must pass before it can take part
// in a Boolean operation. An empty result means the shape is valid. Check is
// read-only.
func Check(s Shape) []Problem {
	if s.IsNull() {
		return []Problem{{Code: CodeNullShape, Message: "shape is null", Severity: SeverityError}}
	}
	var ps []Problem
	ps = append(ps, checkEdges(s)...)
	ps = append(ps, checkFaces(s)...)
	ps = append(ps, checkSolids(s)...)
	return ps
}

// checkEdges flags zero-length edges and vertices whose tolerance does not
// cover the end of the curve they bound.
func checkEdges(s Shape) []Problem {
	var ps []Problem
	for _, e := range Explore(s, KindEdge) {
		if e.Degenerate() {
			continue
		}
		tol := e.Tolerance()
		if e.Range().Length()*geom.Speed(e.Curve()) <= tol {
			ps = append(ps, Problem{
				Shape:    e,
				Code:     CodeShortEdge,
				Message:  fmt.Sprintf("edge length %g is below its tolerance %g", e.Range().Length(), tol),
				Severity: SeverityError,
			})
			continue
		}
		ends := [2]float64{e.Range().First, e.Range().Last}
		for i, v := range e.t.children {
			d := geom.Distance(v.Point(), e.Curve().Value(ends[i]))
			if d > v.Tolerance() {
				ps = append(ps, Problem{
					Shape:    v,
					Code:     CodeVertexTolerance,
					Message:  fmt.Sprintf("vertex is %g from the edge end, tolerance %g", d, v.Tolerance()),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return ps
}

// checkFaces verifies that every loop is closed, lies on the face surface
// and that straight boundary edges of a face do not cross each other.
func checkFaces(s Shape) []Problem {
	var ps []Problem
	for _, f := range Explore(s, KindFace) {
		pl, ok := f.Plane()
		if !ok {
			ps = append(ps, Problem{Shape: f, Code: CodeUnsupportedSurface, Message: "face surface is not a plane", Severity: SeverityError})
			continue
		}
		for _, w := range Wires(f) {
			if !IsClosedWire(w) {
				ps = append(ps, Problem{Shape: w, Code: CodeOpenWire, Message: "face loop is not closed", Severity: SeverityError})
			}
			for _, e := range WireEdges(w) {
				for _, v := range e.t.children {
					if d := math.Abs(pl.SignedDistance(v.Point())); d > v.Tolerance()+f.Tolerance() {
						ps = append(ps, Problem{
							Shape:    v,
							Code:     CodeOffSurface,
							Message:  fmt.Sprintf("vertex is %g off the face plane", d),
							Severity: SeverityError,
						})
					}
				}
			}
		}
		if math.Abs(Area(f)) <= f.Tolerance()*f.Tolerance() {
			ps = append(ps, Problem{Shape: f, Code: CodeZeroArea, Message: "face has no area", Severity: SeverityError})
		}
		ps = append(ps, checkSelfIntersection(f)...)
	}
	return ps
}

// checkSelfIntersection reports pairs of boundary edges of one face that meet
// anywhere other than at a shared vertex.
func checkSelfIntersection(f Shape) []Problem {
	var edges []Shape
	for _, w := range Wires(f) {
		edges = append(edges, WireEdges(w)...)
	}
	var ps []Problem
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			a, b := edges[i], edges[j]
			if a.Degenerate() || b.Degenerate() || a.IsSame(b) {
				continue
			}
			tol := math.Max(a.Tolerance(), b.Tolerance())
			hits, err := geom.IntersectCurveCurve(a.Curve(), a.Range(), b.Curve(), b.Range(), tol)
			if err != nil {
				continue
			}
			for _, h := range hits {
				if h.Kind == geom.HitPoint && atSharedVertex(a, b, h.Point) {
					continue
				}
				ps = append(ps, Problem{
					Shape:    f,
					Code:     CodeSelfIntersection,
					Message:  fmt.Sprintf("boundary edges %d and %d intersect", i, j),
					Severity: SeverityError,
				})
				break
			}
		}
	}
	return ps
}

func atSharedVertex(a, b Shape, p geom.Point) bool {
	for _, va := range a.t.children {
		for _, vb := range b.t.children {
			if va.IsSame(vb) && geom.Distance(va.Point(), p) <= va.Tolerance()+a.Tolerance()+b.Tolerance() {
				return true
			}
		}
	}
	return false
}

// checkSolids verifies that every shell of a solid is closed: each edge is
// bounded by exactly two face uses.
func checkSolids(s Shape) []Problem {
	var ps []Problem
	for _, so := range Explore(s, KindSolid) {
		for _, sh := range so.Children() {
			if !IsClosedShell(sh) {
				ps = append(ps, Problem{Shape: sh, Code: CodeOpenShell, Message: "solid shell is not closed", Severity: SeverityError})
			}
		}
	}
	return ps
}

// IsClosedShell reports whether every edge of the shell is used by exactly
// two of its faces.
func IsClosedShell(sh Shape) bool {
	uses := make(map[*TShape]int)
	for _, f := range sh.Children() {
		for _, w := range Wires(f) {
			for _, e := range WireEdges(w) {
				if !e.Degenerate() {
					uses[e.t]++
				}
			}
		}
	}
	if len(uses) == 0 {
		return false
	}
	for _, n := range uses {
		if n != 2 {
			return false
		}
	}
	return true
}
