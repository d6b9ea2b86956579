package bop

import (
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
)

// Geometry is the collaborator answering the exact geometric questions of
// the algorithm. Implementations must be safe for concurrent use.
type Geometry interface {
	IntersectCurveCurve(c1 geom.Curve, r1 geom.Range, c2 geom.Curve, r2 geom.Range, tol float64) ([]geom.CurveHit, error)
	IntersectCurveSurface(c geom.Curve, r geom.Range, s geom.Surface, tol float64) ([]geom.SurfaceHit, error)
	IntersectSurfaceSurface(s1, s2 geom.Surface, tol float64) (geom.SurfaceIntersection, error)
	ClassifyPointInFace(f topo.Shape, p geom.Point, tol float64) topo.State
	ClassifyPointInSolid(s topo.Shape, p geom.Point, tol float64) (topo.State, error)
	BoundingBox(s topo.Shape) geom.Box
}

// Analytic answers geometric queries with the closed-form solvers of
// packages geom and topo.
type Analytic struct{}

var _ Geometry = Analytic{}

func (Analytic) IntersectCurveCurve(c1 geom.Curve, r1 geom.Range, c2 geom.Curve, r2 geom.Range, tol float64) ([]geom.CurveHit, error) {
	return geom.IntersectCurveCurve(c1, r1, c2, r2, tol)
}

func (Analytic) IntersectCurveSurface(c geom.Curve, r geom.Range, s geom.Surface, tol float64) ([]geom.SurfaceHit, error) {
	return geom.IntersectCurveSurface(c, r, s, tol)
}

func (Analytic) IntersectSurfaceSurface(s1, s2 geom.Surface, tol float64) (geom.SurfaceIntersection, error) {
	return geom.IntersectSurfaceSurface(s1, s2, tol)
}

func (Analytic) ClassifyPointInFace(f topo.Shape, p geom.Point, tol float64) topo.State {
	return topo.ClassifyPointInFace(f, p, tol)
}

func (Analytic) ClassifyPointInSolid(s topo.Shape, p geom.Point, tol float64) (topo.State, error) {
	return topo.ClassifyPointInSolid(s, p, tol)
}

func (Analytic) BoundingBox(s topo.Shape) geom.Box {
	return topo.BoundingBox(s)
}
