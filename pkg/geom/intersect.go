package geom

import (
	"fmt"
	"math"
)

// HitKind distinguishes isolated intersection points from coincident
// stretches.
type HitKind int

const (
	HitPoint HitKind = iota
	HitRange
)

func (k HitKind) String() string {
	if k == HitRange {
		return "range"
	}
	return "point"
}

// CurveHit is one common part of two bounded curves.
type CurveHit struct {
	Kind HitKind
	// Point hits.
	T1, T2 float64
	Point  Point
	// Gap is the distance between the curves at the hit.
	Gap float64
	// Range hits.
	R1, R2   Range
	Opposite bool // the curves run in opposite directions over the overlap
}

// SurfaceHit is one common part of a bounded curve and a surface.
type SurfaceHit struct {
	Kind  HitKind
	T     float64
	Point Point
	Gap   float64
	R     Range
}

// SurfaceIntersection is the result of intersecting two surfaces. Coincident
// surfaces produce no curves.
type SurfaceIntersection struct {
	Coincident bool
	Curves     []Curve
}

// IntersectCurveCurve returns the common parts of the bounded curves (c1, r1)
// and (c2, r2). Points closer than tol are considered common.
func IntersectCurveCurve(c1 Curve, r1 Range, c2 Curve, r2 Range, tol float64) ([]CurveHit, error) {
	switch a := c1.(type) {
	case Line:
		switch b := c2.(type) {
		case Line:
			return lineLine(a, r1, b, r2, tol), nil
		case Circle:
			return lineCircle(a, r1, b, r2, tol), nil
		}
	case Circle:
		switch b := c2.(type) {
		case Line:
			return swapHits(lineCircle(b, r2, a, r1, tol)), nil
		case Circle:
			return circleCircle(a, r1, b, r2, tol), nil
		}
	}
	return nil, fmt.Errorf("%w: %T/%T", ErrUnsupported, c1, c2)
}

// IntersectCurveSurface returns the common parts of the bounded curve (c, r)
// and the surface s. A curve lying in the surface yields a single range hit
// covering r.
func IntersectCurveSurface(c Curve, r Range, s Surface, tol float64) ([]SurfaceHit, error) {
	pl, ok := s.(Plane)
	if !ok {
		return nil, fmt.Errorf("%w: surface %T", ErrUnsupported, s)
	}
	switch cv := c.(type) {
	case Line:
		dn := cv.Dir.Dot(pl.Normal)
		h := pl.SignedDistance(cv.Origin)
		if math.Abs(dn) <= Angular {
			if math.Abs(h) <= tol {
				return []SurfaceHit{{Kind: HitRange, R: r, Gap: math.Abs(h)}}, nil
			}
			return nil, nil
		}
		t := -h / dn
		if !r.Contains(t, tol) {
			return nil, nil
		}
		t = r.Clamp(t)
		p := cv.Value(t)
		gap := math.Abs(pl.SignedDistance(p))
		if gap > tol {
			return nil, nil
		}
		return []SurfaceHit{{Kind: HitPoint, T: t, Point: p, Gap: gap}}, nil
	case Circle:
		if Parallel(cv.Normal, pl.Normal) {
			if h := math.Abs(pl.SignedDistance(cv.Center)); h <= tol {
				return []SurfaceHit{{Kind: HitRange, R: r, Gap: h}}, nil
			}
			return nil, nil
		}
		var hits []SurfaceHit
		for _, t := range circlePlaneParams(cv, pl, tol) {
			t = ParameterIn(cv, cv.Value(t), r)
			if !r.Contains(t, ParamTolerance(cv, tol)) {
				continue
			}
			t = r.Clamp(t)
			p := cv.Value(t)
			gap := math.Abs(pl.SignedDistance(p))
			if gap > tol {
				continue
			}
			hits = append(hits, SurfaceHit{Kind: HitPoint, T: t, Point: p, Gap: gap})
		}
		return hits, nil
	}
	return nil, fmt.Errorf("%w: curve %T", ErrUnsupported, c)
}

// IntersectSurfaceSurface intersects two unbounded surfaces.
func IntersectSurfaceSurface(s1, s2 Surface, tol float64) (SurfaceIntersection, error) {
	a, ok1 := s1.(Plane)
	b, ok2 := s2.(Plane)
	if !ok1 || !ok2 {
		return SurfaceIntersection{}, fmt.Errorf("%w: %T/%T", ErrUnsupported, s1, s2)
	}
	n := a.Normal.Cross(b.Normal)
	if n.Length() <= Angular {
		return SurfaceIntersection{Coincident: math.Abs(a.SignedDistance(b.Origin)) <= tol}, nil
	}
	p, err := planePlanePoint(a, b)
	if err != nil {
		return SurfaceIntersection{}, err
	}
	return SurfaceIntersection{Curves: []Curve{Line{Origin: p, Dir: n.Normalize()}}}, nil
}

// planePlanePoint returns the point of the intersection line of a and b that
// is closest to the world origin.
func planePlanePoint(a, b Plane) (Point, error) {
	h1, h2 := a.Normal.Dot(a.Origin), b.Normal.Dot(b.Origin)
	k := a.Normal.Dot(b.Normal)
	den := 1 - k*k
	if den <= Angular*Angular {
		return Point{}, ErrNoConvergence
	}
	c1 := (h1 - h2*k) / den
	c2 := (h2 - h1*k) / den
	return a.Normal.MulScalar(c1).Add(b.Normal.MulScalar(c2)), nil
}

func swapHits(hits []CurveHit) []CurveHit {
	for i := range hits {
		h := &hits[i]
		h.T1, h.T2 = h.T2, h.T1
		h.R1, h.R2 = h.R2, h.R1
	}
	return hits
}

func lineLine(a Line, ra Range, b Line, rb Range, tol float64) []CurveHit {
	w := a.Origin.Sub(b.Origin)
	k := a.Dir.Dot(b.Dir)
	if a.Dir.Cross(b.Dir).Length() <= Angular {
		off := w.Sub(b.Dir.MulScalar(w.Dot(b.Dir))).Length()
		if off > tol {
			return nil
		}
		s0, s1 := b.Project(a.Value(ra.First)), b.Project(a.Value(ra.Last))
		over, ok := Range{First: math.Min(s0, s1), Last: math.Max(s0, s1)}.Intersect(rb)
		if !ok && over.First-over.Last > tol {
			return nil
		}
		if over.Last-over.First <= tol {
			s := rb.Clamp(0.5 * (over.First + over.Last))
			q := b.Value(s)
			t := ra.Clamp(a.Project(q))
			p := a.Value(t)
			gap := Distance(p, q)
			if gap > tol {
				return nil
			}
			return []CurveHit{{Kind: HitPoint, T1: t, T2: s, Point: Midpoint(p, q), Gap: gap}}
		}
		t0, t1 := a.Project(b.Value(over.First)), a.Project(b.Value(over.Last))
		r1 := Range{First: ra.Clamp(math.Min(t0, t1)), Last: ra.Clamp(math.Max(t0, t1))}
		return []CurveHit{{Kind: HitRange, R1: r1, R2: over, Opposite: k < 0, Gap: off}}
	}
	d, e := a.Dir.Dot(w), b.Dir.Dot(w)
	den := 1 - k*k
	t := (k*e - d) / den
	s := (e - k*d) / den
	if !ra.Contains(t, tol) || !rb.Contains(s, tol) {
		return nil
	}
	t, s = ra.Clamp(t), rb.Clamp(s)
	p, q := a.Value(t), b.Value(s)
	gap := Distance(p, q)
	if gap > tol {
		return nil
	}
	return []CurveHit{{Kind: HitPoint, T1: t, T2: s, Point: Midpoint(p, q), Gap: gap}}
}

// lineInCircle returns the line parameters where l meets c, assuming l lies
// in the plane of c.
func lineInCircle(l Line, c Circle, tol float64) []float64 {
	t0 := c.Center.Sub(l.Origin).Dot(l.Dir)
	foot := l.Value(t0).Sub(c.Center)
	foot = foot.Sub(c.Normal.MulScalar(foot.Dot(c.Normal)))
	h := foot.Length()
	switch {
	case h > c.Radius+tol:
		return nil
	case h >= c.Radius-tol:
		return []float64{t0}
	}
	dt := math.Sqrt(c.Radius*c.Radius - h*h)
	return []float64{t0 - dt, t0 + dt}
}

func lineCircle(l Line, rl Range, c Circle, rc Range, tol float64) []CurveHit {
	dn := l.Dir.Dot(c.Normal)
	h0 := l.Origin.Sub(c.Center).Dot(c.Normal)
	var cands []float64
	if math.Abs(dn) <= Angular {
		if math.Abs(h0) > tol {
			return nil
		}
		cands = lineInCircle(l, c, tol)
	} else {
		cands = []float64{-h0 / dn}
	}
	ptol := ParamTolerance(c, tol)
	var hits []CurveHit
	for _, t := range cands {
		if !rl.Contains(t, tol) {
			continue
		}
		t = rl.Clamp(t)
		p := l.Value(t)
		s := ParameterIn(c, p, rc)
		if !rc.Contains(s, ptol) {
			continue
		}
		s = rc.Clamp(s)
		q := c.Value(s)
		gap := Distance(p, q)
		if gap > tol {
			continue
		}
		hits = append(hits, CurveHit{Kind: HitPoint, T1: t, T2: s, Point: Midpoint(p, q), Gap: gap})
	}
	return hits
}

// circlePlaneParams returns the parameters of c where it crosses pl. The
// planes of c and pl must not be parallel.
func circlePlaneParams(c Circle, pl Plane, tol float64) []float64 {
	own := Plane{Origin: c.Center, Normal: c.Normal, XAxis: c.XAxis}
	p, err := planePlanePoint(own, pl)
	if err != nil {
		return nil
	}
	l := Line{Origin: p, Dir: c.Normal.Cross(pl.Normal).Normalize()}
	var ts []float64
	for _, t := range lineInCircle(l, c, tol) {
		ts = append(ts, c.Project(l.Value(t)))
	}
	return ts
}

func circleCircle(a Circle, ra Range, b Circle, rb Range, tol float64) []CurveHit {
	if !Parallel(a.Normal, b.Normal) || math.Abs(b.Center.Sub(a.Center).Dot(a.Normal)) > tol {
		return circleAcross(a, ra, b, rb, tol)
	}
	dc := b.Center.Sub(a.Center)
	dc = dc.Sub(a.Normal.MulScalar(dc.Dot(a.Normal)))
	d := dc.Length()
	if d <= tol {
		if math.Abs(a.Radius-b.Radius) > tol {
			return nil
		}
		return arcOverlap(a, ra, b, rb, tol)
	}
	if d > a.Radius+b.Radius+tol || d < math.Abs(a.Radius-b.Radius)-tol {
		return nil
	}
	x := (d*d + a.Radius*a.Radius - b.Radius*b.Radius) / (2 * d)
	h := math.Sqrt(math.Max(0, a.Radius*a.Radius-x*x))
	u := dc.DivScalar(d)
	v := a.Normal.Cross(u)
	base := a.Center.Add(u.MulScalar(x))
	pts := []Point{base.Add(v.MulScalar(h))}
	if h > tol/2 {
		pts = append(pts, base.Sub(v.MulScalar(h)))
	}
	return circlePointHits(a, ra, b, rb, pts, tol)
}

// circleAcross handles circles in different planes: the candidates are the
// points where a crosses the plane of b.
func circleAcross(a Circle, ra Range, b Circle, rb Range, tol float64) []CurveHit {
	if Parallel(a.Normal, b.Normal) {
		return nil
	}
	bp := Plane{Origin: b.Center, Normal: b.Normal, XAxis: b.XAxis}
	var pts []Point
	for _, t := range circlePlaneParams(a, bp, tol) {
		pts = append(pts, a.Value(t))
	}
	return circlePointHits(a, ra, b, rb, pts, tol)
}

func circlePointHits(a Circle, ra Range, b Circle, rb Range, pts []Point, tol float64) []CurveHit {
	var hits []CurveHit
	for _, p := range pts {
		t := ParameterIn(a, p, ra)
		s := ParameterIn(b, p, rb)
		if !ra.Contains(t, ParamTolerance(a, tol)) || !rb.Contains(s, ParamTolerance(b, tol)) {
			continue
		}
		t, s = ra.Clamp(t), rb.Clamp(s)
		pa, pb := a.Value(t), b.Value(s)
		gap := Distance(pa, pb)
		if gap > tol {
			continue
		}
		hits = append(hits, CurveHit{Kind: HitPoint, T1: t, T2: s, Point: Midpoint(pa, pb), Gap: gap})
	}
	return hits
}

// arcOverlap intersects two arcs of the same circle. The arc of b is mapped
// into the parameter space of a and compared over neighbouring periods.
func arcOverlap(a Circle, ra Range, b Circle, rb Range, tol float64) []CurveHit {
	same := a.Normal.Dot(b.Normal) > 0
	l := rb.Length()
	s0 := a.Project(b.Value(rb.First))
	start := s0
	if !same {
		start = s0 - l
	}
	ptol := ParamTolerance(a, tol)
	per := 2 * math.Pi
	var hits, touches []CurveHit
	for k := -2; k <= 2; k++ {
		off := start + float64(k)*per
		j, ok := Range{First: off, Last: off + l}.Intersect(ra)
		if !ok {
			continue
		}
		toB := func(x float64) float64 {
			if same {
				return rb.First + (x - off)
			}
			return rb.First + (off + l - x)
		}
		b0, b1 := toB(j.First), toB(j.Last)
		r2 := Range{First: math.Min(b0, b1), Last: math.Max(b0, b1)}
		if j.Length() <= ptol {
			t := j.Mid()
			touches = append(touches, CurveHit{Kind: HitPoint, T1: t, T2: r2.Mid(), Point: a.Value(t)})
			continue
		}
		hits = append(hits, CurveHit{Kind: HitRange, R1: j, R2: r2, Opposite: !same})
	}
	// A touch at the end of an overlap is part of that overlap.
	for _, t := range touches {
		covered := false
		for _, h := range hits {
			if h.R1.Contains(t.T1, ptol) {
				covered = true
				break
			}
		}
		if !covered {
			hits = append(hits, t)
		}
	}
	tracer().Debugf("arc overlap: %d parts", len(hits))
	return hits
}
