package bop

import (
	"fmt"
	"runtime"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
)

// DefaultEpsilon is the slack added to summed tolerances when deciding
// whether two shapes interfere.
const DefaultEpsilon = 1e-9

// Options configure a Boolean operation. The zero value is usable; fields
// left zero take their defaults, except Unify, which only DefaultOptions
// turns on.
type Options struct {
	// Fuzzy is an additional tolerance. Every sub-shape receives half of
	// it, so a pair of shapes gains Fuzzy in total.
	Fuzzy float64
	// Epsilon is added to summed tolerances in interference decisions.
	Epsilon float64
	// Workers bounds the number of goroutines of the parallel stages.
	// Zero means runtime.GOMAXPROCS(0); 1 runs every stage serially.
	Workers int
	// Unify merges coplanar adjacent faces and collinear edges of the
	// result.
	Unify bool
	// Geometry answers intersection and classification queries. Nil means
	// Analytic.
	Geometry Geometry
}

// DefaultOptions returns the options used by Fuse, Common, Cut and Section.
func DefaultOptions() Options {
	return Options{
		Epsilon: DefaultEpsilon,
		Workers: runtime.GOMAXPROCS(0),
		Unify:   true,
	}
}

// Validate reports the first invalid setting.
func (o Options) Validate() error {
	switch {
	case o.Fuzzy < 0:
		return fmt.Errorf("bop: fuzzy value %g is negative", o.Fuzzy)
	case o.Epsilon < 0:
		return fmt.Errorf("bop: epsilon %g is negative", o.Epsilon)
	case o.Workers < 0:
		return fmt.Errorf("bop: worker count %d is negative", o.Workers)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Geometry == nil {
		o.Geometry = Analytic{}
	}
	return o
}

// CodeFuzzyEdge tags an edge whose two vertices the fuzzy value would merge.
const CodeFuzzyEdge = "EDGE_WITHIN_FUZZY"

// fuzzyProblems lists the edges of s that Fuzzy would collapse: their end
// vertices lie within the widened tolerances and would be merged into one.
func (o Options) fuzzyProblems(s topo.Shape) []topo.Problem {
	if o.Fuzzy == 0 {
		return nil
	}
	var ps []topo.Problem
	for _, e := range topo.Explore(s, topo.KindEdge) {
		v1, v2 := topo.EdgeVertices(e)
		if e.Degenerate() || v1.IsSame(v2) {
			continue
		}
		d := geom.Distance(v1.Point(), v2.Point())
		if d <= v1.Tolerance()+v2.Tolerance()+o.Fuzzy+o.Epsilon {
			ps = append(ps, topo.Problem{
				Shape:    e,
				Code:     CodeFuzzyEdge,
				Message:  fmt.Sprintf("length %g does not exceed fuzzy value %g", d, o.Fuzzy),
				Severity: topo.SeverityError,
			})
		}
	}
	return ps
}
