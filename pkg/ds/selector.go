package ds

import (
	"iter"
	"sort"
	"sync"

	"github.com/chazu/brep/pkg/geom"
	"github.com/dhconnelly/rtreego"
)

// Selector proposes candidate pairs of registry entries whose boxes
// overlap. It indexes the operand-1 entries of each dimension in an R-tree
// built on first use.
type Selector struct {
	reg   *Registry
	mu    sync.Mutex
	trees map[int]*rtreego.Rtree
	cache map[[2]int][][2]int
}

// NewSelector returns a selector over the entries of reg.
func NewSelector(reg *Registry) *Selector {
	return &Selector{
		reg:   reg,
		trees: make(map[int]*rtreego.Rtree),
		cache: make(map[[2]int][][2]int),
	}
}

type boxed struct {
	idx  int
	rect rtreego.Rect
}

func (b *boxed) Bounds() rtreego.Rect { return b.rect }

// rtreego treats touching rectangles as disjoint, so every rectangle is
// grown a little and hits are re-checked with the inclusive box test.
const rectMargin = 1e-6

func toRect(b geom.Box) rtreego.Rect {
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.X - rectMargin, b.Min.Y - rectMargin, b.Min.Z - rectMargin},
		rtreego.Point{b.Max.X + rectMargin, b.Max.Y + rectMargin, b.Max.Z + rectMargin},
	)
	if err != nil {
		panic(err) // dimensions always match
	}
	return r
}

func (s *Selector) tree(dim int) *rtreego.Rtree {
	if t, ok := s.trees[dim]; ok {
		return t
	}
	var objs []rtreego.Spatial
	for _, i := range s.reg.RangeOfDimension(dim, 1) {
		si := s.reg.MustInfo(i)
		if geom.IsEmptyBox(si.Box) {
			continue
		}
		objs = append(objs, &boxed{idx: i, rect: toRect(si.Box)})
	}
	t := rtreego.NewTree(3, 8, 32, objs...)
	s.trees[dim] = t
	return t
}

// CandidatePairs yields, ordered by first then second index, the pairs
// (a, b) where a is an operand-0 entry of dimension dimA, b an operand-1
// entry of dimension dimB, and their boxes overlap. A shape is never paired
// with itself, two shapes shared by both operands are never paired and no
// pair is reported twice. The sequence can be iterated any number of times.
func (s *Selector) CandidatePairs(dimA, dimB int) iter.Seq2[int, int] {
	pairs := s.pairs(dimA, dimB)
	return func(yield func(int, int) bool) {
		for _, p := range pairs {
			if !yield(p[0], p[1]) {
				return
			}
		}
	}
}

func (s *Selector) pairs(dimA, dimB int) [][2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int{dimA, dimB}
	if ps, ok := s.cache[key]; ok {
		return ps
	}
	t := s.tree(dimB)
	seen := make(map[[2]int]bool)
	var out [][2]int
	for _, a := range s.reg.RangeOfDimension(dimA, 0) {
		ia := s.reg.MustInfo(a)
		if geom.IsEmptyBox(ia.Box) {
			continue
		}
		for _, hit := range t.SearchIntersect(toRect(ia.Box)) {
			b := hit.(*boxed).idx
			ib := s.reg.MustInfo(b)
			if a == b || (ia.Shared() && ib.Shared()) {
				continue
			}
			if !geom.BoxOverlap(ia.Box, ib.Box) {
				continue
			}
			k := [2]int{a, b}
			if dimA == dimB && b < a {
				k = [2]int{b, a}
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, [2]int{a, b})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	s.cache[key] = out
	tracer().Debugf("selector: %d candidate pairs for dimensions %d/%d", len(out), dimA, dimB)
	return out
}
