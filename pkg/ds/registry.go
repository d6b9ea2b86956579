// Package ds holds the shared data structure of a Boolean operation: every
// shape and sub-shape of the operands under a stable integer index, the
// interferences found between them, the paves and pave blocks that split
// edges, and per-face bookkeeping used to rebuild faces.
//
// A Registry is built once, single-threaded, from the operands. Afterwards
// the pipeline reads it concurrently and only appends to it through the
// locked mutators.
package ds

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("brep.ds")
}

// ErrOutOfRange is returned when an index does not name a registry entry.
var ErrOutOfRange = errors.New("ds: index out of range")

// ShapeInfo is the registry entry of one shape.
type ShapeInfo struct {
	Shape topo.Shape
	Kind  topo.Kind
	// Box is the bounding box enlarged by the working tolerance.
	Box geom.Box
	// Tol is the working tolerance, which may be widened during the run.
	Tol float64
	// Rank is the operand the shape was first found in, -1 for shapes
	// created by the algorithm.
	Rank int
	// SubShapes lists the indices of the direct sub-shapes.
	SubShapes []int
	// Interfering is set once any interference names the entry.
	Interfering bool
	// Widened is set when Tol was raised above the initial tolerance.
	Widened bool

	ops    uint8
	orient [2]topo.Orientation
}

// Dim returns the dimension of the entry (0..3), -1 for containers.
func (si *ShapeInfo) Dim() int { return si.Kind.Dim() }

// InOperand reports whether the shape belongs to operand r.
func (si *ShapeInfo) InOperand(r int) bool { return si.ops&(1<<uint(r)) != 0 }

// Shared reports whether the shape is shared verbatim by both operands.
func (si *ShapeInfo) Shared() bool { return si.ops == 3 }

// IsNew reports whether the shape was created by the algorithm.
func (si *ShapeInfo) IsNew() bool { return si.Rank < 0 }

// OrientationIn returns the orientation with which the shape occurs in
// operand r, composed down from the operand root.
func (si *ShapeInfo) OrientationIn(r int) topo.Orientation { return si.orient[r] }

// Options configure how a Registry measures its entries.
type Options struct {
	// Fuzzy is the additional tolerance; every shape receives half of it.
	Fuzzy float64
	// Epsilon is added to box enlargement so touching boxes never collapse
	// to zero extent.
	Epsilon float64
	// Box computes the raw bounding box of a shape. Defaults to
	// topo.BoundingBox.
	Box func(topo.Shape) geom.Box
}

// Registry is the indexed store of all shapes and derived records of one
// Boolean operation.
type Registry struct {
	mu       sync.RWMutex
	infos    []*ShapeInfo
	index    map[*topo.TShape]int
	operands []topo.Shape
	nInput   int
	opts     Options
	closure  map[int]map[int]bool

	sd       []int
	pool     map[int][]Pave
	blocks   map[int][]*PaveBlock
	faces    map[int]*FaceInfo
	commons  []*CommonBlock
	sections []*SectionCurve
	interf   Interferences
	pairs    map[[2]int]bool
}

// Build registers the operands and all their sub-shapes. Shapes reachable
// from both operands receive a single entry marked shared.
func Build(operands []topo.Shape, opts Options) (*Registry, error) {
	if len(operands) == 0 || len(operands) > 2 {
		return nil, fmt.Errorf("ds: need one or two operands, got %d", len(operands))
	}
	if opts.Box == nil {
		opts.Box = topo.BoundingBox
	}
	r := &Registry{
		index:    make(map[*topo.TShape]int),
		operands: append([]topo.Shape(nil), operands...),
		opts:     opts,
		closure:  make(map[int]map[int]bool),
		pool:     make(map[int][]Pave),
		blocks:   make(map[int][]*PaveBlock),
		faces:    make(map[int]*FaceInfo),
		pairs:    make(map[[2]int]bool),
	}
	for rank, op := range operands {
		if op.IsNull() {
			return nil, fmt.Errorf("ds: operand %d is null", rank)
		}
		seen := make(map[*topo.TShape]bool)
		r.register(op, rank, seen)
	}
	r.nInput = len(r.infos)
	for i, si := range r.infos {
		if si.Kind == topo.KindFace {
			r.closure[i] = r.collectClosure(i, make(map[int]bool))
		}
	}
	tracer().Debugf("registry built: %d entries", r.nInput)
	return r, nil
}

func (r *Registry) register(s topo.Shape, rank int, seen map[*topo.TShape]bool) int {
	key := s.TShape()
	idx, ok := r.index[key]
	if !ok {
		tol := 0.0
		switch s.Kind() {
		case topo.KindVertex, topo.KindEdge, topo.KindFace:
			tol = s.Tolerance() + r.opts.Fuzzy/2
		}
		idx = len(r.infos)
		r.infos = append(r.infos, &ShapeInfo{
			Shape: s.Oriented(topo.Forward),
			Kind:  s.Kind(),
			Tol:   tol,
			Rank:  rank,
		})
		r.index[key] = idx
		r.sd = append(r.sd, idx)
	}
	si := r.infos[idx]
	if seen[key] {
		return idx
	}
	seen[key] = true
	if !si.InOperand(rank) {
		si.orient[rank] = s.Orientation()
	}
	si.ops |= 1 << uint(rank)
	subs := make([]int, 0, s.NumChildren())
	for _, c := range s.Children() {
		ci := r.register(c, rank, seen)
		if !containsInt(subs, ci) {
			subs = append(subs, ci)
		}
	}
	if !ok {
		si.SubShapes = subs
		si.Box = r.entryBox(si)
	}
	return idx
}

func (r *Registry) entryBox(si *ShapeInfo) geom.Box {
	var b geom.Box
	switch si.Kind {
	case topo.KindVertex, topo.KindEdge, topo.KindFace:
		b = geom.BoxEnlarge(r.opts.Box(si.Shape), si.Tol+r.opts.Epsilon)
	default:
		b = geom.EmptyBox()
	}
	for _, c := range si.SubShapes {
		b = geom.BoxUnion(b, r.infos[c].Box)
	}
	return b
}

func (r *Registry) collectClosure(i int, acc map[int]bool) map[int]bool {
	for _, c := range r.infos[i].SubShapes {
		if !acc[c] {
			acc[c] = true
			r.collectClosure(c, acc)
		}
	}
	return acc
}

func containsInt(xs []int, x int) bool {
	for _, y := range xs {
		if y == x {
			return true
		}
	}
	return false
}

// Len returns the number of entries, including shapes created by the
// algorithm.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.infos)
}

// NumInput returns the number of entries created from the operands.
func (r *Registry) NumInput() int { return r.nInput }

// Operands returns the operand shapes in rank order.
func (r *Registry) Operands() []topo.Shape { return r.operands }

// Options returns the options the registry was built with.
func (r *Registry) Options() Options { return r.opts }

// Info returns the entry at index i.
func (r *Registry) Info(i int) (*ShapeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.infos) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, len(r.infos))
	}
	return r.infos[i], nil
}

// MustInfo is Info for indices produced by the registry itself; an invalid
// index is a programming error.
func (r *Registry) MustInfo(i int) *ShapeInfo {
	si, err := r.Info(i)
	if err != nil {
		panic(err)
	}
	return si
}

// Shape returns the shape at index i.
func (r *Registry) Shape(i int) topo.Shape { return r.MustInfo(i).Shape }

// Index returns the index of s, found by identity.
func (r *Registry) Index(s topo.Shape) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[s.TShape()]
	return i, ok
}

// Tolerance returns the working tolerance of entry i.
func (r *Registry) Tolerance(i int) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.infos[i].Tol
}

// WidenTolerance raises the working tolerance of entry i to at least tol and
// reports whether it changed.
func (r *Registry) WidenTolerance(i int, tol float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	si := r.infos[i]
	if tol <= si.Tol {
		return false
	}
	si.Tol = tol
	si.Widened = true
	return true
}

// RangeOfDimension returns, in index order, the entries of dimension dim
// that belong to operand rank. Shared entries belong to both operands;
// entries created by the algorithm belong to none.
func (r *Registry) RangeOfDimension(dim, rank int) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []int
	for i := 0; i < r.nInput; i++ {
		si := r.infos[i]
		if si.Dim() == dim && si.InOperand(rank) {
			out = append(out, i)
		}
	}
	return out
}

// IsSubShape reports whether sub lies in the boundary of face f.
func (r *Registry) IsSubShape(sub, of int) bool {
	if cl, ok := r.closure[of]; ok {
		return cl[sub]
	}
	return containsInt(r.MustInfo(of).SubShapes, sub)
}

// Append adds an entry for a shape created by the algorithm and returns its
// index.
func (r *Registry) Append(s topo.Shape, tol float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[s.TShape()]; ok {
		return i
	}
	si := &ShapeInfo{Shape: s.Oriented(topo.Forward), Kind: s.Kind(), Tol: tol, Rank: -1}
	for _, c := range s.Children() {
		if ci, ok := r.index[c.TShape()]; ok && !containsInt(si.SubShapes, ci) {
			si.SubShapes = append(si.SubShapes, ci)
		}
	}
	si.Box = geom.BoxEnlarge(r.opts.Box(s), tol+r.opts.Epsilon)
	idx := len(r.infos)
	r.infos = append(r.infos, si)
	r.index[s.TShape()] = idx
	r.sd = append(r.sd, idx)
	return idx
}

// NewVertex creates and registers a vertex at p.
func (r *Registry) NewVertex(p geom.Point, tol float64) int {
	return r.Append(topo.MakeVertex(p, tol), tol)
}

// SameDomain returns the representative of the vertex group of v.
func (r *Registry) SameDomain(v int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.find(v)
}

func (r *Registry) find(v int) int {
	for r.sd[v] != v {
		v = r.sd[v]
	}
	return v
}

// Merge joins the vertex groups of winner and loser. The representative of
// winner stays representative and its tolerance grows to cover the other
// group.
func (r *Registry) Merge(winner, loser int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, l := r.find(winner), r.find(loser)
	if w == l {
		return w
	}
	r.sd[l] = w
	wi, li := r.infos[w], r.infos[l]
	need := geom.Distance(wi.Shape.Point(), li.Shape.Point()) + li.Tol
	if need > wi.Tol {
		wi.Tol = need
		wi.Widened = true
	}
	tracer().Debugf("vertex %d merged into %d, tolerance %g", l, w, wi.Tol)
	return w
}

// VertexPoint returns the position of the representative of v.
func (r *Registry) VertexPoint(v int) geom.Point {
	return r.Shape(r.SameDomain(v)).Point()
}

// EdgeVertices returns the indices of the start and end vertex of edge e,
// unresolved.
func (r *Registry) EdgeVertices(e int) (int, int) {
	v1, v2 := topo.EdgeVertices(r.Shape(e))
	i1, _ := r.Index(v1)
	i2, _ := r.Index(v2)
	return i1, i2
}

// MaxTolerance returns the largest working tolerance among the entries.
func (r *Registry) MaxTolerance(idx ...int) float64 {
	m := 0.0
	for _, i := range idx {
		m = math.Max(m, r.Tolerance(i))
	}
	return m
}

// FaceEdges returns the indices of the boundary edges of face f in index
// order.
func (r *Registry) FaceEdges(f int) []int {
	var out []int
	for _, w := range r.MustInfo(f).SubShapes {
		for _, e := range r.MustInfo(w).SubShapes {
			if !containsInt(out, e) {
				out = append(out, e)
			}
		}
	}
	sort.Ints(out)
	return out
}
