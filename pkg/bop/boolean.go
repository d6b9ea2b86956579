// Package bop implements Boolean operations on B-Rep shapes.
//
// An operation runs as a pipeline over a shared registry (package ds): the
// filler finds all interferences between the operands and splits their
// edges, the builder rebuilds the faces along the split edges and section
// edges, the classifier places every rebuilt face relative to the other
// operand, and the assembler keeps the faces the operation asks for and
// stitches them into shells and solids.
//
// The pipeline never modifies its operands. Its outcome is a Result with a
// status and a report of diagnostics; recoverable trouble such as an
// intersection that did not converge is reported as a warning and the run
// continues.
package bop

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("brep.bop")
}

// Operation selects the Boolean operation.
type Operation int

const (
	OpFuse Operation = iota
	OpCommon
	OpCut
	OpSection
)

func (op Operation) String() string {
	switch op {
	case OpFuse:
		return "fuse"
	case OpCommon:
		return "common"
	case OpCut:
		return "cut"
	case OpSection:
		return "section"
	default:
		return fmt.Sprintf("Operation(%d)", int(op))
	}
}

// Status tells whether a result can be used.
type Status int

const (
	// StatusDone: the result is valid.
	StatusDone Status = iota
	// StatusOpen: a solid was expected but some shells do not close. The
	// partial shape is kept for inspection.
	StatusOpen
	// StatusFailed: the operation produced no shape.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusOpen:
		return "open"
	default:
		return "failed"
	}
}

// ErrNotDone is the panic value of MustShape on a result that is not done.
var ErrNotDone = errors.New("bop: result is not done")

// Result is the outcome of a Boolean operation.
type Result struct {
	status Status
	shape  topo.Shape
	report *Report
	hist   *history
}

// IsDone reports whether the result shape is valid.
func (r *Result) IsDone() bool { return r.status == StatusDone }

// Status tells whether the result is done, open or failed.
func (r *Result) Status() Status { return r.status }

// Shape returns the result shape: the partial shape of an open result and
// the null shape of a failed one.
func (r *Result) Shape() topo.Shape {
	if r.status == StatusFailed {
		return topo.Shape{}
	}
	return r.shape
}

// MustShape returns the shape of a done result and panics otherwise.
func (r *Result) MustShape() topo.Shape {
	if !r.IsDone() {
		panic(fmt.Errorf("%w: status %s", ErrNotDone, r.status))
	}
	return r.shape
}

// IsEmpty reports whether the result has no vertices.
func (r *Result) IsEmpty() bool { return topo.IsEmpty(r.Shape()) }

// Report returns the diagnostics of the run.
func (r *Result) Report() *Report { return r.report }

// Modified returns the result faces, edges or vertices that replace the
// input sub-shape s, in result order. It is empty when s survives unchanged,
// when s was removed, for other shape kinds and for failed results.
func (r *Result) Modified(s topo.Shape) []topo.Shape {
	if r.hist == nil || s.IsNull() {
		return nil
	}
	return r.hist.modified(s)
}

// IsDeleted reports whether nothing of the input sub-shape s reaches the
// result, neither s itself nor a shape replacing it. A compound shape is
// deleted when all its children are. Failed results report false.
func (r *Result) IsDeleted(s topo.Shape) bool {
	if r.hist == nil || s.IsNull() {
		return false
	}
	return r.hist.deleted(s)
}

// done seals the history against the shape and wraps both in a result.
func done(status Status, shape topo.Shape, report *Report, hist *history) *Result {
	hist.seal(shape)
	return &Result{status: status, shape: shape, report: report, hist: hist}
}

func failed(report *Report) *Result {
	return &Result{status: StatusFailed, report: report}
}

// Perform runs op on a and b. The error is non-nil when the options are
// invalid, when an operand fails the validity check or has an edge the fuzzy
// value would collapse (an *InputError), or when ctx ends the run. Any other
// trouble is reported through the result.
func Perform(ctx context.Context, op Operation, a, b topo.Shape, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	report := &Report{}
	for i, s := range []topo.Shape{a, b} {
		if s.IsNull() {
			report.Errorf(InvalidInput, nil, "operand %d is null", i)
			return failed(report), &InputError{Operand: i}
		}
		if ps := topo.Check(s); topo.HasErrors(ps) {
			report.Errorf(InvalidInput, nil, "operand %d: %d problems", i, len(ps))
			return failed(report), &InputError{Operand: i, Problems: ps}
		}
		if ps := opts.fuzzyProblems(s); len(ps) > 0 {
			report.Errorf(InvalidInput, nil, "operand %d: %d edges within fuzzy value", i, len(ps))
			return failed(report), &InputError{Operand: i, Problems: ps}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reg, err := ds.Build([]topo.Shape{a, b}, ds.Options{
		Fuzzy:   opts.Fuzzy,
		Epsilon: opts.Epsilon,
		Box:     opts.Geometry.BoundingBox,
	})
	if err != nil {
		return nil, err
	}
	tracer().P("op", op).Infof("registry: %d shapes", reg.Len())
	if r, ok := disjoint(reg, op, a, b, report); ok {
		return r, nil
	}

	pf := newFiller(ctx, reg, opts, report)
	if err := pf.run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		report.Errorf(NonConvergence, nil, "intersection: %v", err)
		return failed(report), nil
	}
	asm := &assembler{reg: reg, geo: opts.Geometry, opts: opts, report: report}
	if op == OpSection {
		im := newImages(reg)
		s, err := asm.section(im)
		if err != nil {
			report.Errorf(FaceBuildFailed, nil, "section: %v", err)
			return failed(report), nil
		}
		return done(StatusDone, s, report, newHistory(reg, im)), nil
	}

	bld := newBuilder(ctx, reg, opts, report)
	splits, err := bld.buildFaces()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hist := newHistory(reg, bld.im)
	cl := newClassifier(reg, opts, report)
	faces := cl.selectFaces(op, splits, hist)
	if opts.Unify {
		u := &unifier{tol: reg.MaxTolerance(reg.RangeOfDimension(2, 0)...) + opts.Epsilon, report: report, hist: hist}
		faces = u.run(faces)
	}
	solidExpected := len(cl.solids[0]) > 0 && (op == OpCut || len(cl.solids[1]) > 0)
	shape, closed := asm.assemble(faces, solidExpected)
	status := StatusDone
	if !closed {
		status = StatusOpen
	}
	tracer().P("op", op).Infof("result: %s, %d faces", status, len(faces))
	return done(status, shape, report, hist), nil
}

// disjoint short-cuts operands whose boxes do not overlap.
func disjoint(reg *ds.Registry, op Operation, a, b topo.Shape, report *Report) (*Result, bool) {
	ia, _ := reg.Index(a)
	ib, _ := reg.Index(b)
	if geom.BoxOverlap(reg.MustInfo(ia).Box, reg.MustInfo(ib).Box) {
		return nil, false
	}
	var s topo.Shape
	switch op {
	case OpFuse:
		s = topo.MakeCompound(a, b)
	case OpCut:
		s = a
	default:
		s = topo.MakeCompound()
	}
	tracer().P("op", op).Infof("operands are disjoint")
	return done(StatusDone, s, report, newHistory(reg, nil)), true
}

// Fuse returns the union of a and b with default options.
func Fuse(ctx context.Context, a, b topo.Shape) (*Result, error) {
	return Perform(ctx, OpFuse, a, b, DefaultOptions())
}

// Common returns the intersection of a and b with default options.
func Common(ctx context.Context, a, b topo.Shape) (*Result, error) {
	return Perform(ctx, OpCommon, a, b, DefaultOptions())
}

// Cut returns a minus b with default options.
func Cut(ctx context.Context, a, b topo.Shape) (*Result, error) {
	return Perform(ctx, OpCut, a, b, DefaultOptions())
}

// Section returns the edges and vertices a and b have in common with
// default options.
func Section(ctx context.Context, a, b topo.Shape) (*Result, error) {
	return Perform(ctx, OpSection, a, b, DefaultOptions())
}

// FuseAll fuses the shapes from left to right. The report of the returned
// result holds the diagnostics of every step. It stops at the first step
// that does not finish.
func FuseAll(ctx context.Context, shapes []topo.Shape, opts Options) (*Result, error) {
	if len(shapes) == 0 {
		return nil, fmt.Errorf("bop: nothing to fuse")
	}
	report := &Report{}
	acc := shapes[0]
	for i, s := range shapes[1:] {
		r, err := Perform(ctx, OpFuse, acc, s, opts)
		if err != nil {
			return nil, fmt.Errorf("fuse step %d: %w", i+1, err)
		}
		for _, d := range r.Report().Diagnostics() {
			report.add(d.Severity, d.Kind, d.Message, d.Shapes...)
		}
		if !r.IsDone() {
			return &Result{status: r.Status(), shape: r.Shape(), report: report}, nil
		}
		acc = r.MustShape()
	}
	return &Result{status: StatusDone, shape: acc, report: report}, nil
}
