package bop

import (
	"context"
	"fmt"
	"sort"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
)

// split is the outcome of rebuilding one input face: the faces it falls
// apart into, oriented like the input face.
type split struct {
	face    int
	patches []topo.Shape
}

// builder rebuilds the input faces from the pave blocks and section edges
// collected by the filler.
type builder struct {
	ctx    context.Context
	reg    *ds.Registry
	im     *images
	opts   Options
	report *Report
}

func newBuilder(ctx context.Context, reg *ds.Registry, opts Options, report *Report) *builder {
	return &builder{ctx: ctx, reg: reg, im: newImages(reg), opts: opts, report: report}
}

// inputFaces returns the faces of both operands in index order.
func (b *builder) inputFaces() []int {
	set := make(map[int]bool)
	for r := 0; r < len(b.reg.Operands()); r++ {
		for _, f := range b.reg.RangeOfDimension(2, r) {
			set[f] = true
		}
	}
	out := make([]int, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

// buildFaces splits every input face on the worker pool. A face that cannot
// be rebuilt is reported and contributes nothing.
func (b *builder) buildFaces() ([]split, error) {
	faces := b.inputFaces()
	out := make([]split, len(faces))
	err := parallelFor(b.ctx, b.opts.Workers, len(faces), func(i int) error {
		out[i].face = faces[i]
		err := safely(func() error {
			var err error
			out[i].patches, err = b.splitFace(faces[i])
			return err
		})
		if err != nil {
			b.report.Warnf(FaceBuildFailed, []int{faces[i]}, "face rebuild: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	tracer().Infof("built faces: %d input faces", len(faces))
	return out, nil
}

// splitFace returns the faces an input face falls apart into. A face whose
// boundary kept every edge and which gained no interior edges is returned
// as is.
func (b *builder) splitFace(f int) ([]topo.Shape, error) {
	fs := b.reg.Shape(f)
	pl, ok := fs.Plane()
	if !ok {
		return nil, fmt.Errorf("face %d: %w", f, geom.ErrUnsupported)
	}
	var arcs []arc
	onBoundary := make(map[*ds.PaveBlock]bool)
	unchanged := true
	for _, w := range topo.Wires(fs) {
		for _, e := range topo.WireEdges(w) {
			if e.Degenerate() {
				continue
			}
			ei, ok := b.reg.Index(e)
			if !ok {
				return nil, fmt.Errorf("face %d: edge %s not registered", f, e)
			}
			pbs := b.reg.PaveBlocks(ei)
			forward := e.Orientation() == topo.Forward
			for k := range pbs {
				pb := pbs[k]
				if !forward {
					pb = pbs[len(pbs)-1-k]
				}
				img, err := b.im.orientedEdge(pb, forward)
				if err != nil {
					return nil, err
				}
				unchanged = unchanged && img.IsSame(e)
				onBoundary[pb.Real()] = true
				arcs = append(arcs, newArc(img))
			}
		}
	}
	fi := b.reg.FaceInfo(f)
	inner := make(map[*ds.PaveBlock]bool)
	for _, pb := range append(fi.Sections, fi.BlocksIn...) {
		rb := pb.Real()
		if onBoundary[rb] || inner[rb] {
			continue
		}
		inner[rb] = true
		img, err := b.im.orientedEdge(rb, true)
		if err != nil {
			return nil, err
		}
		arcs = append(arcs, newArc(img), newArc(img.Reversed()))
	}
	if unchanged && len(inner) == 0 {
		return []topo.Shape{fs}, nil
	}
	arcs = removeDangling(arcs)
	faces, broken, err := makeFaces(pl, fs.Surface(), arcs)
	if err != nil {
		return nil, err
	}
	if broken > 0 {
		b.report.Warnf(FaceBuildFailed, []int{f}, "%d loops of the face could not be closed", broken)
	}
	tracer().P("face", f).Debugf("split into %d faces from %d arcs", len(faces), len(arcs))
	return faces, nil
}
