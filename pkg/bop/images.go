package bop

import (
	"sync"

	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/geom"
	"github.com/chazu/brep/pkg/topo"
)

// images hands out the result shapes standing for vertices and pave blocks.
// Every resolved vertex and every real block gets exactly one image, so
// faces built from the same block share the edge.
type images struct {
	reg   *ds.Registry
	vmu   sync.Mutex
	verts map[int]topo.Shape
	emu   sync.Mutex
	edges map[*ds.PaveBlock]topo.Shape
}

func newImages(reg *ds.Registry) *images {
	return &images{
		reg:   reg,
		verts: make(map[int]topo.Shape),
		edges: make(map[*ds.PaveBlock]topo.Shape),
	}
}

// vertex returns the image of vertex v: the original shape unless its
// tolerance was widened.
func (im *images) vertex(v int) topo.Shape {
	r := im.reg.SameDomain(v)
	im.vmu.Lock()
	defer im.vmu.Unlock()
	if s, ok := im.verts[r]; ok {
		return s
	}
	si := im.reg.MustInfo(r)
	s := si.Shape
	if si.Widened {
		s = topo.MakeVertex(s.Point(), si.Tol)
	}
	im.verts[r] = s
	return s
}

// edge returns the image of the real block of pb, running in the direction
// of that block's edge. An unsplit edge whose vertices keep their
// images is its own image.
func (im *images) edge(pb *ds.PaveBlock) (topo.Shape, error) {
	rb := pb.Real()
	im.emu.Lock()
	defer im.emu.Unlock()
	if s, ok := im.edges[rb]; ok {
		return s, nil
	}
	orig := im.reg.Shape(rb.Edge)
	v1, v2 := im.vertex(rb.Pave1.Vertex), im.vertex(rb.Pave2.Vertex)
	o1, o2 := topo.EdgeVertices(orig)
	s := orig
	if len(im.reg.PaveBlocks(rb.Edge)) != 1 || !o1.IsSame(v1) || !o2.IsSame(v2) {
		var err error
		s, err = topo.MakeEdge(orig.Curve(), rb.Range(), v1, v2, im.reg.Tolerance(rb.Edge))
		if err != nil {
			return topo.Shape{}, err
		}
	}
	im.edges[rb] = s
	return s, nil
}

// sameDirection reports whether blocks a and b run the same way.
func (im *images) sameDirection(a, b *ds.PaveBlock) bool {
	if a == b {
		return true
	}
	ta := geom.Tangent(im.reg.Shape(a.Edge).Curve(), a.Range().Mid())
	tb := geom.Tangent(im.reg.Shape(b.Edge).Curve(), b.Range().Mid())
	return ta.Dot(tb) > 0
}

// orientedEdge returns the image of pb oriented for traversal along pb's
// own direction (forward) or against it.
func (im *images) orientedEdge(pb *ds.PaveBlock, forward bool) (topo.Shape, error) {
	img, err := im.edge(pb)
	if err != nil {
		return topo.Shape{}, err
	}
	if forward != im.sameDirection(pb, pb.Real()) {
		return img.Reversed(), nil
	}
	return img, nil
}
