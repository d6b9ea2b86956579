package ds

import (
	"fmt"
	"sort"

	"github.com/chazu/brep/pkg/geom"
)

// Pave is a split point on an edge: a curve parameter and the vertex
// realizing it.
type Pave struct {
	Vertex int
	T      float64
}

func (p Pave) String() string {
	return fmt.Sprintf("(v%d@%g)", p.Vertex, p.T)
}

// PaveBlock is the part of an edge between two consecutive paves.
type PaveBlock struct {
	Edge         int
	Pave1, Pave2 Pave
	Common       *CommonBlock
}

// Range returns the parameter interval of the block on its edge curve.
func (pb *PaveBlock) Range() geom.Range {
	return geom.Range{First: pb.Pave1.T, Last: pb.Pave2.T}
}

func (pb *PaveBlock) String() string {
	return fmt.Sprintf("e%d%s-%s", pb.Edge, pb.Pave1, pb.Pave2)
}

// Real returns the block standing for pb in the result: the representative
// of its common block, or pb itself.
func (pb *PaveBlock) Real() *PaveBlock {
	if pb.Common != nil {
		return pb.Common.Representative()
	}
	return pb
}

// CommonBlock groups coincident pave blocks of different edges. Faces lists
// the faces the common part lies in without being a boundary of them.
type CommonBlock struct {
	Blocks []*PaveBlock
	Faces  []int
}

// Representative returns the block with the lowest edge index.
func (cb *CommonBlock) Representative() *PaveBlock {
	best := cb.Blocks[0]
	for _, pb := range cb.Blocks[1:] {
		if pb.Edge < best.Edge {
			best = pb
		}
	}
	return best
}

// Contains reports whether pb is a member of the group.
func (cb *CommonBlock) Contains(pb *PaveBlock) bool {
	for _, x := range cb.Blocks {
		if x == pb {
			return true
		}
	}
	return false
}

// FaceInfo collects what the algorithm learned about one face.
type FaceInfo struct {
	// VerticesIn are vertices found in the interior of the face.
	VerticesIn []int
	// BlocksIn are pave blocks of foreign edges lying in the face.
	BlocksIn []*PaveBlock
	// Sections are pave blocks of section edges across the face.
	Sections []*PaveBlock
	// Coplanar lists faces whose surface coincides with this one.
	Coplanar []int
}

// SectionCurve is a curve along which two faces intersect, materialized as
// a registered edge that pave filling splits into blocks.
type SectionCurve struct {
	F1, F2 int
	Curve  geom.Curve
	Range  geom.Range
	Edge   int
	Blocks []*PaveBlock
}

// AddPave adds a pave to the pool of edge e.
func (r *Registry) AddPave(e int, p Pave) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pool[e] = append(r.pool[e], p)
}

// Paves returns the paves pooled for edge e sorted by parameter, then
// vertex index.
func (r *Registry) Paves(e int) []Pave {
	r.mu.RLock()
	ps := append([]Pave(nil), r.pool[e]...)
	r.mu.RUnlock()
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].T != ps[j].T {
			return ps[i].T < ps[j].T
		}
		return ps[i].Vertex < ps[j].Vertex
	})
	return ps
}

// SetPaveBlocks stores the split of edge e.
func (r *Registry) SetPaveBlocks(e int, pbs []*PaveBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[e] = pbs
}

// PaveBlocks returns the blocks edge e is split into, in parameter order.
func (r *Registry) PaveBlocks(e int) []*PaveBlock {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blocks[e]
}

// IsSplit reports whether edge e was divided into more than one block or
// any of its blocks coincides with another edge.
func (r *Registry) IsSplit(e int) bool {
	pbs := r.PaveBlocks(e)
	return len(pbs) != 1 || pbs[0].Common != nil
}

// MakeCommonBlock groups the given blocks, joining the groups they already
// belong to.
func (r *Registry) MakeCommonBlock(pbs ...*PaveBlock) *CommonBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cb *CommonBlock
	for _, pb := range pbs {
		if pb.Common != nil {
			cb = pb.Common
			break
		}
	}
	if cb == nil {
		cb = &CommonBlock{}
		r.commons = append(r.commons, cb)
	}
	for _, pb := range pbs {
		switch {
		case pb.Common == cb:
			continue
		case pb.Common != nil:
			old := pb.Common
			for _, x := range old.Blocks {
				x.Common = cb
				cb.Blocks = append(cb.Blocks, x)
			}
			for _, f := range old.Faces {
				if !containsInt(cb.Faces, f) {
					cb.Faces = append(cb.Faces, f)
				}
			}
			old.Blocks = nil
		default:
			pb.Common = cb
			cb.Blocks = append(cb.Blocks, pb)
		}
	}
	return cb
}

// AddCommonBlockFace records that the common part cb lies in face f.
func (r *Registry) AddCommonBlockFace(cb *CommonBlock, f int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !containsInt(cb.Faces, f) {
		cb.Faces = append(cb.Faces, f)
	}
}

// CommonBlocks returns all non-empty common blocks.
func (r *Registry) CommonBlocks() []*CommonBlock {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*CommonBlock
	for _, cb := range r.commons {
		if len(cb.Blocks) > 0 {
			out = append(out, cb)
		}
	}
	return out
}

func (r *Registry) faceInfo(f int) *FaceInfo {
	fi, ok := r.faces[f]
	if !ok {
		fi = &FaceInfo{}
		r.faces[f] = fi
	}
	return fi
}

// FaceInfo returns a snapshot of what is known about face f.
func (r *Registry) FaceInfo(f int) FaceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fi, ok := r.faces[f]
	if !ok {
		return FaceInfo{}
	}
	return FaceInfo{
		VerticesIn: append([]int(nil), fi.VerticesIn...),
		BlocksIn:   append([]*PaveBlock(nil), fi.BlocksIn...),
		Sections:   append([]*PaveBlock(nil), fi.Sections...),
		Coplanar:   append([]int(nil), fi.Coplanar...),
	}
}

// AddVertexIn records vertex v in the interior of face f.
func (r *Registry) AddVertexIn(f, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fi := r.faceInfo(f)
	if !containsInt(fi.VerticesIn, v) {
		fi.VerticesIn = append(fi.VerticesIn, v)
	}
}

// AddBlockIn records that pb lies in face f.
func (r *Registry) AddBlockIn(f int, pb *PaveBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fi := r.faceInfo(f)
	for _, x := range fi.BlocksIn {
		if x == pb {
			return
		}
	}
	fi.BlocksIn = append(fi.BlocksIn, pb)
}

// AddCoplanar records that faces f1 and f2 lie on the same surface.
func (r *Registry) AddCoplanar(f1, f2 int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range [2][2]int{{f1, f2}, {f2, f1}} {
		fi := r.faceInfo(p[0])
		if !containsInt(fi.Coplanar, p[1]) {
			fi.Coplanar = append(fi.Coplanar, p[1])
		}
	}
}

// AddSection registers a section curve and attaches its blocks to both
// faces. It returns the section id.
func (r *Registry) AddSection(sc *SectionCurve) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := len(r.sections)
	r.sections = append(r.sections, sc)
	for _, f := range [2]int{sc.F1, sc.F2} {
		fi := r.faceInfo(f)
		fi.Sections = append(fi.Sections, sc.Blocks...)
	}
	return id
}

// Sections returns the registered section curves in registration order.
func (r *Registry) Sections() []*SectionCurve {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*SectionCurve(nil), r.sections...)
}
