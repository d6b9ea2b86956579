package bop

import (
	"github.com/chazu/brep/pkg/ds"
	"github.com/chazu/brep/pkg/topo"
	"github.com/samber/lo"
)

// history records which input faces every result face descends from and
// which edges unification replaced, so that a result can answer what became
// of an input sub-shape.
type history struct {
	reg      *ds.Registry
	im       *images
	origins  map[*topo.TShape][]int
	replaced map[*topo.TShape]topo.Shape
	present  map[*topo.TShape]bool
	faces    []topo.Shape
}

func newHistory(reg *ds.Registry, im *images) *history {
	return &history{
		reg:      reg,
		im:       im,
		origins:  make(map[*topo.TShape][]int),
		replaced: make(map[*topo.TShape]topo.Shape),
	}
}

// record notes that face f comes from the input faces of src.
func (h *history) record(f topo.Shape, src ...int) {
	if h == nil {
		return
	}
	h.origins[f.TShape()] = lo.Uniq(append(h.origins[f.TShape()], src...))
}

// derive notes that f is made of the faces from.
func (h *history) derive(f topo.Shape, from ...topo.Shape) {
	if h == nil {
		return
	}
	for _, g := range from {
		h.record(f, h.origins[g.TShape()]...)
	}
}

// replace notes that edge e was absorbed into edge by.
func (h *history) replace(e, by topo.Shape) {
	if h != nil {
		h.replaced[e.TShape()] = by
	}
}

// seal fixes the result shape the history answers for.
func (h *history) seal(result topo.Shape) {
	h.present = make(map[*topo.TShape]bool)
	if result.IsNull() {
		return
	}
	topo.Walk(result, func(c topo.Shape) bool {
		if h.present[c.TShape()] {
			return false
		}
		h.present[c.TShape()] = true
		if c.Kind() == topo.KindFace {
			h.faces = append(h.faces, c)
		}
		return true
	})
}

// follow resolves the edge replacements of unification.
func (h *history) follow(e topo.Shape) topo.Shape {
	for {
		by, ok := h.replaced[e.TShape()]
		if !ok {
			return e
		}
		e = by
	}
}

func (h *history) modified(s topo.Shape) []topo.Shape {
	idx, ok := h.reg.Index(s)
	if !ok || h.reg.MustInfo(idx).IsNew() {
		return nil
	}
	var out []topo.Shape
	add := func(c topo.Shape) {
		if !c.IsSame(s) && h.present[c.TShape()] &&
			!lo.ContainsBy(out, func(o topo.Shape) bool { return o.IsSame(c) }) {
			out = append(out, c)
		}
	}
	switch s.Kind() {
	case topo.KindFace:
		for _, f := range h.faces {
			if lo.Contains(h.origins[f.TShape()], idx) {
				add(f)
			}
		}
	case topo.KindEdge:
		if h.im == nil {
			return nil
		}
		for _, pb := range h.reg.PaveBlocks(idx) {
			h.im.emu.Lock()
			img, ok := h.im.edges[pb.Real()]
			h.im.emu.Unlock()
			if ok {
				add(h.follow(img))
			}
		}
	case topo.KindVertex:
		if h.im == nil {
			return nil
		}
		h.im.vmu.Lock()
		img, ok := h.im.verts[h.reg.SameDomain(idx)]
		h.im.vmu.Unlock()
		if ok {
			add(img)
		}
	}
	return out
}

func (h *history) deleted(s topo.Shape) bool {
	if h.present[s.TShape()] {
		return false
	}
	switch s.Kind() {
	case topo.KindVertex, topo.KindEdge, topo.KindFace:
		return len(h.modified(s)) == 0
	}
	return lo.EveryBy(s.Children(), h.deleted)
}
