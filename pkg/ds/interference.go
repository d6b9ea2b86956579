package ds

import (
	"fmt"

	"github.com/chazu/brep/pkg/geom"
)

// InterferenceKind tags the dimensional pair of an interference.
type InterferenceKind int

const (
	KindVV InterferenceKind = iota
	KindVE
	KindEE
	KindVF
	KindEF
	KindFF
)

func (k InterferenceKind) String() string {
	switch k {
	case KindVV:
		return "VV"
	case KindVE:
		return "VE"
	case KindEE:
		return "EE"
	case KindVF:
		return "VF"
	case KindEF:
		return "EF"
	case KindFF:
		return "FF"
	default:
		return fmt.Sprintf("InterferenceKind(%d)", int(k))
	}
}

// Interference is one record of the interference tables.
type Interference interface {
	Kind() InterferenceKind
	// Indices returns the DS indices of the two shapes involved.
	Indices() (int, int)
}

// VV records two coincident vertices.
type VV struct {
	V1, V2 int
	Tol    float64
}

// VE records a vertex lying on an edge at parameter T.
type VE struct {
	V, E int
	T    float64
	Tol  float64
}

// EE records a common part of two edges. A point interference carries the
// crossing parameters on both edges and the new vertex created for it; a
// range interference carries the overlapping sub-ranges.
type EE struct {
	E1, E2   int
	Hit      geom.HitKind
	T1, T2   float64
	Point    geom.Point
	Vertex   int // -1 until assigned
	R1, R2   geom.Range
	Opposite bool
	Tol      float64
}

// VF records a vertex lying in the interior of a face.
type VF struct {
	V, F int
	Tol  float64
}

// EF records a common part of an edge and a face: a crossing point at T or,
// for an edge lying in the face, the range R.
type EF struct {
	E, F   int
	Hit    geom.HitKind
	T      float64
	Point  geom.Point
	Vertex int // -1 until assigned
	R      geom.Range
	Tol    float64
}

// FF records two faces whose surfaces intersect or coincide.
type FF struct {
	F1, F2     int
	Coplanar   bool
	Curves     []geom.Curve
	Tol        float64
	SectionIDs []int
}

func (i *VV) Kind() InterferenceKind { return KindVV }
func (i *VE) Kind() InterferenceKind { return KindVE }
func (i *EE) Kind() InterferenceKind { return KindEE }
func (i *VF) Kind() InterferenceKind { return KindVF }
func (i *EF) Kind() InterferenceKind { return KindEF }
func (i *FF) Kind() InterferenceKind { return KindFF }

func (i *VV) Indices() (int, int) { return i.V1, i.V2 }
func (i *VE) Indices() (int, int) { return i.V, i.E }
func (i *EE) Indices() (int, int) { return i.E1, i.E2 }
func (i *VF) Indices() (int, int) { return i.V, i.F }
func (i *EF) Indices() (int, int) { return i.E, i.F }
func (i *FF) Indices() (int, int) { return i.F1, i.F2 }

// Interferences holds the interference tables, one per kind, in the order
// the records were added.
type Interferences struct {
	VV []*VV
	VE []*VE
	EE []*EE
	VF []*VF
	EF []*EF
	FF []*FF
}

// Len returns the total number of records.
func (t *Interferences) Len() int {
	return len(t.VV) + len(t.VE) + len(t.EE) + len(t.VF) + len(t.EF) + len(t.FF)
}

// AddInterference appends a record to its table, marks both shapes as
// interfering and remembers the pair. A pair already recorded with a record
// of the same kind is not added again and AddInterference reports false.
func (r *Registry) AddInterference(in Interference) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, b := in.Indices()
	key := [2]int{a, b}
	if b < a {
		key = [2]int{b, a}
	}
	kindKey := [2]int{key[0]*8 + int(in.Kind()), key[1]}
	if r.pairs[kindKey] && in.Kind() != KindEE && in.Kind() != KindEF {
		return false
	}
	r.pairs[kindKey] = true
	switch x := in.(type) {
	case *VV:
		r.interf.VV = append(r.interf.VV, x)
	case *VE:
		r.interf.VE = append(r.interf.VE, x)
	case *EE:
		r.interf.EE = append(r.interf.EE, x)
	case *VF:
		r.interf.VF = append(r.interf.VF, x)
	case *EF:
		r.interf.EF = append(r.interf.EF, x)
	case *FF:
		r.interf.FF = append(r.interf.FF, x)
	default:
		panic(fmt.Sprintf("ds: unknown interference %T", in))
	}
	r.infos[a].Interfering = true
	r.infos[b].Interfering = true
	return true
}

// HasInterference reports whether a record of kind k exists between a and b.
func (r *Registry) HasInterference(k InterferenceKind, a, b int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b < a {
		a, b = b, a
	}
	return r.pairs[[2]int{a*8 + int(k), b}]
}

// Interferences returns the interference tables. The returned value must be
// treated as read-only.
func (r *Registry) Interferences() *Interferences {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &r.interf
}
