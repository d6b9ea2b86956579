package kernel

import (
	"errors"
	"testing"
)

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

func (s *stubSolid) Volume() float64 {
	v := 1.0
	for i := range s.minBB {
		v *= s.maxBB[i] - s.minBB[i]
	}
	return v
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. Booleans work on bounding boxes only.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{0, 0, 0},
		maxBB: [3]float64{x, y, z},
	}
}

func (k *stubKernel) Cylinder(height, radius float64, _ int) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, 0},
		maxBB: [3]float64{radius, radius, height},
	}
}

func (k *stubKernel) Prism(profile [][2]float64, height float64) (Solid, error) {
	if len(profile) < 3 {
		return nil, errors.New("profile needs three points")
	}
	s := &stubSolid{minBB: [3]float64{profile[0][0], profile[0][1], 0}, maxBB: [3]float64{profile[0][0], profile[0][1], height}}
	for _, p := range profile[1:] {
		for i := 0; i < 2; i++ {
			s.minBB[i] = min(s.minBB[i], p[i])
			s.maxBB[i] = max(s.maxBB[i], p[i])
		}
	}
	return s, nil
}

func (k *stubKernel) Union(a, _ Solid) (Solid, error)      { return a, nil }
func (k *stubKernel) Difference(a, _ Solid) (Solid, error) { return a, nil }

func (k *stubKernel) Intersection(a, b Solid) (Solid, error) {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	s := &stubSolid{}
	for i := 0; i < 3; i++ {
		s.minBB[i] = max(amin[i], bmin[i])
		s.maxBB[i] = min(amax[i], bmax[i])
		if s.maxBB[i] <= s.minBB[i] {
			return nil, ErrNotSolid
		}
	}
	return s, nil
}

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
	if v := s.Volume(); v != 6000 {
		t.Errorf("Box volume = %g, want 6000", v)
	}
}

func TestStubKernelPrism(t *testing.T) {
	var k Kernel = &stubKernel{}
	tests := []struct {
		name    string
		profile [][2]float64
		wantErr bool
	}{
		{"triangle", [][2]float64{{0, 0}, {2, 0}, {0, 2}}, false},
		{"too short", [][2]float64{{0, 0}, {1, 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := k.Prism(tt.profile, 1)
			if (err != nil) != tt.wantErr {
				t.Errorf("Prism() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStubKernelIntersectionOfDisjointBoxes(t *testing.T) {
	var k Kernel = &stubKernel{}
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(1, 1, 1), 5, 0, 0)
	if _, err := k.Intersection(a, &stubSolid{minBB: [3]float64{5, 0, 0}, maxBB: [3]float64{6, 1, 1}}); !errors.Is(err, ErrNotSolid) {
		t.Errorf("Intersection() error = %v, want ErrNotSolid", err)
	}
	if _, err := k.Intersection(a, b); err != nil {
		t.Errorf("stub Translate is the identity, Intersection() error = %v", err)
	}
}
