package math3d

import (
	"math"
	"testing"
)

func TestVec3Basics(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, -5, 6)

	if got := a.Dot(b); got != 12 {
		t.Errorf("Dot = %v, want 12", got)
	}
	if got := V3(1, 0, 0).Cross(V3(0, 1, 0)); got != V3(0, 0, 1) {
		t.Errorf("Cross = %v, want (0, 0, 1)", got)
	}
	if got := a.Min(b); got != V3(1, -5, 3) {
		t.Errorf("Min = %v", got)
	}
	if got := a.Max(b); got != V3(4, 2, 6) {
		t.Errorf("Max = %v", got)
	}
	if got := V3(3, 4, 0).Normalize().Len(); math.Abs(got-1) > 1e-12 {
		t.Errorf("normalized length = %v", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero vector normalized to %v", got)
	}
}

func TestVec3Axis(t *testing.T) {
	v := V3(7, 8, 9)
	for i, want := range []float64{7, 8, 9} {
		if got := v.Axis(i); got != want {
			t.Errorf("Axis(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestVec3Clamp01(t *testing.T) {
	if got := V3(-1, 0.5, 3).Clamp01(); got != V3(0, 0.5, 1) {
		t.Errorf("Clamp01 = %v", got)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !V3(1, 2, 3).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if V3(math.Inf(1), 0, 0).IsFinite() || V3(0, math.NaN(), 0).IsFinite() {
		t.Error("non-finite vector reported as finite")
	}
}
