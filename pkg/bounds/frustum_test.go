package bounds

import (
	"math"
	"testing"

	"github.com/taigrr/softrast/pkg/math3d"
)

func TestPlaneDistance(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 0, 1)}

	tests := []struct {
		name  string
		point math3d.Vec3
		want  float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := plane.Distance(tc.point); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	f := FrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100))
	for i, plane := range f.Planes {
		if l := plane.Normal.Len(); math.Abs(l-1) > 1e-6 {
			t.Errorf("plane %d normal length = %v, want 1", i, l)
		}
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	f := FrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100))

	tests := []struct {
		name  string
		point math3d.Vec3
		want  bool
	}{
		{"center near", math3d.V3(0, 0, -1), true},
		{"center mid", math3d.V3(0, 0, -50), true},
		{"center far", math3d.V3(0, 0, -99), true},
		{"behind camera", math3d.V3(0, 0, 1), false},
		{"too far", math3d.V3(0, 0, -200), false},
		{"too close", math3d.V3(0, 0, -0.01), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.ContainsPoint(tc.point); got != tc.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := FrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 1, 100))

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"fully inside", box(-1, -1, -10, 1, 1, -5), true},
		{"crosses near plane", box(-1, -1, -2, 1, 1, 2), true},
		{"behind camera", box(-1, -1, 5, 1, 1, 10), false},
		{"beyond far plane", box(-1, -1, -150, 1, 1, -120), false},
		{"far to the right", box(100, -1, -10, 110, 1, -5), false},
		{"contains frustum", box(-200, -200, -200, 200, 200, 200), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.IntersectsAABB(tc.box); got != tc.want {
				t.Errorf("IntersectsAABB(%v) = %v, want %v", tc.box, got, tc.want)
			}
		})
	}
}

func TestFrustumWithRotatedView(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 1, 1, 100)
	view := math3d.LookAt(math3d.V3(0, 0, 0), math3d.V3(10, 0, 0), math3d.Up())
	f := FrustumFromMatrix(proj.Mul(view))

	if !f.ContainsPoint(math3d.V3(10, 0, 0)) {
		t.Error("point ahead of the camera should be inside")
	}
	if f.ContainsPoint(math3d.V3(-10, 0, 0)) {
		t.Error("point behind the camera should be outside")
	}
}

func BenchmarkFrustumIntersectsAABB(b *testing.B) {
	f := FrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000))
	bb := box(-1, -1, -10, 1, 1, -5)

	for b.Loop() {
		_ = f.IntersectsAABB(bb)
	}
}
