package bounds

import (
	"github.com/taigrr/softrast/pkg/math3d"
)

// Plane represents the plane Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// normalized returns the plane scaled so the normal has unit length.
func (p Plane) normalized() Plane {
	l := p.Normal.Len()
	if l == 0 {
		return p
	}
	return Plane{Normal: p.Normal.Scale(1 / l), D: p.D / l}
}

// Distance returns the signed distance from the plane to a point.
// Positive values lie on the side the normal points to.
func (p Plane) Distance(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the six view-frustum planes with normals pointing inward,
// ordered Left, Right, Bottom, Top, Near, Far.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// FrustumFromMatrix extracts the world-space frustum planes from a
// view-projection matrix (Gribb/Hartmann).
func FrustumFromMatrix(m math3d.Mat4) Frustum {
	// For the column-major m, row i is (m[i], m[i+4], m[i+8], m[i+12]).
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m[i], m[i+4], m[i+8]), m[i+12]
	}
	r3, w3 := row(3)

	var f Frustum
	for axis := range 3 {
		r, w := row(axis)
		f.Planes[2*axis] = Plane{Normal: r3.Add(r), D: w3 + w}.normalized()
		f.Planes[2*axis+1] = Plane{Normal: r3.Sub(r), D: w3 - w}.normalized()
	}
	return f
}

// IntersectsAABB reports whether any part of the box may be inside the
// frustum. It tests the box corner furthest along each plane normal, so it
// can report false positives near frustum corners but never false negatives.
func (f Frustum) IntersectsAABB(box AABB) bool {
	for _, plane := range f.Planes {
		p := math3d.V3(
			pick(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			pick(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			pick(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if plane.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for _, plane := range f.Planes {
		if plane.Distance(p) < 0 {
			return false
		}
	}
	return true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
