// Package bounds provides axis-aligned bounding boxes and view-frustum
// tests used for culling and for restricting the rasterizer's pixel scan.
package bounds

import (
	"errors"
	"math"

	"github.com/taigrr/softrast/pkg/math3d"
)

// ErrNoPoints is returned when a bounding box is requested for an empty
// point set.
var ErrNoPoints = errors.New("bounds: no points")

// AABB is an axis-aligned bounding box with Min[i] <= Max[i] on every axis.
// Boxes are values: operations return new boxes rather than modifying one.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB returns the smallest box containing all points.
func NewAABB(points ...math3d.Vec3) (AABB, error) {
	if len(points) == 0 {
		return AABB{}, ErrNoPoints
	}

	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return AABB{Min: lo, Max: hi}, nil
}

// Rect returns a box spanning the 2D rectangle [x0, x1] x [y0, y1] with zero
// depth. The corners may be given in any order.
func Rect(x0, y0, x1, y1 float64) AABB {
	return AABB{
		Min: math3d.V3(math.Min(x0, x1), math.Min(y0, y1), 0),
		Max: math3d.V3(math.Max(x0, x1), math.Max(y0, y1), 0),
	}
}

// Intersects reports whether the boxes overlap on every axis. The test uses
// closed intervals, so boxes touching at a face, edge or corner intersect.
func (b AABB) Intersects(o AABB) bool {
	for i := range 3 {
		if b.Max.Axis(i) < o.Min.Axis(i) || o.Max.Axis(i) < b.Min.Axis(i) {
			return false
		}
	}
	return true
}

// Intersection returns the overlap of two boxes and false when they are
// disjoint.
func (b AABB) Intersection(o AABB) (AABB, bool) {
	if !b.Intersects(o) {
		return AABB{}, false
	}
	return AABB{Min: b.Min.Max(o.Min), Max: b.Max.Min(o.Max)}, true
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// ContainsPoint returns true if the point is inside the box, boundary
// included.
func (b AABB) ContainsPoint(p math3d.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Center returns the center of the box.
func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the box.
func (b AABB) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Corners returns the 8 corners of the box.
func (b AABB) Corners() [8]math3d.Vec3 {
	return [8]math3d.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// Transform returns the box bounding all 8 corners after transformation.
func (b AABB) Transform(m math3d.Mat4) AABB {
	corners := b.Corners()
	for i := range corners {
		corners[i] = m.MulVec3(corners[i])
	}
	out, _ := NewAABB(corners[:]...)
	return out
}
