package render

import (
	"github.com/taigrr/softrast/pkg/bounds"
	"github.com/taigrr/softrast/pkg/math3d"
)

// clipVertex is a vertex in clip space together with the attributes that
// are interpolated for shading.
type clipVertex struct {
	pos    math3d.Vec4
	world  math3d.Vec3
	normal math3d.Vec3
	uv     math3d.Vec2
	color  math3d.Vec4
}

// lerp interpolates every attribute linearly in clip space.
//
//nolint:st1016 // a,b naming convention is clearer for interpolation
func (a clipVertex) lerp(b clipVertex, t float64) clipVertex {
	return clipVertex{
		pos:    a.pos.Lerp(b.pos, t),
		world:  a.world.Lerp(b.world, t),
		normal: a.normal.Lerp(b.normal, t),
		uv:     a.uv.Lerp(b.uv, t),
		color:  a.color.Lerp(b.color, t),
	}
}

// guardBand is how far outside the viewport, in NDC units, geometry may
// reach before it is clipped at the sides. It bounds snapped screen
// coordinates so edge functions cannot overflow.
const guardBand = 16

type clipPlane int

const (
	clipNear clipPlane = iota
	clipLeft
	clipRight
	clipBottom
	clipTop
	numClipPlanes
)

// distance is positive on the visible side of the plane.
func (p clipPlane) distance(v math3d.Vec4) float64 {
	switch p {
	case clipNear:
		return v.Z + v.W
	case clipLeft:
		return v.X + guardBand*v.W
	case clipRight:
		return guardBand*v.W - v.X
	case clipBottom:
		return v.Y + guardBand*v.W
	default:
		return guardBand*v.W - v.Y
	}
}

// outcode has bit p set when v is outside plane p.
func outcode(v math3d.Vec4) uint8 {
	var code uint8
	for p := range numClipPlanes {
		if p.distance(v) < 0 {
			code |= 1 << p
		}
	}
	return code
}

// clipPolygon clips a convex polygon against the near plane and the guard
// band with Sutherland-Hodgman. in is not modified; the result may alias
// scratch.
func clipPolygon(in []clipVertex, scratch *[2][]clipVertex) []clipVertex {
	var all uint8
	for _, v := range in {
		all |= outcode(v.pos)
	}
	if all == 0 {
		return in
	}

	cur := append(scratch[0][:0], in...)
	next := scratch[1][:0]
	for p := range numClipPlanes {
		if all&(1<<p) == 0 {
			continue
		}
		next = next[:0]
		for i, a := range cur {
			b := cur[(i+1)%len(cur)]
			da, db := p.distance(a.pos), p.distance(b.pos)
			if da >= 0 {
				next = append(next, a)
			}
			if (da >= 0) != (db >= 0) {
				next = append(next, a.lerp(b, da/(da-db)))
			}
		}
		cur, next = next, cur
		if len(cur) < 3 {
			break
		}
	}
	scratch[0], scratch[1] = cur, next
	return cur
}

// clipSegment clips a line segment against the near plane and the guard
// band. ok is false when nothing of the segment remains.
func clipSegment(a, b math3d.Vec4) (math3d.Vec4, math3d.Vec4, bool) {
	for p := range numClipPlanes {
		da, db := p.distance(a), p.distance(b)
		switch {
		case da < 0 && db < 0:
			return a, b, false
		case da < 0:
			a = a.Lerp(b, da/(da-db))
		case db < 0:
			b = b.Lerp(a, db/(db-da))
		}
	}
	return a, b, true
}

// ndcCube is the visible volume after the perspective divide.
var ndcCube = bounds.AABB{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}

// outsideView reports whether a clipped polygon lies entirely outside the
// NDC cube. Every vertex must have w > 0.
func outsideView(poly []clipVertex) bool {
	var buf [3 + numClipPlanes]math3d.Vec3
	pts := buf[:0]
	for _, v := range poly {
		pts = append(pts, v.pos.PerspectiveDivide())
	}
	box, err := bounds.NewAABB(pts...)
	if err != nil {
		return true
	}
	return !box.Intersects(ndcCube)
}
