package render

import (
	"math"

	"github.com/taigrr/softrast/pkg/bounds"
	"github.com/taigrr/softrast/pkg/math3d"
)

// wireSegment is a screen-space line queued for the wireframe pass.
type wireSegment struct {
	x0, y0, x1, y1 int
	color          Color
}

// addWireframe queues the three edges of a clip-space triangle. Each edge
// is clipped on its own, so the near plane never adds edges of its own.
func (r *Rasterizer) addWireframe(tri [3]clipVertex, c Color) {
	for i := range 3 {
		if seg, ok := projectSegment(tri[i].pos, tri[(i+1)%3].pos, r.fb.Width, r.fb.Height); ok {
			seg.color = c
			r.wires = append(r.wires, seg)
		}
	}
}

// projectSegment clips a clip-space segment and maps it to pixel
// coordinates.
func projectSegment(a, b math3d.Vec4, width, height int) (wireSegment, bool) {
	a, b, ok := clipSegment(a, b)
	if !ok {
		return wireSegment{}, false
	}
	na, nb := a.PerspectiveDivide(), b.PerspectiveDivide()
	if !na.IsFinite() || !nb.IsFinite() {
		return wireSegment{}, false
	}
	x0, y0 := ndcToScreen(na.X, na.Y, width, height)
	x1, y1 := ndcToScreen(nb.X, nb.Y, width, height)
	return wireSegment{
		x0: int(math.Floor(x0)), y0: int(math.Floor(y0)),
		x1: int(math.Floor(x1)), y1: int(math.Floor(y1)),
	}, true
}

// Overlay draws world-space guides (axes, grids, bounding boxes) on top of
// a rendered frame, without depth testing.
type Overlay struct {
	cam Camera
	fb  *Framebuffer
}

// NewOverlay creates an overlay drawing into fb as seen from cam.
func NewOverlay(cam Camera, fb *Framebuffer) *Overlay {
	return &Overlay{cam: cam, fb: fb}
}

// DrawLine3D draws a world-space line. Parts behind the near plane are
// clipped away.
func (o *Overlay) DrawLine3D(p1, p2 math3d.Vec3, c Color) {
	vp := ViewProjection(o.cam)
	a := vp.MulVec4(math3d.V4FromV3(p1, 1))
	b := vp.MulVec4(math3d.V4FromV3(p2, 1))
	if seg, ok := projectSegment(a, b, o.fb.Width, o.fb.Height); ok {
		o.fb.DrawLine(seg.x0, seg.y0, seg.x1, seg.y1, c)
	}
}

// boxEdges lists the corner pairs of AABB.Corners that form the 12 edges.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along X
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along Y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along Z
}

// DrawBox draws the edges of a world-space box.
func (o *Overlay) DrawBox(box bounds.AABB, c Color) {
	corners := box.Corners()
	for _, e := range boxEdges {
		o.DrawLine3D(corners[e[0]], corners[e[1]], c)
	}
}

// DrawAxes draws the X, Y and Z axes from origin in red, green and blue.
func (o *Overlay) DrawAxes(origin math3d.Vec3, length float64) {
	o.DrawLine3D(origin, origin.Add(math3d.V3(length, 0, 0)), ColorRed)
	o.DrawLine3D(origin, origin.Add(math3d.V3(0, length, 0)), ColorGreen)
	o.DrawLine3D(origin, origin.Add(math3d.V3(0, 0, length)), ColorBlue)
}

// DrawGrid draws a square grid of the given size on the plane y = height,
// centered on the Y axis.
func (o *Overlay) DrawGrid(height, size, step float64, c Color) {
	if step <= 0 {
		return
	}
	half := size / 2
	lines := int(math.Floor(size/step + 1e-9))
	for i := 0; i <= lines; i++ {
		d := -half + float64(i)*step
		o.DrawLine3D(math3d.V3(d, height, -half), math3d.V3(d, height, half), c)
		o.DrawLine3D(math3d.V3(-half, height, d), math3d.V3(half, height, d), c)
	}
}
