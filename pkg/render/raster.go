package render

import (
	"math"

	"github.com/taigrr/softrast/pkg/bounds"
	"github.com/taigrr/softrast/pkg/math3d"
)

// Screen positions are snapped to 1/256 pixel so coverage can be decided
// with exact integer edge functions.
const (
	subpixelBits = 8
	subpixel     = 1 << subpixelBits
	halfPixel    = subpixel / 2
)

// edge holds E(x, y) = a*x + b*y + c for a directed edge in subpixel units.
// Points inside a positively oriented triangle have E >= 0 for all edges.
type edge struct {
	a, b, c int64
	// bias is 0 for top and left edges and -1 otherwise, so pixel centers
	// exactly on an edge belong to one triangle only.
	bias int64
}

func edgeCoeffs(x0, y0, x1, y1 int64) edge {
	e := edge{
		a: y0 - y1, // -dy
		b: x1 - x0, // dx
		c: x0*y1 - x1*y0,
	}
	// With y pointing down and E >= 0 inside, a top edge runs exactly
	// horizontally to the right and a left edge runs upward.
	topLeft := (e.a == 0 && e.b > 0) || e.a > 0
	if !topLeft {
		e.bias = -1
	}
	return e
}

func (e edge) at(x, y int64) int64 {
	return e.a*x + e.b*y + e.c
}

// triangle is a screen-space triangle ready for scan conversion. Vertices
// are ordered so the signed area is positive.
type triangle struct {
	edges      [3]edge // edges[i] is opposite vertex i
	invArea    float64
	minX, maxX int // pixel range, inclusive
	minY, maxY int
	z          [3]float64 // NDC depth
	invW       [3]float64
	v          [3]clipVertex
	faceNormal math3d.Vec3
	backFacing bool
	surf       *surface
}

type setupResult int

const (
	setupOK setupResult = iota
	setupDegenerate
	setupBackFace
	setupOffscreen
)

// setupTriangle projects a clipped triangle and prepares it for scanning.
// viewport spans the render target from (0, 0) to (width, height).
func setupTriangle(v [3]clipVertex, surf *surface, cullBack bool, viewport bounds.AABB) (triangle, setupResult) {
	var (
		t      triangle
		xs, ys [3]int64
	)
	width, height := int(viewport.Max.X), int(viewport.Max.Y)

	for i := range 3 {
		w := v[i].pos.W
		if !(w > 0) {
			return t, setupOffscreen
		}
		ndc := v[i].pos.PerspectiveDivide()
		if !ndc.IsFinite() {
			return t, setupDegenerate
		}
		sx, sy := ndcToScreen(ndc.X, ndc.Y, width, height)
		xs[i] = int64(math.Round(sx * subpixel))
		ys[i] = int64(math.Round(sy * subpixel))
		t.z[i] = ndc.Z
		t.invW[i] = 1 / w
	}

	area := (xs[1]-xs[0])*(ys[2]-ys[0]) - (ys[1]-ys[0])*(xs[2]-xs[0])
	if area == 0 {
		return t, setupDegenerate
	}

	// Counter-clockwise in NDC is clockwise on a y-down screen, which
	// gives a negative area here.
	t.backFacing = area > 0
	if t.backFacing && cullBack {
		return t, setupBackFace
	}

	t.faceNormal = v[1].world.Sub(v[0].world).Cross(v[2].world.Sub(v[0].world))
	t.v = v
	if area < 0 {
		area = -area
		xs[1], xs[2] = xs[2], xs[1]
		ys[1], ys[2] = ys[2], ys[1]
		t.z[1], t.z[2] = t.z[2], t.z[1]
		t.invW[1], t.invW[2] = t.invW[2], t.invW[1]
		t.v[1], t.v[2] = t.v[2], t.v[1]
	}

	box, _ := bounds.NewAABB(
		math3d.V3(float64(xs[0])/subpixel, float64(ys[0])/subpixel, 0),
		math3d.V3(float64(xs[1])/subpixel, float64(ys[1])/subpixel, 0),
		math3d.V3(float64(xs[2])/subpixel, float64(ys[2])/subpixel, 0),
	)
	box, ok := box.Intersection(viewport)
	if !ok {
		return t, setupOffscreen
	}
	// pixel x is covered only if its center x+0.5 lies in the box
	t.minX = max(0, int(math.Ceil(box.Min.X-0.5)))
	t.maxX = min(width-1, int(math.Floor(box.Max.X-0.5)))
	t.minY = max(0, int(math.Ceil(box.Min.Y-0.5)))
	t.maxY = min(height-1, int(math.Floor(box.Max.Y-0.5)))
	if t.minX > t.maxX || t.minY > t.maxY {
		return t, setupOffscreen
	}

	t.edges[0] = edgeCoeffs(xs[1], ys[1], xs[2], ys[2])
	t.edges[1] = edgeCoeffs(xs[2], ys[2], xs[0], ys[0])
	t.edges[2] = edgeCoeffs(xs[0], ys[0], xs[1], ys[1])
	t.invArea = 1 / float64(area)
	t.surf = surf
	return t, setupOK
}

// band is the horizontal strip of the render target one worker owns.
type band struct {
	pixels []Color
	depth  []float64
	width  int
	y0, y1 int // rows [y0, y1)
}

// scan fills the pixels of t inside the band and returns how many
// passed the depth test.
func (t *triangle) scan(dst band) int {
	minY := max(t.minY, dst.y0)
	maxY := min(t.maxY, dst.y1-1)
	if minY > maxY {
		return 0
	}

	e0, e1, e2 := t.edges[0], t.edges[1], t.edges[2]
	cx := int64(t.minX)*subpixel + halfPixel
	written := 0

	for y := minY; y <= maxY; y++ {
		cy := int64(y)*subpixel + halfPixel
		w0 := e0.at(cx, cy)
		w1 := e1.at(cx, cy)
		w2 := e2.at(cx, cy)
		row := y * dst.width

		for x := t.minX; x <= t.maxX; x++ {
			if w0+e0.bias >= 0 && w1+e1.bias >= 0 && w2+e2.bias >= 0 {
				if t.fragment(dst, row+x, float64(w0), float64(w1), float64(w2)) {
					written++
				}
			}
			w0 += e0.a * subpixel
			w1 += e1.a * subpixel
			w2 += e2.a * subpixel
		}
	}
	return written
}

// fragment depth-tests and shades one covered pixel given its unnormalized
// edge values.
func (t *triangle) fragment(dst band, idx int, w0, w1, w2 float64) bool {
	l0, l1, l2 := w0*t.invArea, w1*t.invArea, w2*t.invArea

	// NDC z is affine in screen space
	z := l0*t.z[0] + l1*t.z[1] + l2*t.z[2]
	if z < -1 || z > 1 || !(z < dst.depth[idx]) {
		return false
	}

	p0, p1, p2 := l0*t.invW[0], l1*t.invW[1], l2*t.invW[2]
	sum := p0 + p1 + p2
	p0, p1, p2 = p0/sum, p1/sum, p2/sum

	a, b, c := &t.v[0], &t.v[1], &t.v[2]
	world := a.world.Scale(p0).Add(b.world.Scale(p1)).Add(c.world.Scale(p2))
	normal := a.normal.Scale(p0).Add(b.normal.Scale(p1)).Add(c.normal.Scale(p2))
	if normal.LenSq() == 0 {
		normal = t.faceNormal
	}
	if t.backFacing {
		normal = normal.Negate()
	}
	uv := a.uv.Scale(p0).Add(b.uv.Scale(p1)).Add(c.uv.Scale(p2))
	color := a.color.Scale(p0).Add(b.color.Scale(p1)).Add(c.color.Scale(p2))

	dst.depth[idx] = z
	dst.pixels[idx] = t.surf.shade(world, normal, uv, color)
	return true
}
