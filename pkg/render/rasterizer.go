package render

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/softrast/pkg/bounds"
	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/models"
)

// FrameStats counts what happened to the geometry of one frame.
type FrameStats struct {
	Objects       int // objects submitted
	CulledObjects int // objects whose bounds were outside the view frustum
	Triangles     int // triangles traversed
	Culled        int // triangles or clipped pieces outside the view volume
	Clipped       int // triangles cut by the near plane or guard band
	BackFaces     int // screen triangles culled as back faces
	Degenerate    int // screen triangles with zero area after snapping
	Rasterized    int // screen triangles scan converted
	Pixels        int // fragments that passed the depth test
}

// Rasterizer renders scenes into a framebuffer it owns together with a
// depth buffer. A Rasterizer must not be used from several goroutines at
// once; parallelism is internal (see WithWorkers).
type Rasterizer struct {
	fb      *Framebuffer
	zbuffer []float64

	workers       int
	cullBackfaces bool

	// reused between frames
	tris    []triangle
	wires   []wireSegment
	scratch [2][]clipVertex
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithWorkers splits the framebuffer into n horizontal bands rendered in
// parallel. The output is identical to n = 1.
func WithWorkers(n int) Option {
	return func(r *Rasterizer) { r.workers = max(1, n) }
}

// WithBackfaceCulling enables or disables culling of triangles that are
// clockwise in normalized device coordinates. It is enabled by default;
// materials with DoubleSided are never culled.
func WithBackfaceCulling(enabled bool) Option {
	return func(r *Rasterizer) { r.cullBackfaces = enabled }
}

// NewRasterizer creates a rasterizer drawing into fb.
func NewRasterizer(fb *Framebuffer, opts ...Option) *Rasterizer {
	r := &Rasterizer{
		workers:       1,
		cullBackfaces: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Resize(fb)
	return r
}

// Framebuffer returns the render target.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// Resize switches to a new render target and reallocates the depth buffer.
// Cameras are not updated; adjust their aspect ratio or extents separately.
func (r *Rasterizer) Resize(fb *Framebuffer) {
	r.fb = fb
	if n := fb.Width * fb.Height; cap(r.zbuffer) >= n {
		r.zbuffer = r.zbuffer[:n]
	} else {
		r.zbuffer = make([]float64, n)
	}
	r.ClearDepth()
}

// Width returns the render target width.
func (r *Rasterizer) Width() int {
	return r.fb.Width
}

// Height returns the render target height.
func (r *Rasterizer) Height() int {
	return r.fb.Height
}

// Clear fills the framebuffer with bg and resets the depth buffer.
func (r *Rasterizer) Clear(bg Color) {
	r.fb.Clear(bg)
	r.ClearDepth()
}

// ClearDepth resets every depth value to +Inf.
func (r *Rasterizer) ClearDepth() {
	if len(r.zbuffer) == 0 {
		return
	}
	r.zbuffer[0] = math.Inf(1)
	for filled := 1; filled < len(r.zbuffer); filled *= 2 {
		copy(r.zbuffer[filled:], r.zbuffer[:filled])
	}
}

// Depth returns the NDC depth stored at (x, y): +Inf where nothing was drawn
// or outside the target.
func (r *Rasterizer) Depth(x, y int) float64 {
	if x < 0 || x >= r.fb.Width || y < 0 || y >= r.fb.Height {
		return math.Inf(1)
	}
	return r.zbuffer[y*r.fb.Width+x]
}

// Render clears the target to the scene background and draws every object.
// It never fails: triangles that cannot be drawn are skipped and counted.
func (r *Rasterizer) Render(scene *Scene) FrameStats {
	var stats FrameStats
	if scene == nil {
		return stats
	}
	if len(r.zbuffer) != r.fb.Width*r.fb.Height {
		r.Resize(r.fb)
	}
	r.Clear(scene.Background)
	if scene.Camera == nil || len(r.zbuffer) == 0 {
		return stats
	}

	r.tris = r.tris[:0]
	r.wires = r.wires[:0]
	r.setup(scene, &stats)

	stats.Rasterized = len(r.tris)
	stats.Pixels = r.rasterize()

	for _, w := range r.wires {
		r.fb.DrawLine(w.x0, w.y0, w.x1, w.y1, w.color)
	}
	return stats
}

// setup transforms, culls and clips every triangle of the scene, appending
// the screen triangles to r.tris in submission order.
func (r *Rasterizer) setup(scene *Scene, stats *FrameStats) {
	cam := scene.Camera
	viewProj := ViewProjection(cam)
	frustum := bounds.FrustumFromMatrix(viewProj)
	viewport := r.fb.Bounds()
	eye := cam.Position()

	for _, obj := range scene.Objects {
		stats.Objects++
		if obj.Mesh == nil || obj.Mesh.VertexCount() == 0 {
			continue
		}

		model := obj.ModelMatrix()
		if !frustum.IntersectsAABB(obj.Mesh.Bounds().Transform(model)) {
			stats.CulledObjects++
			continue
		}

		mat := scene.MaterialFor(obj)
		surf := newSurface(mat, scene.Lights, eye)
		cullBack := r.cullBackfaces && !mat.DoubleSided
		mvp := viewProj.Mul(model)
		normalMat := model.NormalMatrix()

		toClip := func(v models.Vertex) clipVertex {
			return clipVertex{
				pos:    mvp.MulVec4(math3d.V4FromV3(v.Position, 1)),
				world:  model.MulVec3(v.Position),
				normal: normalMat.MulVec3Dir(v.Normal),
				uv:     v.UV,
				color:  v.Color,
			}
		}

		obj.Mesh.ForEachTriangle(func(a, b, c models.Vertex) bool {
			stats.Triangles++
			tri := [3]clipVertex{toClip(a), toClip(b), toClip(c)}

			poly := clipPolygon(tri[:], &r.scratch)
			if len(poly) < 3 || outsideView(poly) {
				stats.Culled++
				return true
			}
			if len(poly) != 3 || &poly[0] != &tri[0] {
				stats.Clipped++
			}

			visible := false
			for i := 1; i+1 < len(poly); i++ {
				t, res := setupTriangle([3]clipVertex{poly[0], poly[i], poly[i+1]}, surf, cullBack, viewport)
				switch res {
				case setupOK:
					r.tris = append(r.tris, t)
					visible = true
				case setupDegenerate:
					stats.Degenerate++
				case setupBackFace:
					stats.BackFaces++
				case setupOffscreen:
					stats.Culled++
				}
			}
			if visible && mat.ShowWireframe {
				r.addWireframe(tri, mat.WireframeColor)
			}
			return true
		})
	}
}

// rasterize scans r.tris into the framebuffer, one band per worker, and
// returns the number of fragments written.
func (r *Rasterizer) rasterize() int {
	height := r.fb.Height
	n := min(r.workers, height)
	if n <= 1 {
		return r.scanBand(0, height)
	}

	written := make([]int, n)
	var g errgroup.Group
	for i := range n {
		y0 := height * i / n
		y1 := height * (i + 1) / n
		g.Go(func() error {
			written[i] = r.scanBand(y0, y1)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, w := range written {
		total += w
	}
	return total
}

func (r *Rasterizer) scanBand(y0, y1 int) int {
	dst := band{
		pixels: r.fb.Pixels,
		depth:  r.zbuffer,
		width:  r.fb.Width,
		y0:     y0,
		y1:     y1,
	}
	written := 0
	for i := range r.tris {
		written += r.tris[i].scan(dst)
	}
	return written
}
