package render

import (
	"math"
	"testing"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/models"
)

// quadMesh returns a square of side 2*half in the plane z, facing +Z.
func quadMesh(tb testing.TB, half, z float64) *models.Mesh {
	tb.Helper()
	n := math3d.V3(0, 0, 1)
	verts := []models.Vertex{
		{Position: math3d.V3(-half, -half, z), Normal: n, UV: math3d.V2(0, 0)},
		{Position: math3d.V3(half, -half, z), Normal: n, UV: math3d.V2(1, 0)},
		{Position: math3d.V3(half, half, z), Normal: n, UV: math3d.V2(1, 1)},
		{Position: math3d.V3(-half, half, z), Normal: n, UV: math3d.V2(0, 1)},
	}
	m, err := models.NewMesh("quad", verts, []models.Face{models.F(0, 1, 2, 3)})
	if err != nil {
		tb.Fatal(err)
	}
	return m
}

// triangleMesh returns one triangle through the given points, all with a +Z
// normal.
func triangleMesh(tb testing.TB, a, b, c math3d.Vec3) *models.Mesh {
	tb.Helper()
	n := math3d.V3(0, 0, 1)
	verts := []models.Vertex{{Position: a, Normal: n}, {Position: b, Normal: n}, {Position: c, Normal: n}}
	m, err := models.NewMesh("tri", verts, []models.Face{models.F(0, 1, 2)})
	if err != nil {
		tb.Fatal(err)
	}
	return m
}

// orthoScene looks down -Z from z=5 at the square [-1,1]x[-1,1], lit by a
// single white ambient light.
func orthoScene(tb testing.TB) *Scene {
	tb.Helper()
	cam, err := NewOrthographicCamera(-1, 1, -1, 1, 0.1, 10)
	if err != nil {
		tb.Fatal(err)
	}
	cam.SetView(math3d.V3(0, 0, 5), math3d.V3(0, 0, 0), math3d.Up())
	scene := NewScene(cam)
	scene.Lights = []Light{AmbientLight(ColorWhite, 1)}
	return scene
}

// unlit shows its color regardless of geometry under a white ambient light
// of intensity 1.
func unlit(c Color) *Material {
	return &Material{
		Color:          c,
		WireframeColor: DefaultWireframeColor,
		Options:        ShadingOptions{Ambient: 1},
	}
}

// covered returns the indices of pixels that differ from bg.
func covered(fb *Framebuffer, bg Color) map[int]bool {
	set := make(map[int]bool)
	for i, p := range fb.Pixels {
		if p != bg {
			set[i] = true
		}
	}
	return set
}

func TestRenderUnitSquare(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	r := NewRasterizer(fb)
	scene := orthoScene(t)
	scene.Background = ColorBlue
	orange := RGB(200, 100, 50)
	scene.Objects = []Object{NewObject(quadMesh(t, 0.5, 0), unlit(orange))}

	stats := r.Render(scene)

	// NDC [-0.5, 0.5] maps to pixels 2..5 on both axes.
	for y := range 8 {
		for x := range 8 {
			want := ColorBlue
			if x >= 2 && x <= 5 && y >= 2 && y <= 5 {
				want = orange
			}
			if got := fb.GetPixel(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}

	want := FrameStats{Objects: 1, Triangles: 2, Rasterized: 2, Pixels: 16}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestSharedEdgeCoveredOnce(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
	}{
		{"axis aligned", 0},
		{"rotated", 0.3},
		{"rotated steep", 1.1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transform := math3d.RotateZ(tc.angle)

			fb := NewFramebuffer(32, 32)
			r := NewRasterizer(fb)
			whole := orthoScene(t)
			whole.Objects = []Object{{Mesh: quadMesh(t, 0.6, 0), Material: unlit(ColorWhite), Transform: transform}}
			r.Render(whole)
			wantSet := covered(fb, ColorBlack)

			// The halves sit at different depths so any pixel claimed by
			// both passes the depth test twice.
			lower := triangleMesh(t, math3d.V3(-0.6, -0.6, 0), math3d.V3(0.6, -0.6, 0), math3d.V3(0.6, 0.6, 0))
			upper := triangleMesh(t, math3d.V3(-0.6, -0.6, 0.1), math3d.V3(0.6, 0.6, 0.1), math3d.V3(-0.6, 0.6, 0.1))
			split := orthoScene(t)
			split.Objects = []Object{
				{Mesh: lower, Material: unlit(ColorRed), Transform: transform},
				{Mesh: upper, Material: unlit(ColorGreen), Transform: transform},
			}
			stats := r.Render(split)
			gotSet := covered(fb, ColorBlack)

			if len(gotSet) != len(wantSet) {
				t.Fatalf("halves cover %d pixels, whole quad %d", len(gotSet), len(wantSet))
			}
			for i := range wantSet {
				if !gotSet[i] {
					t.Errorf("pixel %d covered by the quad but by neither half", i)
				}
			}
			if stats.Pixels != len(wantSet) {
				t.Errorf("%d fragments written for %d pixels", stats.Pixels, len(wantSet))
			}
		})
	}
}

func TestDepthOrderIndependent(t *testing.T) {
	near := NewObject(quadMesh(t, 0.5, 0.5), unlit(ColorRed))
	far := NewObject(quadMesh(t, 0.8, 0), unlit(ColorBlue))

	render := func(objects ...Object) []Color {
		fb := NewFramebuffer(16, 16)
		scene := orthoScene(t)
		scene.Objects = objects
		NewRasterizer(fb).Render(scene)
		return fb.Pixels
	}

	a := render(near, far)
	b := render(far, near)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pixel %d differs with submission order: %v vs %v", i, a[i], b[i])
		}
	}
	if a[8*16+8] != ColorRed {
		t.Errorf("center = %v, want the nearer quad", a[8*16+8])
	}
	if a[2*16+2] != ColorBlue {
		t.Errorf("corner = %v, want the farther quad", a[2*16+2])
	}
}

func TestBackfaceCulling(t *testing.T) {
	n := math3d.V3(0, 0, 1)
	verts := []models.Vertex{
		{Position: math3d.V3(-0.5, -0.5, 0), Normal: n},
		{Position: math3d.V3(0.5, -0.5, 0), Normal: n},
		{Position: math3d.V3(0.5, 0.5, 0), Normal: n},
		{Position: math3d.V3(-0.5, 0.5, 0), Normal: n},
	}
	// clockwise as seen from the camera
	back, err := models.NewMesh("back", verts, []models.Face{models.F(0, 3, 2, 1)})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		opts        []Option
		doubleSided bool
		wantPixels  int
		wantBack    int
	}{
		{"culled by default", nil, false, 0, 2},
		{"double sided", nil, true, 16, 0},
		{"culling disabled", []Option{WithBackfaceCulling(false)}, false, 16, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(8, 8)
			mat := unlit(ColorWhite)
			mat.DoubleSided = tc.doubleSided
			mat.ShowWireframe = true
			scene := orthoScene(t)
			scene.Objects = []Object{NewObject(back, mat)}

			stats := NewRasterizer(fb, tc.opts...).Render(scene)
			if stats.Pixels != tc.wantPixels {
				t.Errorf("Pixels = %d, want %d", stats.Pixels, tc.wantPixels)
			}
			if stats.BackFaces != tc.wantBack {
				t.Errorf("BackFaces = %d, want %d", stats.BackFaces, tc.wantBack)
			}
			if tc.wantPixels == 0 && len(covered(fb, ColorBlack)) != 0 {
				t.Error("culled triangles left pixels behind, wireframe included")
			}
		})
	}
}

func TestDegenerateTriangleSkipped(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	scene := orthoScene(t)
	line := triangleMesh(t, math3d.V3(-0.5, 0, 0), math3d.V3(0, 0, 0), math3d.V3(0.5, 0, 0))
	scene.Objects = []Object{NewObject(line, unlit(ColorWhite))}

	stats := NewRasterizer(fb).Render(scene)
	if stats.Degenerate != 1 {
		t.Errorf("Degenerate = %d, want 1", stats.Degenerate)
	}
	if stats.Pixels != 0 || len(covered(fb, ColorBlack)) != 0 {
		t.Error("degenerate triangle drew pixels")
	}
}

func TestNearPlaneClipping(t *testing.T) {
	cam, err := NewPerspectiveCamera(math.Pi/2, 1, 0.1, 100)
	if err != nil {
		t.Fatal(err)
	}
	// A floor triangle below the camera reaching behind it.
	up := math3d.V3(0, 1, 0)
	verts := []models.Vertex{
		{Position: math3d.V3(-10, -1, 5), Normal: up},
		{Position: math3d.V3(10, -1, 5), Normal: up},
		{Position: math3d.V3(0, -1, -50), Normal: up},
	}
	floor, err := models.NewMesh("floor", verts, []models.Face{models.F(0, 1, 2)})
	if err != nil {
		t.Fatal(err)
	}

	fb := NewFramebuffer(32, 32)
	r := NewRasterizer(fb)
	scene := NewScene(cam)
	scene.Lights = []Light{AmbientLight(ColorWhite, 1)}
	scene.Objects = []Object{NewObject(floor, unlit(ColorWhite))}

	stats := r.Render(scene)
	if stats.Clipped != 1 {
		t.Errorf("Clipped = %d, want 1", stats.Clipped)
	}
	if stats.Pixels == 0 {
		t.Fatal("clipped floor drew nothing")
	}
	if got := fb.GetPixel(16, 31); got != ColorWhite {
		t.Errorf("bottom center = %v, want floor", got)
	}
	if got := fb.GetPixel(16, 0); got != ColorBlack {
		t.Errorf("top center = %v, want background", got)
	}
	for y := range fb.Height {
		for x := range fb.Width {
			if d := r.Depth(x, y); !math.IsInf(d, 1) && (math.IsNaN(d) || d < -1 || d > 1) {
				t.Fatalf("depth at (%d,%d) = %v", x, y, d)
			}
		}
	}
}

func TestPerspectiveCorrectTexture(t *testing.T) {
	const size = 64

	cam, err := NewPerspectiveCamera(math.Pi/2, 1, 0.1, 100)
	if err != nil {
		t.Fatal(err)
	}
	tex, err := NewCheckerTexture(8, 1, ColorRed, ColorBlue)
	if err != nil {
		t.Fatal(err)
	}

	// A floor strip receding from z=-2 (v=0) to z=-10 (v=1).
	up := math3d.V3(0, 1, 0)
	verts := []models.Vertex{
		{Position: math3d.V3(-1, -1, -2), Normal: up, UV: math3d.V2(0, 0)},
		{Position: math3d.V3(1, -1, -2), Normal: up, UV: math3d.V2(1, 0)},
		{Position: math3d.V3(1, -1, -10), Normal: up, UV: math3d.V2(1, 1)},
		{Position: math3d.V3(-1, -1, -10), Normal: up, UV: math3d.V2(0, 1)},
	}
	floor, err := models.NewMesh("floor", verts, []models.Face{models.F(0, 1, 2, 3)})
	if err != nil {
		t.Fatal(err)
	}
	mat := unlit(ColorWhite)
	mat.Texture = tex
	mat.DoubleSided = true

	fb := NewFramebuffer(size, size)
	scene := NewScene(cam)
	scene.Lights = []Light{AmbientLight(ColorWhite, 1)}
	scene.Objects = []Object{NewObject(floor, mat)}
	NewRasterizer(fb).Render(scene)

	nearCellEdge := func(c float64) bool {
		f := c*8 - math.Floor(c*8)
		return f < 0.05 || f > 0.95
	}

	checked := 0
	for py := range size {
		for px := range size {
			got := fb.GetPixel(px, py)
			if got == ColorBlack {
				continue
			}
			// Intersect the pixel's view ray with the floor.
			nx := (float64(px)+0.5)/size*2 - 1
			ny := 1 - (float64(py)+0.5)/size*2
			if ny >= 0 {
				t.Fatalf("pixel (%d,%d) above the horizon is covered", px, py)
			}
			dist := -1 / ny
			u := (nx*dist + 1) / 2
			v := (dist - 2) / 8
			if u < 0.01 || u > 0.99 || v < 0.01 || v > 0.99 || nearCellEdge(u) || nearCellEdge(v) {
				continue
			}
			if want := tex.Sample(u, v); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v at uv (%.3f, %.3f)", px, py, got, want, u, v)
			}
			checked++
		}
	}
	if checked < 50 {
		t.Errorf("only %d pixels checked", checked)
	}
}

func TestLighting(t *testing.T) {
	tests := []struct {
		name   string
		lights []Light
		want   Color
		tol    int
	}{
		{"no lights", nil, ColorBlack, 0},
		{"facing light", []Light{DirectionalLight(math3d.V3(0, 0, -1), ColorWhite, 1)}, ColorWhite, 0},
		{"light behind", []Light{DirectionalLight(math3d.V3(0, 0, 1), ColorWhite, 1)}, ColorBlack, 0},
		{"point light in front", []Light{PointLight(math3d.V3(0, 0, 3), ColorRed, 1)}, ColorRed, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(8, 8)
			scene := orthoScene(t)
			scene.Background = ColorGray
			scene.Lights = tc.lights
			mat := &Material{Color: ColorWhite, Options: ShadingOptions{Diffuse: 1}}
			// a tiny quad keeps the point light nearly along the normal
			scene.Objects = []Object{NewObject(quadMesh(t, 0.3, 0), mat)}

			NewRasterizer(fb).Render(scene)
			if got := fb.GetPixel(4, 4); !colorNear(got, tc.want, tc.tol) {
				t.Errorf("center = %v, want %v", got, tc.want)
			}
		})
	}
}

func colorNear(a, b Color, tol int) bool {
	d := func(x, y uint8) int { return abs(int(x) - int(y)) }
	return d(a.R, b.R) <= tol && d(a.G, b.G) <= tol && d(a.B, b.B) <= tol && d(a.A, b.A) <= tol
}

func TestWireframeOverlay(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	scene := orthoScene(t)
	mat := unlit(ColorRed)
	mat.ShowWireframe = true
	mat.WireframeColor = ColorGreen
	scene.Objects = []Object{NewObject(quadMesh(t, 0.5, 0), mat)}

	NewRasterizer(fb).Render(scene)

	// top edge, left edge and the fan diagonal
	for _, p := range [][2]int{{3, 2}, {2, 4}, {4, 4}} {
		if got := fb.GetPixel(p[0], p[1]); got != ColorGreen {
			t.Errorf("pixel %v = %v, want wireframe", p, got)
		}
	}
	if got := fb.GetPixel(3, 4); got != ColorRed {
		t.Errorf("interior pixel = %v, want fill", got)
	}
}

func TestDefaultMaterialWireframeColor(t *testing.T) {
	if got := DefaultMaterial().WireframeColor; got != ColorWhite {
		t.Errorf("default wireframe color = %v, want white", got)
	}
}

func TestObjectCulling(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	scene := orthoScene(t)
	scene.Objects = []Object{
		NewObject(quadMesh(t, 0.5, 20), nil), // behind the camera
		NewObject(quadMesh(t, 0.5, 0), nil),
		{}, // no mesh
	}

	stats := NewRasterizer(fb).Render(scene)
	if stats.Objects != 3 {
		t.Errorf("Objects = %d, want 3", stats.Objects)
	}
	if stats.CulledObjects != 1 {
		t.Errorf("CulledObjects = %d, want 1", stats.CulledObjects)
	}
	if stats.Triangles != 2 {
		t.Errorf("Triangles = %d, want 2", stats.Triangles)
	}
}

func TestParallelBandsMatchSerial(t *testing.T) {
	cam, err := NewPerspectiveCamera(math.Pi/3, 4.0/3, 0.1, 50)
	if err != nil {
		t.Fatal(err)
	}
	cam.SetView(math3d.V3(0.5, 1.5, 4), math3d.V3(0, 0, 0), math3d.Up())

	tex, err := NewCheckerTexture(4, 2, ColorWhite, ColorGray, WithFilter(FilterBilinear))
	if err != nil {
		t.Fatal(err)
	}
	textured := &Material{Texture: tex, Color: ColorWhite, Options: ShadingOptions{Ambient: 0.2, Diffuse: 0.7, Specular: 0.3, Shininess: 16}}
	wired := unlit(ColorCyan)
	wired.ShowWireframe = true

	scene := NewScene(cam)
	scene.Background = RGB(10, 20, 30)
	scene.Lights = []Light{
		AmbientLight(ColorWhite, 0.5),
		DirectionalLight(math3d.V3(-1, -1, -1), ColorWhite, 0.8),
		PointLight(math3d.V3(2, 3, 2), ColorYellow, 0.6),
	}
	for i := range 6 {
		angle := float64(i) * 0.5
		scene.Objects = append(scene.Objects, Object{
			Mesh:      quadMesh(t, 0.7, 0),
			Material:  []*Material{textured, wired, nil}[i%3],
			Transform: math3d.Translate(math3d.V3(float64(i-3)*0.4, 0, float64(-i)*0.3)).Mul(math3d.RotateY(angle)),
		})
	}

	render := func(workers int) ([]Color, FrameStats) {
		fb := NewFramebuffer(80, 60)
		stats := NewRasterizer(fb, WithWorkers(workers), WithBackfaceCulling(false)).Render(scene)
		return fb.Pixels, stats
	}

	want, wantStats := render(1)
	for _, workers := range []int{2, 4, 7, 200} {
		got, stats := render(workers)
		if stats != wantStats {
			t.Errorf("%d workers: stats %+v, want %+v", workers, stats, wantStats)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%d workers: pixel %d = %v, want %v", workers, i, got[i], want[i])
				break
			}
		}
	}
}

func TestRasterizerDepth(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	r := NewRasterizer(fb)
	if d := r.Depth(3, 3); !math.IsInf(d, 1) {
		t.Errorf("depth before render = %v, want +Inf", d)
	}

	scene := orthoScene(t)
	scene.Objects = []Object{NewObject(quadMesh(t, 0.5, 0), nil)}
	r.Render(scene)

	if d := r.Depth(3, 3); d <= -1 || d >= 1 {
		t.Errorf("depth inside quad = %v, want within (-1, 1)", d)
	}
	for _, p := range [][2]int{{0, 0}, {-1, 3}, {3, 8}} {
		if d := r.Depth(p[0], p[1]); !math.IsInf(d, 1) {
			t.Errorf("Depth%v = %v, want +Inf", p, d)
		}
	}

	r.ClearDepth()
	if d := r.Depth(3, 3); !math.IsInf(d, 1) {
		t.Errorf("depth after ClearDepth = %v, want +Inf", d)
	}
}

func TestRasterizerResize(t *testing.T) {
	r := NewRasterizer(NewFramebuffer(4, 4))
	r.Resize(NewFramebuffer(10, 6))
	if r.Width() != 10 || r.Height() != 6 {
		t.Fatalf("size = %dx%d, want 10x6", r.Width(), r.Height())
	}
	if !math.IsInf(r.Depth(9, 5), 1) {
		t.Error("resized depth buffer not cleared")
	}
}

func TestRenderWithoutCamera(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	r := NewRasterizer(fb)
	stats := r.Render(&Scene{Background: ColorRed})
	if stats != (FrameStats{}) {
		t.Errorf("stats = %+v, want zero", stats)
	}
	if got := fb.GetPixel(2, 2); got != ColorRed {
		t.Errorf("pixel = %v, want background", got)
	}
	if stats := r.Render(nil); stats != (FrameStats{}) {
		t.Errorf("nil scene stats = %+v", stats)
	}
}

func benchmarkScene(b *testing.B) *Scene {
	cam, err := NewPerspectiveCamera(math.Pi/3, 16.0/9, 0.1, 100)
	if err != nil {
		b.Fatal(err)
	}
	cam.SetView(math3d.V3(0, 2, 6), math3d.V3(0, 0, 0), math3d.Up())
	scene := NewScene(cam)
	scene.Lights = []Light{AmbientLight(ColorWhite, 1), DirectionalLight(math3d.V3(-1, -2, -1), ColorWhite, 1)}
	for i := range 50 {
		scene.Objects = append(scene.Objects, Object{
			Mesh:      quadMesh(b, 0.5, 0),
			Transform: math3d.Translate(math3d.V3(float64(i%10)-4.5, float64(i/10)-2, 0)).Mul(math3d.RotateY(float64(i) * 0.1)),
		})
	}
	return scene
}

func BenchmarkRender(b *testing.B) {
	scene := benchmarkScene(b)
	r := NewRasterizer(NewFramebuffer(320, 180))

	for b.Loop() {
		r.Render(scene)
	}
}

func BenchmarkRenderParallel(b *testing.B) {
	scene := benchmarkScene(b)
	r := NewRasterizer(NewFramebuffer(320, 180), WithWorkers(8))

	for b.Loop() {
		r.Render(scene)
	}
}
