// softrast-window renders a model continuously into a desktop window.
//
// Controls:
//
//	W/A/S/D, arrows - Orbit the camera
//	+/-, scroll     - Zoom in/out
//	R               - Reset view
//	X               - Toggle wireframe overlay
//	O               - Toggle orthographic/perspective
//	Esc             - Quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/taigrr/softrast/internal/viewer"
	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scenefile"
)

const (
	tps         = 60
	orbitSpeed  = 0.006 // radians per tick while a key is held
	zoomStep    = 1.15
	wheelZoom   = 1.08
	windowScale = 2
)

var (
	scenePath   = flag.String("scene", "", "YAML scene file")
	ortho       = flag.Bool("ortho", false, "Orthographic projection")
	wireframe   = flag.Bool("wireframe", false, "Overlay triangle edges")
	workers     = flag.Int("workers", runtime.NumCPU(), "Parallel render bands")
	width       = flag.Int("width", 0, "Framebuffer width (default from scene)")
	height      = flag.Int("height", 0, "Framebuffer height (default from scene)")
	texturePath = flag.String("texture", "", "Path to texture image (PNG/JPG)")
	verbose     = flag.Bool("v", false, "Log per-frame statistics")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "softrast-window - Software 3D Rasterizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: softrast-window [options] <model.obj|model.glb>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() < 1 && *scenePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	f, err := loadScene()
	if err != nil {
		return err
	}
	g, err := newGame(f)
	if err != nil {
		return err
	}

	ebiten.SetWindowTitle("softrast - " + filepath.Base(f.Model))
	ebiten.SetWindowSize(f.Width*windowScale, f.Height*windowScale)
	ebiten.SetTPS(tps)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func loadScene() (*scenefile.File, error) {
	var f *scenefile.File
	if *scenePath != "" {
		var err error
		if f, err = scenefile.Load(*scenePath); err != nil {
			return nil, err
		}
		if flag.NArg() > 0 {
			if f.Model, err = filepath.Abs(flag.Arg(0)); err != nil {
				return nil, err
			}
		}
	} else {
		f = scenefile.Default(flag.Arg(0))
	}
	if *width > 0 {
		f.Width = *width
	}
	if *height > 0 {
		f.Height = *height
	}
	if *texturePath != "" {
		abs, err := filepath.Abs(*texturePath)
		if err != nil {
			return nil, err
		}
		f.Texture = abs
	}
	if *ortho {
		f.Camera.Kind = "orthographic"
	}
	if *wireframe {
		f.Material.Wireframe = true
	}
	return f, nil
}

type game struct {
	f     *scenefile.File
	scene *render.Scene
	mat   *render.Material
	fb    *render.Framebuffer
	r     *render.Rasterizer
	orbit *viewer.Orbit
	img   *ebiten.Image
}

func newGame(f *scenefile.File) (*game, error) {
	scene, err := f.Build(scenefile.Disk{})
	if err != nil {
		return nil, err
	}
	fb := render.NewFramebuffer(f.Width, f.Height)
	return &game{
		f:     f,
		scene: scene,
		mat:   scene.Objects[0].Material,
		fb:    fb,
		r:     render.NewRasterizer(fb, render.WithWorkers(*workers)),
		orbit: viewer.Follow(tps, scene.Camera, f.Camera.FOV*math.Pi/180),
		img:   ebiten.NewImage(f.Width, f.Height),
	}, nil
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleInput()

	g.orbit.Update()
	if err := g.orbit.Apply(g.scene.Camera, g.f.Aspect()); err != nil {
		return fmt.Errorf("update camera: %w", err)
	}

	start := time.Now()
	stats := g.r.Render(g.scene)
	slog.Debug("rendered frame",
		"elapsed", time.Since(start),
		"triangles", stats.Triangles,
		"rasterized", stats.Rasterized,
		"pixels", stats.Pixels,
		"tps", ebiten.ActualTPS(),
	)
	return nil
}

func (g *game) handleInput() {
	pressed := func(keys ...ebiten.Key) bool {
		for _, k := range keys {
			if ebiten.IsKeyPressed(k) {
				return true
			}
		}
		return false
	}
	if pressed(ebiten.KeyA, ebiten.KeyArrowLeft) {
		g.orbit.Nudge(-orbitSpeed, 0)
	}
	if pressed(ebiten.KeyD, ebiten.KeyArrowRight) {
		g.orbit.Nudge(orbitSpeed, 0)
	}
	if pressed(ebiten.KeyW, ebiten.KeyArrowUp) {
		g.orbit.Nudge(0, orbitSpeed)
	}
	if pressed(ebiten.KeyS, ebiten.KeyArrowDown) {
		g.orbit.Nudge(0, -orbitSpeed)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		g.orbit.Zoom(1 / zoomStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		g.orbit.Zoom(zoomStep)
	}
	if _, wy := ebiten.Wheel(); wy > 0 {
		g.orbit.Zoom(1 / wheelZoom)
	} else if wy < 0 {
		g.orbit.Zoom(wheelZoom)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.orbit.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		g.mat.ShowWireframe = !g.mat.ShowWireframe
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		cam, err := viewer.ToggleProjection(&g.f.Camera, g.f.Aspect())
		if err != nil {
			slog.Warn("switch projection", "err", err)
			return
		}
		g.scene.Camera = cam
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	g.img.WritePixels(g.fb.ToImage().Pix)
	screen.DrawImage(g.img, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.fb.Width, g.fb.Height
}
