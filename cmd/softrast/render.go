package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scenefile"
)

// Ground grid under a fitted model, which spans -1..1.
const (
	gridHeight = -1.0
	gridSize   = 4.0
	gridStep   = 0.5
)

var gridColor = render.RGB(70, 70, 80)

// renderImage renders a single frame to a PNG file.
func renderImage(f *scenefile.File, out string) error {
	scene, err := f.Build(scenefile.Disk{})
	if err != nil {
		return err
	}
	fb := render.NewFramebuffer(f.Width, f.Height)
	r := render.NewRasterizer(fb, render.WithWorkers(*workers))

	start := time.Now()
	stats := r.Render(scene)
	drawGuides(scene, fb)
	logStats(stats, time.Since(start))

	if err := fb.SavePNG(out); err != nil {
		return err
	}
	slog.Info("wrote image", "path", out, "width", f.Width, "height", f.Height)
	return nil
}

// renderTurntable spins the model one full turn about +Y over n frames and
// writes frame_0000.png, frame_0001.png, ... into dir.
func renderTurntable(f *scenefile.File, dir string, n int) error {
	scene, err := f.Build(scenefile.Disk{})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	fb := render.NewFramebuffer(f.Width, f.Height)
	r := render.NewRasterizer(fb, render.WithWorkers(*workers))

	pb := progressbar.Default(int64(n), "rendering")
	defer pb.Close()

	for i := range n {
		angle := 2 * math.Pi * float64(i) / float64(n)
		scene.Objects[0].Transform = math3d.RotateY(angle)

		start := time.Now()
		stats := r.Render(scene)
		drawGuides(scene, fb)
		logStats(stats, time.Since(start), "frame", i)

		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
		if err := fb.SavePNG(path); err != nil {
			return err
		}
		pb.Add(1)
	}
	slog.Info("wrote turntable", "dir", dir, "frames", n)
	return nil
}

func drawGuides(scene *render.Scene, fb *render.Framebuffer) {
	if *grid {
		render.NewOverlay(scene.Camera, fb).DrawGrid(gridHeight, gridSize, gridStep, gridColor)
	}
}

func logStats(stats render.FrameStats, elapsed time.Duration, args ...any) {
	slog.Debug("rendered frame", append(args,
		"elapsed", elapsed,
		"triangles", stats.Triangles,
		"rasterized", stats.Rasterized,
		"culled", stats.Culled,
		"clipped", stats.Clipped,
		"backfaces", stats.BackFaces,
		"pixels", stats.Pixels,
	)...)
}
