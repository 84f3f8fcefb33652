// softrast - software rasterizer for OBJ and GLB models.
// Renders a model to a PNG, to a numbered turntable sequence, or live in the
// terminal.
//
// Terminal controls:
//
//	W/A/S/D, arrows - Orbit the camera
//	+/-, scroll     - Zoom in/out
//	Space           - Random spin
//	R               - Reset view
//	X               - Toggle wireframe overlay
//	O               - Toggle orthographic/perspective
//	G               - Toggle ground grid
//	Esc             - Quit
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/taigrr/softrast/pkg/scenefile"
)

var (
	outPath     = flag.String("o", "", "Output PNG, or output directory with -frames (default out.png or frames/)")
	scenePath   = flag.String("scene", "", "YAML scene file")
	frameCount  = flag.Int("frames", 0, "Render a turntable of N frames")
	termMode    = flag.Bool("term", false, "Interactive terminal viewer")
	ortho       = flag.Bool("ortho", false, "Orthographic projection")
	wireframe   = flag.Bool("wireframe", false, "Overlay triangle edges")
	grid        = flag.Bool("grid", false, "Draw a ground grid under the model")
	workers     = flag.Int("workers", runtime.NumCPU(), "Parallel render bands")
	width       = flag.Int("width", 0, "Image width (default from scene)")
	height      = flag.Int("height", 0, "Image height (default from scene)")
	texturePath = flag.String("texture", "", "Path to texture image (PNG/JPG)")
	bgColor     = flag.String("bg", "", "Background color (R,G,B)")
	targetFPS   = flag.Int("fps", 30, "Target FPS for the terminal viewer")
	verbose     = flag.Bool("v", false, "Log per-frame statistics")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "softrast - Software 3D Rasterizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: softrast [options] <model.obj|model.glb>\n")
		fmt.Fprintf(os.Stderr, "       softrast [options] -scene scene.yaml\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nTerminal controls:\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Orbit\n")
		fmt.Fprintf(os.Stderr, "  +/-, Scroll - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  O           - Toggle orthographic\n")
		fmt.Fprintf(os.Stderr, "  G           - Toggle grid\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
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
	switch {
	case *termMode:
		return runTerminal(f)
	case *frameCount > 0:
		dir := *outPath
		if dir == "" {
			dir = "frames"
		}
		return renderTurntable(f, dir, *frameCount)
	default:
		out := *outPath
		if out == "" {
			out = "out.png"
		}
		return renderImage(f, out)
	}
}

// loadScene reads the scene file, or builds the default scene around the
// model argument, then applies command-line overrides.
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
	if *bgColor != "" {
		bg, err := parseBackground(*bgColor)
		if err != nil {
			return nil, err
		}
		f.Background = bg
	}
	return f, nil
}

// parseBackground reads an "R,G,B" triple of 0-255 values.
func parseBackground(s string) (scenefile.Color, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("background %q: %w", s, err)
	}
	return scenefile.Color{float64(r) / 255, float64(g) / 255, float64(b) / 255}, nil
}
