package main

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/softrast/internal/viewer"
	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scenefile"
)

const (
	nudgeStrength = 0.04 // radians per frame added per key press
	zoomStep      = 1.15
)

// hud tracks the frame rate shown in the status line.
type hud struct {
	title     string
	polyCount int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

func (h *hud) update() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// draw writes the status line on the bottom row of area.
func (h *hud) draw(scr uv.Screen, area uv.Rectangle, cam scenefile.Camera, mat *render.Material) {
	mode := cam.Kind
	if mat.ShowWireframe {
		mode += " +wire"
	}
	if *grid {
		mode += " +grid"
	}
	line := fmt.Sprintf(" %s | %d tris | %s | %.0f fps ", h.title, h.polyCount, mode, h.fps)
	style := uv.Style{Fg: color.RGBA{220, 220, 220, 255}, Bg: color.RGBA{0, 0, 0, 255}}
	y := area.Max.Y - 1
	for i, r := range line {
		x := area.Min.X + i
		if x >= area.Max.X {
			break
		}
		scr.SetCell(x, y, &uv.Cell{Content: string(r), Width: 1, Style: style})
	}
}

func runTerminal(f *scenefile.File) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	// Each cell holds two pixels stacked vertically.
	f.Width, f.Height = width, height*2
	scene, err := f.Build(scenefile.Disk{})
	if err != nil {
		return err
	}
	mesh := scene.Objects[0].Mesh
	mat := scene.Objects[0].Material
	slog.Info("loaded model", "path", filepath.Base(f.Model), "vertices", mesh.VertexCount(), "triangles", mesh.TriangleCount())

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fb := render.NewFramebuffer(width, height*2)
	r := render.NewRasterizer(fb, render.WithWorkers(*workers))
	fps := max(*targetFPS, 1)
	orbit := viewer.Follow(fps, scene.Camera, f.Camera.FOV*math.Pi/180)
	status := &hud{title: filepath.Base(f.Model), polyCount: mesh.TriangleCount(), fpsTime: time.Now()}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	events := term.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				fb = render.NewFramebuffer(width, height*2)
				r.Resize(fb)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "ctrl+c"):
					return nil
				case ev.MatchString("w", "up"):
					orbit.Nudge(0, nudgeStrength)
				case ev.MatchString("s", "down"):
					orbit.Nudge(0, -nudgeStrength)
				case ev.MatchString("a", "left"):
					orbit.Nudge(-nudgeStrength, 0)
				case ev.MatchString("d", "right"):
					orbit.Nudge(nudgeStrength, 0)
				case ev.MatchString("space"):
					orbit.Nudge((rand.Float64()-0.5)*0.5, (rand.Float64()-0.5)*0.2)
				case ev.MatchString("+", "="):
					orbit.Zoom(1 / zoomStep)
				case ev.MatchString("-", "_"):
					orbit.Zoom(zoomStep)
				case ev.MatchString("r"):
					orbit.Reset()
				case ev.MatchString("x"):
					mat.ShowWireframe = !mat.ShowWireframe
				case ev.MatchString("g"):
					*grid = !*grid
				case ev.MatchString("o"):
					cam, err := viewer.ToggleProjection(&f.Camera, float64(fb.Width)/float64(fb.Height))
					if err != nil {
						slog.Warn("switch projection", "err", err)
						break
					}
					scene.Camera = cam
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					orbit.Zoom(1 / zoomStep)
				case uv.MouseWheelDown:
					orbit.Zoom(zoomStep)
				}
			}

		case <-ticker.C:
			orbit.Update()
			if err := orbit.Apply(scene.Camera, float64(fb.Width)/float64(fb.Height)); err != nil {
				return fmt.Errorf("update camera: %w", err)
			}

			start := time.Now()
			stats := r.Render(scene)
			drawGuides(scene, fb)
			logStats(stats, time.Since(start))

			area := uv.Rect(0, 0, width, height)
			fb.Draw(term, area)
			status.update()
			status.draw(term, area, f.Camera, mat)
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}
