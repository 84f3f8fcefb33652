// Package scenefile reads YAML scene descriptions and turns them into
// render.Scene values.
//
// A minimal file names only a model:
//
//	model: teapot.obj
//
// Everything else falls back to a perspective camera on the +Z axis, one
// directional light and the default material.
package scenefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth  = 320
	DefaultHeight = 240
	DefaultFOV    = 60 // degrees
	DefaultNear   = 0.1
	DefaultFar    = 100
	// DefaultDistance is how far the default camera sits from a fitted
	// model.
	DefaultDistance = 4
	// DefaultOrthoHeight is the vertical extent of the default
	// orthographic view; a fitted model spans 2 units.
	DefaultOrthoHeight = 3
)

var (
	ErrUnknownCamera = errors.New("scenefile: unknown camera kind")
	ErrUnknownLight  = errors.New("scenefile: unknown light kind")
	ErrUnknownMode   = errors.New("scenefile: unknown texture mode")
	ErrInvalidColor  = errors.New("scenefile: invalid color")
	ErrInvalidVector = errors.New("scenefile: invalid vector")
	ErrInvalidSize   = errors.New("scenefile: invalid image size")
	ErrNoModel       = errors.New("scenefile: no model")
)

// File is a decoded scene file. Zero fields take the package defaults when
// the file is built.
type File struct {
	Width      int    `yaml:"width,omitempty"`
	Height     int    `yaml:"height,omitempty"`
	Model      string `yaml:"model"`
	Texture    string `yaml:"texture,omitempty"`
	Background Color  `yaml:"background,omitempty"`
	// Fit centers the model and scales it into a 2-unit cube.
	Fit  *bool `yaml:"fit,omitempty"` // pointer to distinguish unset vs false
	Flat bool  `yaml:"flat_shading,omitempty"`

	Camera   Camera   `yaml:"camera,omitempty"`
	Lights   []Light  `yaml:"lights,omitempty"`
	Material Material `yaml:"material,omitempty"`

	// dir resolves relative asset paths; set by Load.
	dir string
}

// Camera describes the view. Kind is "perspective" (the default) or
// "orthographic".
type Camera struct {
	Kind     string  `yaml:"kind,omitempty"`
	FOV      float64 `yaml:"fov,omitempty"` // vertical, degrees
	Near     float64 `yaml:"near,omitempty"`
	Far      float64 `yaml:"far,omitempty"`
	Position Vec     `yaml:"position,omitempty"`
	Target   Vec     `yaml:"target,omitempty"`
	Up       Vec     `yaml:"up,omitempty"`
	// Extents are left, right, bottom and top of an orthographic view.
	// Without them the view is OrthoHeight tall and as wide as the image
	// aspect ratio requires.
	Extents     []float64 `yaml:"extents,omitempty"`
	OrthoHeight float64   `yaml:"ortho_height,omitempty"`
}

// Light is one light source. Kind is "point", "directional" or "ambient".
type Light struct {
	Kind      string   `yaml:"kind"`
	Position  Vec      `yaml:"position,omitempty"`
	Direction Vec      `yaml:"direction,omitempty"`
	Color     Color    `yaml:"color,omitempty"`
	Intensity *float64 `yaml:"intensity,omitempty"`
}

// Material overrides fields of render.DefaultMaterial.
type Material struct {
	Color          Color    `yaml:"color,omitempty"`
	Ambient        *float64 `yaml:"ambient,omitempty"`
	Diffuse        *float64 `yaml:"diffuse,omitempty"`
	Specular       *float64 `yaml:"specular,omitempty"`
	Shininess      *float64 `yaml:"shininess,omitempty"`
	Wireframe      bool     `yaml:"wireframe,omitempty"`
	WireframeColor Color    `yaml:"wireframe_color,omitempty"`
	DoubleSided    bool     `yaml:"double_sided,omitempty"`
	Wrap           string   `yaml:"wrap,omitempty"`   // repeat or clamp
	Filter         string   `yaml:"filter,omitempty"` // nearest or bilinear
}

// Color is [r, g, b] or [r, g, b, a] with components in 0..1.
type Color []float64

// Vec is [x, y, z].
type Vec []float64

// Load reads a scene file. Relative model and texture paths are resolved
// against the file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse decodes a scene file and fills in defaults.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Model == "" {
		return nil, ErrNoModel
	}
	f.normalize()
	return &f, nil
}

// Default returns the scene used when only a model path is given.
func Default(model string) *File {
	f := &File{Model: model}
	f.normalize()
	return f
}

func (f *File) normalize() {
	if f.Width == 0 {
		f.Width = DefaultWidth
	}
	if f.Height == 0 {
		f.Height = DefaultHeight
	}
	if f.Background == nil {
		f.Background = Color{30.0 / 255, 30.0 / 255, 40.0 / 255}
	}
	if f.Fit == nil {
		fit := true
		f.Fit = &fit
	}

	c := &f.Camera
	if c.Kind == "" {
		c.Kind = "perspective"
	}
	if c.FOV == 0 {
		c.FOV = DefaultFOV
	}
	if c.Near == 0 {
		c.Near = DefaultNear
	}
	if c.Far == 0 {
		c.Far = DefaultFar
	}
	if c.Position == nil {
		c.Position = Vec{0, 0, DefaultDistance}
	}
	if c.Target == nil {
		c.Target = Vec{0, 0, 0}
	}
	if c.Up == nil {
		c.Up = Vec{0, 1, 0}
	}
	if c.OrthoHeight == 0 {
		c.OrthoHeight = DefaultOrthoHeight
	}

	if f.Lights == nil {
		f.Lights = []Light{{Kind: "directional", Direction: Vec{-0.5, -1, -0.3}}}
	}
}

// Resolve returns path relative to the scene file's directory, or path
// itself when it is absolute or the file was not loaded from disk.
func (f *File) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || f.dir == "" {
		return path
	}
	return filepath.Join(f.dir, path)
}
