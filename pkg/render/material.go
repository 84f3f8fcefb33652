package render

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMaterial is returned by Material.Validate.
var ErrInvalidMaterial = errors.New("render: invalid material")

// DefaultWireframeColor is used by DefaultMaterial.
var DefaultWireframeColor = ColorWhite

// ShadingOptions are the coefficients of the local illumination model. They
// need not sum to one; shaded colors are clamped when written.
type ShadingOptions struct {
	Ambient   float64
	Diffuse   float64
	Specular  float64
	Shininess float64 // Blinn-Phong exponent; 0 disables angular falloff
}

// Material describes how an object's surface is shaded.
type Material struct {
	// Texture is optional and may be shared between materials.
	Texture        *Texture
	Color          Color
	ShowWireframe  bool
	WireframeColor Color
	Options        ShadingOptions
	// DoubleSided keeps back faces when the rasterizer culls them.
	DoubleSided bool
}

// DefaultMaterial returns a white, mostly diffuse material.
func DefaultMaterial() Material {
	return Material{
		Color:          ColorWhite,
		WireframeColor: DefaultWireframeColor,
		Options: ShadingOptions{
			Ambient:   0.1,
			Diffuse:   0.9,
			Specular:  0,
			Shininess: 32,
		},
	}
}

// Validate reports negative or non-finite shading coefficients.
func (m Material) Validate() error {
	for _, f := range [...]struct {
		name string
		v    float64
	}{
		{"ambient", m.Options.Ambient},
		{"diffuse", m.Options.Diffuse},
		{"specular", m.Options.Specular},
		{"shininess", m.Options.Shininess},
	} {
		if !(f.v >= 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s %v", ErrInvalidMaterial, f.name, f.v)
		}
	}
	return nil
}
