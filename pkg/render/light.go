package render

import (
	"fmt"

	"github.com/taigrr/softrast/pkg/math3d"
)

// LightKind selects how a Light contributes to shading.
type LightKind int

const (
	// LightPoint shines from Position in every direction.
	LightPoint LightKind = iota
	// LightDirectional shines along Direction from infinitely far away.
	LightDirectional
	// LightAmbient only contributes the ambient term.
	LightAmbient
)

func (k LightKind) String() string {
	switch k {
	case LightPoint:
		return "point"
	case LightDirectional:
		return "directional"
	case LightAmbient:
		return "ambient"
	}
	return fmt.Sprintf("LightKind(%d)", int(k))
}

// Light is a light source. Every kind adds Ambient * Color * Intensity;
// point and directional lights also add diffuse and specular terms. There
// is no distance attenuation.
type Light struct {
	Kind      LightKind
	Position  math3d.Vec3
	Direction math3d.Vec3 // direction the light travels
	Color     Color
	Intensity float64
}

// PointLight returns a point light at pos.
func PointLight(pos math3d.Vec3, c Color, intensity float64) Light {
	return Light{Kind: LightPoint, Position: pos, Color: c, Intensity: intensity}
}

// DirectionalLight returns a light travelling along dir.
func DirectionalLight(dir math3d.Vec3, c Color, intensity float64) Light {
	return Light{Kind: LightDirectional, Direction: dir.Normalize(), Color: c, Intensity: intensity}
}

// AmbientLight returns a light with no direction.
func AmbientLight(c Color, intensity float64) Light {
	return Light{Kind: LightAmbient, Color: c, Intensity: intensity}
}
