package render

import (
	"math"

	"github.com/taigrr/softrast/pkg/math3d"
)

// surface is the per-object shading state shared by all of its triangles.
type surface struct {
	tex     *Texture
	base    math3d.Vec4
	opts    ShadingOptions
	eye     math3d.Vec3
	ambient math3d.Vec3 // Ambient * sum of light colors
	lights  []litSource
}

// litSource is a point or directional light with its color premultiplied
// by intensity.
type litSource struct {
	point    bool
	position math3d.Vec3
	toLight  math3d.Vec3 // for directional lights
	radiance math3d.Vec3
}

func newSurface(mat *Material, lights []Light, eye math3d.Vec3) *surface {
	s := &surface{
		tex:  mat.Texture,
		base: colorVec(mat.Color),
		opts: mat.Options,
		eye:  eye,
	}
	for _, l := range lights {
		radiance := colorVec(l.Color).Vec3().Scale(l.Intensity)
		s.ambient = s.ambient.Add(radiance.Scale(mat.Options.Ambient))

		switch l.Kind {
		case LightPoint:
			s.lights = append(s.lights, litSource{point: true, position: l.Position, radiance: radiance})
		case LightDirectional:
			s.lights = append(s.lights, litSource{toLight: l.Direction.Normalize().Negate(), radiance: radiance})
		}
	}
	return s
}

// shade evaluates the illumination model at one surface point:
//
//	base = material color * texture(uv) * vertex color
//	rgb  = base * (ambient + diffuse) + specular
//
// with Lambertian diffuse and Blinn-Phong specular per light.
func (s *surface) shade(world, normal math3d.Vec3, uv math3d.Vec2, vertexColor math3d.Vec4) Color {
	base := s.base.Mul(vertexColor)
	if s.tex != nil {
		base = base.Mul(colorVec(s.tex.Sample(uv.X, uv.Y)))
	}

	light := s.ambient
	var specular math3d.Vec3

	if len(s.lights) > 0 && (s.opts.Diffuse > 0 || s.opts.Specular > 0) {
		n := normal.Normalize()
		view := s.eye.Sub(world).Normalize()

		for _, l := range s.lights {
			toLight := l.toLight
			if l.point {
				toLight = l.position.Sub(world).Normalize()
			}

			nDotL := n.Dot(toLight)
			if nDotL <= 0 {
				continue
			}
			light = light.Add(l.radiance.Scale(s.opts.Diffuse * nDotL))

			if s.opts.Specular == 0 {
				continue
			}
			k := s.opts.Specular
			if s.opts.Shininess > 0 {
				h := toLight.Add(view).Normalize()
				k *= math.Pow(math.Max(0, n.Dot(h)), s.opts.Shininess)
			}
			specular = specular.Add(l.radiance.Scale(k))
		}
	}

	rgb := base.Vec3().Mul(light).Add(specular)
	return vecColor(math3d.V4FromV3(rgb, base.W))
}

// colorVec converts an 8-bit color to 0..1 components.
func colorVec(c Color) math3d.Vec4 {
	return math3d.V4(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
}

// vecColor clamps 0..1 components and converts them to an 8-bit color.
func vecColor(v math3d.Vec4) Color {
	return Color{
		R: channel(v.X),
		G: channel(v.Y),
		B: channel(v.Z),
		A: channel(v.W),
	}
}

func channel(x float64) uint8 {
	if !(x > 0) {
		return 0
	}
	if x >= 1 {
		return 255
	}
	return uint8(math.Round(x * 255))
}
