package scenefile

import (
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/models"
	"github.com/taigrr/softrast/pkg/render"
)

var (
	ErrUnsupportedFormat = errors.New("scenefile: unsupported model format")
	ErrInvalidLight      = errors.New("scenefile: invalid light")
)

// Assets loads the files a scene refers to.
type Assets interface {
	// Mesh loads a model and its embedded texture image, if any.
	Mesh(path string) (*models.Mesh, image.Image, error)
	Texture(path string, opts ...render.TextureOption) (*render.Texture, error)
}

// Disk loads assets from the file system, choosing the model loader by file
// extension.
type Disk struct{}

func (Disk) Mesh(path string) (*models.Mesh, image.Image, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
		return models.LoadGLBWithTexture(path)
	case ".obj":
		mesh, err := models.LoadOBJ(path)
		return mesh, nil, err
	default:
		return nil, nil, fmt.Errorf("%w: %q (use .obj, .glb or .gltf)", ErrUnsupportedFormat, ext)
	}
}

func (Disk) Texture(path string, opts ...render.TextureOption) (*render.Texture, error) {
	return render.LoadTexture(path, opts...)
}

// Aspect returns the image width / height.
func (f *File) Aspect() float64 {
	return float64(f.Width) / float64(f.Height)
}

// Build loads the model and texture through assets and assembles a scene
// holding a single object, the model. An explicit texture wins over one
// embedded in the model.
func (f *File) Build(assets Assets) (*render.Scene, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, f.Width, f.Height)
	}
	mat, texOpts, err := f.Material.build()
	if err != nil {
		return nil, fmt.Errorf("material: %w", err)
	}
	cam, err := f.Camera.Build(f.Aspect())
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	lights := make([]render.Light, 0, len(f.Lights))
	for i, l := range f.Lights {
		light, err := l.build()
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		lights = append(lights, light)
	}
	bg, err := f.Background.RGBA()
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	mesh, embedded, err := assets.Mesh(f.Resolve(f.Model))
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	switch {
	case f.Flat:
		mesh = mesh.CalculateNormals(false)
	case !mesh.HasNormals():
		mesh = mesh.CalculateNormals(true)
	}
	if f.Fit == nil || *f.Fit {
		mesh = Fit(mesh)
	}

	switch {
	case f.Texture != "":
		mat.Texture, err = assets.Texture(f.Resolve(f.Texture), texOpts...)
		if err != nil {
			return nil, fmt.Errorf("load texture: %w", err)
		}
	case embedded != nil:
		mat.Texture, err = render.TextureFromImage(embedded, texOpts...)
		if err != nil {
			return nil, fmt.Errorf("embedded texture: %w", err)
		}
	}

	scene := render.NewScene(cam)
	scene.Background = bg
	scene.Lights = lights
	scene.Objects = []render.Object{render.NewObject(mesh, mat)}
	return scene, nil
}

// Fit centers mesh on the origin and scales its largest dimension to 2.
func Fit(mesh *models.Mesh) *models.Mesh {
	size := mesh.Size()
	center := math3d.Translate(mesh.Center().Negate())
	maxDim := max(size.X, size.Y, size.Z)
	if maxDim <= 0 {
		return mesh.Transformed(center)
	}
	return mesh.Transformed(math3d.ScaleUniform(2 / maxDim).Mul(center))
}

// Build creates the camera for an image with the given aspect ratio.
func (c Camera) Build(aspect float64) (render.Camera, error) {
	pos, err := c.Position.vec3("position")
	if err != nil {
		return nil, err
	}
	target, err := c.Target.vec3("target")
	if err != nil {
		return nil, err
	}
	up, err := c.Up.vec3("up")
	if err != nil {
		return nil, err
	}

	switch c.Kind {
	case "perspective":
		cam, err := render.NewPerspectiveCamera(c.FOV*math.Pi/180, aspect, c.Near, c.Far)
		if err != nil {
			return nil, err
		}
		cam.SetView(pos, target, up)
		return cam, nil

	case "orthographic", "ortho":
		var left, right, bottom, top float64
		switch len(c.Extents) {
		case 4:
			left, right, bottom, top = c.Extents[0], c.Extents[1], c.Extents[2], c.Extents[3]
		case 0:
			half := c.OrthoHeight / 2
			left, right, bottom, top = -half*aspect, half*aspect, -half, half
		default:
			return nil, fmt.Errorf("%w: extents need 4 values, got %d", ErrInvalidVector, len(c.Extents))
		}
		cam, err := render.NewOrthographicCamera(left, right, bottom, top, c.Near, c.Far)
		if err != nil {
			return nil, err
		}
		cam.SetView(pos, target, up)
		return cam, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCamera, c.Kind)
}

func (l Light) build() (render.Light, error) {
	c := render.ColorWhite
	if l.Color != nil {
		var err error
		if c, err = l.Color.RGBA(); err != nil {
			return render.Light{}, err
		}
	}
	intensity := 1.0
	if l.Intensity != nil {
		intensity = *l.Intensity
	}
	if !(intensity >= 0) || math.IsInf(intensity, 0) {
		return render.Light{}, fmt.Errorf("%w: intensity %v", ErrInvalidLight, intensity)
	}

	switch l.Kind {
	case "point":
		pos, err := l.Position.vec3("position")
		if err != nil {
			return render.Light{}, err
		}
		return render.PointLight(pos, c, intensity), nil
	case "directional":
		dir, err := l.Direction.vec3("direction")
		if err != nil {
			return render.Light{}, err
		}
		if dir.LenSq() == 0 {
			return render.Light{}, fmt.Errorf("%w: zero direction", ErrInvalidLight)
		}
		return render.DirectionalLight(dir, c, intensity), nil
	case "ambient":
		return render.AmbientLight(c, intensity), nil
	}
	return render.Light{}, fmt.Errorf("%w: %q", ErrUnknownLight, l.Kind)
}

func (m Material) build() (*render.Material, []render.TextureOption, error) {
	mat := render.DefaultMaterial()
	var err error
	if m.Color != nil {
		if mat.Color, err = m.Color.RGBA(); err != nil {
			return nil, nil, err
		}
	}
	if m.WireframeColor != nil {
		if mat.WireframeColor, err = m.WireframeColor.RGBA(); err != nil {
			return nil, nil, err
		}
	}
	for _, o := range [...]struct {
		dst *float64
		src *float64
	}{
		{&mat.Options.Ambient, m.Ambient},
		{&mat.Options.Diffuse, m.Diffuse},
		{&mat.Options.Specular, m.Specular},
		{&mat.Options.Shininess, m.Shininess},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	mat.ShowWireframe = m.Wireframe
	mat.DoubleSided = m.DoubleSided
	if err := mat.Validate(); err != nil {
		return nil, nil, err
	}

	var opts []render.TextureOption
	switch m.Wrap {
	case "", "repeat":
	case "clamp":
		opts = append(opts, render.WithWrap(render.WrapClamp))
	default:
		return nil, nil, fmt.Errorf("%w: wrap %q", ErrUnknownMode, m.Wrap)
	}
	switch m.Filter {
	case "", "nearest":
	case "bilinear":
		opts = append(opts, render.WithFilter(render.FilterBilinear))
	default:
		return nil, nil, fmt.Errorf("%w: filter %q", ErrUnknownMode, m.Filter)
	}
	return &mat, opts, nil
}

// RGBA converts the color to 8 bits per channel. Alpha defaults to 1.
func (c Color) RGBA() (render.Color, error) {
	if len(c) != 3 && len(c) != 4 {
		return render.Color{}, fmt.Errorf("%w: %d components", ErrInvalidColor, len(c))
	}
	v := [4]float64{1, 1, 1, 1}
	copy(v[:], c)
	var out [4]uint8
	for i, x := range v {
		if !(x >= 0 && x <= 1) {
			return render.Color{}, fmt.Errorf("%w: component %v outside [0, 1]", ErrInvalidColor, x)
		}
		out[i] = uint8(math.Round(x * 255))
	}
	return render.RGBA(out[0], out[1], out[2], out[3]), nil
}

func (v Vec) vec3(name string) (math3d.Vec3, error) {
	if len(v) != 3 {
		return math3d.Vec3{}, fmt.Errorf("%w: %s has %d components", ErrInvalidVector, name, len(v))
	}
	out := math3d.V3(v[0], v[1], v[2])
	if !out.IsFinite() {
		return math3d.Vec3{}, fmt.Errorf("%w: %s %v", ErrInvalidVector, name, out)
	}
	return out, nil
}
