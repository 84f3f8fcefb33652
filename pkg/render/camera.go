package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/softrast/pkg/math3d"
)

// ErrInvalidFrustum is returned when camera projection parameters cannot
// describe a view volume.
var ErrInvalidFrustum = errors.New("render: invalid frustum")

// Camera supplies the view and projection transforms for a frame.
//
// Cameras do not track the render target; after a resize the caller updates
// the aspect ratio or extents before rendering the next frame.
type Camera interface {
	// ViewMatrix returns the inverse of the camera's world transform.
	ViewMatrix() math3d.Mat4
	ProjectionMatrix() math3d.Mat4
	// Position returns the eye position in world space.
	Position() math3d.Vec3
	Near() float64
	Far() float64
}

// eye holds the position and orientation shared by both camera kinds.
type eye struct {
	position math3d.Vec3
	target   math3d.Vec3
	up       math3d.Vec3
}

func defaultEye() eye {
	return eye{target: math3d.V3(0, 0, -1), up: math3d.Up()}
}

// SetView places the camera at position looking at target.
func (e *eye) SetView(position, target, up math3d.Vec3) {
	e.position, e.target, e.up = position, target, up
}

// SetPosition moves the camera, keeping its target.
func (e *eye) SetPosition(p math3d.Vec3) {
	e.position = p
}

// LookAt turns the camera toward target.
func (e *eye) LookAt(target math3d.Vec3) {
	e.target = target
}

// Position returns the eye position in world space.
func (e *eye) Position() math3d.Vec3 {
	return e.position
}

// Target returns the point the camera looks at.
func (e *eye) Target() math3d.Vec3 {
	return e.target
}

// Forward returns the unit viewing direction.
func (e *eye) Forward() math3d.Vec3 {
	f := e.target.Sub(e.position).Normalize()
	if f.LenSq() == 0 {
		return math3d.V3(0, 0, -1)
	}
	return f
}

// World returns the camera's world transform: its columns are the right,
// up and backward axes and the position.
func (e *eye) World() math3d.Mat4 {
	f := e.Forward()
	r := f.Cross(e.up).Normalize()
	if r.LenSq() == 0 {
		// up is parallel to the view direction; any perpendicular will do
		alt := math3d.V3(0, 0, -1)
		if math.Abs(f.Z) > 0.9 {
			alt = math3d.V3(1, 0, 0)
		}
		r = f.Cross(alt).Normalize()
	}
	u := r.Cross(f)

	return math3d.Mat4{
		r.X, r.Y, r.Z, 0,
		u.X, u.Y, u.Z, 0,
		-f.X, -f.Y, -f.Z, 0,
		e.position.X, e.position.Y, e.position.Z, 1,
	}
}

// ViewMatrix returns the inverse of World. It is computed on every call.
func (e *eye) ViewMatrix() math3d.Mat4 {
	// World is orthonormal, so it is always invertible.
	view, _ := e.World().Inverse()
	return view
}

// PerspectiveCamera projects through a symmetric view frustum.
type PerspectiveCamera struct {
	eye
	fovY   float64
	aspect float64
	near   float64
	far    float64
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z. fovY
// is the vertical field of view in radians.
func NewPerspectiveCamera(fovY, aspect, near, far float64) (*PerspectiveCamera, error) {
	if err := checkPerspective(fovY, aspect, near, far); err != nil {
		return nil, err
	}
	return &PerspectiveCamera{
		eye:    defaultEye(),
		fovY:   fovY,
		aspect: aspect,
		near:   near,
		far:    far,
	}, nil
}

func checkPerspective(fovY, aspect, near, far float64) error {
	switch {
	case !(fovY > 0 && fovY < math.Pi):
		return fmt.Errorf("%w: field of view %v outside (0, π)", ErrInvalidFrustum, fovY)
	case !(aspect > 0) || math.IsInf(aspect, 0):
		return fmt.Errorf("%w: aspect ratio %v", ErrInvalidFrustum, aspect)
	case !(near > 0):
		return fmt.Errorf("%w: near plane %v must be positive", ErrInvalidFrustum, near)
	case !(far > near) || math.IsInf(far, 0):
		return fmt.Errorf("%w: far plane %v must be beyond near plane %v", ErrInvalidFrustum, far, near)
	}
	return nil
}

// ProjectionMatrix returns the perspective projection.
func (c *PerspectiveCamera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Perspective(c.fovY, c.aspect, c.near, c.far)
}

// SetFOV sets the vertical field of view in radians.
func (c *PerspectiveCamera) SetFOV(fovY float64) error {
	if err := checkPerspective(fovY, c.aspect, c.near, c.far); err != nil {
		return err
	}
	c.fovY = fovY
	return nil
}

// SetAspectRatio sets width / height.
func (c *PerspectiveCamera) SetAspectRatio(aspect float64) error {
	if err := checkPerspective(c.fovY, aspect, c.near, c.far); err != nil {
		return err
	}
	c.aspect = aspect
	return nil
}

// SetClipPlanes sets the near and far plane distances.
func (c *PerspectiveCamera) SetClipPlanes(near, far float64) error {
	if err := checkPerspective(c.fovY, c.aspect, near, far); err != nil {
		return err
	}
	c.near, c.far = near, far
	return nil
}

func (c *PerspectiveCamera) FOV() float64         { return c.fovY }
func (c *PerspectiveCamera) AspectRatio() float64 { return c.aspect }
func (c *PerspectiveCamera) Near() float64        { return c.near }
func (c *PerspectiveCamera) Far() float64         { return c.far }

// OrthographicCamera projects a view-space box onto the screen without
// foreshortening.
type OrthographicCamera struct {
	eye
	left, right float64
	bottom, top float64
	near, far   float64
}

// NewOrthographicCamera creates a camera at the origin looking down -Z with
// the given view-space extents.
func NewOrthographicCamera(left, right, bottom, top, near, far float64) (*OrthographicCamera, error) {
	c := &OrthographicCamera{eye: defaultEye()}
	if err := c.SetExtents(left, right, bottom, top, near, far); err != nil {
		return nil, err
	}
	return c, nil
}

// SetExtents replaces all six extents. Every axis must have a non-zero,
// finite extent.
func (c *OrthographicCamera) SetExtents(left, right, bottom, top, near, far float64) error {
	for _, axis := range [...]struct {
		name   string
		lo, hi float64
	}{
		{"horizontal", left, right},
		{"vertical", bottom, top},
		{"depth", near, far},
	} {
		d := axis.hi - axis.lo
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("%w: %s extent [%v, %v]", ErrInvalidFrustum, axis.name, axis.lo, axis.hi)
		}
	}
	c.left, c.right = left, right
	c.bottom, c.top = bottom, top
	c.near, c.far = near, far
	return nil
}

// SetClipPlanes sets the near and far plane distances.
func (c *OrthographicCamera) SetClipPlanes(near, far float64) error {
	return c.SetExtents(c.left, c.right, c.bottom, c.top, near, far)
}

// Resize keeps the vertical extent and recomputes the horizontal extents
// around their center for a new width / height ratio.
func (c *OrthographicCamera) Resize(aspect float64) error {
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		return fmt.Errorf("%w: aspect ratio %v", ErrInvalidFrustum, aspect)
	}
	half := (c.top - c.bottom) / 2 * aspect
	center := (c.left + c.right) / 2
	return c.SetExtents(center-half, center+half, c.bottom, c.top, c.near, c.far)
}

// ProjectionMatrix returns the orthographic projection.
func (c *OrthographicCamera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Orthographic(c.left, c.right, c.bottom, c.top, c.near, c.far)
}

// Extents returns left, right, bottom and top.
func (c *OrthographicCamera) Extents() (left, right, bottom, top float64) {
	return c.left, c.right, c.bottom, c.top
}

func (c *OrthographicCamera) Near() float64 { return c.near }
func (c *OrthographicCamera) Far() float64  { return c.far }

// Orbit returns the eye position at distance from target, rotated by yaw
// around the Y axis and raised by pitch. Yaw 0 and pitch 0 place the eye on
// the +Z side of target.
func Orbit(target math3d.Vec3, distance, yaw, pitch float64) math3d.Vec3 {
	cp := math.Cos(pitch)
	return target.Add(math3d.V3(
		distance*cp*math.Sin(yaw),
		distance*math.Sin(pitch),
		distance*cp*math.Cos(yaw),
	))
}

// ViewProjection returns projection * view for cam.
func ViewProjection(cam Camera) math3d.Mat4 {
	return cam.ProjectionMatrix().Mul(cam.ViewMatrix())
}

// WorldToScreen projects a world point to pixel coordinates on a target of
// the given size. ok is false for points outside the view volume.
func WorldToScreen(cam Camera, p math3d.Vec3, width, height int) (x, y, depth float64, ok bool) {
	clip := ViewProjection(cam).MulVec4(math3d.V4FromV3(p, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}
	x, y = ndcToScreen(ndc.X, ndc.Y, width, height)
	return x, y, ndc.Z, true
}

// ndcToScreen maps NDC x and y to pixel coordinates with y pointing down.
func ndcToScreen(nx, ny float64, width, height int) (x, y float64) {
	return (nx + 1) * 0.5 * float64(width), (1 - ny) * 0.5 * float64(height)
}
