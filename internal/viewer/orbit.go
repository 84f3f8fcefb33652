// Package viewer holds the interactive camera controls shared by the
// terminal and window front ends.
package viewer

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/render"
)

// maxPitch keeps the eye just short of the poles, where the up vector and
// the view direction would line up.
const maxPitch = math.Pi/2 - 0.01

// Axis tracks an angle and its angular velocity. The velocity decays toward
// zero on a critically damped spring, so a nudge coasts to a stop.
type Axis struct {
	Position float64
	Velocity float64

	spring harmonica.Spring
	accel  float64 // spring velocity of Velocity
}

// NewAxis creates an axis updated fps times per second.
func NewAxis(fps int) Axis {
	// Frequency 4 = moderate speed, damping 1 = no overshoot
	return Axis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

// Update advances the angle by one frame.
func (a *Axis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

// Orbit moves an eye around a target point. Rotation coasts on Axis
// springs and zoom eases toward its goal distance.
type Orbit struct {
	Target math3d.Vec3
	Yaw    Axis
	Pitch  Axis
	// FOV is the vertical field of view in radians. Orthographic cameras
	// are sized to show what a perspective camera with this FOV shows at
	// the target.
	FOV float64

	fps      int
	distance float64
	distVel  float64
	goal     float64
	zoom     harmonica.Spring

	home struct{ distance, yaw, pitch float64 }
}

// NewOrbit creates an orbit around target starting at eye.
func NewOrbit(fps int, target, eye math3d.Vec3, fov float64) *Orbit {
	fps = max(fps, 1)
	o := &Orbit{
		Target: target,
		FOV:    fov,
		fps:    fps,
		zoom:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
	d := eye.Sub(target)
	o.home.distance = max(d.Len(), 1e-3)
	o.home.yaw = math.Atan2(d.X, d.Z)
	o.home.pitch = math.Asin(math.Max(-1, math.Min(1, d.Y/o.home.distance)))
	o.Reset()
	return o
}

// Follow creates an orbit that starts from cam's current view.
func Follow(fps int, cam render.Camera, fov float64) *Orbit {
	var target math3d.Vec3
	if t, ok := cam.(interface{ Target() math3d.Vec3 }); ok {
		target = t.Target()
	}
	return NewOrbit(fps, target, cam.Position(), fov)
}

// Reset returns to the starting eye position and stops all motion.
func (o *Orbit) Reset() {
	o.Yaw = NewAxis(o.fps)
	o.Pitch = NewAxis(o.fps)
	o.Yaw.Position = o.home.yaw
	o.Pitch.Position = o.home.pitch
	o.distance, o.goal, o.distVel = o.home.distance, o.home.distance, 0
}

// Nudge adds angular velocity in radians per frame.
func (o *Orbit) Nudge(yaw, pitch float64) {
	o.Yaw.Velocity += yaw
	o.Pitch.Velocity += pitch
}

// Zoom multiplies the goal distance by factor, staying within 1/10 and 10
// times the starting distance.
func (o *Orbit) Zoom(factor float64) {
	if !(factor > 0) {
		return
	}
	o.goal = math.Max(o.home.distance/10, math.Min(o.home.distance*10, o.goal*factor))
}

// Update advances the springs by one frame.
func (o *Orbit) Update() {
	o.Yaw.Update()
	o.Pitch.Update()
	if o.Pitch.Position > maxPitch || o.Pitch.Position < -maxPitch {
		o.Pitch.Position = math.Max(-maxPitch, math.Min(maxPitch, o.Pitch.Position))
		o.Pitch.Velocity = 0
	}
	o.distance, o.distVel = o.zoom.Update(o.distance, o.distVel, o.goal)
}

// Distance returns the current eye distance from the target.
func (o *Orbit) Distance() float64 {
	return o.distance
}

// Eye returns the current eye position.
func (o *Orbit) Eye() math3d.Vec3 {
	return render.Orbit(o.Target, o.distance, o.Yaw.Position, o.Pitch.Position)
}

// Apply points cam at the target from the current eye position and fits
// its projection to aspect.
func (o *Orbit) Apply(cam render.Camera, aspect float64) error {
	eye := o.Eye()
	switch c := cam.(type) {
	case *render.PerspectiveCamera:
		c.SetView(eye, o.Target, math3d.Up())
		return c.SetAspectRatio(aspect)
	case *render.OrthographicCamera:
		c.SetView(eye, o.Target, math3d.Up())
		half := o.distance * math.Tan(o.FOV/2)
		return c.SetExtents(-half*aspect, half*aspect, -half, half, c.Near(), c.Far())
	}
	return nil
}
