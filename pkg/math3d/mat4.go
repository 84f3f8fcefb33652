package math3d

import "math"

// Mat4 is a 4x4 matrix stored column by column, as OpenGL expects: element
// (row r, column c) lives at index 4*c + r, and the translation of an
// affine transform sits in indices 12-14.
type Mat4 [16]float64

// columns builds an affine matrix from three basis columns and a
// translation.
func columns(x, y, z, t Vec3) Mat4 {
	return Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		t.X, t.Y, t.Z, 1,
	}
}

var (
	unitX = Vec3{1, 0, 0}
	unitY = Vec3{0, 1, 0}
	unitZ = Vec3{0, 0, 1}
)

// Identity returns the identity matrix.
func Identity() Mat4 {
	return columns(unitX, unitY, unitZ, Vec3{})
}

// Translate returns a translation by v.
func Translate(v Vec3) Mat4 {
	return columns(unitX, unitY, unitZ, v)
}

// Scale returns a per-axis scale.
func Scale(v Vec3) Mat4 {
	return columns(Vec3{X: v.X}, Vec3{Y: v.Y}, Vec3{Z: v.Z}, Vec3{})
}

// ScaleUniform scales all three axes by s.
func ScaleUniform(s float64) Mat4 {
	return Scale(V3(s, s, s))
}

// RotateX rotates counter-clockwise about +X by angle radians.
func RotateX(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	return columns(unitX, Vec3{0, c, s}, Vec3{0, -s, c}, Vec3{})
}

// RotateY rotates counter-clockwise about +Y by angle radians.
func RotateY(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	return columns(Vec3{c, 0, -s}, unitY, Vec3{s, 0, c}, Vec3{})
}

// RotateZ rotates counter-clockwise about +Z by angle radians.
func RotateZ(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	return columns(Vec3{c, s, 0}, Vec3{-s, c, 0}, unitZ, Vec3{})
}

// Rotate rotates about an arbitrary axis (Rodrigues' formula). The axis
// need not be normalized.
func Rotate(axis Vec3, angle float64) Mat4 {
	k := axis.Normalize()
	s, c := math.Sincos(angle)
	// Each basis vector e maps to e*c + (k×e)*s + k*(k·e)*(1-c).
	rot := func(e Vec3) Vec3 {
		return e.Scale(c).Add(k.Cross(e).Scale(s)).Add(k.Scale(k.Dot(e) * (1 - c)))
	}
	return columns(rot(unitX), rot(unitY), rot(unitZ), Vec3{})
}

// LookAt returns the view matrix of an eye at eye looking at center. The
// result maps eye to the origin and the view direction to -Z.
func LookAt(eye, center, up Vec3) Mat4 {
	fwd := center.Sub(eye).Normalize()
	right := fwd.Cross(up).Normalize()
	camUp := right.Cross(fwd)

	// The rotation is the transpose of the camera basis [right camUp -fwd].
	return Mat4{
		right.X, camUp.X, -fwd.X, 0,
		right.Y, camUp.Y, -fwd.Y, 0,
		right.Z, camUp.Z, -fwd.Z, 0,
		-right.Dot(eye), -camUp.Dot(eye), fwd.Dot(eye), 1,
	}
}

// Perspective maps the view-space frustum with vertical field of view fovy
// (radians) and the given width/height aspect onto the NDC cube, with
// z = -near going to -1 and z = -far to +1.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	focal := 1 / math.Tan(fovy/2)
	depth := near - far
	var m Mat4
	m[0] = focal / aspect
	m[5] = focal
	m[10] = (far + near) / depth
	m[11] = -1
	m[14] = 2 * far * near / depth
	return m
}

// Orthographic maps the view-space box [left, right] x [bottom, top] x
// [-near, -far] onto the NDC cube.
func Orthographic(left, right, bottom, top, near, far float64) Mat4 {
	w, h, d := right-left, top-bottom, far-near
	return Mat4{
		2 / w, 0, 0, 0,
		0, 2 / h, 0, 0,
		0, 0, -2 / d, 0,
		-(right + left) / w, -(top + bottom) / h, -(far + near) / d, 1,
	}
}

// Col returns column c.
func (m Mat4) Col(c int) Vec4 {
	return Vec4{m[4*c], m[4*c+1], m[4*c+2], m[4*c+3]}
}

// Row returns row r.
func (m Mat4) Row(r int) Vec4 {
	return Vec4{m[r], m[4+r], m[8+r], m[12+r]}
}

// Mul returns the product a * b, which applies b first.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for c := range 4 {
		col := a.MulVec4(b.Col(c))
		out[4*c], out[4*c+1], out[4*c+2], out[4*c+3] = col.X, col.Y, col.Z, col.W
	}
	return out
}

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// MulVec3 transforms the point v (w = 1) and divides by the resulting w.
// A zero w skips the divide.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 1)).PerspectiveDivide()
}

// MulVec3Dir transforms the direction v (w = 0), ignoring translation.
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 0)).Vec3()
}

// Transpose swaps rows and columns.
func (m Mat4) Transpose() Mat4 {
	var out Mat4
	for r := range 4 {
		for c := range 4 {
			out[4*c+r] = m[4*r+c]
		}
	}
	return out
}

// minors holds the twelve 2x2 determinants the 4x4 determinant and inverse
// are built from: s pairs the first two columns, t the last two.
type minors struct {
	s0, s1, s2, s3, s4, s5 float64
	t0, t1, t2, t3, t4, t5 float64
}

func (m *Mat4) minors() minors {
	return minors{
		s0: m[0]*m[5] - m[1]*m[4],
		s1: m[0]*m[6] - m[2]*m[4],
		s2: m[0]*m[7] - m[3]*m[4],
		s3: m[1]*m[6] - m[2]*m[5],
		s4: m[1]*m[7] - m[3]*m[5],
		s5: m[2]*m[7] - m[3]*m[6],
		t0: m[8]*m[13] - m[9]*m[12],
		t1: m[8]*m[14] - m[10]*m[12],
		t2: m[8]*m[15] - m[11]*m[12],
		t3: m[9]*m[14] - m[10]*m[13],
		t4: m[9]*m[15] - m[11]*m[13],
		t5: m[10]*m[15] - m[11]*m[14],
	}
}

func (k minors) det() float64 {
	return k.s0*k.t5 - k.s1*k.t4 + k.s2*k.t3 + k.s3*k.t2 - k.s4*k.t1 + k.s5*k.t0
}

// Determinant returns det(m).
func (m Mat4) Determinant() float64 {
	return m.minors().det()
}

// Inverse returns m⁻¹ and true, or the identity and false when m is
// singular.
func (m Mat4) Inverse() (Mat4, bool) {
	k := m.minors()
	det := k.det()
	if det == 0 {
		return Identity(), false
	}
	inv := Mat4{
		m[5]*k.t5 - m[6]*k.t4 + m[7]*k.t3,
		-m[1]*k.t5 + m[2]*k.t4 - m[3]*k.t3,
		m[13]*k.s5 - m[14]*k.s4 + m[15]*k.s3,
		-m[9]*k.s5 + m[10]*k.s4 - m[11]*k.s3,

		-m[4]*k.t5 + m[6]*k.t2 - m[7]*k.t1,
		m[0]*k.t5 - m[2]*k.t2 + m[3]*k.t1,
		-m[12]*k.s5 + m[14]*k.s2 - m[15]*k.s1,
		m[8]*k.s5 - m[10]*k.s2 + m[11]*k.s1,

		m[4]*k.t4 - m[5]*k.t2 + m[7]*k.t0,
		-m[0]*k.t4 + m[1]*k.t2 - m[3]*k.t0,
		m[12]*k.s4 - m[13]*k.s2 + m[15]*k.s0,
		-m[8]*k.s4 + m[9]*k.s2 - m[11]*k.s0,

		-m[4]*k.t3 + m[5]*k.t1 - m[6]*k.t0,
		m[0]*k.t3 - m[1]*k.t1 + m[2]*k.t0,
		-m[12]*k.s3 + m[13]*k.s1 - m[14]*k.s0,
		m[8]*k.s3 - m[9]*k.s1 + m[10]*k.s0,
	}
	for i := range inv {
		inv[i] /= det
	}
	return inv, true
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 of m, for
// transforming surface normals under non-uniform scale. A singular m
// yields its upper 3x3 unchanged.
func (m Mat4) NormalMatrix() Mat4 {
	upper := columns(m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3(), Vec3{})
	inv, ok := upper.Inverse()
	if !ok {
		return upper
	}
	return inv.Transpose()
}
