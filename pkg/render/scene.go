package render

import (
	"github.com/taigrr/softrast/pkg/math3d"
	"github.com/taigrr/softrast/pkg/models"
)

// Object places a mesh in the scene with an optional material.
type Object struct {
	Mesh *models.Mesh
	// Material may be nil, in which case DefaultMaterial is used.
	Material *Material
	// Transform is the model matrix. The zero matrix means identity.
	Transform math3d.Mat4
}

// NewObject returns an object with an identity transform.
func NewObject(mesh *models.Mesh, mat *Material) Object {
	return Object{Mesh: mesh, Material: mat, Transform: math3d.Identity()}
}

// ModelMatrix returns the object's transform, substituting identity for the
// zero matrix.
func (o Object) ModelMatrix() math3d.Mat4 {
	if o.Transform == (math3d.Mat4{}) {
		return math3d.Identity()
	}
	return o.Transform
}

// Scene is everything needed to render one frame. It is read-only while a
// Rasterizer renders it; adding or removing objects is up to the caller.
type Scene struct {
	Camera     Camera
	Objects    []Object
	Lights     []Light
	Background Color
}

// NewScene returns an empty scene with a black background.
func NewScene(cam Camera) *Scene {
	return &Scene{Camera: cam, Background: ColorBlack}
}

// MaterialFor returns the object's material or a fresh default material.
func (s *Scene) MaterialFor(obj Object) *Material {
	if obj.Material != nil {
		return obj.Material
	}
	m := DefaultMaterial()
	return &m
}
