// Package models provides the triangle mesh data model and loaders for
// GLB and Wavefront OBJ files.
package models

import (
	"errors"
	"fmt"
	"iter"

	"github.com/taigrr/softrast/pkg/bounds"
	"github.com/taigrr/softrast/pkg/math3d"
)

// ErrFaceIndex is returned when a face references a vertex that does not
// exist.
var ErrFaceIndex = errors.New("models: face index out of range")

// White is the vertex color assumed for meshes without color data.
var White = math3d.V4(1, 1, 1, 1)

// Vertex holds all vertex attributes. Color is RGBA in 0..1.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
	Color    math3d.Vec4
}

// Face is an ordered polygon of vertex indices. Faces with more than three
// indices are fanned from the first index when traversed; faces with fewer
// than three are skipped.
type Face struct {
	Indices []int
}

// F is shorthand for building a Face.
func F(indices ...int) Face {
	return Face{Indices: indices}
}

// Triangle is one triangle produced by mesh traversal.
type Triangle struct {
	V [3]Vertex
}

// Mesh is an immutable indexed polygon mesh. Use NewMesh to build one;
// operations that change geometry return a new Mesh.
type Mesh struct {
	Name string

	vertices  []Vertex
	faces     []Face
	hasColors bool
	bounds    bounds.AABB
	triangles int
}

// MeshOption configures NewMesh.
type MeshOption func(*Mesh)

// WithColors marks the vertex colors as meaningful. Without it every vertex
// color is replaced by opaque white.
func WithColors() MeshOption {
	return func(m *Mesh) { m.hasColors = true }
}

// NewMesh validates faces against the vertex list and builds a mesh. The
// vertex and face slices are copied.
func NewMesh(name string, vertices []Vertex, faces []Face, opts ...MeshOption) (*Mesh, error) {
	m := &Mesh{Name: name}
	for _, opt := range opts {
		opt(m)
	}

	for fi, f := range faces {
		for k, idx := range f.Indices {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("face %d index %d: vertex %d of %d: %w",
					fi, k, idx, len(vertices), ErrFaceIndex)
			}
		}
		if n := len(f.Indices); n >= 3 {
			m.triangles += n - 2
		}
	}

	m.vertices = make([]Vertex, len(vertices))
	copy(m.vertices, vertices)
	if !m.hasColors {
		for i := range m.vertices {
			m.vertices[i].Color = White
		}
	}

	m.faces = make([]Face, len(faces))
	for i, f := range faces {
		m.faces[i] = Face{Indices: append([]int(nil), f.Indices...)}
	}

	m.bounds = boundsOf(m.vertices)
	return m, nil
}

// ForEachTriangle visits every triangle in face order. Polygons are fanned
// as (v0, vi, vi+1). Traversal stops the first time visit returns false.
func (m *Mesh) ForEachTriangle(visit func(a, b, c Vertex) bool) {
	for _, f := range m.faces {
		idx := f.Indices
		for i := 1; i+1 < len(idx); i++ {
			if !visit(m.vertices[idx[0]], m.vertices[idx[i]], m.vertices[idx[i+1]]) {
				return
			}
		}
	}
}

// Triangles returns an iterator over the same sequence as ForEachTriangle.
func (m *Mesh) Triangles() iter.Seq[Triangle] {
	return func(yield func(Triangle) bool) {
		m.ForEachTriangle(func(a, b, c Vertex) bool {
			return yield(Triangle{V: [3]Vertex{a, b, c}})
		})
	}
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) Vertex {
	return m.vertices[i]
}

// Face returns a copy of face i.
func (m *Mesh) Face(i int) Face {
	return Face{Indices: append([]int(nil), m.faces[i].Indices...)}
}

// Bounds returns the model-space bounding box. An empty mesh has a zero box.
func (m *Mesh) Bounds() bounds.AABB {
	return m.bounds
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.bounds.Center()
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.bounds.Size()
}

// HasColors reports whether vertex colors came from the source data.
func (m *Mesh) HasColors() bool {
	return m.hasColors
}

// TriangleCount returns the number of triangles after fan triangulation.
func (m *Mesh) TriangleCount() int {
	return m.triangles
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.faces)
}

// withVertices returns a mesh sharing m's faces with a replacement vertex
// list of the same length.
func (m *Mesh) withVertices(vertices []Vertex) *Mesh {
	return &Mesh{
		Name:      m.Name,
		vertices:  vertices,
		faces:     m.faces,
		hasColors: m.hasColors,
		bounds:    boundsOf(vertices),
		triangles: m.triangles,
	}
}

func boundsOf(vertices []Vertex) bounds.AABB {
	if len(vertices) == 0 {
		return bounds.AABB{}
	}
	pts := make([]math3d.Vec3, len(vertices))
	for i, v := range vertices {
		pts[i] = v.Position
	}
	b, _ := bounds.NewAABB(pts...)
	return b
}
