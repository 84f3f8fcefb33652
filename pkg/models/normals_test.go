package models

import (
	"math"
	"testing"

	"github.com/taigrr/softrast/pkg/math3d"
)

func approxVec(a, b math3d.Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

// tent returns two coplanar triangles in the XZ plane sharing the edge 0-1.
func tent(t *testing.T) *Mesh {
	t.Helper()
	verts := vertsAt(
		math3d.V3(0, 0, 0), math3d.V3(0, 0, -1),
		math3d.V3(1, 0, 0), math3d.V3(-1, 0, 0),
	)
	// both faces point up (+Y) when viewed counter-clockwise from above
	m, err := NewMesh("tent", verts, []Face{F(0, 2, 1), F(0, 1, 3)})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestCalculateNormalsSmooth(t *testing.T) {
	src := tent(t)
	m := src.CalculateNormals(true)

	if m.VertexCount() != src.VertexCount() {
		t.Errorf("smooth normals changed vertex count: %d", m.VertexCount())
	}
	for i := range m.VertexCount() {
		if n := m.Vertex(i).Normal; !approxVec(n, math3d.V3(0, 1, 0)) {
			t.Errorf("vertex %d normal = %v, want +Y", i, n)
		}
	}
	if src.HasNormals() {
		t.Error("source mesh was modified")
	}
}

func TestCalculateNormalsFlatSplitsVertices(t *testing.T) {
	verts := vertsAt(
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(0, 0, 1),
	)
	// two faces at right angles sharing the edge 0-1
	src, err := NewMesh("corner", verts, []Face{F(0, 1, 2), F(0, 3, 1)})
	if err != nil {
		t.Fatal(err)
	}

	m := src.CalculateNormals(false)
	if m.VertexCount() != 6 {
		t.Fatalf("VertexCount = %d, want 6", m.VertexCount())
	}

	var normals []math3d.Vec3
	m.ForEachTriangle(func(a, b, c Vertex) bool {
		if a.Normal != b.Normal || b.Normal != c.Normal {
			t.Errorf("face vertices have different normals: %v %v %v", a.Normal, b.Normal, c.Normal)
		}
		normals = append(normals, a.Normal)
		return true
	})

	if !approxVec(normals[0], math3d.V3(0, 0, 1)) {
		t.Errorf("first face normal = %v, want +Z", normals[0])
	}
	if !approxVec(normals[1], math3d.V3(0, 1, 0)) {
		t.Errorf("second face normal = %v, want +Y", normals[1])
	}
	if m.TriangleCount() != src.TriangleCount() {
		t.Errorf("TriangleCount = %d, want %d", m.TriangleCount(), src.TriangleCount())
	}
}

func TestTransformed(t *testing.T) {
	src := tent(t).CalculateNormals(true)

	m := src.Transformed(math3d.Translate(math3d.V3(0, 5, 0)).Mul(math3d.Scale(math3d.V3(2, 1, 1))))

	if got := m.Vertex(2).Position; !approxVec(got, math3d.V3(2, 5, 0)) {
		t.Errorf("vertex 2 = %v, want (2, 5, 0)", got)
	}
	if got := m.Bounds().Min; !approxVec(got, math3d.V3(-2, 5, -1)) {
		t.Errorf("bounds min = %v", got)
	}
	if got := m.Vertex(0).Normal; !approxVec(got, math3d.V3(0, 1, 0)) {
		t.Errorf("normal = %v, want +Y", got)
	}
	if got := src.Vertex(2).Position; got != math3d.V3(1, 0, 0) {
		t.Errorf("source vertex moved to %v", got)
	}
}
