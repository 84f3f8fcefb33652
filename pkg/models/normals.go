package models

import "github.com/taigrr/softrast/pkg/math3d"

// CalculateNormals returns a copy of the mesh with generated normals.
//
// With smooth set, each vertex gets the area-weighted average of the normals
// of the triangles sharing it. Otherwise every face gets its own vertices so
// the whole polygon carries the normal of its first triangle.
func (m *Mesh) CalculateNormals(smooth bool) *Mesh {
	if smooth {
		return m.smoothNormals()
	}
	return m.flatNormals()
}

func (m *Mesh) smoothNormals() *Mesh {
	vertices := make([]Vertex, len(m.vertices))
	copy(vertices, m.vertices)
	for i := range vertices {
		vertices[i].Normal = math3d.Vec3{}
	}

	for _, f := range m.faces {
		idx := f.Indices
		for i := 1; i+1 < len(idx); i++ {
			a, b, c := idx[0], idx[i], idx[i+1]
			// unnormalized: the cross product's length is twice the area
			n := faceNormal(vertices[a].Position, vertices[b].Position, vertices[c].Position)
			vertices[a].Normal = vertices[a].Normal.Add(n)
			vertices[b].Normal = vertices[b].Normal.Add(n)
			vertices[c].Normal = vertices[c].Normal.Add(n)
		}
	}

	for i := range vertices {
		vertices[i].Normal = vertices[i].Normal.Normalize()
	}
	return m.withVertices(vertices)
}

func (m *Mesh) flatNormals() *Mesh {
	var (
		vertices []Vertex
		faces    = make([]Face, len(m.faces))
	)
	for fi, f := range m.faces {
		var n math3d.Vec3
		if len(f.Indices) >= 3 {
			n = faceNormal(
				m.vertices[f.Indices[0]].Position,
				m.vertices[f.Indices[1]].Position,
				m.vertices[f.Indices[2]].Position,
			).Normalize()
		}

		indices := make([]int, len(f.Indices))
		for k, idx := range f.Indices {
			v := m.vertices[idx]
			v.Normal = n
			indices[k] = len(vertices)
			vertices = append(vertices, v)
		}
		faces[fi] = Face{Indices: indices}
	}

	return &Mesh{
		Name:      m.Name,
		vertices:  vertices,
		faces:     faces,
		hasColors: m.hasColors,
		bounds:    boundsOf(vertices),
		triangles: m.triangles,
	}
}

// Transformed returns a copy of the mesh with positions transformed by mat
// and normals by its normal matrix.
func (m *Mesh) Transformed(mat math3d.Mat4) *Mesh {
	nm := mat.NormalMatrix()
	vertices := make([]Vertex, len(m.vertices))
	for i, v := range m.vertices {
		v.Position = mat.MulVec3(v.Position)
		v.Normal = nm.MulVec3Dir(v.Normal).Normalize()
		vertices[i] = v
	}
	return m.withVertices(vertices)
}

// HasNormals reports whether any vertex carries a non-zero normal.
func (m *Mesh) HasNormals() bool {
	for _, v := range m.vertices {
		if v.Normal.LenSq() > 1e-12 {
			return true
		}
	}
	return false
}

func faceNormal(a, b, c math3d.Vec3) math3d.Vec3 {
	return b.Sub(a).Cross(c.Sub(a))
}
