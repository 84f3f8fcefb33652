package models

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/softrast/pkg/math3d"
)

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
	if !loader.SmoothNormals {
		t.Error("SmoothNormals should default to true")
	}
}

func intPtr(i int) *int { return &i }

// triangleDocument builds an in-memory document holding one triangle with
// float positions, ubyte normalized RGBA colors, float UVs and ushort
// indices.
func triangleDocument() *gltf.Document {
	var buf []byte
	putF32 := func(vals ...float32) {
		for _, v := range vals {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}

	putF32(0, 0, 0, 1, 0, 0, 0, 1, 0) // positions, 36 bytes
	putF32(0, 0, 1, 0, 0, 1)          // uvs, 24 bytes
	buf = append(buf,
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 0, 255, 128,
	) // colors, 12 bytes
	for _, idx := range []uint16{0, 1, 2} {
		buf = binary.LittleEndian.AppendUint16(buf, idx)
	} // indices, 6 bytes

	return &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: len(buf), Data: buf}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 24},
			{Buffer: 0, ByteOffset: 60, ByteLength: 12},
			{Buffer: 0, ByteOffset: 72, ByteLength: 6},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: intPtr(0), ComponentType: gltf.ComponentFloat, Count: 3, Type: gltf.AccessorVec3},
			{BufferView: intPtr(1), ComponentType: gltf.ComponentFloat, Count: 3, Type: gltf.AccessorVec2},
			{BufferView: intPtr(2), ComponentType: gltf.ComponentUbyte, Normalized: true, Count: 3, Type: gltf.AccessorVec4},
			{BufferView: intPtr(3), ComponentType: gltf.ComponentUshort, Count: 3, Type: gltf.AccessorScalar},
		},
		Meshes: []*gltf.Mesh{{
			Name: "tri",
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{
					gltf.POSITION:   0,
					gltf.TEXCOORD_0: 1,
					gltf.COLOR_0:    2,
				},
				Indices: intPtr(3),
			}},
		}},
	}
}

func TestGLTFFromDocument(t *testing.T) {
	m, err := NewGLTFLoader().fromDocument(triangleDocument(), "tri.glb")
	if err != nil {
		t.Fatal(err)
	}

	if m.VertexCount() != 3 || m.TriangleCount() != 1 {
		t.Fatalf("counts = %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
	}
	if !m.HasColors() {
		t.Error("COLOR_0 should set HasColors")
	}

	var tri Triangle
	for tr := range m.Triangles() {
		tri = tr
	}

	// winding is kept as stored
	if tri.V[1].Position != math3d.V3(1, 0, 0) || tri.V[2].Position != math3d.V3(0, 1, 0) {
		t.Errorf("winding changed: %v %v", tri.V[1].Position, tri.V[2].Position)
	}
	// V is flipped
	if uv := tri.V[2].UV; uv != math3d.V2(0, 0) {
		t.Errorf("uv = %v, want (0, 0)", uv)
	}
	if c := tri.V[0].Color; c != math3d.V4(1, 0, 0, 1) {
		t.Errorf("color = %v, want red", c)
	}
	if a := tri.V[2].Color.W; math.Abs(a-128.0/255.0) > 1e-9 {
		t.Errorf("alpha = %v", a)
	}
	// no normals in the file, so smooth normals are generated
	if n := tri.V[0].Normal; !approxVec(n, math3d.V3(0, 0, 1)) {
		t.Errorf("normal = %v, want +Z", n)
	}
}

func TestGLTFAccessorPastBuffer(t *testing.T) {
	doc := triangleDocument()
	doc.Accessors[0].Count = 100

	if _, err := NewGLTFLoader().fromDocument(doc, "broken.glb"); err == nil {
		t.Error("expected error for accessor past end of buffer")
	}
}
