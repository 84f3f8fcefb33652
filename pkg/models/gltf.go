package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/softrast/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// CalculateNormals generates normals when the file carries none.
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a loader that generates smooth normals for files
// without them.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadGLB loads a binary GLTF (.glb) file with the default loader.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load reads every triangle primitive of every mesh in a GLTF or GLB file
// and merges them into one Mesh. GLTF front faces are counter-clockwise,
// which matches the rasterizer, so winding is kept as stored.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.fromDocument(doc, filepath.Base(path))
}

func (l *GLTFLoader) fromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	var b meshBuilder
	for _, m := range doc.Meshes {
		if err := b.addMesh(doc, m); err != nil {
			return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
		}
	}

	var opts []MeshOption
	if b.hasColors {
		opts = append(opts, WithColors())
	}
	mesh, err := NewMesh(name, b.vertices, b.faces, opts...)
	if err != nil {
		return nil, err
	}

	if l.CalculateNormals && !mesh.HasNormals() {
		mesh = mesh.CalculateNormals(l.SmoothNormals)
	}
	return mesh, nil
}

type meshBuilder struct {
	vertices  []Vertex
	faces     []Face
	hasColors bool
}

func (b *meshBuilder) addMesh(doc *gltf.Document, m *gltf.Mesh) error {
	for pi, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// lines and points have no surface
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, width, err := readAccessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("primitive %d positions: %w", pi, err)
		}
		if width != 3 {
			return fmt.Errorf("primitive %d positions: want VEC3, got %d components", pi, width)
		}
		count := len(positions) / 3

		normals, err := optionalAttribute(doc, prim, gltf.NORMAL, 3)
		if err != nil {
			return fmt.Errorf("primitive %d normals: %w", pi, err)
		}
		uvs, err := optionalAttribute(doc, prim, gltf.TEXCOORD_0, 2)
		if err != nil {
			return fmt.Errorf("primitive %d uvs: %w", pi, err)
		}

		var colors []float64
		colorWidth := 0
		if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
			colors, colorWidth, err = readAccessor(doc, idx)
			if err != nil {
				return fmt.Errorf("primitive %d colors: %w", pi, err)
			}
			if colorWidth != 3 && colorWidth != 4 {
				return fmt.Errorf("primitive %d colors: want VEC3 or VEC4, got %d components", pi, colorWidth)
			}
			b.hasColors = true
		}

		base := len(b.vertices)
		for i := range count {
			v := Vertex{
				Position: math3d.V3(positions[3*i], positions[3*i+1], positions[3*i+2]),
				Color:    White,
			}
			if 3*i+2 < len(normals) {
				v.Normal = math3d.V3(normals[3*i], normals[3*i+1], normals[3*i+2])
			}
			if 2*i+1 < len(uvs) {
				// GLTF puts V=0 at the top of the image; textures here
				// put it at the bottom.
				v.UV = math3d.V2(uvs[2*i], 1-uvs[2*i+1])
			}
			if c := colorWidth * i; colorWidth > 0 && c+colorWidth <= len(colors) {
				v.Color = math3d.V4(colors[c], colors[c+1], colors[c+2], 1)
				if colorWidth == 4 {
					v.Color.W = colors[c+3]
				}
			}
			b.vertices = append(b.vertices, v)
		}

		var indices []int
		if prim.Indices != nil {
			raw, _, err := readAccessor(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("primitive %d indices: %w", pi, err)
			}
			indices = make([]int, len(raw))
			for i, x := range raw {
				indices[i] = int(x)
			}
		} else {
			indices = make([]int, count)
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			b.faces = append(b.faces, F(base+indices[i], base+indices[i+1], base+indices[i+2]))
		}
	}
	return nil
}

func optionalAttribute(doc *gltf.Document, prim *gltf.Primitive, name string, want int) ([]float64, error) {
	idx, ok := prim.Attributes[name]
	if !ok {
		return nil, nil
	}
	data, width, err := readAccessor(doc, idx)
	if err != nil {
		return nil, err
	}
	if width != want {
		return nil, fmt.Errorf("want %d components, got %d", want, width)
	}
	return data, nil
}

// readAccessor returns the accessor's elements as a flat slice of float64
// along with the number of components per element. Normalized integer
// components are mapped to 0..1; index data is returned as whole numbers.
func readAccessor(doc *gltf.Document, accessorIdx int) ([]float64, int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}

	width := componentsPer(accessor.Type)
	size := componentSize(accessor.ComponentType)
	if width == 0 || size == 0 {
		return nil, 0, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	data := doc.Buffers[bufferView.Buffer].Data
	if data == nil {
		return nil, 0, fmt.Errorf("buffer has no data")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	if stride == 0 {
		stride = width * size
	}
	if accessor.Count > 0 {
		if end := start + (accessor.Count-1)*stride + width*size; end > len(data) {
			return nil, 0, fmt.Errorf("accessor reads past end of buffer (%d > %d)", end, len(data))
		}
	}

	out := make([]float64, 0, accessor.Count*width)
	for i := range accessor.Count {
		offset := start + i*stride
		for j := range width {
			out = append(out, readComponent(data[offset+j*size:], accessor.ComponentType, accessor.Normalized))
		}
	}
	return out, width, nil
}

func componentsPer(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	}
	return 0
}

func componentSize(t gltf.ComponentType) int {
	switch t {
	case gltf.ComponentUbyte:
		return 1
	case gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}

func readComponent(b []byte, t gltf.ComponentType, normalized bool) float64 {
	switch t {
	case gltf.ComponentUbyte:
		if normalized {
			return float64(b[0]) / math.MaxUint8
		}
		return float64(b[0])
	case gltf.ComponentUshort:
		x := binary.LittleEndian.Uint16(b)
		if normalized {
			return float64(x) / math.MaxUint16
		}
		return float64(x)
	case gltf.ComponentUint:
		return float64(binary.LittleEndian.Uint32(b))
	default:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus the first
// decodable image it references. The image is nil if there is none.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := NewGLTFLoader().fromDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}

	for _, img := range doc.Images {
		data := imageBytes(doc, img, filepath.Dir(path))
		if len(data) == 0 {
			continue
		}
		if decoded, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			return mesh, decoded, nil
		}
	}
	return mesh, nil, nil
}

func imageBytes(doc *gltf.Document, img *gltf.Image, dir string) []byte {
	if img.BufferView != nil {
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer].Data
		if end := bv.ByteOffset + bv.ByteLength; buf != nil && end <= len(buf) {
			return buf[bv.ByteOffset:end]
		}
		return nil
	}
	if img.URI == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(dir, img.URI))
	if err != nil {
		return nil
	}
	return data
}
