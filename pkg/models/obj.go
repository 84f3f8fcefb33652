package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/softrast/pkg/math3d"
)

// ErrOBJSyntax is wrapped by every OBJ parse error.
var ErrOBJSyntax = errors.New("models: invalid obj")

// LoadOBJ reads a Wavefront OBJ file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mesh.Name = filepath.Base(path)
	return mesh, nil
}

// ParseOBJ reads OBJ geometry: v (optionally followed by an RGB color),
// vt, vn and polygon f records using v, v/vt, v//vn or v/vt/vn references.
// Negative references count back from the latest element. Materials, groups
// and smoothing records are ignored. Normals are generated when the file
// has none.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	p := objParser{cache: make(map[[3]int]int)}
	name := "untitled"

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			err = p.vertex(fields[1:])
		case "vt":
			err = p.texcoord(fields[1:])
		case "vn":
			err = p.normal(fields[1:])
		case "f":
			err = p.face(fields[1:])
		case "o":
			if len(fields) > 1 {
				name = fields[1]
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	var opts []MeshOption
	if p.hasColors {
		opts = append(opts, WithColors())
	}
	mesh, err := NewMesh(name, p.vertices, p.faces, opts...)
	if err != nil {
		return nil, err
	}
	if len(p.normals) == 0 {
		mesh = mesh.CalculateNormals(true)
	}
	return mesh, nil
}

type objParser struct {
	positions []math3d.Vec3
	colors    []math3d.Vec4
	texcoords []math3d.Vec2
	normals   []math3d.Vec3
	hasColors bool

	vertices []Vertex
	faces    []Face
	// (position, texcoord, normal) reference -> vertex index
	cache map[[3]int]int
}

func (p *objParser) vertex(args []string) error {
	if len(args) != 3 && len(args) != 4 && len(args) != 6 {
		return fmt.Errorf("%w: v wants 3, 4 or 6 values, got %d", ErrOBJSyntax, len(args))
	}
	vals, err := parseFloats(args)
	if err != nil {
		return err
	}

	p.positions = append(p.positions, math3d.V3(vals[0], vals[1], vals[2]))
	color := White
	if len(vals) == 6 {
		color = math3d.V4(vals[3], vals[4], vals[5], 1)
		p.hasColors = true
	}
	p.colors = append(p.colors, color)
	return nil
}

func (p *objParser) texcoord(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return fmt.Errorf("%w: vt wants 1 to 3 values, got %d", ErrOBJSyntax, len(args))
	}
	vals, err := parseFloats(args)
	if err != nil {
		return err
	}
	uv := math3d.V2(vals[0], 0)
	if len(vals) > 1 {
		uv.Y = vals[1]
	}
	p.texcoords = append(p.texcoords, uv)
	return nil
}

func (p *objParser) normal(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: vn wants 3 values, got %d", ErrOBJSyntax, len(args))
	}
	vals, err := parseFloats(args)
	if err != nil {
		return err
	}
	p.normals = append(p.normals, math3d.V3(vals[0], vals[1], vals[2]).Normalize())
	return nil
}

func (p *objParser) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: f wants at least 3 vertices, got %d", ErrOBJSyntax, len(args))
	}

	indices := make([]int, len(args))
	for i, ref := range args {
		key, err := p.resolve(ref)
		if err != nil {
			return err
		}

		idx, ok := p.cache[key]
		if !ok {
			v := Vertex{Position: p.positions[key[0]], Color: p.colors[key[0]]}
			if key[1] >= 0 {
				v.UV = p.texcoords[key[1]]
			}
			if key[2] >= 0 {
				v.Normal = p.normals[key[2]]
			}
			idx = len(p.vertices)
			p.vertices = append(p.vertices, v)
			p.cache[key] = idx
		}
		indices[i] = idx
	}
	p.faces = append(p.faces, Face{Indices: indices})
	return nil
}

// resolve turns a "v/vt/vn" reference into zero-based indices, with -1 for
// absent parts.
func (p *objParser) resolve(ref string) ([3]int, error) {
	key := [3]int{-1, -1, -1}
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return key, fmt.Errorf("%w: bad face reference %q", ErrOBJSyntax, ref)
	}

	counts := [3]int{len(p.positions), len(p.texcoords), len(p.normals)}
	for i, part := range parts {
		if part == "" {
			if i == 0 {
				return key, fmt.Errorf("%w: face reference %q has no position", ErrOBJSyntax, ref)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return key, fmt.Errorf("%w: bad face reference %q", ErrOBJSyntax, ref)
		}
		switch {
		case n > 0 && n <= counts[i]:
			key[i] = n - 1
		case n < 0 && -n <= counts[i]:
			key[i] = counts[i] + n
		default:
			return key, fmt.Errorf("%w: reference %q out of range", ErrOBJSyntax, ref)
		}
	}
	return key, nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrOBJSyntax, a)
		}
		out[i] = f
	}
	return out, nil
}
