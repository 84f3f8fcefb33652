package render

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
)

// ErrInvalidTexture is returned for textures without texels.
var ErrInvalidTexture = errors.New("render: invalid texture")

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

func (m WrapMode) String() string {
	switch m {
	case WrapRepeat:
		return "repeat"
	case WrapClamp:
		return "clamp"
	}
	return fmt.Sprintf("WrapMode(%d)", int(m))
}

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

func (m FilterMode) String() string {
	switch m {
	case FilterNearest:
		return "nearest"
	case FilterBilinear:
		return "bilinear"
	}
	return fmt.Sprintf("FilterMode(%d)", int(m))
}

// Texture is a 2D image addressed by UV. V=0 is the bottom row of the image.
// The wrap and filter modes are fixed when the texture is created.
//
// Textures are shared read-only by every worker during a render; SetPixel
// must only be used while building one.
type Texture struct {
	width  int
	height int
	pixels []Color
	wrap   WrapMode
	filter FilterMode
}

// TextureOption configures a texture at construction.
type TextureOption func(*Texture)

// WithWrap sets the wrap mode. The default is WrapRepeat.
func WithWrap(mode WrapMode) TextureOption {
	return func(t *Texture) { t.wrap = mode }
}

// WithFilter sets the filter mode. The default is FilterNearest.
func WithFilter(mode FilterMode) TextureOption {
	return func(t *Texture) { t.filter = mode }
}

// NewTexture creates a transparent texture with the given dimensions.
func NewTexture(width, height int, opts ...TextureOption) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidTexture, width, height)
	}
	t := &Texture{
		width:  width,
		height: height,
		pixels: make([]Color, width*height),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// LoadTexture loads a texture from a PNG or JPEG file.
func LoadTexture(path string, opts ...TextureOption) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return TextureFromImage(img, opts...)
}

// TextureFromImage copies an image into a texture.
func TextureFromImage(img image.Image, opts ...TextureOption) (*Texture, error) {
	b := img.Bounds()
	tex, err := NewTexture(b.Dx(), b.Dy(), opts...)
	if err != nil {
		return nil, err
	}

	for y := range tex.height {
		for x := range tex.width {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// RGBA returns 16-bit values
			tex.SetPixel(x, y, Color{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(bl >> 8),
				A: uint8(a >> 8),
			})
		}
	}
	return tex, nil
}

// NewCheckerTexture creates a checkerboard of checks x checks squares, each
// cell pixels wide, starting with c1 in the top-left corner.
func NewCheckerTexture(checks, cell int, c1, c2 Color, opts ...TextureOption) (*Texture, error) {
	if checks <= 0 || cell <= 0 {
		return nil, fmt.Errorf("%w: %d checks of %d pixels", ErrInvalidTexture, checks, cell)
	}
	size := checks * cell
	tex, err := NewTexture(size, size, opts...)
	if err != nil {
		return nil, err
	}
	for y := range size {
		for x := range size {
			if (x/cell+y/cell)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex, nil
}

// NewSolidTexture creates a 1x1 texture of a single color.
func NewSolidTexture(c Color) *Texture {
	return &Texture{width: 1, height: 1, pixels: []Color{c}}
}

// Width returns the width in texels.
func (t *Texture) Width() int { return t.width }

// Height returns the height in texels.
func (t *Texture) Height() int { return t.height }

// Wrap returns the wrap mode.
func (t *Texture) Wrap() WrapMode { return t.wrap }

// Filter returns the filter mode.
func (t *Texture) Filter() FilterMode { return t.filter }

// SetPixel sets the texel at image coordinates (x, y), with y=0 the top row.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return
	}
	t.pixels[y*t.width+x] = c
}

// GetPixel returns the texel at image coordinates (x, y), or transparent
// black if out of range.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return Color{}
	}
	return t.pixels[y*t.width+x]
}

// Sample returns the color at (u, v). Out-of-range coordinates wrap or
// clamp according to the texture's wrap mode. Non-finite coordinates sample
// (0, 0).
func (t *Texture) Sample(u, v float64) Color {
	if math.IsNaN(u) || math.IsInf(u, 0) {
		u = 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	u = t.wrapCoord(u)
	v = t.wrapCoord(v)

	// image row 0 is the top, V=0 is the bottom
	v = 1 - v

	if t.filter == FilterBilinear {
		return t.sampleBilinear(u, v)
	}
	return t.sampleNearest(u, v)
}

func (t *Texture) wrapCoord(c float64) float64 {
	if t.wrap == WrapClamp {
		return math.Max(0, math.Min(1, c))
	}
	return c - math.Floor(c)
}

func (t *Texture) sampleNearest(u, v float64) Color {
	x := min(int(u*float64(t.width)), t.width-1)
	y := min(int(v*float64(t.height)), t.height-1)
	return t.pixels[y*t.width+x]
}

func (t *Texture) sampleBilinear(u, v float64) Color {
	fx := u*float64(t.width) - 0.5
	fy := v*float64(t.height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := t.wrapTexel(x0+1, t.width)
	y1 := t.wrapTexel(y0+1, t.height)
	x0 = t.wrapTexel(x0, t.width)
	y0 = t.wrapTexel(y0, t.height)

	top := lerpColor(t.pixels[y0*t.width+x0], t.pixels[y0*t.width+x1], tx)
	bot := lerpColor(t.pixels[y1*t.width+x0], t.pixels[y1*t.width+x1], tx)
	return lerpColor(top, bot, ty)
}

func (t *Texture) wrapTexel(x, size int) int {
	if t.wrap == WrapClamp {
		return max(0, min(x, size-1))
	}
	x %= size
	if x < 0 {
		x += size
	}
	return x
}

func lerpColor(a, b Color, t float64) Color {
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return Color{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: lerp(a.A, b.A),
	}
}
