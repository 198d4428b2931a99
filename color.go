package hwvg

import "image/color"

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1]. Alpha is not premultiplied;
// premultiplication happens when colors are packed into vertices.
type RGBA struct {
	R, G, B, A float64
}

// Common colors.
var (
	Black       = RGBA{A: 1}
	White       = RGBA{R: 1, G: 1, B: 1, A: 1}
	Transparent = RGBA{}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// NewRGBA creates a color from RGBA components.
func NewRGBA(r, g, b, a float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: a}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return RGBA{}
	}
	// color.Color returns premultiplied components; unpremultiply.
	af := float64(a) / 65535
	return RGBA{
		R: float64(r) / float64(a),
		G: float64(g) / float64(a),
		B: float64(b) / float64(a),
		A: af,
	}
}

// WithAlpha returns the color with its alpha multiplied by alpha.
func (c RGBA) WithAlpha(alpha float64) RGBA {
	c.A *= alpha
	return c
}

// Lerp linearly interpolates between two colors.
func (c RGBA) Lerp(d RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (d.R-c.R)*t,
		G: c.G + (d.G-c.G)*t,
		B: c.B + (d.B-c.B)*t,
		A: c.A + (d.A-c.A)*t,
	}
}

// Premul8 packs the color into premultiplied 8-bit components, the
// format used for per-vertex colors.
func (c RGBA) Premul8() [4]uint8 {
	a := clamp01(c.A)
	return [4]uint8{
		uint8(clamp01(c.R) * a * 255),
		uint8(clamp01(c.G) * a * 255),
		uint8(clamp01(c.B) * a * 255),
		uint8(a * 255),
	}
}

// NRGBA converts the color to a standard library non-premultiplied color.
func (c RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
