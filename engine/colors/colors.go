package colors

import "math"

type Color [4]float32

var (
	White    = Color{1, 1, 1, 1}
	Red      = Color{1, 0, 0, 1}
	Green    = Color{0, 1, 0, 1}
	Blue     = Color{0, 0, 1, 1}
	Black    = Color{0, 0, 0, 1}
	Magenta  = Color{1, 0, 1, 1}
	Cyan     = Color{0, 1, 1, 1}
	Yellow   = Color{1, 1, 0, 1}
	Orange   = Color{1, 0.55, 0, 1}
	Gray     = Color{0.5, 0.5, 0.5, 1}
	DarkGray = Color{0.08, 0.10, 0.12, 1}
	Teal     = Color{0, 0.35, 0.35, 1}
)

func (c Color) WithAlpha(a float32) Color {
	c[3] = a
	return c
}

// RGBA8 quantises each channel to a byte the way a UNORM8 render target
// stores it: clamp to [0,1], then round to nearest.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])
}

// FromRGBA8 is the inverse of RGBA8.
func FromRGBA8(r, g, b, a uint8) Color {
	return Color{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}

// Lerp blends c towards o by t in [0,1].
func (c Color) Lerp(o Color, t float32) Color {
	for i := range c {
		c[i] += (o[i] - c[i]) * t
	}
	return c
}

func unorm8(v float32) uint8 {
	if !(v > 0) { // also catches NaN
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Floor(float64(v)*255 + 0.5))
}
