// Package picking turns a click on screen into the identifier of the quad
// under it. Each quad is drawn a second time into an off-screen target with
// its identifier encoded as a flat colour; after the frame completes that
// target is copied to host memory and published as a Buffer, which the
// Resolver reads back at the clicked pixel.
package picking

import "github.com/hubastard/quadpick/engine/colors"

const (
	// NoSelection is what background pixels decode to. Real identifiers
	// start at 1 so it never collides with a quad.
	NoSelection = 0

	base = 255

	// MaxID is the largest identifier the three colour channels can carry.
	MaxID = base*base*base - 1
)

// EncodeID maps id to an opaque colour using a base-255 positional
// encoding: red holds the lowest digit, blue the highest. Negative ids
// encode to black.
func EncodeID(id int) colors.Color {
	if id < 0 {
		return colors.Black
	}
	r := float32(id % base)
	g := float32((id / base) % base)
	b := float32((id / (base * base)) % base)
	return colors.Color{r / base, g / base, b / base, 1}
}

// DecodeID reverses EncodeID on raw 8-bit channel values. It is exact only
// if nothing between the draw and the readback filtered, blended or
// colour-converted the pick target.
func DecodeID(r, g, b uint8) int {
	return int(r) + int(g)*base + int(b)*base*base
}
