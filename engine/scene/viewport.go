package scene

import "github.com/go-gl/mathgl/mgl32"

// Viewport maps world space to the render targets. World units are pixels,
// the origin sits at the centre of the target and +Y points up. Pixel
// coordinates have their origin at the top-left with +Y pointing down,
// matching the row order of a picking.Buffer.
type Viewport struct {
	width, height int
	vp            mgl32.Mat4
	dirty         bool
}

func NewViewport(width, height int) *Viewport {
	v := &Viewport{}
	v.Resize(width, height)
	v.Recalculate()
	return v
}

// Resize updates the target size. Sizes below one pixel (a minimised
// window) are ignored and false is returned.
func (v *Viewport) Resize(width, height int) bool {
	if width < 1 || height < 1 {
		return false
	}
	v.width, v.height = width, height
	v.dirty = true
	return true
}

func (v *Viewport) Size() (int, int) { return v.width, v.height }

// VP returns the column-major world-to-clip matrix.
func (v *Viewport) VP() mgl32.Mat4 {
	if v.dirty {
		v.Recalculate()
	}
	return v.vp
}

func (v *Viewport) Recalculate() {
	halfW := float32(v.width) * 0.5
	halfH := float32(v.height) * 0.5
	v.vp = mgl32.Ortho2D(-halfW, halfW, -halfH, halfH)
	v.dirty = false
}

// ToNDC transforms a world position to normalised device coordinates.
func (v *Viewport) ToNDC(p mgl32.Vec2) mgl32.Vec2 {
	return v.VP().Mul4x1(p.Vec4(0, 1)).Vec2()
}

// ToPixel transforms a world position to top-left pixel coordinates.
func (v *Viewport) ToPixel(p mgl32.Vec2) mgl32.Vec2 {
	ndc := v.ToNDC(p)
	return mgl32.Vec2{
		(ndc[0] + 1) * 0.5 * float32(v.width),
		(1 - ndc[1]) * 0.5 * float32(v.height),
	}
}

// FromPixel is the inverse of ToPixel.
func (v *Viewport) FromPixel(px mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		px[0] - float32(v.width)*0.5,
		float32(v.height)*0.5 - px[1],
	}
}
