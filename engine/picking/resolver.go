package picking

import (
	"math"
	"sync"

	"github.com/hubastard/quadpick/engine/stats"
)

// IDSet reports whether an identifier belongs to a live quad.
type IDSet interface {
	Contains(id int) bool
}

// Resolver maps a pointer position in UI points to the identifier stored in
// the latest pick buffer. It only reads published snapshots, so it never
// waits on the renderer and may be called from any goroutine.
type Resolver struct {
	src      Source
	ids      IDSet
	counters *stats.Counters

	// pixelScale > 0 overrides the scale derived from the snapshot size.
	pixelScale float64
	// flipY is set when input coordinates grow upwards from the bottom edge.
	flipY bool

	mu    sync.RWMutex
	viewW float64
	viewH float64
}

type ResolverOption func(*Resolver)

// WithPixelScale fixes the points-to-pixels factor instead of deriving it
// from the snapshot and view sizes.
func WithPixelScale(s float64) ResolverOption {
	return func(r *Resolver) {
		if s > 0 && !math.IsInf(s, 0) {
			r.pixelScale = s
		}
	}
}

// WithFlipY declares that input y is measured from the bottom edge.
func WithFlipY(flip bool) ResolverOption {
	return func(r *Resolver) { r.flipY = flip }
}

// WithCounters records every resolution as a hit or a miss.
func WithCounters(c *stats.Counters) ResolverOption {
	return func(r *Resolver) { r.counters = c }
}

func NewResolver(src Source, ids IDSet, opts ...ResolverOption) *Resolver {
	r := &Resolver{src: src, ids: ids}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SetViewSize records the host view size in UI points. With no explicit
// pixel scale, the scale per axis is snapshot pixels / view points.
func (r *Resolver) SetViewSize(w, h float64) {
	r.mu.Lock()
	r.viewW, r.viewH = w, h
	r.mu.Unlock()
}

// PixelCoords converts a point position to pixel coordinates in b. ok is
// false when the position falls outside b.
func (r *Resolver) PixelCoords(b *Buffer, x, y float64) (px, py int, ok bool) {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return 0, 0, false
	}
	sx, sy := r.scale(b)
	fx, fy := x*sx, y*sy
	// NaN fails both comparisons.
	if !(fx >= 0 && fx < float64(b.Width)) || !(fy >= 0 && fy < float64(b.Height)) {
		return 0, 0, false
	}
	px, py = int(math.Floor(fx)), int(math.Floor(fy))
	if r.flipY {
		py = b.Height - 1 - py
	}
	return px, py, true
}

// Resolve returns the identifier of the quad at (x, y), in UI points with
// the origin at the top-left unless WithFlipY was given. ok is false for
// background, out-of-range positions, identifiers that are not live, and
// before the first frame has completed.
func (r *Resolver) Resolve(x, y float64) (id int, ok bool) {
	id, ok = r.resolve(x, y)
	r.counters.Pick(ok)
	return id, ok
}

func (r *Resolver) resolve(x, y float64) (int, bool) {
	if r.src == nil {
		return NoSelection, false
	}
	b := r.src.Latest()
	px, py, ok := r.PixelCoords(b, x, y)
	if !ok {
		return NoSelection, false
	}
	cr, cg, cb, _, ok := b.At(px, py)
	if !ok {
		return NoSelection, false
	}
	id := DecodeID(cr, cg, cb)
	if id <= NoSelection || r.ids == nil || !r.ids.Contains(id) {
		return NoSelection, false
	}
	return id, true
}

func (r *Resolver) scale(b *Buffer) (float64, float64) {
	if r.pixelScale > 0 {
		return r.pixelScale, r.pixelScale
	}
	r.mu.RLock()
	vw, vh := r.viewW, r.viewH
	r.mu.RUnlock()
	if vw <= 0 || vh <= 0 {
		return 1, 1
	}
	return float64(b.Width) / vw, float64(b.Height) / vh
}
