package picking

import (
	"sync/atomic"

	"github.com/hubastard/quadpick/engine/logging"
	"github.com/hubastard/quadpick/engine/stats"
)

const bytesPerPixel = 4

// Buffer is one completed frame of the pick target: tightly packed RGBA8,
// row-major, row 0 at the top. A Buffer must not be modified once it has
// been published.
type Buffer struct {
	Width, Height int
	Pix           []byte
	Frame         uint64
}

// NewBuffer allocates a zeroed w x h buffer for the given frame.
func NewBuffer(w, h int, frame uint64) *Buffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Buffer{Width: w, Height: h, Pix: make([]byte, w*h*bytesPerPixel), Frame: frame}
}

// Stride is the number of bytes per row.
func (b *Buffer) Stride() int { return b.Width * bytesPerPixel }

// At returns the pixel at (x, y). ok is false outside the buffer, including
// when Pix is shorter than Width*Height*4.
func (b *Buffer) At(x, y int) (r, g, bl, a uint8, ok bool) {
	if b == nil || x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0, 0, 0, 0, false
	}
	i := (y*b.Width + x) * bytesPerPixel
	if i+bytesPerPixel > len(b.Pix) {
		return 0, 0, 0, 0, false
	}
	p := b.Pix[i : i+bytesPerPixel : i+bytesPerPixel]
	return p[0], p[1], p[2], p[3], true
}

// FlipRowsFrom copies src, which is stored bottom row first (OpenGL's
// readback order), into b so that row 0 is the top row.
func (b *Buffer) FlipRowsFrom(src []byte) {
	stride := b.Stride()
	for y := 0; y < b.Height; y++ {
		s := (b.Height - 1 - y) * stride
		if s+stride > len(src) {
			continue
		}
		copy(b.Pix[y*stride:(y+1)*stride], src[s:s+stride])
	}
}

// Publisher receives completed pick buffers from a renderer.
type Publisher interface {
	Publish(b *Buffer) bool
}

// Source hands out the latest completed pick buffer, or nil before the
// first frame completes.
type Source interface {
	Latest() *Buffer
}

// Exchange is the single hand-off point between the render path and the
// pick path. Publish swaps a whole buffer in, so a reader sees either the
// previous snapshot or the new one, never a partial write.
type Exchange struct {
	cur      atomic.Pointer[Buffer]
	counters *stats.Counters
}

// NewExchange returns an empty exchange. counters may be nil.
func NewExchange(counters *stats.Counters) *Exchange {
	return &Exchange{counters: counters}
}

// Publish makes b the current snapshot unless a newer frame is already
// published, in which case b is dropped and false is returned.
func (e *Exchange) Publish(b *Buffer) bool {
	if b == nil {
		return false
	}
	for {
		cur := e.cur.Load()
		if cur != nil && cur.Frame > b.Frame {
			e.counters.StaleDropped()
			logging.Logger().Debug("pick snapshot dropped", "frame", b.Frame, "current", cur.Frame)
			return false
		}
		if e.cur.CompareAndSwap(cur, b) {
			return true
		}
	}
}

// Latest returns the current snapshot. Safe to call from any goroutine.
func (e *Exchange) Latest() *Buffer {
	return e.cur.Load()
}
