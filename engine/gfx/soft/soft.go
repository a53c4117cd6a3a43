// Package soft is a CPU implementation of the dual-target renderer. It
// rasterizes the beauty and pick targets in the calling goroutine and
// completes each frame on a worker goroutine, the way a GPU completion
// handler would, so the pick path sees the same asynchronous hand-off as
// with the OpenGL backend.
package soft

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/colors"
	"github.com/hubastard/quadpick/engine/core"
	"github.com/hubastard/quadpick/engine/logging"
	"github.com/hubastard/quadpick/engine/picking"
	"github.com/hubastard/quadpick/engine/stats"
	"golang.org/x/sync/semaphore"
)

type readback struct {
	buf       *picking.Buffer
	submitted time.Time
}

// Renderer implements core.Renderer without a GPU. All methods except Wait
// must be called from one goroutine.
type Renderer struct {
	out      picking.Publisher
	counters *stats.Counters

	width, height int
	beauty        []byte
	pick          []byte
	frame         uint64

	slots    int64
	inFlight *semaphore.Weighted
	jobs     chan readback
	done     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool // complete is running
	closed   bool

	presented atomic.Pointer[image.RGBA]
	stopOnce  sync.Once
}

// New builds a renderer that keeps at most framesInFlight readbacks
// pending; EndFrame blocks once that many are outstanding.
func New(out core.FrameOutput, framesInFlight int) *Renderer {
	if framesInFlight <= 0 {
		framesInFlight = core.DefaultFramesInFlight
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Renderer{
		out:      out.Picks,
		counters: out.Stats,
		slots:    int64(framesInFlight),
		inFlight: semaphore.NewWeighted(int64(framesInFlight)),
		jobs:     make(chan readback, framesInFlight),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// NewRenderer matches core.RendererFactory.
func NewRenderer(_ core.Window, cfg core.Config, out core.FrameOutput) (core.Renderer, error) {
	r := New(out, cfg.InFlight())
	if err := r.Init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) Init() error {
	if r.out == nil {
		return fmt.Errorf("soft: no pick publisher: %w", core.ErrNoDevice)
	}
	if !r.started {
		r.started = true
		go r.complete()
	}
	return nil
}

// complete plays the part of the device completion handler: it publishes
// each finished pick target in submission order.
func (r *Renderer) complete() {
	defer close(r.done)
	for job := range r.jobs {
		if r.out.Publish(job.buf) {
			r.counters.FrameCompleted(time.Since(job.submitted))
		}
		r.inFlight.Release(1)
	}
}

func (r *Renderer) Resize(w, h int) {
	if w < 1 || h < 1 {
		return
	}
	r.width, r.height = w, h
	r.beauty = make([]byte, w*h*4)
	r.pick = make([]byte, w*h*4)
	logging.Logger().Debug("soft targets resized", "w", w, "h", h)
}

// Size returns the current target size in pixels.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

func (r *Renderer) Clear(cr, cg, cb, ca float32) {
	pr, pg, pb, pa := colors.Color{cr, cg, cb, ca}.RGBA8()
	px := []byte{pr, pg, pb, pa}
	for i := 0; i < len(r.beauty); i += 4 {
		copy(r.beauty[i:i+4], px)
	}
	clear(r.pick)
}

func (r *Renderer) Draw(cmd core.DrawCmd) {
	stride := cmd.Layout.Floats()
	posOff, fillOff, idOff, ok := attribOffsets(cmd.Layout)
	if !ok || stride == 0 || r.width == 0 {
		return
	}
	n := cmd.VertexCount()
	var tri [3]vertex
	for i := 0; i+2 < n; i += 3 {
		for k := 0; k < 3; k++ {
			base := (i + k) * stride
			vs := cmd.Vertices[base : base+stride]
			ndc := cmd.VP.Mul4x1(mgl32.Vec4{vs[posOff], vs[posOff+1], 0, 1})
			tri[k] = vertex{
				x:    (ndc[0] + 1) * 0.5 * float32(r.width),
				y:    (1 - ndc[1]) * 0.5 * float32(r.height),
				fill: colors.Color(vs[fillOff : fillOff+4]),
				id:   colors.Color(vs[idOff : idOff+4]),
			}
		}
		r.rasterize(tri)
	}
}

// EndFrame presents the beauty target and queues the pick target for
// completion.
func (r *Renderer) EndFrame() error {
	if r.closed {
		return fmt.Errorf("soft: end frame after shutdown: %w", core.ErrNoDevice)
	}
	if !r.started {
		return fmt.Errorf("soft: end frame before init: %w", core.ErrNoDevice)
	}
	if r.width == 0 {
		return nil
	}
	r.frame++
	r.presented.Store(&image.RGBA{
		Pix:    bytes.Clone(r.beauty),
		Stride: r.width * 4,
		Rect:   image.Rect(0, 0, r.width, r.height),
	})

	if err := r.inFlight.Acquire(r.ctx, 1); err != nil {
		return fmt.Errorf("soft: frame %d: %w", r.frame, err)
	}
	r.jobs <- readback{
		buf: &picking.Buffer{
			Width:  r.width,
			Height: r.height,
			Pix:    bytes.Clone(r.pick),
			Frame:  r.frame,
		},
		submitted: time.Now(),
	}
	return nil
}

// Wait blocks until every submitted frame has been published. Safe to call
// from any goroutine.
func (r *Renderer) Wait(ctx context.Context) error {
	if err := r.inFlight.Acquire(ctx, r.slots); err != nil {
		return err
	}
	r.inFlight.Release(r.slots)
	return nil
}

// Presented returns the last presented beauty image, or nil.
func (r *Renderer) Presented() *image.RGBA { return r.presented.Load() }

// Shutdown stops accepting frames and waits for queued completions.
func (r *Renderer) Shutdown() {
	r.stopOnce.Do(func() {
		r.closed = true
		r.cancel()
		close(r.jobs)
		if r.started {
			<-r.done
		}
	})
}

func (r *Renderer) GPUVendor() string   { return "quadpick" }
func (r *Renderer) GPURenderer() string { return "software rasterizer" }
func (r *Renderer) GPUVersion() string  { return "1.0" }

type vertex struct {
	x, y     float32
	fill, id colors.Color
}

// rasterize fills every pixel whose centre lies inside or on the edge of
// the triangle. Pixels on an edge shared with a later triangle take the
// later triangle's colour. Fill is interpolated; the colour ID is flat,
// taken from the last vertex.
func (r *Renderer) rasterize(t [3]vertex) {
	area := edge(t[0], t[1], t[2].x, t[2].y)
	if area == 0 {
		return // degenerate
	}
	if area < 0 {
		t[1], t[2] = t[2], t[1]
		area = -area
	}

	minX := max(0, int(math.Floor(float64(min(t[0].x, t[1].x, t[2].x)))))
	maxX := min(r.width-1, int(math.Ceil(float64(max(t[0].x, t[1].x, t[2].x)))))
	minY := max(0, int(math.Floor(float64(min(t[0].y, t[1].y, t[2].y)))))
	maxY := min(r.height-1, int(math.Ceil(float64(max(t[0].y, t[1].y, t[2].y)))))

	ir, ig, ib, ia := t[2].id.RGBA8()
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(t[1], t[2], px, py)
			w1 := edge(t[2], t[0], px, py)
			w2 := edge(t[0], t[1], px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			var c colors.Color
			for ch := range c {
				c[ch] = (w0*t[0].fill[ch] + w1*t[1].fill[ch] + w2*t[2].fill[ch]) / area
			}
			i := (y*r.width + x) * 4
			br, bg, bb, ba := c.RGBA8()
			r.beauty[i], r.beauty[i+1], r.beauty[i+2], r.beauty[i+3] = br, bg, bb, ba
			r.pick[i], r.pick[i+1], r.pick[i+2], r.pick[i+3] = ir, ig, ib, ia
		}
	}
}

// edge is twice the signed area of the triangle (a, b, p).
func edge(a, b vertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func attribOffsets(l core.VertexLayout) (pos, fill, id int, ok bool) {
	found := 0
	for _, a := range l.Attributes {
		off := a.Offset / 4
		switch a.Location {
		case core.AttribPosition:
			pos = off
			found |= 1
		case core.AttribFill:
			fill = off
			found |= 2
		case core.AttribColorID:
			id = off
			found |= 4
		}
	}
	return pos, fill, id, found == 7
}
