package core

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/colors"
	"github.com/hubastard/quadpick/engine/picking"
	"github.com/hubastard/quadpick/engine/scene"
	"github.com/hubastard/quadpick/engine/stats"
)

// ErrNoDevice means no usable window system or GPU backend. It is fatal.
var ErrNoDevice = errors.New("no usable graphics device")

// App defines the application hooks.
type App interface {
	OnStart(e *Engine) error           // called once after window/renderer init
	OnUpdate(e *Engine, dt float64)    // called at a fixed tick (60Hz by default)
	OnRender(e *Engine, alpha float64) // render with interpolation alpha [0..1]
	OnEvent(e *Engine, ev Event)       // input/window events not handled by a layer
	OnShutdown(e *Engine)              // before exit
}

// Engine owns the renderer and the picking state. Layers and the app hold
// it by pointer and call into it; nothing in here points back at them.
type Engine struct {
	Window   Window
	Renderer Renderer
	Input    *Input
	Layers   LayerStack

	Scene    *scene.Registry
	Viewport *scene.Viewport
	Picks    *picking.Exchange
	Picker   *picking.Resolver
	Stats    *stats.Counters

	start time.Time
}

func (e *Engine) Uptime() time.Duration { return time.Since(e.start) }

// Pick resolves a pointer position in window points to a quad identifier.
func (e *Engine) Pick(x, y float64) (int, bool) { return e.Picker.Resolve(x, y) }

// Window abstraction.
type Window interface {
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
	RequestClose()
	FramebufferSize() (int, int) // pixels
	Size() (int, int)            // points
	SetTitle(title string)
	SetEventCallback(cb func(Event))
}

// Renderer draws every quad into two targets at once: the visible "beauty"
// image and the pick image holding each quad's colour ID. When a frame has
// finished on the device the pick image is copied to host memory and
// published to the Publisher the renderer was built with.
type Renderer interface {
	Init() error
	Resize(w, h int)
	Clear(r, g, b, a float32)
	// Draw consumes cmd before returning; cmd.Vertices may be reused.
	Draw(cmd DrawCmd)
	// EndFrame presents the beauty target and schedules the pick readback.
	EndFrame() error
	Shutdown()

	GPUVendor() string
	GPURenderer() string
	GPUVersion() string
}

// FrameOutput is where a renderer delivers completed pick buffers.
type FrameOutput struct {
	Picks picking.Publisher
	Stats *stats.Counters
}

// RendererFactory builds the renderer once the window exists.
type RendererFactory func(win Window, cfg Config, out FrameOutput) (Renderer, error)

// WindowFactory opens the platform window.
type WindowFactory func(cfg Config) (Window, error)

// AttribType enumerates vertex attribute component types.
type AttribType int

const (
	AttribFloat32 AttribType = iota
)

// VertexAttrib describes one attribute inside an interleaved vertex.
type VertexAttrib struct {
	Location int
	Size     int // components
	Type     AttribType
	Offset   int // bytes
}

// VertexLayout describes an interleaved vertex stream.
type VertexLayout struct {
	Stride     int // bytes
	Attributes []VertexAttrib
}

// Floats is the stride in float32 components.
func (l VertexLayout) Floats() int { return l.Stride / 4 }

// Attribute locations every renderer understands.
const (
	AttribPosition = 0
	AttribFill     = 1
	AttribColorID  = 2
)

// DrawCmd is a non-indexed triangle list plus its world-to-clip transform.
type DrawCmd struct {
	Vertices []float32
	Layout   VertexLayout
	VP       mgl32.Mat4
}

// VertexCount is the number of whole vertices in the command.
func (c DrawCmd) VertexCount() int {
	n := c.Layout.Floats()
	if n == 0 {
		return 0
	}
	return len(c.Vertices) / n
}

// Event model.
type Event interface{ isEvent() }

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

// EventResize carries the new framebuffer size in pixels.
type EventResize struct{ W, H int }

func (EventResize) isEvent() {}

type EventKey struct {
	Key  Key
	Down bool
	Mods Mod
}

func (EventKey) isEvent() {}

// EventMouseMove positions are in window points, origin top-left.
type EventMouseMove struct{ X, Y float64 }

func (EventMouseMove) isEvent() {}

// EventMouseButton is a press or release at (X, Y) in window points.
type EventMouseButton struct {
	Button MouseButton
	Down   bool
	X, Y   float64
	Mods   Mod
}

func (EventMouseButton) isEvent() {}

type EventScroll struct{ Xoff, Yoff float64 }

func (EventScroll) isEvent() {}

// Key/mod enums (subset; add as needed).
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyP
	KeyS
)

type Mod int

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
	ModSuper Mod = 1 << 3
)

type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Config for the engine run.
type Config struct {
	Title      string
	Width      int // points
	Height     int // points
	VSync      bool
	ClearColor colors.Color

	// FramesInFlight bounds how many pick readbacks may be pending.
	FramesInFlight int
	// FlipY is set when pointer y grows upwards from the bottom edge.
	FlipY bool
	// PixelScale overrides the points-to-pixels factor; 0 derives it from
	// the pick buffer and window sizes.
	PixelScale float64
}

// DefaultFramesInFlight is used when Config.FramesInFlight is not positive.
const DefaultFramesInFlight = 3

func (c Config) InFlight() int {
	if c.FramesInFlight <= 0 {
		return DefaultFramesInFlight
	}
	return c.FramesInFlight
}
