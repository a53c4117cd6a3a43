package core

import (
	"fmt"
	"runtime"
	"time"

	"github.com/hubastard/quadpick/engine/logging"
	"github.com/hubastard/quadpick/engine/picking"
	"github.com/hubastard/quadpick/engine/scene"
	"github.com/hubastard/quadpick/engine/stats"
)

// NewEngine wires the picking state around an open window and renderer
// factory. Run calls it; tests use it to drive frames by hand.
func NewEngine(cfg Config, win Window, newRenderer RendererFactory) (*Engine, error) {
	counters := &stats.Counters{}
	picks := picking.NewExchange(counters)

	rend, err := newRenderer(win, cfg, FrameOutput{Picks: picks, Stats: counters})
	if err != nil {
		return nil, err
	}

	fw, fh := win.FramebufferSize()
	reg := scene.NewRegistry()
	eng := &Engine{
		Window:   win,
		Renderer: rend,
		Input:    NewInput(),
		Scene:    reg,
		Viewport: scene.NewViewport(max(fw, 1), max(fh, 1)),
		Picks:    picks,
		Picker: picking.NewResolver(picks, reg,
			picking.WithFlipY(cfg.FlipY),
			picking.WithPixelScale(cfg.PixelScale),
			picking.WithCounters(counters),
		),
		Stats: counters,
		start: time.Now(),
	}
	eng.resize()
	return eng, nil
}

// resize pulls the current window metrics into the renderer, viewport and
// resolver. A zero-sized (minimised) framebuffer is ignored.
func (e *Engine) resize() {
	fw, fh := e.Window.FramebufferSize()
	if !e.Viewport.Resize(fw, fh) {
		return
	}
	e.Renderer.Resize(fw, fh)
	ww, wh := e.Window.Size()
	e.Picker.SetViewSize(float64(ww), float64(wh))
	logging.Logger().Info("viewport resized", "pixels_w", fw, "pixels_h", fh, "points_w", ww, "points_h", wh)
}

// HandleEvent routes ev to input state, the layers and then the app.
func (e *Engine) HandleEvent(app App, ev Event) {
	e.Input.Handle(ev)
	if _, ok := ev.(EventResize); ok {
		e.resize()
	}
	if e.Layers.Dispatch(e, ev) {
		return
	}
	app.OnEvent(e, ev)
}

// Frame renders one frame of every layer and hands it to the renderer.
func (e *Engine) Frame(app App, clear [4]float32, alpha float64) error {
	e.Renderer.Clear(clear[0], clear[1], clear[2], clear[3])
	e.Layers.ForEach(func(l Layer) { l.OnRender(e, alpha) })
	app.OnRender(e, alpha)
	e.Stats.FrameSubmitted()
	if err := e.Renderer.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

// Run wires the platform window + renderer and executes the main loop.
func Run(app App, cfg Config, newWindow WindowFactory, newRenderer RendererFactory) error {
	// Graphics contexts require the main OS thread.
	runtime.LockOSThread()

	win, err := newWindow(cfg)
	if err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	if c, ok := win.(interface{ Close() }); ok {
		defer c.Close()
	}

	eng, err := NewEngine(cfg, win, newRenderer)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer eng.Renderer.Shutdown()

	win.SetEventCallback(func(ev Event) { eng.HandleEvent(app, ev) })

	if err := app.OnStart(eng); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer eng.Layers.DetachAll(eng)

	// Fixed-timestep (60 Hz) with interpolation
	const tick = time.Second / 60
	var (
		accum   time.Duration
		prev    = time.Now()
		maxStep = 10 // prevent spiral of death
	)

	for !win.ShouldClose() {
		now := time.Now()
		frame := now.Sub(prev)
		prev = now
		accum += frame

		// Poll OS events (platform will emit via callbacks)
		win.PollEvents()

		// Run fixed updates
		steps := 0
		for accum >= tick && steps < maxStep {
			dt := float64(tick) / float64(time.Second)
			eng.Layers.ForEach(func(l Layer) { l.OnUpdate(eng, dt) })
			app.OnUpdate(eng, dt)
			accum -= tick
			steps++
		}
		// Interpolation factor for rendering
		alpha := float64(accum) / float64(tick)

		if err := eng.Frame(app, cfg.ClearColor, alpha); err != nil {
			app.OnShutdown(eng)
			return err
		}

		// Present
		win.SwapBuffers()
	}

	app.OnShutdown(eng)
	logging.Logger().Info("engine exit", "uptime", eng.Uptime(), "stats", eng.Stats.Snapshot())
	return nil
}
