package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hubastard/quadpick/engine/core"
	"github.com/hubastard/quadpick/engine/gfx/soft"
)

// click is a pointer press in window points.
type click struct{ X, Y float64 }

// parseClicks reads "x,y;x,y;..." into clicks.
func parseClicks(s string) ([]click, error) {
	var out []click
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		xs, ys, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("click %q: want x,y", part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("click %q: %w", part, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("click %q: %w", part, err)
		}
		out = append(out, click{x, y})
	}
	return out, nil
}

type headlessOptions struct {
	Scale  float64 // framebuffer pixels per window point
	Frames int
	Clicks []click
	Out    io.Writer
}

// runHeadless renders the app with the software rasterizer, replays the
// clicks against the last completed frame and prints one line per click.
// It returns the selected ids in click order.
func runHeadless(ctx context.Context, app *App, cfg core.Config, opts headlessOptions) ([]int, error) {
	if opts.Frames <= 0 {
		opts.Frames = 1
	}
	win := core.NewHeadlessWindow(cfg.Width, cfg.Height, opts.Scale, 0)
	eng, err := core.NewEngine(cfg, win, soft.NewRenderer)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	defer eng.Renderer.Shutdown()

	win.SetEventCallback(func(ev core.Event) { eng.HandleEvent(app, ev) })
	if err := app.OnStart(eng); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	defer eng.Layers.DetachAll(eng)

	const dt = 1.0 / 60
	for range opts.Frames {
		eng.Layers.ForEach(func(l core.Layer) { l.OnUpdate(eng, dt) })
		app.OnUpdate(eng, dt)
		if err := eng.Frame(app, cfg.ClearColor, 0); err != nil {
			return nil, err
		}
		win.SwapBuffers()
	}

	if r, ok := eng.Renderer.(*soft.Renderer); ok {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := r.Wait(wctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("wait for readback: %w", err)
		}
	}

	ids := make([]int, 0, len(opts.Clicks))
	for _, c := range opts.Clicks {
		win.Emit(core.EventMouseButton{Button: core.MouseLeft, Down: true, X: c.X, Y: c.Y})
		win.Emit(core.EventMouseButton{Button: core.MouseLeft, Down: false, X: c.X, Y: c.Y})
		id := app.picker.Selected()
		ids = append(ids, id)
		if opts.Out != nil {
			fmt.Fprintf(opts.Out, "%g,%g\t%d\n", c.X, c.Y, id)
		}
	}

	if app.outDir != "" {
		paths, err := exportSnapshots(eng, app.outDir, app.zoom)
		if err != nil {
			return ids, fmt.Errorf("export: %w", err)
		}
		for _, p := range paths {
			if opts.Out != nil {
				fmt.Fprintln(opts.Out, "wrote", p)
			}
		}
	}

	app.OnShutdown(eng)
	return ids, nil
}
