// Command quadpick draws a handful of coloured quads and reports which one
// sits under the pointer, using a colour-ID render target read back from
// the GPU. With -headless it renders on the CPU instead and replays clicks
// given on the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hubastard/quadpick/engine/colors"
	"github.com/hubastard/quadpick/engine/core"
	glbackend "github.com/hubastard/quadpick/engine/gfx/gl"
	"github.com/hubastard/quadpick/engine/logging"
	"github.com/hubastard/quadpick/engine/platform"
	"github.com/hubastard/quadpick/engine/scene"
)

func main() {
	var (
		layoutPath = flag.String("layout", "", "YAML scene layout (default: built-in five quads)")
		width      = flag.Int("width", 1280, "window width in points")
		height     = flag.Int("height", 720, "window height in points")
		vsync      = flag.Bool("vsync", true, "wait for vertical sync")
		flipY      = flag.Bool("flip-y", false, "pointer y grows upwards from the bottom edge")
		pixelScale = flag.Float64("pixel-scale", 0, "points-to-pixels factor (0 derives it)")
		inFlight   = flag.Int("frames-in-flight", core.DefaultFramesInFlight, "pending pick readbacks")
		logLevel   = flag.String("log-level", "info", "debug, info, warn or error")
		statsEvery = flag.Duration("stats-every", 5*time.Second, "debug stats interval (0 disables)")
		outDir     = flag.String("out", "", "directory for exported PNG snapshots (interactive default: "+defaultSnapshotDir+"; headless: no export)")
		zoom       = flag.Int("zoom", 1, "integer upscale for exported snapshots")

		headless = flag.Bool("headless", false, "render with the software rasterizer, no window")
		scale    = flag.Float64("scale", 1, "headless framebuffer pixels per point")
		frames   = flag.Int("frames", 1, "headless frames to render before clicking")
		clicks   = flag.String("click", "", `headless clicks in points, "x,y;x,y"`)
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintln(os.Stderr, "quadpick:", err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logging.SetLogger(log)

	layout := scene.DefaultLayout()
	if *layoutPath != "" {
		var err error
		if layout, err = scene.LoadLayout(*layoutPath); err != nil {
			log.Error("load layout", "err", err)
			os.Exit(1)
		}
	}

	cfg := core.Config{
		Title:          "quadpick",
		Width:          *width,
		Height:         *height,
		VSync:          *vsync,
		ClearColor:     colors.Teal,
		FramesInFlight: *inFlight,
		FlipY:          *flipY,
		PixelScale:     *pixelScale,
	}
	app := &App{
		layout:     layout,
		title:      cfg.Title,
		outDir:     snapshotDir(*headless, *outDir),
		zoom:       *zoom,
		statsEvery: *statsEvery,
	}

	if *headless {
		cs, err := parseClicks(*clicks)
		if err != nil {
			log.Error("parse clicks", "err", err)
			os.Exit(2)
		}
		_, err = runHeadless(context.Background(), app, cfg, headlessOptions{
			Scale:  *scale,
			Frames: *frames,
			Clicks: cs,
			Out:    os.Stdout,
		})
		if err != nil {
			log.Error("headless run", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := core.Run(app, cfg, platform.NewWindow, glbackend.NewRenderer); err != nil {
		if errors.Is(err, core.ErrNoDevice) {
			log.Error("no graphics device", "err", err)
		} else {
			log.Error("run", "err", err)
		}
		os.Exit(1)
	}
}

const defaultSnapshotDir = "snapshots"

// snapshotDir picks where Ctrl+S writes. Headless runs only export when
// asked to with -out.
func snapshotDir(headless bool, out string) string {
	if out == "" && !headless {
		return defaultSnapshotDir
	}
	return out
}
