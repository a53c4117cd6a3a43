package main

import (
	"fmt"
	"time"

	"github.com/hubastard/quadpick/engine/core"
	"github.com/hubastard/quadpick/engine/logging"
	"github.com/hubastard/quadpick/engine/scene"
)

type App struct {
	layout     scene.Layout
	title      string
	outDir     string
	zoom       int
	statsEvery time.Duration

	scene  *SceneLayer
	picker *PickLayer
}

func (a *App) OnStart(e *core.Engine) error {
	log := logging.Logger()
	log.Info("renderer ready",
		"vendor", e.Renderer.GPUVendor(),
		"renderer", e.Renderer.GPURenderer(),
		"version", e.Renderer.GPUVersion())

	quads, err := a.layout.Build(e.Scene)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	log.Info("scene ready", "quads", len(quads))

	a.scene = &SceneLayer{}
	if err := e.Layers.Attach(e, a.scene); err != nil {
		return err
	}

	// pushed last so it sees pointer and key events first
	a.picker = &PickLayer{
		title:      a.title,
		outDir:     a.outDir,
		zoom:       a.zoom,
		statsEvery: a.statsEvery,
	}
	return e.Layers.Attach(e, a.picker)
}

func (a *App) OnUpdate(e *core.Engine, dt float64)    {}
func (a *App) OnRender(e *core.Engine, alpha float64) {}

func (a *App) OnEvent(e *core.Engine, ev core.Event) {
	if _, ok := ev.(core.EventCloseRequested); ok {
		logging.Logger().Debug("close requested")
	}
}

func (a *App) OnShutdown(e *core.Engine) {
	logging.Logger().Info("shutdown",
		"uptime", e.Uptime().Round(time.Millisecond),
		"quads_last_frame", a.scene.Stats().QuadCount,
		"stats", e.Stats.Snapshot())
}
