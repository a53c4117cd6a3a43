package main

import (
	"github.com/hubastard/quadpick/engine/core"
	"github.com/hubastard/quadpick/engine/gfx/renderer2d"
)

// SceneLayer draws every registered quad into both render targets.
type SceneLayer struct {
	r2d   *renderer2d.Renderer2D
	stats renderer2d.Statistics
}

func (l *SceneLayer) OnAttach(e *core.Engine) error {
	l.r2d = renderer2d.New(e.Renderer, 0)
	return nil
}

func (l *SceneLayer) OnDetach(e *core.Engine) {}

func (l *SceneLayer) OnUpdate(e *core.Engine, dt float64) {}

func (l *SceneLayer) OnRender(e *core.Engine, alpha float64) {
	l.r2d.BeginScene(e.Viewport.VP())
	{
		l.r2d.DrawScene(e.Scene)
	}
	l.r2d.EndScene()
	l.stats = l.r2d.Stats()
}

func (l *SceneLayer) OnEvent(e *core.Engine, ev core.Event) bool { return false }

// Stats returns the batch statistics of the last rendered frame.
func (l *SceneLayer) Stats() renderer2d.Statistics { return l.stats }
