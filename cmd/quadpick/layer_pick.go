package main

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/hubastard/quadpick/engine/assets"
	"github.com/hubastard/quadpick/engine/core"
	"github.com/hubastard/quadpick/engine/logging"
	"github.com/hubastard/quadpick/engine/picking"
)

const (
	pulseAmount   = 1.25
	pulseDuration = 0.35 // seconds
)

var errNoSnapshot = errors.New("no pick snapshot yet")

// PickLayer turns pointer presses into selections and owns the keyboard
// shortcuts: Escape quits and Ctrl+S exports the current targets.
type PickLayer struct {
	title      string
	outDir     string
	zoom       int
	statsEvery time.Duration

	selected   int
	pulse      *pulse
	sinceStats time.Duration
}

func (l *PickLayer) OnAttach(e *core.Engine) error { return nil }

func (l *PickLayer) OnDetach(e *core.Engine) {
	if l.pulse != nil {
		l.pulse.Cancel()
		l.pulse = nil
	}
}

func (l *PickLayer) OnUpdate(e *core.Engine, dt float64) {
	if l.pulse != nil && l.pulse.Update(float32(dt)) {
		l.pulse = nil
	}

	if l.statsEvery <= 0 {
		return
	}
	l.sinceStats += time.Duration(dt * float64(time.Second))
	if l.sinceStats >= l.statsEvery {
		l.sinceStats = 0
		logging.Logger().Debug("stats", "stats", e.Stats.Snapshot())
	}
}

func (l *PickLayer) OnRender(e *core.Engine, alpha float64) {}

func (l *PickLayer) OnEvent(e *core.Engine, ev core.Event) bool {
	switch v := ev.(type) {
	case core.EventMouseButton:
		if v.Button != core.MouseLeft || !v.Down {
			return false
		}
		l.Select(e, v.X, v.Y)
		return true
	case core.EventKey:
		if !v.Down {
			return false
		}
		switch {
		case v.Key == core.KeyEscape:
			e.Window.RequestClose()
			return true
		case v.Key == core.KeyS && v.Mods&core.ModCtrl != 0:
			if paths, err := exportSnapshots(e, l.outDir, l.zoom); err != nil {
				logging.Logger().Warn("snapshot export failed", "err", err)
			} else {
				logging.Logger().Info("snapshot exported", "files", paths)
			}
			return true
		}
	}
	return false
}

// Select resolves the point (x, y) and makes the hit quad the selection.
// A miss clears the selection.
func (l *PickLayer) Select(e *core.Engine, x, y float64) int {
	id, ok := e.Pick(x, y)
	logging.Logger().Info("selection event", "id", id, "hit", ok, "x", x, "y", y)

	l.selected = id
	if l.title != "" {
		if ok {
			e.Window.SetTitle(fmt.Sprintf("%s - quad %d", l.title, id))
		} else {
			e.Window.SetTitle(l.title)
		}
	}
	if !ok {
		return picking.NoSelection
	}

	if l.pulse != nil {
		l.pulse.Cancel()
		l.pulse = nil
	}
	if q, found := e.Scene.Lookup(id); found {
		l.pulse = newPulse(q, pulseAmount, pulseDuration)
	}
	return id
}

// Selected returns the current selection, or picking.NoSelection.
func (l *PickLayer) Selected() int { return l.selected }

// exportSnapshots writes the latest pick buffer and, when the renderer can
// provide it, the beauty target as PNG files under dir.
func exportSnapshots(e *core.Engine, dir string, zoom int) ([]string, error) {
	b := e.Picks.Latest()
	if b == nil {
		return nil, errNoSnapshot
	}
	pickPath := filepath.Join(dir, fmt.Sprintf("pick-%06d.png", b.Frame))
	if err := assets.SavePNG(pickPath, assets.PickImage(b), zoom); err != nil {
		return nil, err
	}
	paths := []string{pickPath}

	if img := beautyImage(e.Renderer); img != nil {
		beautyPath := filepath.Join(dir, fmt.Sprintf("beauty-%06d.png", b.Frame))
		if err := assets.SavePNG(beautyPath, img, zoom); err != nil {
			return paths, err
		}
		paths = append(paths, beautyPath)
	}
	return paths, nil
}

func beautyImage(r core.Renderer) *image.RGBA {
	switch v := r.(type) {
	case interface{ ReadBeauty() *image.RGBA }:
		return v.ReadBeauty()
	case interface{ Presented() *image.RGBA }:
		return v.Presented()
	}
	return nil
}
