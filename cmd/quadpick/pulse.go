package main

import (
	"github.com/hubastard/quadpick/engine/scene"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// pulse pops a quad up in size and eases it back to its base scale.
type pulse struct {
	quad  *scene.Quad
	base  float32
	tween *gween.Tween
}

func newPulse(q *scene.Quad, amount, duration float32) *pulse {
	base := q.Scale()
	return &pulse{
		quad:  q,
		base:  base,
		tween: gween.New(base*amount, base, duration, ease.OutQuad),
	}
}

// Update advances the pulse by dt seconds and reports whether it finished.
// A finished pulse leaves the quad at exactly its base scale.
func (p *pulse) Update(dt float32) bool {
	v, done := p.tween.Update(dt)
	if done {
		p.quad.SetScale(p.base)
		return true
	}
	p.quad.SetScale(v)
	return false
}

func (p *pulse) Cancel() { p.quad.SetScale(p.base) }
