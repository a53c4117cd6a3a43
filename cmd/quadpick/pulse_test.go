package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/colors"
	"github.com/hubastard/quadpick/engine/scene"
	"github.com/stretchr/testify/assert"
)

func TestPulseReturnsToBaseScale(t *testing.T) {
	q := scene.NewQuad(1, mgl32.Vec2{}, colors.Red)
	p := newPulse(q, 1.25, 0.35)

	assert.False(t, p.Update(0.1))
	assert.Greater(t, q.Scale(), float32(scene.DefaultScale))
	assert.LessOrEqual(t, q.Scale(), float32(scene.DefaultScale*1.25))

	assert.True(t, p.Update(1))
	assert.Equal(t, float32(scene.DefaultScale), q.Scale())
}

func TestPulseCancel(t *testing.T) {
	q := scene.NewQuad(1, mgl32.Vec2{}, colors.Red)
	q.SetScale(80)
	p := newPulse(q, 2, 1)
	p.Update(0.01)
	assert.NotEqual(t, float32(80), q.Scale())
	p.Cancel()
	assert.Equal(t, float32(80), q.Scale())
}
