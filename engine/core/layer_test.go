package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recLayer struct {
	name      string
	log       *[]string
	handles   bool
	attachErr error
}

func (l *recLayer) OnAttach(e *Engine) error {
	*l.log = append(*l.log, "attach "+l.name)
	return l.attachErr
}
func (l *recLayer) OnDetach(e *Engine)                { *l.log = append(*l.log, "detach "+l.name) }
func (l *recLayer) OnUpdate(e *Engine, dt float64)    { *l.log = append(*l.log, "update "+l.name) }
func (l *recLayer) OnRender(e *Engine, alpha float64) { *l.log = append(*l.log, "render "+l.name) }
func (l *recLayer) OnEvent(e *Engine, ev Event) bool {
	*l.log = append(*l.log, "event "+l.name)
	return l.handles
}

func TestLayerStackOrder(t *testing.T) {
	var log []string
	var ls LayerStack
	bottom := &recLayer{name: "bottom", log: &log}
	top := &recLayer{name: "top", log: &log}
	require.NoError(t, ls.Attach(nil, bottom))
	require.NoError(t, ls.Attach(nil, top))
	assert.Equal(t, 2, ls.Len())

	log = nil
	ls.ForEach(func(l Layer) { l.OnUpdate(nil, 0) })
	assert.Equal(t, []string{"update bottom", "update top"}, log)

	log = nil
	assert.False(t, ls.Dispatch(nil, EventScroll{}))
	assert.Equal(t, []string{"event top", "event bottom"}, log)

	log = nil
	top.handles = true
	assert.True(t, ls.Dispatch(nil, EventScroll{}))
	assert.Equal(t, []string{"event top"}, log)

	log = nil
	ls.DetachAll(nil)
	assert.Equal(t, []string{"detach top", "detach bottom"}, log)
	assert.Zero(t, ls.Len())
	_, ok := ls.Pop()
	assert.False(t, ok)
}

func TestLayerStackAttachError(t *testing.T) {
	var log []string
	var ls LayerStack
	boom := errors.New("boom")
	err := ls.Attach(nil, &recLayer{name: "bad", log: &log, attachErr: boom})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, ls.Len())
}

func TestInput(t *testing.T) {
	in := NewInput()
	in.Handle(EventKey{Key: KeyS, Down: true, Mods: ModCtrl})
	assert.True(t, in.IsKeyDown(KeyS))
	in.Handle(EventKey{Key: KeyS})
	assert.False(t, in.IsKeyDown(KeyS))

	in.Handle(EventMouseMove{X: 10, Y: 20})
	x, y := in.Mouse()
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 20.0, y)

	in.Handle(EventMouseButton{Button: MouseRight, Down: true, X: 3, Y: 4})
	assert.True(t, in.IsButtonDown(MouseRight))
	assert.False(t, in.IsButtonDown(MouseLeft))
	x, y = in.Mouse()
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}

func TestHeadlessWindow(t *testing.T) {
	hw := NewHeadlessWindow(100, 50, 2, 2)
	fw, fh := hw.FramebufferSize()
	assert.Equal(t, 200, fw)
	assert.Equal(t, 100, fh)
	w, h := hw.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	var got []Event
	hw.SetEventCallback(func(ev Event) { got = append(got, ev) })
	hw.Resize(30, 20)
	assert.Equal(t, []Event{EventResize{W: 60, H: 40}}, got)

	hw.SwapBuffers()
	assert.False(t, hw.ShouldClose())
	hw.SwapBuffers()
	assert.True(t, hw.ShouldClose())
	assert.Equal(t, 2, hw.Frames())

	hw.SetTitle("x")
	assert.Equal(t, "x", hw.Title())
}
