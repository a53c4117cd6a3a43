package core

import "sync"

// HeadlessWindow is a Window with no display behind it. It stands in for
// the platform window in headless runs and tests. Events are injected with
// Emit and delivered synchronously.
type HeadlessWindow struct {
	mu        sync.Mutex
	w, h      int     // points
	scale     float64 // pixels per point
	maxFrames int
	frames    int
	closed    bool
	title     string
	onEv      func(Event)
}

// NewHeadlessWindow creates a w x h point window backed by a framebuffer
// scale times larger. With maxFrames > 0 it asks to close after that many
// SwapBuffers calls.
func NewHeadlessWindow(w, h int, scale float64, maxFrames int) *HeadlessWindow {
	if scale <= 0 {
		scale = 1
	}
	return &HeadlessWindow{w: w, h: h, scale: scale, maxFrames: maxFrames}
}

func (hw *HeadlessWindow) PollEvents() {}

func (hw *HeadlessWindow) SwapBuffers() {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	hw.frames++
	if hw.maxFrames > 0 && hw.frames >= hw.maxFrames {
		hw.closed = true
	}
}

func (hw *HeadlessWindow) ShouldClose() bool {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.closed
}

func (hw *HeadlessWindow) RequestClose() {
	hw.mu.Lock()
	hw.closed = true
	hw.mu.Unlock()
}

func (hw *HeadlessWindow) FramebufferSize() (int, int) {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return int(float64(hw.w) * hw.scale), int(float64(hw.h) * hw.scale)
}

func (hw *HeadlessWindow) Size() (int, int) {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.w, hw.h
}

func (hw *HeadlessWindow) SetTitle(t string) {
	hw.mu.Lock()
	hw.title = t
	hw.mu.Unlock()
}

func (hw *HeadlessWindow) Title() string {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.title
}

func (hw *HeadlessWindow) SetEventCallback(cb func(Event)) {
	hw.mu.Lock()
	hw.onEv = cb
	hw.mu.Unlock()
}

// Frames reports how many times SwapBuffers was called.
func (hw *HeadlessWindow) Frames() int {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.frames
}

// Resize changes the point size and emits EventResize with the new
// framebuffer size.
func (hw *HeadlessWindow) Resize(w, h int) {
	hw.mu.Lock()
	hw.w, hw.h = w, h
	hw.mu.Unlock()
	fw, fh := hw.FramebufferSize()
	hw.Emit(EventResize{W: fw, H: fh})
}

// Emit delivers ev to the registered callback.
func (hw *HeadlessWindow) Emit(ev Event) {
	hw.mu.Lock()
	cb := hw.onEv
	hw.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}
