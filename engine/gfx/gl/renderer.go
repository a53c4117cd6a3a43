package glbackend

import (
	"fmt"
	"image"
	"strings"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/hubastard/quadpick/engine/assets"
	"github.com/hubastard/quadpick/engine/core"
	"github.com/hubastard/quadpick/engine/logging"
	"github.com/hubastard/quadpick/engine/picking"
	"github.com/hubastard/quadpick/engine/stats"
)

// fenceTimeout bounds one glClientWaitSync call; waits loop until the fence
// signals.
const fenceTimeout = uint64(time.Second)

// readbackSlot is one pixel-pack buffer in the ring of pending pick
// readbacks.
type readbackSlot struct {
	pbo       uint32
	size      int
	fence     uintptr
	frame     uint64
	w, h      int
	submitted time.Time
	busy      bool
}

// RendererGL draws into a framebuffer with two colour attachments in one
// pass. Attachment 0 is blitted to the window; attachment 1 is read back
// asynchronously through a ring of pixel-pack buffers and published once
// its fence signals.
type RendererGL struct {
	win      core.Window
	out      picking.Publisher
	counters *stats.Counters

	program uint32
	uVP     int32
	vao     uint32
	vbo     uint32
	vboSize int

	fbo    uint32
	beauty uint32
	pick   uint32
	width  int
	height int
	fboErr error // set by Resize, returned from EndFrame

	ring  []readbackSlot
	next  int
	frame uint64

	vendor, renderer, version string
}

func NewRendererGL(win core.Window, cfg core.Config, out core.FrameOutput) (*RendererGL, error) {
	r := &RendererGL{
		win:      win,
		out:      out.Picks,
		counters: out.Stats,
		ring:     make([]readbackSlot, cfg.InFlight()),
	}
	if err := r.Init(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRenderer matches core.RendererFactory.
func NewRenderer(win core.Window, cfg core.Config, out core.FrameOutput) (core.Renderer, error) {
	return NewRendererGL(win, cfg, out)
}

func (r *RendererGL) Init() error {
	if r.out == nil {
		return fmt.Errorf("gl: no pick publisher: %w", core.ErrNoDevice)
	}
	r.vendor = gl.GoStr(gl.GetString(gl.VENDOR))
	r.renderer = gl.GoStr(gl.GetString(gl.RENDERER))
	r.version = gl.GoStr(gl.GetString(gl.VERSION))

	vs, err := assets.LoadShader("picking.vert")
	if err != nil {
		return err
	}
	fs, err := assets.LoadShader("picking.frag")
	if err != nil {
		return err
	}
	r.program, err = makeProgram(vs, fs)
	if err != nil {
		return fmt.Errorf("gl: %w: %v", core.ErrNoDevice, err)
	}
	r.uVP = gl.GetUniformLocation(r.program, gl.Str("uVP\x00"))

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	for i := range r.ring {
		gl.GenBuffers(1, &r.ring[i].pbo)
	}
	gl.GenFramebuffers(1, &r.fbo)

	// The pick target must hold exact bytes: no blending, no
	// multisampling, no sRGB conversion.
	gl.Disable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.MULTISAMPLE)
	gl.Disable(gl.FRAMEBUFFER_SRGB)
	gl.Disable(gl.DITHER)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)

	logging.Logger().Info("gl renderer ready",
		"vendor", r.vendor, "renderer", r.renderer, "version", r.version,
		"frames_in_flight", len(r.ring))
	return nil
}

// Resize reallocates both attachments. Pending readbacks keep their own
// size so they still publish correctly.
func (r *RendererGL) Resize(w, h int) {
	if w < 1 || h < 1 {
		return
	}
	r.width, r.height = w, h

	if r.beauty != 0 {
		gl.DeleteTextures(1, &r.beauty)
	}
	if r.pick != 0 {
		gl.DeleteTextures(1, &r.pick)
	}
	r.beauty = newTarget(w, h)
	r.pick = newTarget(w, h)

	gl.BindFramebuffer(gl.FRAMEBUFFER, r.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, r.beauty, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT1, gl.TEXTURE_2D, r.pick, 0)
	bufs := [2]uint32{gl.COLOR_ATTACHMENT0, gl.COLOR_ATTACHMENT1}
	gl.DrawBuffers(2, &bufs[0])
	r.fboErr = nil
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		r.fboErr = framebufferError(status, w, h)
		logging.Logger().Error("gl framebuffer incomplete", "status", fmt.Sprintf("0x%x", status), "w", w, "h", h)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// framebufferError reports an incomplete framebuffer. Nothing drawn into
// it can be picked, so it is fatal.
func framebufferError(status uint32, w, h int) error {
	return fmt.Errorf("gl: framebuffer %dx%d incomplete (status 0x%x): %w", w, h, status, core.ErrNoDevice)
}

// newTarget allocates an RGBA8 texture sampled with NEAREST only.
func newTarget(w, h int) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (r *RendererGL) Clear(rf, gf, bf, af float32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.fbo)
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	beauty := [4]float32{rf, gf, bf, af}
	var none [4]float32
	gl.ClearBufferfv(gl.COLOR, 0, &beauty[0])
	gl.ClearBufferfv(gl.COLOR, 1, &none[0])
}

func (r *RendererGL) Draw(cmd core.DrawCmd) {
	n := cmd.VertexCount()
	if n == 0 {
		return
	}
	size := len(cmd.Vertices) * 4

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	if size > r.vboSize {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(cmd.Vertices), gl.STREAM_DRAW)
		r.vboSize = size
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(cmd.Vertices))
	}
	for _, a := range cmd.Layout.Attributes {
		gl.EnableVertexAttribArray(uint32(a.Location))
		gl.VertexAttribPointer(uint32(a.Location), int32(a.Size), gl.FLOAT, false,
			int32(cmd.Layout.Stride), gl.PtrOffset(a.Offset))
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uVP, 1, false, &cmd.VP[0])
	gl.DrawArrays(gl.TRIANGLES, 0, int32(n))

	gl.UseProgram(0)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// EndFrame blits the beauty target to the window and queues an
// asynchronous readback of the pick target. Completed readbacks are
// published in submission order.
func (r *RendererGL) EndFrame() error {
	if r.fboErr != nil {
		return r.fboErr
	}
	if r.width == 0 {
		return nil
	}
	r.frame++

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	w, h := int32(r.width), int32(r.height)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)

	// The ring is full: wait for the oldest frame before reusing its slot.
	slot := &r.ring[r.next]
	if slot.busy {
		if err := r.complete(slot, true); err != nil {
			return err
		}
	}

	size := r.width * r.height * 4
	gl.ReadBuffer(gl.COLOR_ATTACHMENT1)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, slot.pbo)
	if slot.size != size {
		gl.BufferData(gl.PIXEL_PACK_BUFFER, size, nil, gl.STREAM_READ)
		slot.size = size
	}
	gl.ReadPixels(0, 0, w, h, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	slot.fence = gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	slot.frame = r.frame
	slot.w, slot.h = r.width, r.height
	slot.submitted = time.Now()
	slot.busy = true
	r.next = (r.next + 1) % len(r.ring)

	return r.harvest()
}

// harvest publishes, oldest first, every pending readback whose fence has
// already signalled. It stops at the first one still running.
func (r *RendererGL) harvest() error {
	for i := 0; i < len(r.ring); i++ {
		slot := &r.ring[(r.next+i)%len(r.ring)]
		if !slot.busy {
			continue
		}
		if !signalled(slot.fence) {
			return nil
		}
		if err := r.complete(slot, false); err != nil {
			return err
		}
	}
	return nil
}

func signalled(fence uintptr) bool {
	switch gl.ClientWaitSync(fence, 0, 0) {
	case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
		return true
	}
	return false
}

// complete waits for slot's fence if block is set, copies the pixels out
// bottom-up -> top-down, and publishes them.
func (r *RendererGL) complete(slot *readbackSlot, block bool) error {
	if block {
		for {
			res := gl.ClientWaitSync(slot.fence, gl.SYNC_FLUSH_COMMANDS_BIT, fenceTimeout)
			if res == gl.ALREADY_SIGNALED || res == gl.CONDITION_SATISFIED {
				break
			}
			if res == gl.WAIT_FAILED {
				return fmt.Errorf("gl: wait for frame %d: %w", slot.frame, core.ErrNoDevice)
			}
			logging.Logger().Warn("gl readback still pending", "frame", slot.frame)
		}
	}
	gl.DeleteSync(slot.fence)
	slot.fence = 0
	slot.busy = false

	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, slot.pbo)
	defer gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	n := slot.w * slot.h * 4
	ptr := gl.MapBufferRange(gl.PIXEL_PACK_BUFFER, 0, n, gl.MAP_READ_BIT)
	if ptr == nil {
		logging.Logger().Warn("gl readback map failed", "frame", slot.frame)
		return nil
	}
	buf := picking.NewBuffer(slot.w, slot.h, slot.frame)
	buf.FlipRowsFrom(unsafe.Slice((*byte)(ptr), n))
	gl.UnmapBuffer(gl.PIXEL_PACK_BUFFER)

	if r.out.Publish(buf) {
		r.counters.FrameCompleted(time.Since(slot.submitted))
	}
	return nil
}

// Drain blocks until every pending readback has been published.
func (r *RendererGL) Drain() error {
	for i := 0; i < len(r.ring); i++ {
		slot := &r.ring[(r.next+i)%len(r.ring)]
		if slot.busy {
			if err := r.complete(slot, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadBeauty synchronously reads the beauty target, top row first.
func (r *RendererGL) ReadBeauty() *image.RGBA {
	buf := picking.NewBuffer(r.width, r.height, r.frame)
	raw := make([]byte, len(buf.Pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	if len(raw) > 0 {
		gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(raw))
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	buf.FlipRowsFrom(raw)
	return assets.PickImage(buf)
}

func (r *RendererGL) Shutdown() {
	if err := r.Drain(); err != nil {
		logging.Logger().Warn("gl drain on shutdown", "err", err)
	}
	for i := range r.ring {
		if r.ring[i].pbo != 0 {
			gl.DeleteBuffers(1, &r.ring[i].pbo)
		}
	}
	if r.fbo != 0 {
		gl.DeleteFramebuffers(1, &r.fbo)
	}
	if r.beauty != 0 {
		gl.DeleteTextures(1, &r.beauty)
	}
	if r.pick != 0 {
		gl.DeleteTextures(1, &r.pick)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

func (r *RendererGL) GPUVendor() string   { return r.vendor }
func (r *RendererGL) GPURenderer() string { return r.renderer }
func (r *RendererGL) GPUVersion() string  { return r.version }

// --- Shader utilities ---

func makeShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("shader compile error: %s", log)
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("program link error: %s", log)
	}
	return prog, nil
}
