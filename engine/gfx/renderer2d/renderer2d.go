package renderer2d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/core"
	"github.com/hubastard/quadpick/engine/scene"
)

// Vertex: pos2 + fill4 + colorID4 => 10 floats
const vStride = 10

// QuadVertexLayout is the interleaved layout of every batch this package
// submits.
var QuadVertexLayout = core.VertexLayout{
	Stride: vStride * 4,
	Attributes: []core.VertexAttrib{
		{Location: core.AttribPosition, Size: 2, Type: core.AttribFloat32, Offset: 0},
		{Location: core.AttribFill, Size: 4, Type: core.AttribFloat32, Offset: 2 * 4},
		{Location: core.AttribColorID, Size: 4, Type: core.AttribFloat32, Offset: 6 * 4},
	},
}

// Statistics captures the counts generated during a renderer frame.
type Statistics struct {
	DrawCalls int
	QuadCount int
}

// TotalVertexCount reports vertices submitted this frame.
func (s Statistics) TotalVertexCount() int { return s.QuadCount * scene.VerticesPerQuad }

// Renderer2D batches quads into draw commands. Each vertex carries both
// the fill colour and the colour ID so one draw feeds both render targets.
type Renderer2D struct {
	r core.Renderer

	verts     []float32
	quadCount int
	maxQuads  int

	vp    mgl32.Mat4
	stats Statistics
}

// New creates a batcher flushing at most maxQuads quads per draw call.
func New(r core.Renderer, maxQuads int) *Renderer2D {
	if maxQuads <= 0 {
		maxQuads = 10000
	}
	return &Renderer2D{
		r:        r,
		maxQuads: maxQuads,
		verts:    make([]float32, 0, maxQuads*scene.VerticesPerQuad*vStride),
	}
}

func (rd *Renderer2D) BeginScene(vp mgl32.Mat4) {
	rd.vp = vp
	rd.stats = Statistics{}
	rd.resetBatch()
}

func (rd *Renderer2D) EndScene() { rd.flush() }

// Stats returns the current frame statistics snapshot.
func (rd *Renderer2D) Stats() Statistics { return rd.stats }

// DrawQuad queues one quad.
func (rd *Renderer2D) DrawQuad(q *scene.Quad) {
	if rd.quadCount >= rd.maxQuads {
		rd.flush()
	}
	for _, v := range q.Vertices() {
		rd.verts = append(rd.verts,
			v.Position[0], v.Position[1],
			v.Fill[0], v.Fill[1], v.Fill[2], v.Fill[3],
			v.ColorID[0], v.ColorID[1], v.ColorID[2], v.ColorID[3],
		)
	}
	rd.quadCount++
	rd.stats.QuadCount++
}

// DrawScene queues every quad of reg in insertion order.
func (rd *Renderer2D) DrawScene(reg *scene.Registry) {
	reg.Each(rd.DrawQuad)
}

func (rd *Renderer2D) flush() {
	if rd.quadCount == 0 {
		return
	}
	rd.r.Draw(core.DrawCmd{
		Vertices: rd.verts,
		Layout:   QuadVertexLayout,
		VP:       rd.vp,
	})
	rd.stats.DrawCalls++
	rd.resetBatch()
}

func (rd *Renderer2D) resetBatch() {
	rd.verts = rd.verts[:0]
	rd.quadCount = 0
}
