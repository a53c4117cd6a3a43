package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/colors"
	"github.com/hubastard/quadpick/engine/picking"
)

// DefaultScale is the half-extent, in pixels, of a freshly created quad.
const DefaultScale float32 = 50

// VerticesPerQuad is the length of a quad's triangle list.
const VerticesPerQuad = 6

// Vertex feeds both render targets: the beauty pass emits Fill, the pick
// pass emits ColorID.
type Vertex struct {
	Position mgl32.Vec2
	Fill     colors.Color
	ColorID  colors.Color
}

// unitSquare lists the corners counter-clockwise starting top-right.
var unitSquare = [4]mgl32.Vec2{
	{1, 1},
	{-1, 1},
	{-1, -1},
	{1, -1},
}

// two triangles: (0,1,2) and (2,3,0)
var triangleOrder = [VerticesPerQuad]int{0, 1, 2, 2, 3, 0}

// Quad is a pickable square. Its vertices are rebuilt eagerly on every
// mutation so they always agree with scale, offset and fill.
//
// A Quad is not safe for concurrent mutation; the render loop owns it.
type Quad struct {
	id      int
	colorID colors.Color

	corners [4]mgl32.Vec2
	fill    colors.Color
	scale   float32
	offset  mgl32.Vec2

	verts [VerticesPerQuad]Vertex
}

// NewQuad builds a quad with DefaultScale. Most callers want
// Registry.AddQuad, which also assigns the identifier.
func NewQuad(id int, offset mgl32.Vec2, fill colors.Color) *Quad {
	q := &Quad{
		id:      id,
		colorID: picking.EncodeID(id),
		corners: unitSquare,
		fill:    fill,
		scale:   DefaultScale,
		offset:  offset,
	}
	q.updateVerts()
	return q
}

func (q *Quad) ID() int                { return q.id }
func (q *Quad) ColorID() colors.Color  { return q.colorID }
func (q *Quad) Fill() colors.Color     { return q.fill }
func (q *Quad) Scale() float32         { return q.scale }
func (q *Quad) Offset() mgl32.Vec2     { return q.offset }
func (q *Quad) Corners() [4]mgl32.Vec2 { return q.corners }

// Vertices returns the two-triangle list in world space.
func (q *Quad) Vertices() [VerticesPerQuad]Vertex { return q.verts }

// AppendVertices appends the triangle list to dst.
func (q *Quad) AppendVertices(dst []Vertex) []Vertex { return append(dst, q.verts[:]...) }

// SetScale changes the half-extent. Zero collapses the quad to a point,
// which is allowed and simply makes it unpickable.
func (q *Quad) SetScale(s float32) {
	q.scale = s
	q.updateVerts()
}

func (q *Quad) SetOffset(o mgl32.Vec2) {
	q.offset = o
	q.updateVerts()
}

func (q *Quad) SetFill(c colors.Color) {
	q.fill = c
	q.updateVerts()
}

// SetCorners replaces the local-space template the vertices are built from.
func (q *Quad) SetCorners(c [4]mgl32.Vec2) {
	q.corners = c
	q.updateVerts()
}

// Bounds returns the world-space axis-aligned box covered by the quad.
func (q *Quad) Bounds() (lo, hi mgl32.Vec2) {
	lo = q.verts[0].Position
	hi = lo
	for _, v := range q.verts[1:] {
		lo = mgl32.Vec2{min(lo[0], v.Position[0]), min(lo[1], v.Position[1])}
		hi = mgl32.Vec2{max(hi[0], v.Position[0]), max(hi[1], v.Position[1])}
	}
	return lo, hi
}

func (q *Quad) updateVerts() {
	for i, c := range triangleOrder {
		q.verts[i] = Vertex{
			Position: q.corners[c].Mul(q.scale).Add(q.offset),
			Fill:     q.fill,
			ColorID:  q.colorID,
		}
	}
}
