package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/colors"
	"github.com/hubastard/quadpick/engine/picking"
	"github.com/stretchr/testify/assert"
)

func TestNewQuadDefaults(t *testing.T) {
	q := NewQuad(3, mgl32.Vec2{10, 20}, colors.Red)

	assert.Equal(t, 3, q.ID())
	assert.Equal(t, picking.EncodeID(3), q.ColorID())
	assert.Equal(t, DefaultScale, q.Scale())
	assert.Equal(t, mgl32.Vec2{10, 20}, q.Offset())
	assert.Equal(t, colors.Red, q.Fill())
	assert.Equal(t, unitSquare, q.Corners())
}

func TestVerticesFollowScaleAndOffset(t *testing.T) {
	offset := mgl32.Vec2{-7, 13}
	q := NewQuad(1, offset, colors.Blue)

	for _, s := range []float32{DefaultScale, 200, 0.5, 0} {
		q.SetScale(s)
		verts := q.Vertices()
		for i, v := range verts {
			want := unitSquare[triangleOrder[i]].Mul(s).Add(offset)
			if v.Position != want {
				t.Errorf("scale %v: vertex %d = %v, want %v", s, i, v.Position, want)
			}
			assert.Equal(t, colors.Blue, v.Fill)
			assert.Equal(t, q.ColorID(), v.ColorID)
		}
		// shared corners are duplicated across the two triangles
		assert.Equal(t, verts[0].Position, verts[5].Position)
		assert.Equal(t, verts[2].Position, verts[3].Position)
	}
}

func TestSetOffsetAndFillRecompute(t *testing.T) {
	q := NewQuad(1, mgl32.Vec2{}, colors.Red)
	q.SetOffset(mgl32.Vec2{100, -50})
	q.SetFill(colors.Green)

	lo, hi := q.Bounds()
	assert.Equal(t, mgl32.Vec2{50, -100}, lo)
	assert.Equal(t, mgl32.Vec2{150, 0}, hi)
	for _, v := range q.Vertices() {
		assert.Equal(t, colors.Green, v.Fill)
	}
}

func TestSetCorners(t *testing.T) {
	q := NewQuad(1, mgl32.Vec2{}, colors.Red)
	q.SetScale(1)
	q.SetCorners([4]mgl32.Vec2{{2, 1}, {0, 1}, {0, 0}, {2, 0}})

	lo, hi := q.Bounds()
	assert.Equal(t, mgl32.Vec2{0, 0}, lo)
	assert.Equal(t, mgl32.Vec2{2, 1}, hi)
}

func TestZeroScaleCollapses(t *testing.T) {
	q := NewQuad(1, mgl32.Vec2{4, 4}, colors.Red)
	q.SetScale(0)
	for _, v := range q.Vertices() {
		assert.Equal(t, mgl32.Vec2{4, 4}, v.Position)
	}
}

func TestAppendVertices(t *testing.T) {
	a := NewQuad(1, mgl32.Vec2{}, colors.Red)
	b := NewQuad(2, mgl32.Vec2{}, colors.Red)
	out := b.AppendVertices(a.AppendVertices(nil))
	assert.Len(t, out, 2*VerticesPerQuad)
	assert.Equal(t, a.ColorID(), out[0].ColorID)
	assert.Equal(t, b.ColorID(), out[VerticesPerQuad].ColorID)
}
