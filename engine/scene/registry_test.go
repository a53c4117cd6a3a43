package scene

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/colors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddQuadSequentialIDs(t *testing.T) {
	r := NewRegistry()
	const n = 50
	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		q, err := r.AddQuad(mgl32.Vec2{float32(i), 0}, colors.White)
		require.NoError(t, err)
		assert.Equal(t, i+1, q.ID())
		assert.False(t, seen[q.ID()], "duplicate id %d", q.ID())
		seen[q.ID()] = true
	}
	assert.Equal(t, n, r.Len())
	for id := 1; id <= n; id++ {
		assert.True(t, seen[id])
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	qa, _ := a.AddQuad(mgl32.Vec2{}, colors.White)
	qb, _ := b.AddQuad(mgl32.Vec2{}, colors.White)
	assert.Equal(t, 1, qa.ID())
	assert.Equal(t, 1, qb.ID())
}

func TestQuadsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		_, err := r.AddQuad(mgl32.Vec2{float32(i), 0}, colors.White)
		require.NoError(t, err)
	}
	quads := r.Quads()
	for i, q := range quads {
		assert.Equal(t, i+1, q.ID())
		assert.Equal(t, float32(i), q.Offset()[0])
	}

	var order []int
	r.Each(func(q *Quad) { order = append(order, q.ID()) })
	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)

	// the returned slice is a copy
	quads[0] = nil
	assert.NotNil(t, r.Quads()[0])
}

func TestContainsAndLookup(t *testing.T) {
	r := NewRegistry()
	q, _ := r.AddQuad(mgl32.Vec2{}, colors.White)

	assert.True(t, r.Contains(1))
	assert.False(t, r.Contains(0))
	assert.False(t, r.Contains(-1))
	assert.False(t, r.Contains(2))

	got, ok := r.Lookup(1)
	assert.True(t, ok)
	assert.Same(t, q, got)
	_, ok = r.Lookup(2)
	assert.False(t, ok)
}

func TestRegistryFull(t *testing.T) {
	r := NewRegistry()
	r.nextID = 255*255*255 - 1
	_, err := r.AddQuad(mgl32.Vec2{}, colors.White)
	require.NoError(t, err)
	_, err = r.AddQuad(mgl32.Vec2{}, colors.White)
	assert.ErrorIs(t, err, ErrRegistryFull)
}

func TestConcurrentAddQuadUniqueIDs(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	ids := make(chan int, 400)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				q, err := r.AddQuad(mgl32.Vec2{}, colors.White)
				if err != nil {
					t.Error(err)
					return
				}
				ids <- q.ID()
				assert.True(t, r.Contains(q.ID()))
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 400)
}
