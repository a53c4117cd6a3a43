package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/colors"
	"github.com/hubastard/quadpick/engine/picking"
)

// ErrRegistryFull is returned once every encodable identifier is in use.
var ErrRegistryFull = errors.New("scene: no identifiers left")

// Registry is the ordered set of quads in a scene. Identifiers come from a
// counter owned by the registry, so two registries never share state.
//
// The registry itself is safe for concurrent use. The quads it returns are
// owned by the render loop.
type Registry struct {
	mu     sync.RWMutex
	nextID int
	quads  []*Quad
	byID   map[int]*Quad
}

func NewRegistry() *Registry {
	return &Registry{nextID: 1, byID: make(map[int]*Quad)}
}

// AddQuad creates a quad with the next identifier (1, 2, 3, ...) and
// appends it to the scene.
func (r *Registry) AddQuad(offset mgl32.Vec2, fill colors.Color) (*Quad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nextID > picking.MaxID {
		return nil, fmt.Errorf("add quad #%d: %w", len(r.quads)+1, ErrRegistryFull)
	}
	q := NewQuad(r.nextID, offset, fill)
	r.nextID++
	r.quads = append(r.quads, q)
	r.byID[q.id] = q
	return q, nil
}

// Quads returns the quads in insertion order. The slice is a copy.
func (r *Registry) Quads() []*Quad {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Quad, len(r.quads))
	copy(out, r.quads)
	return out
}

// Each calls fn for every quad in insertion order without copying.
func (r *Registry) Each(fn func(*Quad)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, q := range r.quads {
		fn(q)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.quads)
}

// Contains reports whether id names a live quad.
func (r *Registry) Contains(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

func (r *Registry) Lookup(id int) (*Quad, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.byID[id]
	return q, ok
}
