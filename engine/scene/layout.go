package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/quadpick/engine/colors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidLayout = errors.New("scene: invalid layout")

// Layout is the initial placement of every quad, in creation order.
type Layout struct {
	Quads []QuadSpec `yaml:"quads"`
}

// QuadSpec places one quad. Color defaults to white and Scale to
// DefaultScale when omitted.
type QuadSpec struct {
	Offset [2]float32    `yaml:"offset"`
	Color  *colors.Color `yaml:"color,omitempty"`
	Scale  *float32      `yaml:"scale,omitempty"`
}

// DefaultLayout is the five-quad sample scene: a large quad in the middle
// and four small ones around it.
func DefaultLayout() Layout {
	big := float32(200)
	return Layout{Quads: []QuadSpec{
		{Offset: [2]float32{0, 0}, Color: ptr(colors.Red), Scale: &big},
		{Offset: [2]float32{-400, 220}, Color: ptr(colors.Green)},
		{Offset: [2]float32{400, 220}, Color: ptr(colors.Blue)},
		{Offset: [2]float32{-400, -220}, Color: ptr(colors.Yellow)},
		{Offset: [2]float32{400, -220}, Color: ptr(colors.Magenta)},
	}}
}

// LoadLayout reads a YAML layout file.
func LoadLayout(path string) (Layout, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("load layout %q: %w", path, err)
	}
	l, err := ParseLayout(b)
	if err != nil {
		return Layout{}, fmt.Errorf("load layout %q: %w", path, err)
	}
	return l, nil
}

// ParseLayout decodes and validates a YAML layout.
func ParseLayout(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

func (l Layout) Validate() error {
	if len(l.Quads) == 0 {
		return fmt.Errorf("%w: no quads", ErrInvalidLayout)
	}
	for i, q := range l.Quads {
		if q.Scale != nil && !(*q.Scale >= 0) {
			return fmt.Errorf("%w: quad %d: scale %v is negative", ErrInvalidLayout, i, *q.Scale)
		}
		if q.Color != nil {
			for _, ch := range q.Color {
				if !(ch >= 0 && ch <= 1) {
					return fmt.Errorf("%w: quad %d: colour %v outside [0,1]", ErrInvalidLayout, i, *q.Color)
				}
			}
		}
	}
	return nil
}

// Build adds every quad of the layout to r and returns them in order.
func (l Layout) Build(r *Registry) ([]*Quad, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	out := make([]*Quad, 0, len(l.Quads))
	for _, spec := range l.Quads {
		fill := colors.White
		if spec.Color != nil {
			fill = *spec.Color
		}
		q, err := r.AddQuad(mgl32.Vec2(spec.Offset), fill)
		if err != nil {
			return out, err
		}
		if spec.Scale != nil {
			q.SetScale(*spec.Scale)
		}
		out = append(out, q)
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }
