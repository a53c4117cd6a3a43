package core

// Layer is a slice of app behaviour with its own update, render and event
// hooks. Events travel top-down and stop at the first layer that handles
// them; update and render run bottom-up.
type Layer interface {
	OnAttach(e *Engine) error
	OnDetach(e *Engine)
	OnUpdate(e *Engine, dt float64)
	OnRender(e *Engine, alpha float64)
	OnEvent(e *Engine, ev Event) bool // return true if handled; propagation stops
}

type LayerStack struct{ list []Layer }

// Attach pushes l and runs its OnAttach hook. On error l is not kept.
func (ls *LayerStack) Attach(e *Engine, l Layer) error {
	if err := l.OnAttach(e); err != nil {
		return err
	}
	ls.list = append(ls.list, l)
	return nil
}

func (ls *LayerStack) Pop() (Layer, bool) {
	if len(ls.list) == 0 {
		return nil, false
	}
	i := len(ls.list) - 1
	l := ls.list[i]
	ls.list = ls.list[:i]
	return l, true
}

func (ls *LayerStack) Len() int { return len(ls.list) }

func (ls *LayerStack) ForEach(f func(Layer)) {
	for _, l := range ls.list {
		f(l)
	}
}

func (ls *LayerStack) ForEachReverse(f func(Layer) bool) {
	for i := len(ls.list) - 1; i >= 0; i-- {
		if stop := f(ls.list[i]); stop {
			break
		}
	}
}

// DetachAll pops every layer, top first, calling OnDetach on each.
func (ls *LayerStack) DetachAll(e *Engine) {
	for {
		l, ok := ls.Pop()
		if !ok {
			return
		}
		l.OnDetach(e)
	}
}

// Dispatch offers ev to the layers top-down and reports whether one
// handled it.
func (ls *LayerStack) Dispatch(e *Engine, ev Event) bool {
	handled := false
	ls.ForEachReverse(func(l Layer) bool {
		handled = l.OnEvent(e, ev)
		return handled
	})
	return handled
}
