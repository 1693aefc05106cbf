package collection

// NavigationStack is a plain LIFO stack.
type NavigationStack[T any] struct {
	items []T
}

// NewNavigationStack creates an empty stack.
func NewNavigationStack[T any]() *NavigationStack[T] {
	return &NavigationStack[T]{}
}

// Push adds v on top of the stack.
func (s *NavigationStack[T]) Push(v T) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top item. It returns false when empty.
func (s *NavigationStack[T]) Pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	last := len(s.items) - 1
	v := s.items[last]
	s.items[last] = zero
	s.items = s.items[:last]
	return v, true
}

// Peek returns the top item without removing it.
func (s *NavigationStack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Empty reports whether the stack holds no items.
func (s *NavigationStack[T]) Empty() bool { return len(s.items) == 0 }

// Len returns the number of items.
func (s *NavigationStack[T]) Len() int { return len(s.items) }

// Clear removes every item.
func (s *NavigationStack[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// History keeps undo and redo stacks of executed actions.
// Executing a new action invalidates everything that could be redone.
type History[T any] struct {
	undo NavigationStack[T]
	redo NavigationStack[T]
}

// NewHistory creates an empty history.
func NewHistory[T any]() *History[T] {
	return &History[T]{}
}

// Execute records a freshly performed action and clears the redo stack.
func (h *History[T]) Execute(action T) {
	h.undo.Push(action)
	h.redo.Clear()
}

// Undo moves the latest action to the redo stack and returns it.
func (h *History[T]) Undo() (T, bool) {
	a, ok := h.undo.Pop()
	if ok {
		h.redo.Push(a)
	}
	return a, ok
}

// Redo moves the latest undone action back to the undo stack and returns it.
func (h *History[T]) Redo() (T, bool) {
	a, ok := h.redo.Pop()
	if ok {
		h.undo.Push(a)
	}
	return a, ok
}

// CanUndo reports whether Undo would return an action.
func (h *History[T]) CanUndo() bool { return !h.undo.Empty() }

// CanRedo reports whether Redo would return an action.
func (h *History[T]) CanRedo() bool { return !h.redo.Empty() }
