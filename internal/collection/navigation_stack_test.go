package collection_test

import (
	"testing"

	"github.com/stemsi/exstem-quiz/internal/collection"
	"github.com/stretchr/testify/assert"
)

func TestNavigationStack_LIFO(t *testing.T) {
	s := collection.NewNavigationStack[int]()
	assert.True(t, s.Empty())

	_, ok := s.Pop()
	assert.False(t, ok, "pop on empty stack")
	_, ok = s.Peek()
	assert.False(t, ok, "peek on empty stack")

	s.Push(1)
	s.Push(2)
	s.Push(3)
	assert.Equal(t, 3, s.Len())

	top, ok := s.Peek()
	assert.True(t, ok)
	assert.Equal(t, 3, top)
	assert.Equal(t, 3, s.Len(), "peek must not remove")

	for _, want := range []int{3, 2, 1} {
		got, ok := s.Pop()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.True(t, s.Empty())
}

func TestNavigationStack_Clear(t *testing.T) {
	s := collection.NewNavigationStack[string]()
	s.Push("a")
	s.Push("b")
	s.Clear()

	assert.True(t, s.Empty())
	s.Push("c")
	top, _ := s.Peek()
	assert.Equal(t, "c", top)
}

func TestHistory_UndoRedo(t *testing.T) {
	h := collection.NewHistory[string]()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	h.Execute("a")
	h.Execute("b")

	got, ok := h.Undo()
	assert.True(t, ok)
	assert.Equal(t, "b", got)
	assert.True(t, h.CanRedo())

	got, ok = h.Redo()
	assert.True(t, ok)
	assert.Equal(t, "b", got)
	assert.False(t, h.CanRedo())

	got, _ = h.Undo()
	assert.Equal(t, "b", got)
	got, _ = h.Undo()
	assert.Equal(t, "a", got)
	_, ok = h.Undo()
	assert.False(t, ok)
}

func TestHistory_ExecuteClearsRedo(t *testing.T) {
	h := collection.NewHistory[int]()
	h.Execute(1)
	h.Execute(2)
	h.Undo()
	assert.True(t, h.CanRedo())

	h.Execute(3)
	assert.False(t, h.CanRedo())

	got, _ := h.Undo()
	assert.Equal(t, 3, got)
	got, _ = h.Undo()
	assert.Equal(t, 1, got)
}
