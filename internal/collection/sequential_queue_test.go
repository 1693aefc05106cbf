package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialQueue_FIFO(t *testing.T) {
	q := NewSequentialQueue[int](4)
	assert.True(t, q.Empty())

	_, ok := q.Pop()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		q.Push(i)
	}
	assert.Equal(t, 5, q.Len())

	front, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, front)

	for want := 1; want <= 5; want++ {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.True(t, q.Empty())
}

func TestSequentialQueue_LazyCompaction(t *testing.T) {
	q := NewSequentialQueue[int](0)
	for i := 0; i < 100; i++ {
		q.Push(i)
	}

	// Consumed prefix below half the backing length: nothing moves.
	for i := 0; i < 40; i++ {
		q.Pop()
	}
	assert.Equal(t, 40, q.front)
	assert.Equal(t, 100, len(q.items))

	// Crossing half of the backing slice compacts it.
	for i := 0; i < 11; i++ {
		q.Pop()
	}
	assert.Equal(t, 0, q.front)
	assert.Equal(t, 49, len(q.items))

	next, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 51, next)
}

func TestSequentialQueue_SmallQueuesDoNotCompact(t *testing.T) {
	q := NewSequentialQueue[int](0)
	for i := 0; i < 10; i++ {
		q.Push(i)
	}
	for i := 0; i < 9; i++ {
		q.Pop()
	}
	assert.Equal(t, 9, q.front, "prefix under the minimum stays in place")
	assert.Equal(t, 1, q.Len())
}

func TestSequentialQueue_InterleavedPushPop(t *testing.T) {
	q := NewSequentialQueue[int](0)
	next := 0
	for round := 0; round < 50; round++ {
		for i := 0; i < 5; i++ {
			q.Push(round*5 + i)
		}
		for i := 0; i < 4; i++ {
			got, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, next, got)
			next++
		}
	}
	assert.Equal(t, 50, q.Len())
	rest := q.Drain()
	assert.Len(t, rest, 50)
	assert.Equal(t, next, rest[0])
	assert.True(t, q.Empty())
}
