package collection

// minCompaction is the smallest consumed prefix worth shifting away.
const minCompaction = 32

// SequentialQueue is a FIFO queue over a growable slice. Pop only advances a
// front index; the consumed prefix is compacted lazily.
type SequentialQueue[T any] struct {
	items []T
	front int
}

// NewSequentialQueue creates a queue with room for capacity items.
func NewSequentialQueue[T any](capacity int) *SequentialQueue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &SequentialQueue[T]{items: make([]T, 0, capacity)}
}

// Push appends v at the back.
func (q *SequentialQueue[T]) Push(v T) {
	q.items = append(q.items, v)
}

// Pop removes and returns the front item. It returns false when empty.
func (q *SequentialQueue[T]) Pop() (T, bool) {
	var zero T
	if q.front >= len(q.items) {
		return zero, false
	}
	v := q.items[q.front]
	q.items[q.front] = zero
	q.front++
	q.maybeCompact()
	return v, true
}

// Peek returns the front item without removing it.
func (q *SequentialQueue[T]) Peek() (T, bool) {
	if q.front >= len(q.items) {
		var zero T
		return zero, false
	}
	return q.items[q.front], true
}

// Len returns the number of pending items.
func (q *SequentialQueue[T]) Len() int { return len(q.items) - q.front }

// Empty reports whether no items are pending.
func (q *SequentialQueue[T]) Empty() bool { return q.Len() == 0 }

// Drain pops every pending item in order.
func (q *SequentialQueue[T]) Drain() []T {
	out := make([]T, 0, q.Len())
	for {
		v, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func (q *SequentialQueue[T]) maybeCompact() {
	if q.front < minCompaction || q.front <= len(q.items)/2 {
		return
	}
	n := copy(q.items, q.items[q.front:])
	clear(q.items[n:])
	q.items = q.items[:n]
	q.front = 0
}
