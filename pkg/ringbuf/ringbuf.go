// Package ringbuf provides a fixed-capacity FIFO window that overwrites its
// oldest element once full.
package ringbuf

// Buffer holds the most recent values added to it.
type Buffer[T any] struct {
	items []T
	size  int
	head  int // next slot to write
	count int
}

// New creates a Buffer with the given capacity.
func New[T any](size int) *Buffer[T] {
	if size <= 0 {
		panic("ring buffer size must be positive")
	}
	return &Buffer[T]{
		items: make([]T, size),
		size:  size,
	}
}

// Add appends v, overwriting the oldest value when the buffer is full.
func (b *Buffer[T]) Add(v T) {
	b.items[b.head] = v
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Len returns the number of values currently held.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return b.size
}

// Values returns the held values oldest first.
func (b *Buffer[T]) Values() []T {
	result := make([]T, b.count)
	if b.count == 0 {
		return result
	}
	if b.count < b.size {
		copy(result, b.items[:b.head])
		return result
	}
	copied := copy(result, b.items[b.head:])
	copy(result[copied:], b.items[:b.head])
	return result
}

// Mean returns the arithmetic mean of the values projected by fn, or 0 when empty.
func Mean[T any](b *Buffer[T], fn func(T) float64) float64 {
	if b.count == 0 {
		return 0
	}
	var sum float64
	for _, v := range b.Values() {
		sum += fn(v)
	}
	return sum / float64(b.count)
}
