package predict

import "errors"

// ErrRingNotFilled is the panic value for reads from a buffer that has not
// been filled at least once.
var ErrRingNotFilled = errors.New("predict: ring buffer not filled")

// RingBuffer is a fixed-capacity circular buffer. Index 0 is the oldest
// sample once the buffer has filled.
type RingBuffer[T any] struct {
	buf   []T
	head  int // index of the most recent sample, -1 when empty
	count int
}

// NewRingBuffer creates a buffer holding n samples.
func NewRingBuffer[T any](n int) *RingBuffer[T] {
	if n < 1 {
		n = 1
	}
	return &RingBuffer[T]{buf: make([]T, n), head: -1}
}

// Add pushes a sample, overwriting the oldest once full.
func (r *RingBuffer[T]) Add(v T) {
	r.head = (r.head + 1) % len(r.buf)
	r.buf[r.head] = v
	if r.count < len(r.buf) {
		r.count++
	}
}

// Get returns sample i counted from the oldest. It panics with
// ErrRingNotFilled until Cap samples have been added.
func (r *RingBuffer[T]) Get(i int) T {
	if r.count < len(r.buf) {
		panic(ErrRingNotFilled)
	}
	if i < 0 || i >= len(r.buf) {
		panic("predict: ring index out of range")
	}
	return r.buf[(r.head+1+i)%len(r.buf)]
}

// Last returns the most recently added sample. It panics on an empty buffer.
func (r *RingBuffer[T]) Last() T {
	if r.count == 0 {
		panic(ErrRingNotFilled)
	}
	return r.buf[r.head]
}

// Full reports whether every slot holds a sample.
func (r *RingBuffer[T]) Full() bool { return r.count == len(r.buf) }

// Len returns the number of stored samples.
func (r *RingBuffer[T]) Len() int { return r.count }

// Cap returns the capacity.
func (r *RingBuffer[T]) Cap() int { return len(r.buf) }

// Reset empties the buffer.
func (r *RingBuffer[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head = -1
	r.count = 0
}

// Update applies fn to every stored slot in place.
func (r *RingBuffer[T]) Update(fn func(T) T) {
	for i := 0; i < r.count; i++ {
		j := (r.head - i + len(r.buf)) % len(r.buf)
		r.buf[j] = fn(r.buf[j])
	}
}
