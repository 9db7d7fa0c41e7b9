package stream

import (
	"sync"
)

// RingBuffer is a bounded FIFO that overwrites its oldest element when full.
// It is safe for concurrent use.
// https://medium.com/@nathanbcrocker/a-practical-guide-to-implementing-a-generic-ring-buffer-in-go-866d27ec1a05
type RingBuffer[T any] struct {
	buffer []T
	size   int
	mu     sync.Mutex
	write  int
	count  int
}

// NewRingBuffer creates a ring buffer holding at most size elements. size must be positive.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	return &RingBuffer[T]{
		buffer: make([]T, size),
		size:   size,
	}
}

func (rb *RingBuffer[T]) add(value T) (evicted bool) {
	evicted = rb.count == rb.size
	rb.buffer[rb.write] = value
	rb.write = (rb.write + 1) % rb.size
	if !evicted {
		rb.count++
	}
	return evicted
}

// Add inserts values in order, overwriting the oldest if full.
// It returns how many old elements were overwritten.
func (rb *RingBuffer[T]) Add(values ...T) (evicted int) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	for _, v := range values {
		if rb.add(v) {
			evicted++
		}
	}
	return evicted
}

// Get returns a copy of the contents in FIFO order.
func (rb *RingBuffer[T]) Get() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	result := make([]T, 0, rb.count)
	for i := 0; i < rb.count; i++ {
		index := (rb.write + rb.size - rb.count + i) % rb.size
		result = append(result, rb.buffer[index])
	}
	return result
}

// Len returns the current number of elements in the buffer.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

func (rb *RingBuffer[T]) Cap() int {
	return rb.size
}
