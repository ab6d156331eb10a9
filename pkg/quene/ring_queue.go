package quene

import (
	"errors"
	"sync"
)

var (
	ErrQueueFull  = errors.New("[RingQueue.Enqueue]queue is full")
	ErrQueueEmpty = errors.New("[RingQueue.Dequeue]queue is empty")
)

// RingQueue is a fixed-capacity FIFO safe for concurrent use.
type RingQueue[T any] struct {
	items []T
	head  int
	size  int
	mu    sync.RWMutex
}

func NewRingQueue[T any](capacity int) *RingQueue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingQueue[T]{items: make([]T, capacity)}
}

func (q *RingQueue[T]) Cap() int {
	return len(q.items)
}

func (q *RingQueue[T]) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.size
}

func (q *RingQueue[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.items) {
		return ErrQueueFull
	}
	q.items[(q.head+q.size)%len(q.items)] = item
	q.size++
	return nil
}

func (q *RingQueue[T]) Dequeue() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, ErrQueueEmpty
	}
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return item, nil
}
