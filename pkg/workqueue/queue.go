// Package workqueue provides a bounded FIFO queue for handing work from a
// producer to a background consumer.
//
// Put blocks while the queue is full, which is how a slow consumer pushes
// back on a fast producer. Close stops new work from entering while letting
// the consumer take whatever is still queued.
package workqueue

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrInvalidCapacity is returned by New when capacity is not positive.
	ErrInvalidCapacity = errors.New("workqueue: capacity must be greater than 0")

	// ErrQueueFull is returned by TryPut when the queue is at capacity.
	ErrQueueFull = errors.New("workqueue: queue is full")

	// ErrClosed is returned by Put after Close, and by Take once the queue
	// is closed and empty.
	ErrClosed = errors.New("workqueue: queue is closed")
)

// Queue is a bounded FIFO queue safe for concurrent use.
type Queue[T any] struct {
	mu     sync.Mutex
	buf    []T
	head   int
	n      int
	closed bool

	// changed is closed and replaced on every state change so waiters can
	// select on it together with their context.
	changed chan struct{}
}

// New creates a queue holding at most capacity items.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Queue[T]{
		buf:     make([]T, capacity),
		changed: make(chan struct{}),
	}, nil
}

// Put appends item, blocking while the queue is full.
// The item is either fully enqueued (nil error) or not enqueued at all.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		if q.n < len(q.buf) {
			q.push(item)
			q.mu.Unlock()
			return nil
		}
		wait := q.changed
		q.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TryPut appends item without blocking.
func (q *Queue[T]) TryPut(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if q.n == len(q.buf) {
		return ErrQueueFull
	}
	q.push(item)
	return nil
}

// Take removes and returns the oldest item, blocking while the queue is
// empty. After Close it keeps returning queued items until none are left.
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if q.n > 0 {
			item := q.pop()
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			var zero T
			return zero, ErrClosed
		}
		wait := q.changed
		q.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Close stops the queue from accepting items and wakes all waiters.
// It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notify()
}

// Drain removes and returns every queued item in FIFO order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]T, 0, q.n)
	for q.n > 0 {
		items = append(items, q.pop())
	}
	return items
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Cap returns the capacity fixed at construction.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// push must be called with mu held and room available.
func (q *Queue[T]) push(item T) {
	q.buf[(q.head+q.n)%len(q.buf)] = item
	q.n++
	q.notify()
}

// pop must be called with mu held and n > 0.
func (q *Queue[T]) pop() T {
	var zero T
	item := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	q.notify()
	return item
}

func (q *Queue[T]) notify() {
	close(q.changed)
	q.changed = make(chan struct{})
}
