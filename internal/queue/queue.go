// Package queue provides the unbounded FIFO used by the registry's
// serializer goroutine and by the serialized execution strategy.
//
// The queue supports any number of producers. Get is meant for a single
// consumer; it blocks until an item is available, the queue is shut down,
// or the consumer's context ends.
package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded, blocking FIFO.
type Queue[T any] struct {
	mu sync.Mutex

	// items holds queued values in FIFO order
	items []T

	// cond is used for blocking Get operations
	cond *sync.Cond

	// shuttingDown indicates the queue is stopping
	shuttingDown bool
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add appends an item. It reports false, dropping the item, once the queue
// has been shut down.
func (q *Queue[T]) Add(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shuttingDown {
		return false
	}

	q.items = append(q.items, item)
	q.cond.Signal()
	return true
}

// Get retrieves the next item, blocking if necessary. ok is false when the
// queue was shut down and drained, or when ctx ended.
func (q *Queue[T]) Get(ctx context.Context) (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.shuttingDown {
		select {
		case <-ctx.Done():
			return item, false
		default:
		}

		// The helper goroutine turns context cancellation into a broadcast.
		// Closing done makes it exit when we were woken normally.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				q.mu.Lock()
				q.cond.Broadcast()
				q.mu.Unlock()
			case <-done:
			}
		}()

		q.cond.Wait()
		close(done)

		select {
		case <-ctx.Done():
			return item, false
		default:
		}
	}

	if len(q.items) == 0 {
		return item, false
	}

	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Shutdown stops accepting items. Items already queued are still returned
// by Get; once drained, Get returns ok == false.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shuttingDown = true
	q.cond.Broadcast()
}

// ShuttingDown reports whether Shutdown was called.
func (q *Queue[T]) ShuttingDown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuttingDown
}
