// Package future provides a single-assignment, settable future.
//
// A Future is resolved at most once, either with a value (Set) or by
// cancellation (Cancel). Waiters block on Get until one of the two happens
// or their context ends.
package future

import (
	"context"
	"sync"

	"github.com/giantswarm/registrar/internal/api"
)

// Future holds a value that becomes available later.
type Future[T any] struct {
	once      sync.Once
	done      chan struct{}
	value     T
	cancelled bool
}

// New returns an unresolved future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already holding v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Set(v)
	return f
}

// Set resolves the future with v. It reports false when the future was
// already resolved or cancelled.
func (f *Future[T]) Set(v T) bool {
	set := false
	f.once.Do(func() {
		f.value = v
		set = true
		close(f.done)
	})
	return set
}

// Cancel resolves the future without a value. It reports false when the
// future was already resolved.
func (f *Future[T]) Cancel() bool {
	cancelled := false
	f.once.Do(func() {
		f.cancelled = true
		cancelled = true
		close(f.done)
	})
	return cancelled
}

// Done returns a channel closed once the future is resolved or cancelled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// IsDone reports whether the future is resolved or cancelled.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the future was cancelled.
func (f *Future[T]) IsCancelled() bool {
	return f.IsDone() && f.cancelled
}

// Peek returns the value without blocking. ok is false while the future is
// pending or when it was cancelled.
func (f *Future[T]) Peek() (v T, ok bool) {
	if !f.IsDone() || f.cancelled {
		return v, false
	}
	return f.value, true
}

// Get blocks until the future is resolved. A cancelled future yields
// api.ErrCancelled; an ended context yields an *api.InterruptedError. A
// future that is already done answers even when ctx has ended.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	if f.IsDone() {
		return f.result()
	}
	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, api.NewInterruptedError("future.Get", ctx.Err())
	}
}

func (f *Future[T]) result() (T, error) {
	if f.cancelled {
		var zero T
		return zero, api.ErrCancelled
	}
	return f.value, nil
}
