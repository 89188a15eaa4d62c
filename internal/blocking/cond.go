package blocking

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/future"
)

type condSupplier struct {
	id api.ID

	mu   sync.RWMutex
	cond *sync.Cond // uses the write side of mu

	current *api.SupplierRegistration

	// async holds futures handed out by GetAsync while nothing was available.
	async []*future.Future[api.Supplier]
}

// NewCond returns a blocking supplier that waits on a condition variable.
// Get takes the read lock only; waiters hold the write lock while checking
// and release it inside cond.Wait.
func NewCond(id api.ID) Supplier {
	s := &condSupplier{id: id}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *condSupplier) ID() api.ID { return s.id }

func (s *condSupplier) Add(reg *api.SupplierRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return
	}
	s.current = reg
	for _, f := range s.async {
		f.Set(reg)
	}
	s.async = nil
	s.cond.Broadcast()
}

func (s *condSupplier) Remove(reg *api.SupplierRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == reg {
		s.current = nil
	}
}

func (s *condSupplier) Current() (*api.SupplierRegistration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

func (s *condSupplier) Get() (any, bool) {
	reg, ok := s.Current()
	if !ok {
		return nil, false
	}
	return reg.Get(), true
}

func (s *condSupplier) GetAsync() *future.Future[api.Supplier] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return future.Resolved[api.Supplier](s.current)
	}
	// Drop futures their holders cancelled.
	s.async = slices.DeleteFunc(s.async, func(f *future.Future[api.Supplier]) bool {
		return f.IsCancelled()
	})
	f := future.New[api.Supplier]()
	s.async = append(s.async, f)
	return f
}

func (s *condSupplier) GetSync(ctx context.Context) (any, error) {
	reg, err := s.await(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	return reg.Get(), nil
}

func (s *condSupplier) GetSyncTimeout(ctx context.Context, timeout time.Duration) (any, error) {
	reg, err := s.await(ctx, time.Now().Add(timeout))
	if err != nil {
		if api.IsTimeout(err) {
			err = api.NewTimeoutError("getSync", timeout, s.id.String())
		}
		return nil, err
	}
	return reg.Get(), nil
}

// await waits for a delegate. A zero deadline waits without bound.
func (s *condSupplier) await(ctx context.Context, deadline time.Time) (*api.SupplierRegistration, error) {
	if reg, ok := s.Current(); ok {
		return reg, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.current == nil {
		if err := ctx.Err(); err != nil {
			return nil, api.NewInterruptedError("getSync", err)
		}
		var remaining time.Duration
		if !deadline.IsZero() {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return nil, api.NewTimeoutError("getSync", 0, s.id.String())
			}
		}
		s.waitLocked(ctx, remaining)
	}
	return s.current, nil
}

// waitLocked releases the write lock until Add broadcasts, ctx ends or
// remaining elapses (remaining == 0 means no bound). Spurious wakeups are
// handled by the caller's loop.
func (s *condSupplier) waitLocked(ctx context.Context, remaining time.Duration) {
	var expired <-chan time.Time
	if remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		expired = timer.C
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-expired:
		case <-done:
			return
		}
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	}()

	s.cond.Wait()
	close(done)
}
