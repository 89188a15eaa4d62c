package blocking

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/future"
)

type futureSupplier struct {
	id      api.ID
	current atomic.Pointer[future.Future[api.Supplier]]
}

// NewFuture returns a blocking supplier backed by a settable future. An ADD
// resolves the current future; a REMOVE of the resolved registration swaps
// in a fresh pending one.
func NewFuture(id api.ID) Supplier {
	s := &futureSupplier{id: id}
	s.current.Store(future.New[api.Supplier]())
	return s
}

func (s *futureSupplier) ID() api.ID { return s.id }

func (s *futureSupplier) Add(reg *api.SupplierRegistration) {
	for {
		f := s.current.Load()
		if f.IsCancelled() {
			if s.current.CompareAndSwap(f, future.Resolved[api.Supplier](reg)) {
				return
			}
			continue
		}
		// Ignored when already resolved.
		f.Set(reg)
		return
	}
}

func (s *futureSupplier) Remove(reg *api.SupplierRegistration) {
	for {
		f := s.current.Load()
		v, ok := f.Peek()
		if !(ok && v == api.Supplier(reg)) && !f.IsCancelled() {
			return
		}
		if s.current.CompareAndSwap(f, future.New[api.Supplier]()) {
			return
		}
	}
}

func (s *futureSupplier) Current() (*api.SupplierRegistration, bool) {
	v, ok := s.current.Load().Peek()
	if !ok {
		return nil, false
	}
	reg, ok := v.(*api.SupplierRegistration)
	return reg, ok
}

func (s *futureSupplier) Get() (any, bool) {
	v, ok := s.current.Load().Peek()
	if !ok {
		return nil, false
	}
	return v.Get(), true
}

func (s *futureSupplier) GetAsync() *future.Future[api.Supplier] {
	return s.current.Load()
}

func (s *futureSupplier) GetSync(ctx context.Context) (any, error) {
	for {
		f := s.current.Load()
		v, err := f.Get(ctx)
		if err == nil {
			return v.Get(), nil
		}
		if !errors.Is(err, api.ErrCancelled) {
			return nil, api.NewInterruptedError("getSync", ctx.Err())
		}
		// Someone cancelled the shared future; replace it and keep waiting.
		s.current.CompareAndSwap(f, future.New[api.Supplier]())
	}
}

func (s *futureSupplier) GetSyncTimeout(ctx context.Context, timeout time.Duration) (any, error) {
	bounded, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := s.GetSync(bounded)
	if err != nil && ctx.Err() == nil {
		return nil, api.NewTimeoutError("getSync", timeout, s.id.String())
	}
	return v, err
}
