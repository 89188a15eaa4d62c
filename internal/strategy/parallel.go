package strategy

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/giantswarm/registrar/internal/api"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type parallel struct {
	// sem bounds the number of tasks running across all batches; nil when
	// unbounded.
	sem    *semaphore.Weighted
	closed atomic.Bool
}

// NewParallel runs all tasks of a batch concurrently. limit bounds the
// number of tasks running at once across batches; 0 means unbounded.
func NewParallel(limit int) ExecutionStrategy {
	p := &parallel{}
	if limit > 0 {
		p.sem = semaphore.NewWeighted(int64(limit))
	}
	return p
}

func (p *parallel) Execute(tasks []*Task, timeout time.Duration) error {
	if p.closed.Load() {
		for _, t := range tasks {
			t.abandon(ErrClosed)
		}
		return nil
	}

	var g errgroup.Group
	for _, t := range tasks {
		g.Go(func() error {
			if p.sem != nil {
				// Acquire cannot fail on a background context.
				_ = p.sem.Acquire(context.Background(), 1)
				defer p.sem.Release(1)
			}
			t.execute()
			return nil
		})
	}

	batch := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(batch)
	}()

	if timeout <= 0 {
		return nil
	}
	select {
	case <-batch:
		return nil
	case <-time.After(timeout):
		return api.NewTimeoutError("dispatch", timeout, firstPending(tasks))
	}
}

func (p *parallel) Name() Name { return Parallel }

func (p *parallel) Close() { p.closed.Store(true) }
