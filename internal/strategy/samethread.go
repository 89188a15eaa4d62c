package strategy

import (
	"sync/atomic"
	"time"
)

type sameThread struct {
	closed atomic.Bool
}

// NewSameThread runs each task synchronously on the calling goroutine. One
// failing task does not stop the following ones.
func NewSameThread() ExecutionStrategy {
	return &sameThread{}
}

func (s *sameThread) Execute(tasks []*Task, _ time.Duration) error {
	for _, t := range tasks {
		if s.closed.Load() {
			t.abandon(ErrClosed)
			continue
		}
		t.execute()
	}
	return nil
}

func (s *sameThread) Name() Name { return SameThread }

func (s *sameThread) Close() { s.closed.Store(true) }
