package strategy

import (
	"context"
	"time"

	"github.com/giantswarm/registrar/internal/queue"
	"github.com/giantswarm/registrar/pkg/logging"
)

type serialized struct {
	tasks   *queue.Queue[*Task]
	stopped chan struct{}
}

// NewSerialized runs tasks one at a time, in submission order, on a single
// dedicated goroutine.
func NewSerialized() ExecutionStrategy {
	s := &serialized{
		tasks:   queue.New[*Task](),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *serialized) loop() {
	defer close(s.stopped)
	for {
		t, ok := s.tasks.Get(context.Background())
		if !ok {
			logging.Debug("Strategy", "Serialized watcher worker stopped")
			return
		}
		t.execute()
	}
}

func (s *serialized) Execute(tasks []*Task, timeout time.Duration) error {
	for _, t := range tasks {
		if !s.tasks.Add(t) {
			t.abandon(ErrClosed)
		}
	}
	return waitAll(tasks, timeout)
}

func (s *serialized) Name() Name { return Serialized }

// Close lets queued tasks drain; it does not wait for them.
func (s *serialized) Close() { s.tasks.Shutdown() }
