package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/pkg/logging"
)

// ErrClosed is recorded on tasks handed to a strategy after Close.
var ErrClosed = errors.New("execution strategy closed")

// Name selects an ExecutionStrategy.
type Name string

const (
	SameThread Name = "same-thread"
	Serialized Name = "serialized"
	Parallel   Name = "parallel"
)

// Task is one watcher notification. It completes exactly once, whether it
// ran successfully, panicked, or was abandoned by a closed strategy.
type Task struct {
	name   string
	run    func() error
	finish func(*Task)
	done   chan struct{}
	err    error
}

// NewTask wraps run. finish, if not nil, is called after the task completed.
func NewTask(name string, run func() error, finish func(*Task)) *Task {
	return &Task{
		name:   name,
		run:    run,
		finish: finish,
		done:   make(chan struct{}),
	}
}

// Name returns the task description used in logs.
func (t *Task) Name() string { return t.name }

// Done returns a channel closed when the task completed.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task failure. It is only meaningful after Done is closed.
func (t *Task) Err() error { return t.err }

// execute runs the task, converting panics to errors. Failures are logged
// and kept on the task; they never propagate to the caller.
func (t *Task) execute() {
	defer t.complete()
	defer func() {
		if r := recover(); r != nil {
			t.err = fmt.Errorf("watcher task panicked: %v", r)
		}
	}()
	t.err = t.run()
}

func (t *Task) abandon(err error) {
	t.err = err
	t.complete()
}

func (t *Task) complete() {
	if t.err != nil {
		logging.Error("Strategy", t.err, "Watcher task %s failed", t.name)
	}
	close(t.done)
	if t.finish != nil {
		t.finish(t)
	}
}

// ExecutionStrategy decides how watcher notification tasks are run.
type ExecutionStrategy interface {
	// Execute dispatches tasks and waits up to timeout for them to finish.
	// It returns an *api.TimeoutError when the wait expired; the tasks keep
	// running. A timeout <= 0 dispatches without waiting.
	Execute(tasks []*Task, timeout time.Duration) error

	// Name identifies the strategy.
	Name() Name

	// Close stops accepting tasks. Tasks submitted afterwards complete
	// immediately with ErrClosed.
	Close()
}

// New returns the strategy called name. parallelism bounds the parallel
// strategy (0 = unbounded) and is ignored by the others.
func New(name Name, parallelism int) (ExecutionStrategy, error) {
	switch name {
	case SameThread:
		return NewSameThread(), nil
	case Serialized, "":
		return NewSerialized(), nil
	case Parallel:
		return NewParallel(parallelism), nil
	default:
		return nil, fmt.Errorf("unknown execution strategy %q", name)
	}
}

// waitAll waits for every task until the shared deadline.
func waitAll(tasks []*Task, timeout time.Duration) error {
	if timeout <= 0 || len(tasks) == 0 {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for _, t := range tasks {
		select {
		case <-t.Done():
		case <-timer.C:
			return api.NewTimeoutError("dispatch", timeout, t.Name())
		}
	}
	return nil
}

// firstPending names the first task that has not completed yet.
func firstPending(tasks []*Task) string {
	for _, t := range tasks {
		select {
		case <-t.Done():
		default:
			return t.Name()
		}
	}
	return ""
}
