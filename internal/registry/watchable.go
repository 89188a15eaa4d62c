package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/container"
	"github.com/giantswarm/registrar/internal/metrics"
	"github.com/giantswarm/registrar/internal/strategy"
	"github.com/giantswarm/registrar/pkg/logging"
)

type eventKind string

const (
	eventAdd    eventKind = "ADD"
	eventRemove eventKind = "REMOVE"
)

// watchable stores supplier and watcher registrations keyed by raw type and
// turns every change into watcher notification tasks.
//
// All mutating methods are called from the serializer goroutine only. Reads
// may happen from anywhere: the containers hand out immutable snapshots.
type watchable struct {
	suppliers container.Container[api.Type, *api.SupplierRegistration]
	watchers  container.Container[api.Type, *api.WatcherRegistration]
	strategy  strategy.ExecutionStrategy
	metrics   *metrics.Metrics

	pendingMu sync.Mutex
	pending   map[*strategy.Task]struct{}

	listenersMu sync.Mutex
	listeners   map[api.TypeListener]*typeListenerAdapter
}

func validateKey(t api.Type) error {
	if t.IsZero() {
		return errors.New("empty type")
	}
	return nil
}

func newWatchable(kind container.Kind, s strategy.ExecutionStrategy, m *metrics.Metrics) *watchable {
	return &watchable{
		suppliers: container.New[api.Type, *api.SupplierRegistration](kind, container.WithKeyValidator(validateKey)),
		watchers:  container.New[api.Type, *api.WatcherRegistration](kind, container.WithKeyValidator(validateKey)),
		strategy:  s,
		metrics:   m,
		pending:   make(map[*strategy.Task]struct{}),
		listeners: make(map[api.TypeListener]*typeListenerAdapter),
	}
}

func keyOf(id api.ID) api.Type { return id.Type.RawType() }

// putSupplier stores reg and notifies every watcher accepting its ID.
func (w *watchable) putSupplier(reg *api.SupplierRegistration, timeout time.Duration) bool {
	if !w.suppliers.Put(keyOf(reg.ID()), reg) {
		return false
	}
	w.dispatch(eventAdd, []*api.SupplierRegistration{reg}, w.acceptingWatchers, timeout)
	return true
}

// removeSupplier drops reg and notifies watchers. Removing an unknown
// registration is a no-op.
func (w *watchable) removeSupplier(reg *api.SupplierRegistration, timeout time.Duration) bool {
	if !w.suppliers.Remove(keyOf(reg.ID()), reg) {
		return false
	}
	w.dispatch(eventRemove, []*api.SupplierRegistration{reg}, w.acceptingWatchers, timeout)
	return true
}

// addWatcher stores reg and back-fills it with every existing supplier it
// accepts.
func (w *watchable) addWatcher(reg *api.WatcherRegistration, timeout time.Duration) bool {
	key := keyOf(reg.ID())
	var backfill []*api.SupplierRegistration
	for _, s := range w.suppliers.GetAll(key) {
		if reg.Accepts(s.ID()) {
			backfill = append(backfill, s)
		}
	}

	if !w.watchers.Put(key, reg) {
		return false
	}
	w.dispatch(eventAdd, backfill, func(api.ID) []*api.WatcherRegistration {
		return []*api.WatcherRegistration{reg}
	}, timeout)
	return true
}

func (w *watchable) removeWatcher(reg *api.WatcherRegistration) bool {
	return w.watchers.Remove(keyOf(reg.ID()), reg)
}

// removeType sends REMOVE for every supplier of t to its watchers, then
// drops t from both containers.
func (w *watchable) removeType(t api.Type, timeout time.Duration) bool {
	key := t.RawType()
	regs := w.suppliers.GetAll(key)
	for _, reg := range regs {
		w.suppliers.Remove(key, reg)
	}
	w.dispatch(eventRemove, regs, w.acceptingWatchers, timeout)

	w.suppliers.Invalidate(key)
	w.watchers.Invalidate(key)
	return len(regs) > 0
}

func (w *watchable) acceptingWatchers(id api.ID) []*api.WatcherRegistration {
	var out []*api.WatcherRegistration
	for _, wr := range w.watchers.GetAll(keyOf(id)) {
		if wr.Accepts(id) {
			out = append(out, wr)
		}
	}
	return out
}

// dispatch builds one task per (supplier, watcher) pair and hands the batch
// to the execution strategy. A dispatch timeout is logged, never returned.
func (w *watchable) dispatch(
	kind eventKind,
	regs []*api.SupplierRegistration,
	targets func(api.ID) []*api.WatcherRegistration,
	timeout time.Duration,
) {
	var tasks []*strategy.Task
	for _, reg := range regs {
		for _, wr := range targets(reg.ID()) {
			tasks = append(tasks, w.newTask(kind, reg, wr))
		}
	}
	if len(tasks) == 0 {
		return
	}

	w.pendingMu.Lock()
	for _, t := range tasks {
		w.pending[t] = struct{}{}
		w.metrics.TaskStarted()
	}
	w.pendingMu.Unlock()

	if err := w.strategy.Execute(tasks, timeout); err != nil {
		w.metrics.DispatchTimedOut()
		logging.Warn("Registry", "%s notification of %d watcher task(s) did not finish in time: %v", kind, len(tasks), err)
	}
}

func (w *watchable) newTask(kind eventKind, reg *api.SupplierRegistration, wr *api.WatcherRegistration) *strategy.Task {
	name := fmt.Sprintf("%s %s -> %s", kind, reg.ID(), wr.ID())
	return strategy.NewTask(name, func() error {
		if kind == eventAdd {
			wr.Watcher().Add(reg)
		} else {
			wr.Watcher().Remove(reg)
		}
		return nil
	}, w.finishTask)
}

func (w *watchable) finishTask(t *strategy.Task) {
	w.pendingMu.Lock()
	delete(w.pending, t)
	w.pendingMu.Unlock()

	result := metrics.ResultOK
	if t.Err() != nil {
		result = metrics.ResultFailed
	}
	w.metrics.TaskFinished(result)
}

func (w *watchable) hasPending() bool {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return len(w.pending) > 0
}

// onPendingDone calls l once every task pending right now has finished. With
// nothing pending, l is called immediately on the caller's goroutine.
func (w *watchable) onPendingDone(l api.CompletionListener) {
	w.pendingMu.Lock()
	snapshot := make([]*strategy.Task, 0, len(w.pending))
	for t := range w.pending {
		snapshot = append(snapshot, t)
	}
	w.pendingMu.Unlock()

	if len(snapshot) == 0 {
		l.Completed()
		return
	}
	go func() {
		for _, t := range snapshot {
			<-t.Done()
		}
		l.Completed()
	}()
}

// get returns the oldest supplier matching id.
func (w *watchable) get(id api.ID) (*api.SupplierRegistration, bool) {
	for _, reg := range w.suppliers.GetAll(keyOf(id)) {
		if id.Matches(reg.ID()) {
			return reg, true
		}
	}
	return nil, false
}

// getAll returns every supplier matching id, oldest first.
func (w *watchable) getAll(id api.ID) []*api.SupplierRegistration {
	var out []*api.SupplierRegistration
	for _, reg := range w.suppliers.GetAll(keyOf(id)) {
		if id.Matches(reg.ID()) {
			out = append(out, reg)
		}
	}
	return out
}

// ids lists the distinct IDs of all registered suppliers.
func (w *watchable) ids() []api.ID {
	var out []api.ID
	for _, key := range w.suppliers.Keys() {
	next:
		for _, reg := range w.suppliers.GetAll(key) {
			for _, seen := range out {
				if seen.Equal(reg.ID()) {
					continue next
				}
			}
			out = append(out, reg.ID())
		}
	}
	return out
}

type typeListenerAdapter struct {
	listener api.TypeListener
}

func (a *typeListenerAdapter) KeyAdded(t api.Type) {
	a.listener.TypeChanged(api.TypeEvent{Kind: api.TypeAdded, Type: t})
}

func (a *typeListenerAdapter) KeyRemoved(t api.Type) {
	a.listener.TypeChanged(api.TypeEvent{Kind: api.TypeRemoved, Type: t})
}

func (w *watchable) addTypeListener(l api.TypeListener) {
	w.listenersMu.Lock()
	defer w.listenersMu.Unlock()
	if _, ok := w.listeners[l]; ok {
		return
	}
	a := &typeListenerAdapter{listener: l}
	w.listeners[l] = a
	w.suppliers.AddKeyListener(a)
}

func (w *watchable) removeTypeListener(l api.TypeListener) {
	w.listenersMu.Lock()
	defer w.listenersMu.Unlock()
	if a, ok := w.listeners[l]; ok {
		delete(w.listeners, l)
		w.suppliers.RemoveKeyListener(a)
	}
}
