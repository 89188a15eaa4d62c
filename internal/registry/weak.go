package registry

import (
	"context"
	"runtime"
	"sync"
	"weak"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/queue"
	"github.com/giantswarm/registrar/pkg/logging"
)

// AddWeakWatcher registers w without keeping it reachable. Once w has been
// garbage collected its registration is removed in the background. Removal
// is best effort: it happens some time after a collection, or after the
// next delivery that finds w gone.
//
// T must not be a zero-sized type.
func AddWeakWatcher[T any, PT interface {
	*T
	api.Watcher
}](ctx context.Context, r *Registry, matcher api.IDMatcher, w PT) (*api.WatcherRegistration, error) {
	if w == nil {
		return nil, api.NewArgumentError("addWeakWatcher", "watcher", "must not be nil")
	}
	if err := validateWatcher("addWeakWatcher", matcher, w); err != nil {
		return nil, err
	}

	proxy := &weakWatcher[T, PT]{target: weak.Make((*T)(w)), reaper: r.reaper}
	reg := api.NewWeakWatcherRegistration(matcher, proxy)
	proxy.registration = reg
	runtime.AddCleanup((*T)(w), r.reaper.enqueue, reg)

	if err := r.addWatcher(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// weakWatcher forwards events to its target while the target is alive.
type weakWatcher[T any, PT interface {
	*T
	api.Watcher
}] struct {
	target       weak.Pointer[T]
	reaper       *reaper
	registration *api.WatcherRegistration
}

func (w *weakWatcher[T, PT]) Add(reg *api.SupplierRegistration) {
	if t := w.target.Value(); t != nil {
		PT(t).Add(reg)
		return
	}
	w.reaper.enqueue(w.registration)
}

func (w *weakWatcher[T, PT]) Remove(reg *api.SupplierRegistration) {
	if t := w.target.Value(); t != nil {
		PT(t).Remove(reg)
		return
	}
	w.reaper.enqueue(w.registration)
}

// reaper removes the registrations of collected weak watchers. Its goroutine
// is started with the first registration to reap.
type reaper struct {
	registry *Registry
	queue    *queue.Queue[*api.WatcherRegistration]
	once     sync.Once
	done     chan struct{}
}

func newReaper(r *Registry) *reaper {
	return &reaper{
		registry: r,
		queue:    queue.New[*api.WatcherRegistration](),
		done:     make(chan struct{}),
	}
}

// enqueue must not block: it runs on the runtime cleanup goroutine and on
// notification goroutines.
func (p *reaper) enqueue(reg *api.WatcherRegistration) {
	p.once.Do(func() { go p.run() })
	if !p.queue.Add(reg) {
		logging.Debug("Reaper", "Dropping %s, registry is closing", reg)
	}
}

func (p *reaper) run() {
	defer close(p.done)

	for {
		reg, ok := p.queue.Get(context.Background())
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.registry.Timeout())
		removed, err := p.registry.RemoveWatcher(ctx, reg)
		cancel()

		switch {
		case err != nil:
			logging.Warn("Reaper", "Failed to remove collected %s: %v", reg, err)
		case removed:
			p.registry.metrics.WeakReaped()
			logging.Debug("Reaper", "Removed collected %s", reg)
		}
	}
}

// stop drains queued registrations and waits for the goroutine to exit.
func (p *reaper) stop() {
	p.once.Do(func() { close(p.done) })
	p.queue.Shutdown()
	<-p.done
}
