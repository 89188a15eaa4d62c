package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/blocking"
	"github.com/giantswarm/registrar/internal/container"
	"github.com/giantswarm/registrar/internal/future"
	"github.com/giantswarm/registrar/internal/metrics"
	"github.com/giantswarm/registrar/internal/queue"
	"github.com/giantswarm/registrar/internal/strategy"
	"github.com/giantswarm/registrar/pkg/logging"
)

// DefaultTimeout bounds watcher notification and blocking waits unless
// configured otherwise.
const DefaultTimeout = 5 * time.Second

// ErrStopped is returned to the caller whose action was running when the
// serializer goroutine died.
var ErrStopped = errors.New("registry serializer stopped")

// Config configures a Registry.
type Config struct {
	// Timeout is the default bound for notification dispatch and blocking gets.
	Timeout time.Duration

	// ExecutionStrategy selects how watcher notifications run.
	ExecutionStrategy strategy.Name

	// Parallelism bounds the parallel strategy. 0 means unbounded.
	Parallelism int

	// BlockingStrategy selects the blocking supplier implementation.
	BlockingStrategy blocking.Kind

	// ContainerKind selects the registration storage.
	ContainerKind container.Kind

	// Metrics receives the registry collectors. Nil disables metrics.
	Metrics prometheus.Registerer
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Timeout:           DefaultTimeout,
		ExecutionStrategy: strategy.Serialized,
		BlockingStrategy:  blocking.KindFuture,
		ContainerKind:     container.KindLoadingCache,
	}
}

type actionKind string

const (
	actionPut           actionKind = "put"
	actionRemove        actionKind = "remove"
	actionRemoveAll     actionKind = "removeAll"
	actionAddWatcher    actionKind = "addWatcher"
	actionRemoveWatcher actionKind = "removeWatcher"
	actionInvalidate    actionKind = "invalidate"
)

// action is one queued mutation. apply runs on the serializer goroutine.
type action struct {
	kind   actionKind
	apply  func(timeout time.Duration) bool
	result *future.Future[bool]
}

// Registry maps IDs to suppliers and notifies watchers about changes.
//
// Every mutation is queued as an action and applied by a single serializer
// goroutine, which gives all mutations of a registry one total order. Reads
// go to the containers directly and never wait for the serializer.
type Registry struct {
	config   Config
	timeout  atomic.Int64
	store    *watchable
	strategy strategy.ExecutionStrategy
	metrics  *metrics.Metrics

	actions *queue.Queue[*action]
	stopped chan struct{}

	reaper    *reaper
	closeOnce sync.Once
}

// New creates a registry and starts its serializer goroutine. Zero fields of
// cfg take their DefaultConfig value.
func New(cfg Config) (*Registry, error) {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.ExecutionStrategy == "" {
		cfg.ExecutionStrategy = defaults.ExecutionStrategy
	}
	if cfg.BlockingStrategy == "" {
		cfg.BlockingStrategy = defaults.BlockingStrategy
	}
	if cfg.ContainerKind == "" {
		cfg.ContainerKind = defaults.ContainerKind
	}
	switch cfg.BlockingStrategy {
	case blocking.KindFuture, blocking.KindCondition:
	default:
		return nil, fmt.Errorf("unknown blocking strategy %q", cfg.BlockingStrategy)
	}
	switch cfg.ContainerKind {
	case container.KindLoadingCache, container.KindMultimap:
	default:
		return nil, fmt.Errorf("unknown container kind %q", cfg.ContainerKind)
	}

	m, err := metrics.New(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to register registry metrics: %w", err)
	}
	s, err := strategy.New(cfg.ExecutionStrategy, cfg.Parallelism)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		config:   cfg,
		store:    newWatchable(cfg.ContainerKind, s, m),
		strategy: s,
		metrics:  m,
		actions:  queue.New[*action](),
		stopped:  make(chan struct{}),
	}
	r.reaper = newReaper(r)
	r.timeout.Store(int64(cfg.Timeout))

	go r.run()

	logging.Debug("Registry", "Started registry (strategy=%s, blocking=%s, container=%s, timeout=%s)",
		cfg.ExecutionStrategy, cfg.BlockingStrategy, cfg.ContainerKind, cfg.Timeout)
	return r, nil
}

// Config returns the effective configuration.
func (r *Registry) Config() Config { return r.config }

// Timeout returns the current default timeout.
func (r *Registry) Timeout() time.Duration { return time.Duration(r.timeout.Load()) }

// SetDefaultTimeout changes the timeout applied to later actions and
// blocking gets. Non-positive values are ignored.
func (r *Registry) SetDefaultTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.timeout.Store(int64(d))
}

// run is the serializer loop. It exits once the action queue was shut down
// and drained, or when an action panics.
func (r *Registry) run() {
	defer close(r.stopped)

	for {
		a, ok := r.actions.Get(context.Background())
		if !ok {
			logging.Debug("Registry", "Serializer stopped")
			return
		}
		r.metrics.SetQueueDepth(r.actions.Len())
		if !r.apply(a) {
			return
		}
	}
}

// apply runs a single action. A panic kills the serializer: the queue is
// shut down and every later mutation blocks until its context ends.
func (r *Registry) apply(a *action) (alive bool) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			logging.Error("Registry", fmt.Errorf("%v", p), "Serializer died while applying %s; registry no longer accepts mutations", a.kind)
			r.actions.Shutdown()
			a.result.Cancel()
			alive = false
		}
	}()

	ok := a.apply(r.Timeout())
	r.metrics.ObserveAction(string(a.kind), ok, time.Since(start))
	a.result.Set(ok)
	return true
}

// submit enqueues an action and waits for its result.
func (r *Registry) submit(ctx context.Context, kind actionKind, apply func(time.Duration) bool) (bool, error) {
	a := &action{kind: kind, apply: apply, result: future.New[bool]()}
	if !r.actions.Add(a) {
		logging.Warn("Registry", "Registry is not accepting mutations; %s will wait until its context ends", kind)
		<-ctx.Done()
		return false, api.NewInterruptedError(string(kind), ctx.Err())
	}

	ok, err := a.result.Get(ctx)
	if errors.Is(err, api.ErrCancelled) {
		return false, ErrStopped
	}
	if err != nil {
		return false, api.NewInterruptedError(string(kind), ctx.Err())
	}
	return ok, nil
}

// Put registers supplier under id and returns the registration handle.
// It returns once matching watchers have been notified or the timeout
// expired.
func (r *Registry) Put(ctx context.Context, id api.ID, supplier api.Supplier) (*api.SupplierRegistration, error) {
	if id.IsZero() {
		return nil, api.NewArgumentError(string(actionPut), "id", "must name a type")
	}
	if supplier == nil {
		return nil, api.NewArgumentError(string(actionPut), "supplier", "must not be nil")
	}

	reg := api.NewSupplierRegistration(id, supplier)
	if _, err := r.submit(ctx, actionPut, func(timeout time.Duration) bool {
		return r.store.putSupplier(reg, timeout)
	}); err != nil {
		return nil, err
	}
	return reg, nil
}

// Remove unregisters a supplier. It reports false when reg was not
// registered. Watcher registrations must go through RemoveWatcher.
func (r *Registry) Remove(ctx context.Context, reg api.Registration) (bool, error) {
	sr, err := supplierRegistration(string(actionRemove), reg)
	if err != nil {
		return false, err
	}
	return r.submit(ctx, actionRemove, func(timeout time.Duration) bool {
		return r.store.removeSupplier(sr, timeout)
	})
}

// RemoveAll unregisters every registration in regs in a single action.
// Supplier and watcher registrations may be mixed.
func (r *Registry) RemoveAll(ctx context.Context, regs []api.Registration) error {
	for _, reg := range regs {
		if isNilRegistration(reg) {
			return api.NewArgumentError(string(actionRemoveAll), "registration", "must not be nil")
		}
		switch reg.(type) {
		case *api.SupplierRegistration, *api.WatcherRegistration:
		default:
			return api.NewArgumentError(string(actionRemoveAll), "registration", fmt.Sprintf("unsupported kind %T", reg))
		}
	}

	_, err := r.submit(ctx, actionRemoveAll, func(timeout time.Duration) bool {
		changed := false
		for _, reg := range regs {
			switch reg := reg.(type) {
			case *api.SupplierRegistration:
				changed = r.store.removeSupplier(reg, timeout) || changed
			case *api.WatcherRegistration:
				changed = r.store.removeWatcher(reg) || changed
			}
		}
		return changed
	})
	return err
}

// Get returns the oldest supplier matching id.
func (r *Registry) Get(id api.ID) (api.Supplier, bool) {
	reg, ok := r.store.get(id)
	if !ok {
		return nil, false
	}
	return reg, true
}

// Lookup is Get returning the registration itself.
func (r *Registry) Lookup(id api.ID) (*api.SupplierRegistration, bool) {
	return r.store.get(id)
}

// GetAll returns every supplier matching id, oldest first.
func (r *Registry) GetAll(id api.ID) []api.Supplier {
	regs := r.store.getAll(id)
	out := make([]api.Supplier, len(regs))
	for i, reg := range regs {
		out[i] = reg
	}
	return out
}

// LookupAll is GetAll returning the registrations.
func (r *Registry) LookupAll(id api.ID) []*api.SupplierRegistration {
	return r.store.getAll(id)
}

// IDs lists the distinct IDs currently registered.
func (r *Registry) IDs() []api.ID {
	return r.store.ids()
}

// AddWatcher registers watcher for the suppliers accepted by matcher. The
// watcher first receives an ADD for every matching supplier already present.
func (r *Registry) AddWatcher(ctx context.Context, matcher api.IDMatcher, watcher api.Watcher) (*api.WatcherRegistration, error) {
	if err := validateWatcher(string(actionAddWatcher), matcher, watcher); err != nil {
		return nil, err
	}
	reg := api.NewWatcherRegistration(matcher, watcher)
	if err := r.addWatcher(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) addWatcher(ctx context.Context, reg *api.WatcherRegistration) error {
	_, err := r.submit(ctx, actionAddWatcher, func(timeout time.Duration) bool {
		return r.store.addWatcher(reg, timeout)
	})
	return err
}

// RemoveWatcher unregisters a watcher. It reports false when reg was not
// registered. No notification is sent.
func (r *Registry) RemoveWatcher(ctx context.Context, reg api.Registration) (bool, error) {
	wr, ok := reg.(*api.WatcherRegistration)
	if !ok || wr == nil {
		return false, api.NewArgumentError(string(actionRemoveWatcher), "registration", fmt.Sprintf("expected a watcher registration, got %T", reg))
	}
	return r.submit(ctx, actionRemoveWatcher, func(time.Duration) bool {
		return r.store.removeWatcher(wr)
	})
}

// Blocking is a blocking supplier registered as a watcher on a registry.
type Blocking struct {
	blocking.Supplier

	registry     *Registry
	registration *api.WatcherRegistration
}

// Registration returns the watcher registration of the supplier.
func (b *Blocking) Registration() *api.WatcherRegistration { return b.registration }

// Close stops following the registry.
func (b *Blocking) Close(ctx context.Context) error {
	_, err := b.registry.RemoveWatcher(ctx, b.registration)
	return err
}

// NewBlockingSupplier returns a blocking supplier for id that follows the
// registry. Any supplier already registered under id is delivered before
// NewBlockingSupplier returns, unless notification is asynchronous.
func (r *Registry) NewBlockingSupplier(ctx context.Context, id api.ID) (*Blocking, error) {
	if id.IsZero() {
		return nil, api.NewArgumentError("newBlockingSupplier", "id", "must name a type")
	}
	s, err := blocking.New(r.config.BlockingStrategy, id)
	if err != nil {
		return nil, err
	}
	reg, err := r.AddWatcher(ctx, api.MatchID(id), s)
	if err != nil {
		return nil, err
	}
	return &Blocking{Supplier: s, registry: r, registration: reg}, nil
}

// Hook returns the administrative surface of the registry.
func (r *Registry) Hook() *Hook { return &Hook{r: r} }

// Close stops the registry. Actions already queued are applied first.
// Mutations submitted afterwards block until their context ends.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		r.reaper.stop()
		r.actions.Shutdown()
		<-r.stopped
		r.strategy.Close()
		logging.Debug("Registry", "Registry closed")
	})
}

func supplierRegistration(op string, reg api.Registration) (*api.SupplierRegistration, error) {
	sr, ok := reg.(*api.SupplierRegistration)
	if !ok || sr == nil {
		return nil, api.NewArgumentError(op, "registration", fmt.Sprintf("expected a supplier registration, got %T", reg))
	}
	return sr, nil
}

func isNilRegistration(reg api.Registration) bool {
	switch reg := reg.(type) {
	case *api.SupplierRegistration:
		return reg == nil
	case *api.WatcherRegistration:
		return reg == nil
	}
	return reg == nil
}

func validateWatcher(op string, matcher api.IDMatcher, watcher api.Watcher) error {
	if matcher == nil {
		return api.NewArgumentError(op, "matcher", "must not be nil")
	}
	if matcher.ID().IsZero() {
		return api.NewArgumentError(op, "matcher", "must declare a type")
	}
	if watcher == nil {
		return api.NewArgumentError(op, "watcher", "must not be nil")
	}
	return nil
}
