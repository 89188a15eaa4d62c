package api

import (
	"fmt"

	"github.com/google/uuid"
)

// Supplier is a lazily evaluated value provider.
type Supplier interface {
	Get() any
}

// SupplierFunc adapts a function to Supplier.
type SupplierFunc func() any

// Get calls f.
func (f SupplierFunc) Get() any { return f() }

// Instance returns a Supplier that always yields v.
func Instance(v any) Supplier {
	return SupplierFunc(func() any { return v })
}

// Watcher is notified when suppliers accepted by its IDMatcher are added to
// or removed from a registry. Implementations must be safe for concurrent
// use when the registry runs a parallel execution strategy.
type Watcher interface {
	Add(reg *SupplierRegistration)
	Remove(reg *SupplierRegistration)
}

// WatcherFuncs adapts a pair of functions to Watcher. Nil functions are skipped.
type WatcherFuncs struct {
	OnAdd    func(reg *SupplierRegistration)
	OnRemove func(reg *SupplierRegistration)
}

func (w *WatcherFuncs) Add(reg *SupplierRegistration) {
	if w.OnAdd != nil {
		w.OnAdd(reg)
	}
}

func (w *WatcherFuncs) Remove(reg *SupplierRegistration) {
	if w.OnRemove != nil {
		w.OnRemove(reg)
	}
}

// IDMatcher selects the suppliers a watcher cares about. ID is the declared
// ID; its raw type decides which container bucket the watcher lives in.
type IDMatcher interface {
	ID() ID
	Matches(id ID) bool
}

type idMatcher struct {
	id ID
}

// MatchID returns the default matcher for id, using ID.Matches.
func MatchID(id ID) IDMatcher {
	return idMatcher{id: id}
}

func (m idMatcher) ID() ID             { return m.id }
func (m idMatcher) Matches(id ID) bool { return m.id.Matches(id) }
func (m idMatcher) String() string     { return m.id.String() }

type funcMatcher struct {
	id   ID
	pred func(ID) bool
}

// MatchFunc returns a matcher declared on id whose acceptance is decided by
// pred. Only suppliers of id's raw type are ever offered to pred.
func MatchFunc(id ID, pred func(ID) bool) IDMatcher {
	return funcMatcher{id: id, pred: pred}
}

func (m funcMatcher) ID() ID             { return m.id }
func (m funcMatcher) Matches(id ID) bool { return m.pred(id) }

// Registration is the opaque handle returned by put and addWatcher calls.
type Registration interface {
	ID() ID
	Token() uuid.UUID
}

// SupplierRegistration pairs an ID with its Supplier. Registrations compare
// by pointer identity.
type SupplierRegistration struct {
	id       ID
	supplier Supplier
	token    uuid.UUID
}

// NewSupplierRegistration creates a registration with a fresh token.
func NewSupplierRegistration(id ID, supplier Supplier) *SupplierRegistration {
	return &SupplierRegistration{id: id, supplier: supplier, token: uuid.New()}
}

func (r *SupplierRegistration) ID() ID             { return r.id }
func (r *SupplierRegistration) Token() uuid.UUID   { return r.token }
func (r *SupplierRegistration) Supplier() Supplier { return r.supplier }
func (r *SupplierRegistration) Get() any           { return r.supplier.Get() }
func (r *SupplierRegistration) String() string {
	return fmt.Sprintf("supplier %s (%s)", r.id, r.token)
}

// WatcherRegistration pairs an IDMatcher with its Watcher.
type WatcherRegistration struct {
	matcher IDMatcher
	watcher Watcher
	token   uuid.UUID
	weak    bool
}

// NewWatcherRegistration creates a registration with a fresh token.
func NewWatcherRegistration(matcher IDMatcher, watcher Watcher) *WatcherRegistration {
	return &WatcherRegistration{matcher: matcher, watcher: watcher, token: uuid.New()}
}

// NewWeakWatcherRegistration marks the registration as holding its watcher
// weakly; watcher is expected to be a proxy that tolerates a reclaimed target.
func NewWeakWatcherRegistration(matcher IDMatcher, watcher Watcher) *WatcherRegistration {
	r := NewWatcherRegistration(matcher, watcher)
	r.weak = true
	return r
}

func (r *WatcherRegistration) ID() ID             { return r.matcher.ID() }
func (r *WatcherRegistration) Token() uuid.UUID   { return r.token }
func (r *WatcherRegistration) Matcher() IDMatcher { return r.matcher }
func (r *WatcherRegistration) Watcher() Watcher   { return r.watcher }
func (r *WatcherRegistration) IsWeak() bool       { return r.weak }

// Accepts reports whether a supplier registered under id should be
// delivered to this watcher.
func (r *WatcherRegistration) Accepts(id ID) bool {
	return r.matcher.ID().Type.Raw == id.Type.Raw && r.matcher.Matches(id)
}

func (r *WatcherRegistration) String() string {
	return fmt.Sprintf("watcher %s (%s)", r.matcher.ID(), r.token)
}

// TypeEventKind tells whether a type appeared in or left a registry.
type TypeEventKind int

const (
	TypeAdded TypeEventKind = iota
	TypeRemoved
)

func (k TypeEventKind) String() string {
	switch k {
	case TypeAdded:
		return "ADD"
	case TypeRemoved:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// TypeEvent reports a raw type being added to or invalidated from a registry.
type TypeEvent struct {
	Kind TypeEventKind
	Type Type
}

// TypeListener receives TypeEvents. Listeners are compared by identity on
// removal, so implementations should be pointer types.
type TypeListener interface {
	TypeChanged(ev TypeEvent)
}

// CompletionListener is called once a batch of watcher notification tasks
// has finished.
type CompletionListener interface {
	Completed()
}

// CompletionFunc adapts a function to CompletionListener.
type CompletionFunc func()

func (f CompletionFunc) Completed() { f() }
