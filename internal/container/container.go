package container

// KeyListener is notified when a key's value list is created or invalidated.
// Listeners are compared by identity on removal, so implementations should
// be pointer types.
type KeyListener[K comparable] interface {
	KeyAdded(key K)
	KeyRemoved(key K)
}

// KeyListenerFuncs adapts a pair of functions to KeyListener. Nil functions
// are skipped. Use a pointer so the listener can be removed again.
type KeyListenerFuncs[K comparable] struct {
	OnAdded   func(key K)
	OnRemoved func(key K)
}

func (l *KeyListenerFuncs[K]) KeyAdded(key K) {
	if l.OnAdded != nil {
		l.OnAdded(key)
	}
}

func (l *KeyListenerFuncs[K]) KeyRemoved(key K) {
	if l.OnRemoved != nil {
		l.OnRemoved(key)
	}
}

// Container is a multi-value store indexed by key.
//
// Values are compared with ==; the registry stores registration pointers so
// that removal is by identity. Reads return snapshots that later writes
// never modify.
type Container[K comparable, V comparable] interface {
	// Put appends v to the list of key. It reports whether the list changed.
	Put(key K, v V) bool

	// Remove deletes the first occurrence of v under key. A miss returns false.
	Remove(key K, v V) bool

	// GetAll returns a snapshot of the values under key, in insertion order.
	GetAll(key K) []V

	// GetFirst returns the oldest value under key.
	GetFirst(key K) (V, bool)

	// Keys returns a snapshot of the keys currently present.
	Keys() []K

	// Invalidate drops key and all of its values.
	Invalidate(key K)

	// InvalidateAll drops every key in keys.
	InvalidateAll(keys []K)

	AddKeyListener(l KeyListener[K])
	RemoveKeyListener(l KeyListener[K])
}

// Kind selects a Container implementation.
type Kind string

const (
	// KindLoadingCache creates key lists lazily and reports key lifecycle events.
	KindLoadingCache Kind = "loading-cache"

	// KindMultimap is a lock-guarded list multimap without key events.
	KindMultimap Kind = "multimap"
)

// New returns a container of the given kind. Unknown kinds fall back to the
// loading cache.
func New[K comparable, V comparable](kind Kind, opts ...Option[K]) Container[K, V] {
	if kind == KindMultimap {
		return NewMultimap[K, V]()
	}
	return NewLoadingCache[K, V](opts...)
}
