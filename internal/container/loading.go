package container

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Option configures a loading cache.
type Option[K comparable] func(*loadingOptions[K])

type loadingOptions[K comparable] struct {
	validate func(K) error
}

// WithKeyValidator installs the loader check run when a key list is created.
// A validator failure means the key type is broken; the cache panics with
// the wrapped error instead of swallowing it.
func WithKeyValidator[K comparable](validate func(K) error) Option[K] {
	return func(o *loadingOptions[K]) {
		o.validate = validate
	}
}

// entryList is a copy-on-write list: appends and removals publish a new
// slice, readers load the current one without locking.
type entryList[V comparable] struct {
	mu    sync.Mutex
	items atomic.Pointer[[]V]
}

func newEntryList[V comparable]() *entryList[V] {
	l := &entryList[V]{}
	empty := []V{}
	l.items.Store(&empty)
	return l
}

func (l *entryList[V]) snapshot() []V {
	return *l.items.Load()
}

func (l *entryList[V]) add(v V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := append(slices.Clip(l.snapshot()), v)
	l.items.Store(&next)
}

func (l *entryList[V]) remove(v V) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.snapshot()
	i := slices.Index(cur, v)
	if i < 0 {
		return false
	}
	next := slices.Delete(slices.Clone(cur), i, i+1)
	l.items.Store(&next)
	return true
}

// loadingCache maps keys to lazily created entry lists.
type loadingCache[K comparable, V comparable] struct {
	mu    sync.RWMutex
	lists map[K]*entryList[V]
	loads singleflight.Group
	opts  loadingOptions[K]

	listenersMu sync.RWMutex
	listeners   []KeyListener[K]
}

// NewLoadingCache creates a container whose key lists are created on the
// first Put for a key. Creating a list fires KeyAdded, Invalidate fires
// KeyRemoved. Concurrent first access from many goroutines creates exactly
// one list. Reads of absent keys do not create lists.
func NewLoadingCache[K comparable, V comparable](opts ...Option[K]) Container[K, V] {
	c := &loadingCache[K, V]{lists: make(map[K]*entryList[V])}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

func (c *loadingCache[K, V]) peek(key K) *entryList[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lists[key]
}

// load returns the list of key, creating it if needed.
func (c *loadingCache[K, V]) load(key K) *entryList[V] {
	if l := c.peek(key); l != nil {
		return l
	}

	created := false
	v, err, _ := c.loads.Do(fmt.Sprintf("%#v", key), func() (interface{}, error) {
		c.mu.Lock()
		if l, ok := c.lists[key]; ok {
			c.mu.Unlock()
			return l, nil
		}
		if c.opts.validate != nil {
			if err := c.opts.validate(key); err != nil {
				c.mu.Unlock()
				return nil, err
			}
		}
		l := newEntryList[V]()
		c.lists[key] = l
		c.mu.Unlock()
		created = true
		return l, nil
	})
	if err != nil {
		panic(fmt.Errorf("container: loading key %v: %w", key, err))
	}
	if created {
		c.fireAdded(key)
	}
	return v.(*entryList[V])
}

func (c *loadingCache[K, V]) Put(key K, v V) bool {
	c.load(key).add(v)
	return true
}

func (c *loadingCache[K, V]) Remove(key K, v V) bool {
	l := c.peek(key)
	if l == nil {
		return false
	}
	return l.remove(v)
}

func (c *loadingCache[K, V]) GetAll(key K) []V {
	l := c.peek(key)
	if l == nil {
		return nil
	}
	return slices.Clone(l.snapshot())
}

func (c *loadingCache[K, V]) GetFirst(key K) (V, bool) {
	var zero V
	l := c.peek(key)
	if l == nil {
		return zero, false
	}
	items := l.snapshot()
	if len(items) == 0 {
		return zero, false
	}
	return items[0], true
}

func (c *loadingCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, len(c.lists))
	for k := range c.lists {
		keys = append(keys, k)
	}
	return keys
}

func (c *loadingCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	_, ok := c.lists[key]
	delete(c.lists, key)
	c.mu.Unlock()

	if ok {
		c.fireRemoved(key)
	}
}

func (c *loadingCache[K, V]) InvalidateAll(keys []K) {
	for _, k := range keys {
		c.Invalidate(k)
	}
}

func (c *loadingCache[K, V]) AddKeyListener(l KeyListener[K]) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(slices.Clip(c.listeners), l)
}

func (c *loadingCache[K, V]) RemoveKeyListener(l KeyListener[K]) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	if i := slices.Index(c.listeners, l); i >= 0 {
		c.listeners = slices.Delete(slices.Clone(c.listeners), i, i+1)
	}
}

func (c *loadingCache[K, V]) snapshotListeners() []KeyListener[K] {
	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()
	return c.listeners
}

func (c *loadingCache[K, V]) fireAdded(key K) {
	for _, l := range c.snapshotListeners() {
		l.KeyAdded(key)
	}
}

func (c *loadingCache[K, V]) fireRemoved(key K) {
	for _, l := range c.snapshotListeners() {
		l.KeyRemoved(key)
	}
}
