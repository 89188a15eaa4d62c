package container

import (
	"slices"
	"sync"
)

// multimap is a list multimap guarded by a read/write lock. Writers replace
// a key's slice instead of mutating it, so snapshots handed to readers stay
// stable.
type multimap[K comparable, V comparable] struct {
	mu      sync.RWMutex
	entries map[K][]V
}

// NewMultimap creates a synchronized list multimap. It never fires key
// lifecycle events; key listeners are accepted and ignored.
func NewMultimap[K comparable, V comparable]() Container[K, V] {
	return &multimap[K, V]{entries: make(map[K][]V)}
}

func (m *multimap[K, V]) Put(key K, v V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = append(slices.Clip(m.entries[key]), v)
	return true
}

func (m *multimap[K, V]) Remove(key K, v V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := m.entries[key]
	i := slices.Index(values, v)
	if i < 0 {
		return false
	}
	if len(values) == 1 {
		delete(m.entries, key)
		return true
	}
	m.entries[key] = slices.Delete(slices.Clone(values), i, i+1)
	return true
}

func (m *multimap[K, V]) GetAll(key K) []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries[key])
}

func (m *multimap[K, V]) GetFirst(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero V
	values := m.entries[key]
	if len(values) == 0 {
		return zero, false
	}
	return values[0], true
}

func (m *multimap[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]K, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

func (m *multimap[K, V]) Invalidate(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *multimap[K, V]) InvalidateAll(keys []K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
}

func (m *multimap[K, V]) AddKeyListener(KeyListener[K])    {}
func (m *multimap[K, V]) RemoveKeyListener(KeyListener[K]) {}
