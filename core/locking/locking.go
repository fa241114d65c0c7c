package locking

import "sync"

// Manager is a registry of named locks. The zero value is not usable;
// create instances with NewManager.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// Handle represents a held lock. Releasing more than once is safe; only the
// first call unlocks.
type Handle struct {
	manager  *Manager
	key      string
	entry    *entry
	released bool
}

// NewManager creates an empty lock registry.
func NewManager() *Manager {
	return &Manager{locks: make(map[string]*entry)}
}

// Acquire blocks until the lock for key is held and returns its handle.
// The get-or-create step is serialized on the registry mutex so two
// concurrent first acquisitions of the same key share one lock object.
func (m *Manager) Acquire(key string) *Handle {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return &Handle{manager: m, key: key, entry: e}
}

// Release unlocks the key and drops the registry entry once unreferenced.
// Subsequent calls on the same handle are no-ops.
func (h *Handle) Release() {
	h.manager.mu.Lock()
	if h.released {
		h.manager.mu.Unlock()
		return
	}
	h.released = true
	h.entry.refs--
	if h.entry.refs == 0 {
		delete(h.manager.locks, h.key)
	}
	h.manager.mu.Unlock()

	h.entry.mu.Unlock()
}

// Size returns the number of keys currently registered. Intended for tests
// and status reporting.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
