package store

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory binding store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	bindings map[key]Binding
	seq      int64
	closed   bool
}

type key struct {
	address string
	handler string
}

// NewMemoryStore creates a new in-memory binding store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bindings: make(map[key]Binding),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(address, handler string) error {
	if err := validate(address, handler); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	k := key{address, handler}
	if _, ok := m.bindings[k]; ok {
		return nil
	}
	m.seq++
	m.bindings[k] = Binding{
		Address:   address,
		Handler:   handler,
		Sequence:  m.seq,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(address, handler string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.bindings, key{address, handler})
	return nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Binding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	out := make([]Binding, 0, len(m.bindings))
	for _, b := range m.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.bindings = nil
	return nil
}

// Len returns the number of stored bindings.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bindings)
}
