package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/randalmurphal/oscspace/pkg/oscspace"
)

// Sentinel errors for registry operations.
var (
	// ErrEmptyName is returned when registering a handler without a name.
	ErrEmptyName = errors.New("registry: handler name is empty")

	// ErrDuplicate is returned when a different handler already owns the name.
	ErrDuplicate = errors.New("registry: handler name already registered")

	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("registry: handler is nil")

	// ErrUnknown is returned by Lookup for a name that was never registered.
	ErrUnknown = errors.New("registry: unknown handler")
)

// Registry is a thread-safe catalog of handlers indexed by name.
// It uses sync.RWMutex for read-heavy workloads.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*oscspace.Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*oscspace.Handler),
	}
}

// Register adds h under h.Name(). Registering the same handler twice is a
// no-op; registering a different handler under a taken name fails with
// ErrDuplicate.
func (r *Registry) Register(h *oscspace.Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if !h.HasName() {
		return ErrEmptyName
	}
	name := h.Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[name]; ok {
		if existing == h {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.entries[name] = h
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(h *oscspace.Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// RegisterMany registers each handler, stopping at the first error.
func (r *Registry) RegisterMany(handlers ...*oscspace.Handler) error {
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (*oscspace.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[name]
	return h, ok
}

// Lookup is like Get but reports a missing name as an ErrUnknown error.
func (r *Registry) Lookup(name string) (*oscspace.Handler, error) {
	h, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return h, nil
}

// MustGet returns the handler for name, panicking if not found.
func (r *Registry) MustGet(name string) *oscspace.Handler {
	h, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("registry: handler %q not found", name))
	}
	return h
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Delete removes name from the registry. Bindings already made with the
// handler are unaffected.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Range calls fn for each entry in name order until fn returns false.
// It iterates over a snapshot, so fn may mutate the registry.
func (r *Registry) Range(fn func(name string, h *oscspace.Handler) bool) {
	r.mu.RLock()
	snapshot := make(map[string]*oscspace.Handler, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !fn(name, snapshot[name]) {
			return
		}
	}
}

// GetOrCreate returns the handler for name, creating it with factory if it
// does not exist. The factory is called at most once per name. A factory
// that returns nil stores nothing and GetOrCreate returns nil.
func (r *Registry) GetOrCreate(name string, factory func() *oscspace.Handler) *oscspace.Handler {
	r.mu.RLock()
	h, ok := r.entries[name]
	r.mu.RUnlock()
	if ok {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if h, ok := r.entries[name]; ok {
		return h
	}

	h = factory()
	if h != nil {
		r.entries[name] = h
	}
	return h
}
