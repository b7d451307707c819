// Package store persists address space bindings so a routing table survives
// restarts.
//
// A binding is an (address, handler name) pair. Handler functions cannot be
// serialized, so Restore resolves names through a registry.Registry and
// re-binds them in the order they were first saved, which keeps multicast
// invocation order stable across restarts.
package store

import (
	"errors"
	"time"

	"github.com/randalmurphal/oscspace/pkg/oscspace"
)

// Store persists bindings.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save records that handler is bound at address.
	// Saving an existing pair keeps its original sequence.
	Save(address, handler string) error

	// Delete removes a binding.
	// Returns nil if the binding doesn't exist.
	Delete(address, handler string) error

	// List returns all bindings ordered by sequence.
	// Returns an empty slice (not error) if nothing is stored.
	List() ([]Binding, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Binding is one persisted (address, handler) pair.
type Binding struct {
	Address   string
	Handler   string
	Sequence  int64
	CreatedAt time.Time
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("binding store closed")

	// ErrInvalidBinding indicates an unusable address or an empty handler name.
	ErrInvalidBinding = errors.New("invalid binding")
)

func validate(address, handler string) error {
	if oscspace.Classify(address) == oscspace.Invalid || handler == "" {
		return ErrInvalidBinding
	}
	return nil
}
