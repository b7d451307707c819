package store

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/oscspace/pkg/oscspace"
	"github.com/randalmurphal/oscspace/pkg/oscspace/registry"
)

// Restore binds every stored binding into space, resolving handler names
// through reg. It returns how many bindings were restored. Bindings whose
// handler is unknown or whose bind fails are reported together; the rest
// are still restored.
func Restore(space *oscspace.AddressSpace, st Store, reg *registry.Registry) (int, error) {
	bindings, err := st.List()
	if err != nil {
		return 0, err
	}

	var errs []error
	restored := 0
	for _, b := range bindings {
		h, err := reg.Lookup(b.Handler)
		if err == nil {
			err = space.Bind(b.Address, h)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s -> %s: %w", b.Address, b.Handler, err))
			continue
		}
		restored++
	}
	return restored, errors.Join(errs...)
}

// Bind binds h at address in space and records it in st under h's name,
// so h must be named. If the store rejects the binding it is removed from
// space again, so the two stay in step.
func Bind(space *oscspace.AddressSpace, st Store, address string, h *oscspace.Handler) error {
	if h != nil && !h.HasName() {
		// Restore resolves handlers by name; an unnamed row could never come back
		return fmt.Errorf("%w: handler %s has no name", ErrInvalidBinding, h.ID())
	}
	if err := space.Bind(address, h); err != nil {
		return err
	}
	if err := st.Save(address, h.Name()); err != nil {
		_ = space.Unbind(address, h)
		return err
	}
	return nil
}

// Unbind removes h from address in space and deletes the stored binding.
// The stored row is deleted even when space no longer holds the binding.
func Unbind(space *oscspace.AddressSpace, st Store, address string, h *oscspace.Handler) error {
	spaceErr := space.Unbind(address, h)
	if err := st.Delete(address, h.Name()); err != nil {
		return err
	}
	return spaceErr
}
