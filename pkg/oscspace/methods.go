package oscspace

import (
	"github.com/cespare/xxhash/v2"
)

// Handle is a stable surrogate key for a literal address.
// A bound address keeps the same handle until its last handler is removed;
// released handles are reused by later bindings.
type Handle uint32

type addressEntry struct {
	address string
	method  *Method
	// promoted entries were cached from a pattern match, not registered
	promoted bool
}

// AddressMethods is the exact address table: literal address to handle,
// handle to multicast method. Lookups by string or by raw bytes are O(1)
// on average and do not allocate.
//
// AddressMethods is not safe for concurrent use; AddressSpace guards it.
type AddressMethods struct {
	byAddress map[string]Handle
	byHash    map[uint64][]Handle
	entries   map[Handle]*addressEntry
	next      Handle
	free      []Handle
}

// NewAddressMethods creates an empty table sized for capacity addresses.
func NewAddressMethods(capacity int) *AddressMethods {
	if capacity < 0 {
		capacity = 0
	}
	return &AddressMethods{
		byAddress: make(map[string]Handle, capacity),
		byHash:    make(map[uint64][]Handle, capacity),
		entries:   make(map[Handle]*addressEntry, capacity),
		next:      1,
	}
}

// Add binds h to address, composing with any handlers already bound.
// It returns the address handle.
func (t *AddressMethods) Add(address string, h *Handler) Handle {
	if handle, ok := t.byAddress[address]; ok {
		e := t.entries[handle]
		e.method = e.method.with(h)
		return handle
	}
	return t.insert(address, newMethod(h), false)
}

// addMethod composes a whole method into the binding for address.
// New bindings created this way are marked as promoted.
func (t *AddressMethods) addMethod(address string, m *Method) Handle {
	if handle, ok := t.byAddress[address]; ok {
		e := t.entries[handle]
		e.method = e.method.withMethod(m)
		return handle
	}
	return t.insert(address, m, true)
}

func (t *AddressMethods) insert(address string, m *Method, promoted bool) Handle {
	var handle Handle
	if n := len(t.free); n > 0 {
		handle = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		handle = t.next
		t.next++
	}

	t.byAddress[address] = handle
	sum := xxhash.Sum64String(address)
	t.byHash[sum] = append(t.byHash[sum], handle)
	t.entries[handle] = &addressEntry{address: address, method: m, promoted: promoted}
	return handle
}

// Remove unbinds h from address. When h was the last handler, the binding
// and its handle are released. It reports whether h was bound.
func (t *AddressMethods) Remove(address string, h *Handler) bool {
	handle, ok := t.byAddress[address]
	if !ok {
		return false
	}
	e := t.entries[handle]
	m, removed := e.method.without(h)
	if !removed {
		return false
	}
	if m == nil {
		t.release(handle)
		return true
	}
	e.method = m
	return true
}

// release deletes a binding and every index pointing at its handle.
func (t *AddressMethods) release(handle Handle) {
	e, ok := t.entries[handle]
	if !ok {
		return
	}
	delete(t.entries, handle)
	delete(t.byAddress, e.address)
	t.free = append(t.free, handle)

	sum := xxhash.Sum64String(e.address)
	bucket := t.byHash[sum]
	for i, other := range bucket {
		if other == handle {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(t.byHash, sum)
	} else {
		t.byHash[sum] = bucket
	}
}

// TryGetByAddress returns the method bound to address.
func (t *AddressMethods) TryGetByAddress(address string) (*Method, bool) {
	handle, ok := t.byAddress[address]
	if !ok {
		return nil, false
	}
	return t.entries[handle].method, true
}

// TryGetByBytes returns the method bound to the address held in b, as read
// from a datagram, without converting b to a string.
func (t *AddressMethods) TryGetByBytes(b []byte) (*Method, bool) {
	for _, handle := range t.byHash[xxhash.Sum64(b)] {
		e := t.entries[handle]
		if e.address == string(b) {
			return e.method, true
		}
	}
	return nil, false
}

// TryGetHandle returns the handle for address.
func (t *AddressMethods) TryGetHandle(address string) (Handle, bool) {
	handle, ok := t.byAddress[address]
	return handle, ok
}

// TryGetByHandle returns the method bound under handle.
func (t *AddressMethods) TryGetByHandle(handle Handle) (*Method, bool) {
	e, ok := t.entries[handle]
	if !ok {
		return nil, false
	}
	return e.method, true
}

// Len returns the number of bound addresses, promoted ones included.
func (t *AddressMethods) Len() int {
	return len(t.entries)
}

// Range calls fn for every bound address until fn returns false.
// Promoted entries are reported with promoted set.
func (t *AddressMethods) Range(fn func(address string, m *Method, promoted bool) bool) {
	for _, e := range t.entries {
		if !fn(e.address, e.method, e.promoted) {
			return
		}
	}
}

// isPromoted reports whether address is bound only through promotion.
func (t *AddressMethods) isPromoted(address string) bool {
	handle, ok := t.byAddress[address]
	return ok && t.entries[handle].promoted
}

// dropPromoted releases every promoted binding and returns how many were dropped.
func (t *AddressMethods) dropPromoted() int {
	var dropped []Handle
	for handle, e := range t.entries {
		if e.promoted {
			dropped = append(dropped, handle)
		}
	}
	for _, handle := range dropped {
		t.release(handle)
	}
	return len(dropped)
}

// promotedCount returns the number of promoted bindings.
func (t *AddressMethods) promotedCount() int {
	n := 0
	for _, e := range t.entries {
		if e.promoted {
			n++
		}
	}
	return n
}
