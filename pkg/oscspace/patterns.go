package oscspace

import (
	"sync/atomic"

	"github.com/randalmurphal/oscspace/pkg/oscspace/pattern"
)

type slotState uint8

const (
	slotFree slotState = iota
	slotLive
)

// PatternMethods is the pattern table: a dense array of compiled patterns and
// their methods. Freed slots are queued and reused before the array grows.
//
// Scans walk slots in index order. Once slots have been recycled, index
// order is not registration order; the first live slot found wins.
//
// PatternMethods is not safe for concurrent use; AddressSpace guards it.
type PatternMethods struct {
	matchers []*pattern.Matcher
	methods  []*Method
	sources  []string
	states   []slotState

	// used is the number of slots ever handed out; slots at or above it
	// have never been live.
	used  int
	count int
	free  []int
	index map[string]int

	scans atomic.Uint64
}

// NewPatternMethods creates a table with room for capacity patterns.
func NewPatternMethods(capacity int) *PatternMethods {
	if capacity <= 0 {
		capacity = DefaultPatternCapacity
	}
	return &PatternMethods{
		matchers: make([]*pattern.Matcher, capacity),
		methods:  make([]*Method, capacity),
		sources:  make([]string, capacity),
		states:   make([]slotState, capacity),
		index:    make(map[string]int, capacity),
	}
}

// Register binds h to the pattern p. A pattern that already has a live slot
// gets h appended to its method; otherwise p is compiled into a new slot.
// It returns the slot index.
func (t *PatternMethods) Register(p string, h *Handler) (int, error) {
	if slot, ok := t.index[p]; ok {
		t.methods[slot] = t.methods[slot].with(h)
		return slot, nil
	}

	m, err := pattern.Compile(p)
	if err != nil {
		return -1, err
	}

	slot := t.allocate()
	t.matchers[slot] = m
	t.methods[slot] = newMethod(h)
	t.sources[slot] = p
	t.states[slot] = slotLive
	t.index[p] = slot
	t.count++
	t.check()
	return slot, nil
}

// allocate pops the oldest freed slot, or takes the next unused one,
// doubling the backing arrays when they are full.
func (t *PatternMethods) allocate() int {
	if len(t.free) > 0 {
		slot := t.free[0]
		t.free = t.free[1:]
		return slot
	}

	if t.used >= len(t.matchers) {
		size := len(t.matchers) * 2
		if size == 0 {
			size = DefaultPatternCapacity
		}
		t.grow(size)
	}
	slot := t.used
	t.used++
	return slot
}

func (t *PatternMethods) grow(size int) {
	matchers := make([]*pattern.Matcher, size)
	copy(matchers, t.matchers)
	methods := make([]*Method, size)
	copy(methods, t.methods)
	sources := make([]string, size)
	copy(sources, t.sources)
	states := make([]slotState, size)
	copy(states, t.states)

	t.matchers, t.methods, t.sources, t.states = matchers, methods, sources, states
}

// Unregister removes h from the pattern p. When h was the slot's only
// handler, the slot is cleared and queued for reuse. It reports whether h
// was bound to p; unknown patterns and handlers leave the table untouched.
func (t *PatternMethods) Unregister(p string, h *Handler) bool {
	slot, ok := t.index[p]
	if !ok {
		return false
	}

	m, removed := t.methods[slot].without(h)
	if !removed {
		return false
	}
	if m != nil {
		t.methods[slot] = m
		return true
	}

	t.matchers[slot] = nil
	t.methods[slot] = nil
	t.sources[slot] = ""
	t.states[slot] = slotFree
	delete(t.index, p)
	t.free = append(t.free, slot)
	t.count--
	t.check()
	return true
}

// FindFirstMatch returns the method of the first live slot, in slot order,
// whose pattern accepts address.
func (t *PatternMethods) FindFirstMatch(address string) (*Method, bool) {
	t.scans.Add(1)
	for i := 0; i < t.used; i++ {
		if t.states[i] == slotLive && t.matchers[i].Match(address) {
			return t.methods[i], true
		}
	}
	return nil, false
}

// FindAllMatches returns the methods of every live slot whose pattern
// accepts address, in slot order.
func (t *PatternMethods) FindAllMatches(address string) []*Method {
	t.scans.Add(1)
	var matches []*Method
	for i := 0; i < t.used; i++ {
		if t.states[i] == slotLive && t.matchers[i].Match(address) {
			matches = append(matches, t.methods[i])
		}
	}
	return matches
}

// Slot returns the slot index holding the pattern p.
func (t *PatternMethods) Slot(p string) (int, bool) {
	slot, ok := t.index[p]
	return slot, ok
}

// Method returns the method registered under the pattern p.
func (t *PatternMethods) Method(p string) (*Method, bool) {
	slot, ok := t.index[p]
	if !ok {
		return nil, false
	}
	return t.methods[slot], true
}

// Len returns the number of live patterns.
func (t *PatternMethods) Len() int {
	return t.count
}

// Cap returns the size of the backing arrays.
func (t *PatternMethods) Cap() int {
	return len(t.matchers)
}

// Scans returns how many match scans have run.
func (t *PatternMethods) Scans() uint64 {
	return t.scans.Load()
}

// Patterns returns the live pattern strings in slot order.
func (t *PatternMethods) Patterns() []string {
	out := make([]string, 0, t.count)
	for i := 0; i < t.used; i++ {
		if t.states[i] == slotLive {
			out = append(out, t.sources[i])
		}
	}
	return out
}

// check panics if slot accounting has drifted. A drift is a bug in this
// file, never a caller error.
func (t *PatternMethods) check() {
	if t.count != len(t.index) || t.count+len(t.free) != t.used {
		panic("oscspace: pattern slot accounting out of sync")
	}
}
