package oscspace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/oscspace/pkg/oscspace/observability"
	"github.com/randalmurphal/oscspace/pkg/oscspace/pattern"
)

// AddressSpace binds handlers to OSC addresses and patterns and resolves
// incoming addresses to the handlers that should receive them.
//
// Literal addresses live in an exact table with O(1) lookup. Patterns live in
// a slot table that is scanned linearly on an exact miss. A pattern hit for a
// concrete address can be promoted into the exact table so later messages to
// that address skip the scan. Promoted entries are dropped whenever the
// pattern table changes.
//
// AddressSpace is safe for concurrent use. Lookups share a read lock;
// registration, removal and promotion take the write lock.
type AddressSpace struct {
	cfg spaceConfig

	mu        sync.RWMutex
	addresses *AddressMethods
	patterns  *PatternMethods
	// generation counts pattern table changes; guarded by mu
	generation uint64

	promotions atomic.Uint64
}

// New creates an empty address space.
func New(opts ...Option) *AddressSpace {
	cfg := defaultSpaceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name != "" {
		cfg.logger = observability.EnrichLogger(cfg.logger, cfg.name)
	}

	return &AddressSpace{
		cfg:       cfg,
		addresses: NewAddressMethods(cfg.capacity),
		patterns:  NewPatternMethods(cfg.patternCapacity),
	}
}

// Bind registers h under address, which may be a literal address or a
// pattern. Binding more handlers to the same key composes them; they are
// invoked in registration order.
func (s *AddressSpace) Bind(address string, h *Handler) error {
	if h == nil {
		return s.reject(address, "add", ErrNilHandler)
	}

	kind := Classify(address)
	switch kind {
	case Address:
		s.mu.Lock()
		if handle, ok := s.addresses.TryGetHandle(address); ok && s.addresses.isPromoted(address) {
			// an explicit binding replaces the cached pattern result
			s.addresses.release(handle)
		}
		s.addresses.Add(address, h)
		s.mu.Unlock()

	case Pattern:
		s.mu.Lock()
		_, err := s.patterns.Register(address, h)
		dropped := 0
		if err == nil {
			s.generation++
			dropped = s.addresses.dropPromoted()
		}
		s.mu.Unlock()

		if err != nil {
			return s.reject(address, "add", fmt.Errorf("%w: %w", ErrInvalidAddress, err))
		}
		observability.LogInvalidated(s.cfg.logger, address, dropped)

	default:
		return s.reject(address, "add", ErrInvalidAddress)
	}

	observability.LogBind(s.cfg.logger, address, kind.String(), h.Name())
	return nil
}

// Unbind removes h from address. When h was the last handler, the binding
// is deleted; for a pattern its slot is freed for reuse.
func (s *AddressSpace) Unbind(address string, h *Handler) error {
	if h == nil {
		return s.reject(address, "remove", ErrNilHandler)
	}

	kind := Classify(address)
	removed := false
	switch kind {
	case Address:
		s.mu.Lock()
		if !s.addresses.isPromoted(address) {
			removed = s.addresses.Remove(address, h)
		}
		s.mu.Unlock()

	case Pattern:
		dropped := 0
		s.mu.Lock()
		removed = s.patterns.Unregister(address, h)
		if removed {
			s.generation++
			dropped = s.addresses.dropPromoted()
		}
		s.mu.Unlock()
		observability.LogInvalidated(s.cfg.logger, address, dropped)

	default:
		return s.reject(address, "remove", ErrInvalidAddress)
	}

	if !removed {
		return &AddressError{Address: address, Op: "remove", Err: ErrNotBound}
	}
	observability.LogUnbind(s.cfg.logger, address, kind.String(), h.Name())
	return nil
}

func (s *AddressSpace) reject(address, op string, err error) error {
	observability.LogRejected(s.cfg.logger, address, op, err)
	return &AddressError{Address: address, Op: op, Err: err}
}

// TryAddMethod registers h under address. It returns false, leaving the
// space untouched, for an invalid address or a nil handler.
func (s *AddressSpace) TryAddMethod(address string, h *Handler) bool {
	return s.Bind(address, h) == nil
}

// RemoveMethod removes h from address. It returns false if h was not bound
// there or the input is invalid.
func (s *AddressSpace) RemoveMethod(address string, h *Handler) bool {
	return s.Unbind(address, h) == nil
}

// TryGetMethod returns the method bound exactly to address, including
// addresses cached by promotion.
func (s *AddressSpace) TryGetMethod(address string) (*Method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addresses.TryGetByAddress(address)
}

// TryGetByBytes is TryGetMethod for an address still held in a receive
// buffer. It does not allocate.
func (s *AddressSpace) TryGetByBytes(address []byte) (*Method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addresses.TryGetByBytes(address)
}

// TryMatchPattern returns the method of the first pattern, in slot order,
// that accepts address.
func (s *AddressSpace) TryMatchPattern(address string) (*Method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patterns.FindFirstMatch(address)
}

// TryMatchPatternAndPromote matches a literal address against every
// registered pattern. When any pattern matches and the address has no exact
// binding yet, the matched methods are cached under the address so later
// lookups resolve through the exact table.
// It reports whether any pattern matched, and the matched methods in slot
// order.
func (s *AddressSpace) TryMatchPatternAndPromote(address string) (bool, []*Method) {
	if !IsValidAddress(address) {
		return false, nil
	}
	matches, _ := s.matchAndPromote(context.Background(), address)
	return len(matches) > 0, matches
}

// matchAndPromote scans the pattern table under the read lock and caches a
// non-empty result under the write lock. It returns the matches and how
// many live patterns were scanned.
func (s *AddressSpace) matchAndPromote(ctx context.Context, address string) ([]*Method, int) {
	s.mu.RLock()
	generation := s.generation
	scanned := s.patterns.Len()
	matches := s.patterns.FindAllMatches(address)
	s.mu.RUnlock()

	if len(matches) == 0 {
		return nil, scanned
	}

	s.mu.Lock()
	if s.generation != generation {
		// the pattern table changed since the scan
		scanned = s.patterns.Len()
		matches = s.patterns.FindAllMatches(address)
	}
	promoted := false
	if len(matches) > 0 {
		if _, bound := s.addresses.TryGetHandle(address); !bound {
			var combined *Method
			for _, m := range matches {
				combined = combined.withMethod(m)
			}
			s.addresses.addMethod(address, combined)
			promoted = true
		}
	}
	s.mu.Unlock()

	if promoted {
		s.promotions.Add(1)
		s.cfg.metrics.RecordPromotion(ctx)
		s.cfg.spans.AddSpanEvent(ctx, "promoted", attribute.Int("patterns", len(matches)))
		observability.LogPromotion(s.cfg.logger, address, len(matches))
	}
	return matches, scanned
}

// TryMatchIncomingPattern answers the reverse query: given a pattern from a
// remote peer, it returns the methods of every locally registered literal
// address the pattern accepts, ordered by address. Promoted addresses are
// not registrations and are skipped. It reports whether anything matched;
// a malformed pattern matches nothing.
func (s *AddressSpace) TryMatchIncomingPattern(p string) ([]*Method, bool) {
	m, err := pattern.Compile(p)
	if err != nil {
		return nil, false
	}

	type match struct {
		address string
		method  *Method
	}
	var found []match

	s.mu.RLock()
	s.addresses.Range(func(address string, method *Method, promoted bool) bool {
		if !promoted && m.Match(address) {
			found = append(found, match{address: address, method: method})
		}
		return true
	})
	s.mu.RUnlock()

	sort.Slice(found, func(i, j int) bool { return found[i].address < found[j].address })
	methods := make([]*Method, len(found))
	for i, f := range found {
		methods[i] = f.method
	}
	return methods, len(methods) > 0
}

// PatternSlot returns the slot holding pattern p.
func (s *AddressSpace) PatternSlot(p string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patterns.Slot(p)
}

// Addresses returns the registered literal addresses, sorted. Promoted
// addresses are not included.
func (s *AddressSpace) Addresses() []string {
	s.mu.RLock()
	var out []string
	s.addresses.Range(func(address string, _ *Method, promoted bool) bool {
		if !promoted {
			out = append(out, address)
		}
		return true
	})
	s.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Patterns returns the registered patterns in slot order.
func (s *AddressSpace) Patterns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patterns.Patterns()
}

// Stats is a point-in-time view of an address space.
type Stats struct {
	// Addresses counts exact bindings, promoted ones included.
	Addresses int
	// Promoted counts exact bindings cached from pattern matches.
	Promoted int
	// Patterns counts live pattern slots.
	Patterns int
	// PatternCapacity is the size of the pattern slot array.
	PatternCapacity int
	// PatternScans counts linear scans of the pattern table.
	PatternScans uint64
	// Promotions counts addresses ever promoted.
	Promotions uint64
}

// Stats returns current table sizes and counters.
func (s *AddressSpace) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Addresses:       s.addresses.Len(),
		Promoted:        s.addresses.promotedCount(),
		Patterns:        s.patterns.Len(),
		PatternCapacity: s.patterns.Cap(),
		PatternScans:    s.patterns.Scans(),
		Promotions:      s.promotions.Load(),
	}
}
