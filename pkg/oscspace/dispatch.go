package oscspace

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/oscspace/pkg/oscspace/observability"
)

// Route describes how an address was resolved.
type Route int

const (
	// RouteNone means no handler is bound to the address.
	RouteNone Route = iota

	// RouteExact means the exact table answered, possibly from a promoted entry.
	RouteExact

	// RoutePattern means the pattern table was scanned.
	RoutePattern
)

// String returns the route name.
func (r Route) String() string {
	switch r {
	case RouteExact:
		return "exact"
	case RoutePattern:
		return "pattern"
	default:
		return "none"
	}
}

// Resolve returns the methods that should receive a message for address.
// An exact binding wins over every pattern; otherwise all matching patterns
// are returned, and the match is promoted when promotion is enabled.
func (s *AddressSpace) Resolve(address string) (Route, []*Method) {
	return s.resolve(context.Background(), address)
}

func (s *AddressSpace) resolve(ctx context.Context, address string) (Route, []*Method) {
	s.mu.RLock()
	m, ok := s.addresses.TryGetByAddress(address)
	s.mu.RUnlock()
	if ok {
		return RouteExact, []*Method{m}
	}

	if !IsValidAddress(address) {
		return RouteNone, nil
	}

	var matches []*Method
	var scanned int
	if s.cfg.promote {
		matches, scanned = s.matchAndPromote(ctx, address)
	} else {
		s.mu.RLock()
		scanned = s.patterns.Len()
		matches = s.patterns.FindAllMatches(address)
		s.mu.RUnlock()
	}
	s.cfg.metrics.RecordPatternScan(ctx, scanned, len(matches) > 0)

	if len(matches) == 0 {
		return RouteNone, nil
	}
	return RoutePattern, matches
}

// Dispatch routes msg to every handler bound to its address and invokes
// them in order. It reports whether any handler was found. A missing route
// is not an error; the error joins handler failures and recovered panics.
func (s *AddressSpace) Dispatch(ctx context.Context, msg Message) (bool, error) {
	route, err := s.DispatchRoute(ctx, msg)
	return route != RouteNone, err
}

// DispatchRoute is Dispatch reporting how the address was resolved. The
// route is the one this message took: a pattern hit that gets promoted
// reports RoutePattern, and only later messages report RouteExact.
func (s *AddressSpace) DispatchRoute(ctx context.Context, msg Message) (Route, error) {
	done := observability.TimedOperation()
	ctx, span := s.cfg.spans.StartDispatchSpan(ctx, msg.Address)

	route, methods := s.resolve(ctx, msg.Address)
	if route == RouteNone {
		s.cfg.metrics.RecordUnmatched(ctx)
		observability.LogUnmatched(s.cfg.logger, msg.Address)
		s.cfg.spans.EndSpanWithError(span, nil)
		return RouteNone, nil
	}
	s.cfg.spans.AddSpanEvent(ctx, "routed", attribute.String("osc.route", route.String()))

	var errs []error
	handlers := 0
	for _, m := range methods {
		handlers += m.Len()
		if err := m.Invoke(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)

	durationMs := done()
	s.cfg.metrics.RecordDispatch(ctx, route.String(), durationMs)
	if err != nil {
		s.cfg.metrics.RecordHandlerError(ctx, route.String())
		observability.LogHandlerError(s.cfg.logger, msg.Address, err)
	}
	observability.LogDispatch(s.cfg.logger, msg.Address, route.String(), handlers, durationMs)
	s.cfg.spans.EndSpanWithError(span, err)
	return route, err
}
