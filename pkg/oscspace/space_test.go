package oscspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAddMethod_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		address string
		handler *Handler
	}{
		{"empty address", "", noop("h")},
		{"no leading slash", "synth/1", noop("h")},
		{"space in address", "/synth 1", noop("h")},
		{"nil handler", "/synth/1", nil},
		{"nil handler for pattern", "/synth/*", nil},
		{"uncompilable pattern", "/synth/[1", noop("h")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space := New()
			assert.False(t, space.TryAddMethod(tt.address, tt.handler))

			stats := space.Stats()
			assert.Zero(t, stats.Addresses)
			assert.Zero(t, stats.Patterns)
		})
	}
}

func TestBind_Errors(t *testing.T) {
	space := New()

	err := space.Bind("", noop("h"))
	assert.ErrorIs(t, err, ErrInvalidAddress)
	var aerr *AddressError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "add", aerr.Op)

	assert.ErrorIs(t, space.Bind("/a", nil), ErrNilHandler)
	assert.ErrorIs(t, space.Bind("/a/[b", noop("h")), ErrInvalidAddress)
	assert.ErrorIs(t, space.Unbind("/a", noop("h")), ErrNotBound)
	assert.ErrorIs(t, space.Unbind("/a/*", noop("h")), ErrNotBound)
	assert.ErrorIs(t, space.Unbind("bad", noop("h")), ErrInvalidAddress)
	assert.ErrorIs(t, space.Unbind("/a", nil), ErrNilHandler)
}

func TestMulticastComposition(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	space := New()
	h1, h2 := rec.handler("h1"), rec.handler("h2")

	require.True(t, space.TryAddMethod("/mixer/fader", h1))
	require.True(t, space.TryAddMethod("/mixer/fader", h2))

	matched, err := space.Dispatch(ctx, Message{Address: "/mixer/fader"})
	require.NoError(t, err)
	require.True(t, matched)
	assert.Equal(t, []string{"h1", "h2"}, rec.names())

	require.True(t, space.RemoveMethod("/mixer/fader", h1))
	rec.reset()
	_, err = space.Dispatch(ctx, Message{Address: "/mixer/fader"})
	require.NoError(t, err)
	assert.Equal(t, []string{"h2"}, rec.names())

	require.True(t, space.RemoveMethod("/mixer/fader", h2))
	_, ok := space.TryGetMethod("/mixer/fader")
	assert.False(t, ok)
	assert.False(t, space.RemoveMethod("/mixer/fader", h2))
	assert.Empty(t, space.Addresses())
}

func TestPatternSlotReuse(t *testing.T) {
	space := New(WithPatternCapacity(4))
	p1, p2, p3, p4 := noop("p1"), noop("p2"), noop("p3"), noop("p4")

	require.True(t, space.TryAddMethod("/p1/*", p1))
	require.True(t, space.TryAddMethod("/p2/*", p2))
	require.True(t, space.TryAddMethod("/p3/*", p3))
	slot2, ok := space.PatternSlot("/p2/*")
	require.True(t, ok)

	require.True(t, space.RemoveMethod("/p2/*", p2))
	require.True(t, space.TryAddMethod("/p4/*", p4))

	slot4, ok := space.PatternSlot("/p4/*")
	require.True(t, ok)
	assert.Equal(t, slot2, slot4)

	stats := space.Stats()
	assert.Equal(t, 3, stats.Patterns)
	assert.Equal(t, 4, stats.PatternCapacity)
	assert.Equal(t, []string{"/p1/*", "/p4/*", "/p3/*"}, space.Patterns())
}

func TestPatternRemove_MultipleHandlers(t *testing.T) {
	space := New()
	h1, h2 := noop("h1"), noop("h2")
	require.True(t, space.TryAddMethod("/foo/*", h1))
	require.True(t, space.TryAddMethod("/foo/*", h2))

	require.True(t, space.RemoveMethod("/foo/*", h1))
	assert.Equal(t, 1, space.Stats().Patterns)

	m, ok := space.TryMatchPattern("/foo/bar")
	require.True(t, ok)
	assert.Equal(t, []string{"h2"}, handlerNames(m))

	require.True(t, space.RemoveMethod("/foo/*", h2))
	assert.Equal(t, 0, space.Stats().Patterns)
	assert.False(t, space.RemoveMethod("/foo/*", h2), "no double free")
	assert.Equal(t, 0, space.Stats().Patterns)
}

func TestPromotionCaching(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	space := New()
	require.True(t, space.TryAddMethod("/foo/*", rec.handler("H")))

	matched, err := space.Dispatch(ctx, Message{Address: "/foo/bar"})
	require.NoError(t, err)
	require.True(t, matched)
	assert.Equal(t, uint64(1), space.Stats().PatternScans)

	m, ok := space.TryGetMethod("/foo/bar")
	require.True(t, ok, "first dispatch creates an exact binding")
	assert.Equal(t, []string{"H"}, handlerNames(m))

	route, _ := space.Resolve("/foo/bar")
	assert.Equal(t, RouteExact, route)

	matched, err = space.Dispatch(ctx, Message{Address: "/foo/bar"})
	require.NoError(t, err)
	require.True(t, matched)

	stats := space.Stats()
	assert.Equal(t, uint64(1), stats.PatternScans, "second dispatch must not rescan patterns")
	assert.Equal(t, uint64(1), stats.Promotions)
	assert.Equal(t, 1, stats.Promoted)
	assert.Equal(t, []string{"H", "H"}, rec.names())

	// promoted entries are not registrations
	assert.Empty(t, space.Addresses())
}

func TestPromotion_Disabled(t *testing.T) {
	space := New(WithPromotion(false))
	require.True(t, space.TryAddMethod("/foo/*", noop("H")))

	for i := 0; i < 3; i++ {
		route, methods := space.Resolve("/foo/bar")
		assert.Equal(t, RoutePattern, route)
		assert.Len(t, methods, 1)
	}

	stats := space.Stats()
	assert.Equal(t, uint64(3), stats.PatternScans)
	assert.Zero(t, stats.Promoted)
}

func TestPromotion_InvalidatedByPatternChange(t *testing.T) {
	space := New()
	h1, h2 := noop("h1"), noop("h2")
	require.True(t, space.TryAddMethod("/foo/*", h1))

	_, methods := space.Resolve("/foo/bar")
	assert.Equal(t, []string{"h1"}, handlerNames(methods...))
	assert.Equal(t, 1, space.Stats().Promoted)

	require.True(t, space.TryAddMethod("/foo/*", h2))
	assert.Zero(t, space.Stats().Promoted)

	_, methods = space.Resolve("/foo/bar")
	assert.Equal(t, []string{"h1", "h2"}, handlerNames(methods...))

	require.True(t, space.RemoveMethod("/foo/*", h1))
	require.True(t, space.RemoveMethod("/foo/*", h2))
	route, _ := space.Resolve("/foo/bar")
	assert.Equal(t, RouteNone, route, "stale cache must not outlive its pattern")
}

func TestPromotion_ExplicitBindingReplacesCache(t *testing.T) {
	space := New()
	require.True(t, space.TryAddMethod("/foo/*", noop("pattern")))
	space.Resolve("/foo/bar")

	explicit := noop("explicit")
	require.True(t, space.TryAddMethod("/foo/bar", explicit))

	m, ok := space.TryGetMethod("/foo/bar")
	require.True(t, ok)
	assert.Equal(t, []string{"explicit"}, handlerNames(m))
	assert.Equal(t, []string{"/foo/bar"}, space.Addresses())
	assert.Zero(t, space.Stats().Promoted)
}

func TestPromotion_CannotRemoveCachedHandler(t *testing.T) {
	space := New()
	h := noop("h")
	require.True(t, space.TryAddMethod("/foo/*", h))
	space.Resolve("/foo/bar")

	assert.False(t, space.RemoveMethod("/foo/bar", h))
	_, ok := space.TryGetMethod("/foo/bar")
	assert.True(t, ok)
}

func TestTryMatchPatternAndPromote(t *testing.T) {
	space := New()
	a, b := noop("a"), noop("b")
	require.True(t, space.TryAddMethod("/synth/*/freq", a))
	require.True(t, space.TryAddMethod("/synth/{1,2}/freq", b))

	t.Run("invalid address", func(t *testing.T) {
		matched, methods := space.TryMatchPatternAndPromote("/synth/*/freq")
		assert.False(t, matched)
		assert.Nil(t, methods)
		assert.Zero(t, space.Stats().PatternScans)
	})

	t.Run("all matches are composed", func(t *testing.T) {
		matched, methods := space.TryMatchPatternAndPromote("/synth/2/freq")
		require.True(t, matched)
		assert.Equal(t, []string{"a", "b"}, handlerNames(methods...))

		m, ok := space.TryGetMethod("/synth/2/freq")
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, handlerNames(m))
	})

	t.Run("no match", func(t *testing.T) {
		matched, methods := space.TryMatchPatternAndPromote("/drums/1")
		assert.False(t, matched)
		assert.Empty(t, methods)
		_, ok := space.TryGetMethod("/drums/1")
		assert.False(t, ok)
	})

	t.Run("bound address is not modified", func(t *testing.T) {
		require.True(t, space.TryAddMethod("/synth/3/freq", noop("explicit")))
		matched, _ := space.TryMatchPatternAndPromote("/synth/3/freq")
		assert.True(t, matched)

		m, _ := space.TryGetMethod("/synth/3/freq")
		assert.Equal(t, []string{"explicit"}, handlerNames(m))
	})
}

func TestTryMatchPattern_Idempotent(t *testing.T) {
	space := New()
	require.True(t, space.TryAddMethod("/a/*", noop("a")))
	require.True(t, space.TryAddMethod("/a/?", noop("b")))

	m1, ok1 := space.TryMatchPattern("/a/x")
	m2, ok2 := space.TryMatchPattern("/a/x")
	require.True(t, ok1)
	assert.Equal(t, ok1, ok2)
	assert.Same(t, m1, m2)
	assert.Equal(t, []string{"a"}, handlerNames(m1))

	_, ok := space.TryGetMethod("/a/x")
	assert.False(t, ok, "TryMatchPattern does not promote")
}

func TestTryMatchIncomingPattern(t *testing.T) {
	space := New()
	require.True(t, space.TryAddMethod("/synth/2/freq", noop("two")))
	require.True(t, space.TryAddMethod("/synth/1/freq", noop("one")))
	require.True(t, space.TryAddMethod("/synth/1/gain", noop("gain")))
	require.True(t, space.TryAddMethod("/synth/*/pan", noop("pan-pattern")))
	space.Resolve("/synth/9/pan") // promoted, not registered

	methods, ok := space.TryMatchIncomingPattern("/synth/*/freq")
	require.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, handlerNames(methods...))

	methods, ok = space.TryMatchIncomingPattern("/synth/*/pan")
	assert.False(t, ok)
	assert.Empty(t, methods)

	_, ok = space.TryMatchIncomingPattern("/synth/[1")
	assert.False(t, ok)

	methods, ok = space.TryMatchIncomingPattern("/synth/1/gain")
	require.True(t, ok)
	assert.Equal(t, []string{"gain"}, handlerNames(methods...))
}

func TestEndToEnd_ExactBeatsPattern(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	space := New()
	require.True(t, space.TryAddMethod("/synth/1/freq", rec.handler("H1")))
	require.True(t, space.TryAddMethod("/synth/*/freq", rec.handler("H2")))

	matched, err := space.Dispatch(ctx, Message{Address: "/synth/1/freq"})
	require.NoError(t, err)
	require.True(t, matched)
	assert.Equal(t, []string{"H1"}, rec.names())

	rec.reset()
	matched, err = space.Dispatch(ctx, Message{Address: "/synth/2/freq"})
	require.NoError(t, err)
	require.True(t, matched)
	assert.Equal(t, []string{"H2"}, rec.names())

	m, ok := space.TryGetMethod("/synth/2/freq")
	require.True(t, ok)
	assert.Equal(t, []string{"H2"}, handlerNames(m))
}

func TestDispatch_Unmatched(t *testing.T) {
	space := New()
	require.True(t, space.TryAddMethod("/a", noop("a")))

	for _, address := range []string{"/b", "", "not-an-address", "/a/*"} {
		matched, err := space.Dispatch(context.Background(), Message{Address: address})
		assert.NoError(t, err)
		assert.False(t, matched, address)
	}
}

func TestDispatch_HandlerErrors(t *testing.T) {
	space := New()
	boom := errors.New("boom")
	rec := &recorder{}
	require.True(t, space.TryAddMethod("/a/*", NewHandler("failing", func(context.Context, Message) error {
		return boom
	})))
	require.True(t, space.TryAddMethod("/{a,b}/x", rec.handler("ok")))

	matched, err := space.Dispatch(context.Background(), Message{Address: "/a/x"})
	assert.True(t, matched)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ok"}, rec.names())
}

func TestTryGetByBytes(t *testing.T) {
	space := New()
	require.True(t, space.TryAddMethod("/synth/1/freq", noop("freq")))

	buf := []byte("/synth/1/freq\x00\x00\x00,f\x00\x00")
	m, ok := space.TryGetByBytes(buf[:13])
	require.True(t, ok)
	assert.Equal(t, []string{"freq"}, handlerNames(m))
}

func TestRoute_String(t *testing.T) {
	assert.Equal(t, "exact", RouteExact.String())
	assert.Equal(t, "pattern", RoutePattern.String())
	assert.Equal(t, "none", RouteNone.String())
}

func TestDispatchRoute(t *testing.T) {
	ctx := context.Background()
	space := New()
	require.True(t, space.TryAddMethod("/exact", noop("e")))
	require.True(t, space.TryAddMethod("/pat/*", noop("p")))

	tests := []struct {
		address string
		want    Route
	}{
		{"/exact", RouteExact},
		{"/pat/1", RoutePattern},
		{"/pat/1", RouteExact},
		{"/nothing", RouteNone},
	}
	for _, tt := range tests {
		route, err := space.DispatchRoute(ctx, Message{Address: tt.address})
		require.NoError(t, err)
		assert.Equal(t, tt.want, route, tt.address)
	}
	assert.Equal(t, uint64(2), space.Stats().PatternScans)
}

func TestResolve_UnmatchedScanSharesReadLock(t *testing.T) {
	space := New()
	require.True(t, space.TryAddMethod("/pat/*", noop("p")))

	// a held read lock must not block a scan that promotes nothing
	space.mu.RLock()
	done := make(chan Route, 1)
	go func() {
		route, _ := space.Resolve("/other/1")
		done <- route
	}()

	var route Route
	finished := false
	select {
	case route = <-done:
		finished = true
	case <-time.After(2 * time.Second):
	}
	space.mu.RUnlock()
	if !finished {
		route = <-done
	}

	assert.True(t, finished, "unmatched resolve waited for the write lock")
	assert.Equal(t, RouteNone, route)
}

func TestPromotion_RescansAfterPatternChange(t *testing.T) {
	space := New()
	p1 := noop("p1")
	require.True(t, space.TryAddMethod("/pat/*", p1))

	// a scan result taken before a pattern change is not cached
	space.mu.RLock()
	generation := space.generation
	space.mu.RUnlock()
	require.True(t, space.RemoveMethod("/pat/*", p1))
	assert.NotEqual(t, generation, space.generation)

	ok, methods := space.TryMatchPatternAndPromote("/pat/1")
	assert.False(t, ok)
	assert.Empty(t, methods)
	_, cached := space.TryGetMethod("/pat/1")
	assert.False(t, cached)
}
