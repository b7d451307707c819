// Package oscspace is the addressing and dispatch core of an OSC (Open Sound
// Control) message router.
//
// # Overview
//
// An AddressSpace maps OSC addresses to handlers. Handlers are bound either to
// a literal address ("/synth/1/freq") or to an address pattern
// ("/synth/*/freq"); the classifier decides which from the presence of the
// pattern metacharacters * ? [ ] { }.
//
// Incoming addresses are resolved in two steps:
//
//   - the exact table is probed (O(1) on average)
//   - on a miss, every registered pattern is tried in slot order
//
// A pattern hit for a new concrete address is promoted: the matched handlers
// are cached under that address in the exact table so the next message skips
// the pattern scan. Any change to the pattern table drops promoted entries.
//
// # Basic Usage
//
//	space := oscspace.New()
//
//	freq := oscspace.HandleFunc("freq", func(msg oscspace.Message) {
//	    fmt.Println(msg.Address, msg.Args)
//	})
//	space.TryAddMethod("/synth/*/freq", freq)
//
//	matched, err := space.Dispatch(ctx, oscspace.Message{
//	    Address: "/synth/2/freq",
//	    Args:    []any{float32(440)},
//	})
//
// The wire parser, the network transport and argument decoding live outside
// this package. Callers that run their own invocation loop can use Resolve
// or the Try* lookups and invoke the returned methods themselves.
//
// # Multicast
//
// Several handlers may be bound to the same key. They form one Method and are
// invoked in registration order. Removing a handler leaves the others bound;
// removing the last one deletes the binding. Handlers are compared by
// identity, so keep the *Handler returned by NewHandler to remove it later.
//
// # Thread Safety
//
// AddressSpace is safe for concurrent use. Lookups share a read lock;
// registration, removal and promotion are exclusive. AddressMethods and
// PatternMethods are not safe for concurrent use on their own.
package oscspace
