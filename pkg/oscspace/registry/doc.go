// Package registry provides a thread-safe catalog of named OSC handlers.
//
// Routing tables loaded from configuration files or a binding store refer
// to handlers by name. A Registry maps those names to the *oscspace.Handler
// values the application constructed, so the same handler instance (and
// therefore the same identity inside a multicast method) is bound wherever
// the name appears.
//
// # Basic Usage
//
//	reg := registry.New()
//	reg.MustRegister(oscspace.HandleFunc("log", logMessage))
//	reg.MustRegister(oscspace.HandleFunc("synth", playNote))
//
//	h, ok := reg.Get("synth")
//	if ok {
//	    space.TryAddMethod("/synth/*/note", h)
//	}
//
// # Lazy Initialization
//
// GetOrCreate builds a handler on first use. The factory runs at most once
// per name, even under concurrent access:
//
//	h := reg.GetOrCreate("meter", func() *oscspace.Handler {
//	    return oscspace.HandleFunc("meter", newMeter().Observe)
//	})
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. Range iterates over a
// snapshot, so Register and Delete may be called from inside the callback.
package registry
