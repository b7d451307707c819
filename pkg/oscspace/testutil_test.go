package oscspace

import (
	"context"
	"sync"
)

// recorder collects the names of handlers as they are invoked.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) handler(name string) *Handler {
	return NewHandler(name, func(_ context.Context, _ Message) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
		return nil
	})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// noop returns a named handler that does nothing.
func noop(name string) *Handler {
	return HandleFunc(name, func(Message) {})
}

// handlerNames flattens methods into handler names in invocation order.
func handlerNames(methods ...*Method) []string {
	var out []string
	for _, m := range methods {
		for _, h := range m.Handlers() {
			out = append(out, h.Name())
		}
	}
	return out
}
