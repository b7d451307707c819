package oscspace

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
)

// Message is a decoded OSC message as delivered by the wire parser.
// Args are passed through untouched.
type Message struct {
	Address string
	Args    []any
}

// HandlerFunc receives messages routed to an address or pattern.
type HandlerFunc func(ctx context.Context, msg Message) error

// Handler is a registered callback with a stable identity.
// Removal compares identities, so the same *Handler must be passed to
// RemoveMethod that was passed to TryAddMethod.
type Handler struct {
	id   uuid.UUID
	name string
	fn   HandlerFunc
}

// NewHandler creates a handler with a fresh identity.
// The name is used in logs and errors and may be empty.
func NewHandler(name string, fn HandlerFunc) *Handler {
	if fn == nil {
		return nil
	}
	return &Handler{
		id:   uuid.New(),
		name: name,
		fn:   fn,
	}
}

// HandleFunc adapts a function that cannot fail into a named Handler.
func HandleFunc(name string, fn func(msg Message)) *Handler {
	if fn == nil {
		return nil
	}
	return NewHandler(name, func(_ context.Context, msg Message) error {
		fn(msg)
		return nil
	})
}

// ID returns the handler's identity token.
func (h *Handler) ID() uuid.UUID {
	return h.id
}

// Name returns the handler name, or the identity token when unnamed.
func (h *Handler) Name() string {
	if h.name == "" {
		return h.id.String()
	}
	return h.name
}

// HasName reports whether the handler was given a name. Unnamed handlers
// cannot be looked up in a registry or persisted.
func (h *Handler) HasName() bool {
	return h != nil && h.name != ""
}

// call runs the handler, converting a panic into a PanicError.
func (h *Handler) call(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Address: msg.Address,
				Handler: h.Name(),
				Value:   r,
				Stack:   string(debug.Stack()),
			}
		}
	}()

	if err := h.fn(ctx, msg); err != nil {
		return &HandlerError{Address: msg.Address, Handler: h.Name(), Err: err}
	}
	return nil
}

// Method is the multicast unit bound to one address or pattern: every
// handler registered under the same key, in registration order.
//
// A Method is immutable. Composition returns a new Method, so a Method
// obtained from a lookup stays valid while the table is being modified.
type Method struct {
	handlers []*Handler
}

func newMethod(h *Handler) *Method {
	return &Method{handlers: []*Handler{h}}
}

// Len returns the number of handlers in the unit.
func (m *Method) Len() int {
	if m == nil {
		return 0
	}
	return len(m.handlers)
}

// Handlers returns a copy of the handlers in invocation order.
func (m *Method) Handlers() []*Handler {
	if m == nil {
		return nil
	}
	out := make([]*Handler, len(m.handlers))
	copy(out, m.handlers)
	return out
}

// Contains reports whether h is part of the unit.
func (m *Method) Contains(h *Handler) bool {
	return m.indexOf(h) >= 0
}

func (m *Method) indexOf(h *Handler) int {
	if m == nil || h == nil {
		return -1
	}
	for i, existing := range m.handlers {
		if existing.id == h.id {
			return i
		}
	}
	return -1
}

// with returns a new Method with h appended.
func (m *Method) with(h *Handler) *Method {
	if m == nil {
		return newMethod(h)
	}
	handlers := make([]*Handler, len(m.handlers), len(m.handlers)+1)
	copy(handlers, m.handlers)
	return &Method{handlers: append(handlers, h)}
}

// withMethod returns a new Method with all of other's handlers appended.
func (m *Method) withMethod(other *Method) *Method {
	if other.Len() == 0 {
		return m
	}
	if m == nil {
		return &Method{handlers: other.Handlers()}
	}
	handlers := make([]*Handler, 0, len(m.handlers)+len(other.handlers))
	handlers = append(handlers, m.handlers...)
	handlers = append(handlers, other.handlers...)
	return &Method{handlers: handlers}
}

// without returns a filtered copy with h removed, and whether h was present.
// The result is nil when no handlers remain.
func (m *Method) without(h *Handler) (*Method, bool) {
	i := m.indexOf(h)
	if i < 0 {
		return m, false
	}
	if len(m.handlers) == 1 {
		return nil, true
	}
	handlers := make([]*Handler, 0, len(m.handlers)-1)
	handlers = append(handlers, m.handlers[:i]...)
	handlers = append(handlers, m.handlers[i+1:]...)
	return &Method{handlers: handlers}, true
}

// Invoke calls every handler in registration order. A failing or panicking
// handler does not stop the others; all failures are joined.
func (m *Method) Invoke(ctx context.Context, msg Message) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, h := range m.handlers {
		if err := h.call(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// String returns a short description for debugging.
func (m *Method) String() string {
	return fmt.Sprintf("Method(%d handlers)", m.Len())
}
