package oscspace

import (
	"errors"
	"fmt"
)

// Sentinel errors for registration.
var (
	// ErrInvalidAddress indicates an empty or malformed address or pattern.
	ErrInvalidAddress = errors.New("invalid OSC address")

	// ErrNilHandler indicates a registration or removal without a handler.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNotBound indicates a removal for a binding that does not exist.
	ErrNotBound = errors.New("handler not bound to address")
)

// AddressError wraps a registration error with the address involved.
type AddressError struct {
	// Address is the address or pattern passed by the caller.
	Address string
	// Op is the operation that failed ("add", "remove").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *AddressError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Address, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AddressError) Unwrap() error {
	return e.Err
}

// HandlerError wraps an error returned by a handler during dispatch.
type HandlerError struct {
	// Address is the message address being dispatched.
	Address string
	// Handler is the handler name, or its ID when unnamed.
	Handler string
	// Err is the error returned by the handler.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s at %s: %v", e.Handler, e.Address, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError captures a recovered handler panic.
type PanicError struct {
	// Address is the message address being dispatched.
	Address string
	// Handler is the handler name, or its ID when unnamed.
	Handler string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %s at %s panicked: %v", e.Handler, e.Address, e.Value)
}
