// Package errors defines the structured error kinds the core surfaces to
// callers: malformed input, SSA merge disagreements, unhandled constructs,
// and broken API preconditions. See the component docs for which layer
// raises which kind.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind string

const (
	// InvalidInput covers malformed bytecode, unsupported opcodes, and bad
	// exception tables.
	InvalidInput Kind = "InvalidInput"
	// StackMismatch covers a block merge that disagrees on stack depth or
	// stack type.
	StackMismatch Kind = "StackMismatch"
	// UnsupportedConstruct covers constructs the core explicitly does not
	// yet handle (e.g. a non-zero generic parameter count on a
	// function-pointer signature).
	UnsupportedConstruct Kind = "UnsupportedConstruct"
	// InvariantViolation is a contract violation: an API precondition
	// failed. Callers should treat this as a programmer error, not a
	// data-dependent failure.
	InvariantViolation Kind = "InvariantViolation"
)

// Error is the concrete error type returned by every fallible operation in
// the core. The offending byte offset is -1 when the error is not tied to
// a specific offset (e.g. an InvariantViolation).
type Error struct {
	Kind    Kind
	Offset  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %#x: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds an offset-less Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: -1, Message: fmt.Sprintf(format, args...)}
}

// At builds an Error tied to a bytecode offset.
func At(kind Kind, offset int, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new Error of the given kind using pkg/errors so
// the resulting error retains a stack trace from the wrap site.
func Wrap(cause error, kind Kind, offset int, format string, args ...any) *Error {
	wrapped := pkgerrors.Wrapf(cause, format, args...)
	return &Error{Kind: kind, Offset: offset, Message: wrapped.Error(), cause: wrapped}
}

// Invalid builds an InvariantViolation. Call sites that hold a debug build
// invariant should pair this with a panic; release builds may choose to
// return it to the caller instead.
func Invalid(format string, args ...any) *Error {
	return New(InvariantViolation, format, args...)
}

// Is reports whether err (or any error it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if pkgerrors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
