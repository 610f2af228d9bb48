// Package resultx provides the sum-type success/failure value threaded
// through every fallible core operation, so that errors never cross a
// module boundary as a bare panic or an ad-hoc error string.
package resultx

import "fmt"

// Kind names the category of failure. Handlers map a Kind to an HTTP
// status; nothing else in the core should know about HTTP.
type Kind string

// All error kinds recognized by the core, per the error handling design.
const (
	KindConfigInvalid    Kind = "config-invalid"
	KindIO               Kind = "io"
	KindNotFound         Kind = "not-found"
	KindConflict         Kind = "conflict"
	KindValidation       Kind = "validation"
	KindAuthUnauthorized Kind = "auth-unauthorized"
	KindAuthForbidden    Kind = "auth-forbidden"
	KindExpansionDepth   Kind = "expansion-depth"
	KindBadRequest       Kind = "bad-request"
	KindServerInternal   Kind = "server-internal"
)

// Error is the concrete error type carried by a failed Result. It carries
// a Kind for status mapping plus an optional machine-readable code and
// a list of detail strings (used by validation failures to report every
// violation at once).
type Error struct {
	Kind    Kind
	Message string
	Code    string
	Details []string
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Details)
}

// New builds an Error of the given kind.
func New(kind Kind, message string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(message, args...)}
}

// WithDetails attaches detail strings (e.g. one per validation violation)
// and returns the same Error for chaining.
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
}

// WithCode attaches a machine-readable code and returns the same Error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// Result is a generic ok/err value. A zero Result is not valid; always
// construct with Ok or Err.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure.
func Err[T any](err *Error) Result[T] {
	return Result[T]{err: err}
}

// Errf builds and wraps a failure in one call.
func Errf[T any](kind Kind, message string, args ...interface{}) Result[T] {
	return Result[T]{err: New(kind, message, args...)}
}

// IsOk reports whether the result is a success.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Unwrap returns the success value and the failure, exactly one of which
// is meaningful depending on IsOk.
func (r Result[T]) Unwrap() (T, *Error) {
	return r.value, r.err
}

// Value returns the success value, or the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Error returns the failure, or nil on success.
func (r Result[T]) Error() *Error {
	return r.err
}

// Map transforms a successful value, passing failures through unchanged.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.IsOk() {
		return Err[U](r.err)
	}
	return Ok(f(r.value))
}
