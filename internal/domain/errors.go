package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock indicates an atomic stock decrement could not be
	// satisfied without going negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ErrorKind classifies a failure at the point it occurs so callers never have
// to reconstruct the class from message text.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindAvailability        ErrorKind = "availability"
	KindRateLimited         ErrorKind = "rate_limited"
	KindIdempotencyConflict ErrorKind = "idempotency_conflict"
	KindUpstream            ErrorKind = "upstream"
	KindIntegrity           ErrorKind = "integrity"
)

// Error is a kind-tagged failure. Message is safe for logs; customer-facing
// surfaces map Kind to their own wording.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a kind-tagged error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError tags an underlying error with a kind and context message.
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Untagged errors report
// KindUpstream so unexpected failures never leak as customer mistakes.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUpstream
}
