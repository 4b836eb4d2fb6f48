// Package errors provides the error taxonomy shared by every layer of the
// client. All failures leaving the service wrappers are *Error values so
// callers branch on Kind instead of matching strings.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is the stable, UI-facing classification of a failure.
type Kind int

const (
	// KindUnknown is never produced deliberately; it marks foreign errors.
	KindUnknown Kind = iota

	// KindUnauthenticated means no usable session existed. Detected locally
	// before any remote call.
	KindUnauthenticated

	// KindTransport covers connectivity, handshake and non-business HTTP
	// failures. Retryable reports whether a retry could plausibly succeed.
	KindTransport

	// KindConfig is a fatal misconfiguration (for example a missing service
	// endpoint). Never retried.
	KindConfig

	// KindDataIntegrity means a response had a shape that could not be
	// adapted (overflowing integer, malformed optional, undecodable JSON).
	KindDataIntegrity

	// KindSuperseded means the session changed while the call was in flight
	// and the result was discarded.
	KindSuperseded

	// Business rejections reported by a backend service.
	KindNotFound
	KindAlreadyExists
	KindInvalidInput
	KindNotAuthorized
	// KindRejected carries a free-text rejection message.
	KindRejected
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindTransport:
		return "Transport"
	case KindConfig:
		return "Config"
	case KindDataIntegrity:
		return "DataIntegrity"
	case KindSuperseded:
		return "Superseded"
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindInvalidInput:
		return "InvalidInput"
	case KindNotAuthorized:
		return "NotAuthorized"
	case KindRejected:
		return "Rejected"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// IsBusiness reports whether k is a rejection returned by a backend service.
func (k Kind) IsBusiness() bool {
	return k >= KindNotFound && k <= KindRejected
}

// Error wraps a failure with its kind and enough detail for the caller to
// decide on a retry.
type Error struct {
	Kind       Kind
	Op         string // operation, e.g. "calendar.createAppointment"
	Message    string // human-readable message, safe to show
	StatusCode int    // HTTP status code (0 for non-HTTP errors)
	Retryable  bool
	Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Underlying != nil {
		msg = e.Underlying.Error()
	}
	switch {
	case e.Op != "" && e.StatusCode > 0:
		return fmt.Sprintf("%s: [%s] HTTP %d: %s", e.Op, e.Kind, e.StatusCode, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: [%s] %s", e.Op, e.Kind, msg)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, msg)
	}
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is lets errors.Is match on kind sentinels such as ErrUnauthenticated.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Underlying == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrTransport       = &Error{Kind: KindTransport}
	ErrConfig          = &Error{Kind: KindConfig}
	ErrDataIntegrity   = &Error{Kind: KindDataIntegrity}
	ErrSuperseded      = &Error{Kind: KindSuperseded}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrAlreadyExists   = &Error{Kind: KindAlreadyExists}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrNotAuthorized   = &Error{Kind: KindNotAuthorized}
	ErrRejected        = &Error{Kind: KindRejected}
)

// New creates an *Error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an *Error of the given kind around err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Underlying: err}
}

// Unauthenticated is returned by wrappers invoked without a session.
func Unauthenticated(op string) *Error {
	return New(KindUnauthenticated, op, "not authenticated")
}

// InvalidInput reports a request rejected locally before any remote call.
func InvalidInput(op, message string) *Error {
	return New(KindInvalidInput, op, message)
}

// KindOf returns the kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable returns true if err is a failure that may succeed on retry.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	return !IsRetryable(err)
}
