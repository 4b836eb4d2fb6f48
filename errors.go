package dochi

import apperr "github.com/ve11yn/dochi/internal/errors"

// Error is the single error type returned by App operations.
type Error = apperr.Error

// Kind classifies an Error.
type Kind = apperr.Kind

const (
	KindUnauthenticated = apperr.KindUnauthenticated
	KindTransport       = apperr.KindTransport
	KindConfig          = apperr.KindConfig
	KindDataIntegrity   = apperr.KindDataIntegrity
	KindSuperseded      = apperr.KindSuperseded
	KindNotFound        = apperr.KindNotFound
	KindAlreadyExists   = apperr.KindAlreadyExists
	KindInvalidInput    = apperr.KindInvalidInput
	KindNotAuthorized   = apperr.KindNotAuthorized
	KindRejected        = apperr.KindRejected
)

// Re-exported kind sentinels for errors.Is.
var (
	ErrUnauthenticated = apperr.ErrUnauthenticated
	ErrTransport       = apperr.ErrTransport
	ErrConfig          = apperr.ErrConfig
	ErrDataIntegrity   = apperr.ErrDataIntegrity
	ErrSuperseded      = apperr.ErrSuperseded
	ErrNotFound        = apperr.ErrNotFound
	ErrAlreadyExists   = apperr.ErrAlreadyExists
	ErrInvalidInput    = apperr.ErrInvalidInput
	ErrNotAuthorized   = apperr.ErrNotAuthorized
	ErrRejected        = apperr.ErrRejected
)

// KindOf returns the kind carried by err.
func KindOf(err error) Kind { return apperr.KindOf(err) }

// IsRetryable reports whether err may succeed on retry.
func IsRetryable(err error) bool { return apperr.IsRetryable(err) }
