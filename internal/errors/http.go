package errors

import "fmt"

// ClassifyHTTPError maps a non-success HTTP status from a backend call to a
// transport error:
//   - 4xx client errors (except 408 and 429) are irrecoverable
//   - 5xx server errors are recoverable
//   - 401/403 map to NotAuthorized so the UI can prompt a fresh login
func ClassifyHTTPError(op string, statusCode int, body string) *Error {
	e := &Error{
		Kind:       KindTransport,
		Op:         op,
		StatusCode: statusCode,
		Message:    body,
		Retryable:  isRecoverableStatus(statusCode),
		Underlying: fmt.Errorf("%s failed: HTTP %d", op, statusCode),
	}
	if statusCode == 401 || statusCode == 403 {
		e.Kind = KindNotAuthorized
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("unexpected status %d", statusCode)
	}
	return e
}

func isRecoverableStatus(statusCode int) bool {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case 408, 429:
			return true
		default:
			return false
		}
	case statusCode >= 500 && statusCode < 600:
		return true
	default:
		// Unexpected status codes - be conservative and retry
		return true
	}
}

// NewNetworkError creates a classified error for network-level failures.
// Network errors are always recoverable as they may be transient.
func NewNetworkError(op string, err error) *Error {
	return &Error{
		Kind:       KindTransport,
		Op:         op,
		Retryable:  true,
		Underlying: fmt.Errorf("%s network error: %w", op, err),
	}
}

// NewDecodeError reports a response body that could not be decoded.
func NewDecodeError(op string, err error) *Error {
	return &Error{
		Kind:       KindDataIntegrity,
		Op:         op,
		Underlying: fmt.Errorf("%s decode: %w", op, err),
	}
}
