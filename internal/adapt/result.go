package adapt

import (
	"errors"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/wire"
)

// Unwrap returns the ok value of r, or the business error carried by its
// err branch. Every wrapper goes through here so rejections are reported
// the same way everywhere: as a returned *errors.Error, never a panic.
func Unwrap[T any](op string, r wire.Result[T]) (T, error) {
	if !r.IsOk() {
		var zero T
		return zero, Rejection(op, r.Err)
	}
	if r.Ok == nil {
		var zero T
		return zero, nil
	}
	return *r.Ok, nil
}

// UnwrapWith unwraps r and converts the ok value with fn.
func UnwrapWith[W, T any](op string, r wire.Result[W], fn func(W) (T, error)) (T, error) {
	w, err := Unwrap(op, r)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := fn(w)
	if err != nil {
		var zero T
		return zero, withOp(op, err)
	}
	return v, nil
}

func withOp(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		cp := *e
		cp.Op = op
		return &cp
	}
	return apperr.Wrap(apperr.KindDataIntegrity, op, err)
}
