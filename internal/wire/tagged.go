package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrOptTooLong is returned when an optional sequence has more than one
	// element.
	ErrOptTooLong = errors.New("optional has more than one element")

	// ErrMalformedResult is returned when a result is not exactly one of
	// {"ok": ...} or {"err": ...}.
	ErrMalformedResult = errors.New("result must have exactly one of ok, err")

	// ErrMalformedVariant is returned when a variant is not a single-key
	// object.
	ErrMalformedVariant = errors.New("variant must have exactly one tag")
)

// Opt is an optional encoded as a zero- or one-element sequence.
type Opt[T any] struct {
	v  T
	ok bool
}

// Some wraps v as a present optional.
func Some[T any](v T) Opt[T] { return Opt[T]{v: v, ok: true} }

// None returns an absent optional.
func None[T any]() Opt[T] { return Opt[T]{} }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.v, o.ok }

// MarshalJSON encodes [] or [v].
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("[]"), nil
	}
	return json.Marshal([]T{o.v})
}

// UnmarshalJSON decodes [] or [v]. A JSON null is read as absent.
func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	var xs []json.RawMessage
	if err := json.Unmarshal(b, &xs); err != nil {
		return err
	}
	switch len(xs) {
	case 0:
		*o = Opt[T]{}
		return nil
	case 1:
		var v T
		if err := json.Unmarshal(xs[0], &v); err != nil {
			return err
		}
		*o = Opt[T]{v: v, ok: true}
		return nil
	default:
		return fmt.Errorf("%d elements: %w", len(xs), ErrOptTooLong)
	}
}

// Unit is the empty value carried by results of operations that return
// nothing on success.
type Unit struct{}

// MarshalJSON encodes the unit value as null.
func (Unit) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// UnmarshalJSON accepts anything; the unit value carries no data.
func (*Unit) UnmarshalJSON([]byte) error { return nil }

// Result is the {ok}|{err} tagged union returned by every mutating backend
// operation. Err is kept raw because services reject with either free text
// or an error variant.
type Result[T any] struct {
	Ok  *T
	Err json.RawMessage
}

// OkResult builds a successful result.
func OkResult[T any](v T) Result[T] { return Result[T]{Ok: &v} }

// ErrResult builds a failed result carrying the JSON encoding of reason.
func ErrResult[T any](reason any) (Result[T], error) {
	raw, err := json.Marshal(reason)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Err: raw}, nil
}

// IsOk reports whether the result is the ok branch.
func (r Result[T]) IsOk() bool { return r.Err == nil }

// MarshalJSON encodes {"ok": v} or {"err": e}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]json.RawMessage{"err": r.Err})
	}
	var v T
	if r.Ok != nil {
		v = *r.Ok
	}
	return json.Marshal(map[string]T{"ok": v})
}

// UnmarshalJSON decodes {"ok": v} or {"err": e}.
func (r *Result[T]) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	okRaw, hasOk := m["ok"]
	errRaw, hasErr := m["err"]
	if len(m) != 1 || hasOk == hasErr {
		return ErrMalformedResult
	}
	if hasErr {
		*r = Result[T]{Err: append(json.RawMessage(nil), errRaw...)}
		return nil
	}
	var v T
	if err := json.Unmarshal(okRaw, &v); err != nil {
		return err
	}
	*r = Result[T]{Ok: &v}
	return nil
}

// Variant is a tagged variant {"Tag": value}. Enums use a null value.
type Variant struct {
	Tag   string
	Value json.RawMessage
}

// Tag returns the tagged-null variant for tag.
func Tag(tag string) Variant { return Variant{Tag: tag} }

// MarshalJSON encodes {"Tag": value}; an empty value encodes null.
func (v Variant) MarshalJSON() ([]byte, error) {
	val := v.Value
	if len(val) == 0 {
		val = json.RawMessage("null")
	}
	return json.Marshal(map[string]json.RawMessage{v.Tag: val})
}

// UnmarshalJSON decodes a single-key object.
func (v *Variant) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return ErrMalformedVariant
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return ErrMalformedVariant
	}
	for tag, val := range m {
		v.Tag = tag
		v.Value = append(json.RawMessage(nil), val...)
	}
	return nil
}
