// Package wire holds the over-the-network value encodings fixed by the
// backend services: arbitrary-precision integers, optionals encoded as
// zero/one-element sequences, {ok}|{err} results and tagged-null variants.
//
// Nothing outside internal/adapt should consume these types directly.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNegativeNat is returned when a natural number would be negative.
	ErrNegativeNat = errors.New("nat must not be negative")

	// ErrMalformedInteger is returned for integer text that is not a plain
	// base-10 literal.
	ErrMalformedInteger = errors.New("malformed integer")
)

// Nat is an arbitrary-precision natural number. The zero value is 0.
type Nat struct{ i *big.Int }

// NewNat returns n as a Nat.
func NewNat(n uint64) Nat {
	return Nat{i: new(big.Int).SetUint64(n)}
}

// NatFromBig copies b into a Nat.
func NatFromBig(b *big.Int) (Nat, error) {
	if b.Sign() < 0 {
		return Nat{}, ErrNegativeNat
	}
	return Nat{i: new(big.Int).Set(b)}, nil
}

// Big returns a copy of the value.
func (n Nat) Big() *big.Int {
	if n.i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.i)
}

func (n Nat) String() string { return n.Big().String() }

// MarshalJSON encodes the value as a decimal string so no precision is lost
// in JSON number handling.
func (n Nat) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Big().String())
}

// UnmarshalJSON accepts a decimal string or a JSON number.
func (n *Nat) UnmarshalJSON(b []byte) error {
	v, err := parseInteger(b)
	if err != nil {
		return err
	}
	if v.Sign() < 0 {
		return fmt.Errorf("nat %s: %w", v, ErrNegativeNat)
	}
	n.i = v
	return nil
}

// Int is an arbitrary-precision signed integer. The zero value is 0.
type Int struct{ i *big.Int }

// NewInt returns n as an Int.
func NewInt(n int64) Int {
	return Int{i: big.NewInt(n)}
}

// Big returns a copy of the value.
func (n Int) Big() *big.Int {
	if n.i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.i)
}

func (n Int) String() string { return n.Big().String() }

// MarshalJSON encodes the value as a decimal string.
func (n Int) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Big().String())
}

// UnmarshalJSON accepts a decimal string or a JSON number.
func (n *Int) UnmarshalJSON(b []byte) error {
	v, err := parseInteger(b)
	if err != nil {
		return err
	}
	n.i = v
	return nil
}

func parseInteger(b []byte) (*big.Int, error) {
	b = bytes.TrimSpace(b)
	text := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return nil, err
		}
	}
	// big.Int.SetString accepts underscores and prefixes only with base 0;
	// base 10 keeps the wire format strict.
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("%q: %w", text, ErrMalformedInteger)
	}
	return v, nil
}
