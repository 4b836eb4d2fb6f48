// Package adapt converts between the wire representation used by the
// backend services and the UI-level types in internal/types.
//
// Every function here is pure. The only side effect is the data-integrity
// warning emitted when a malformed value is replaced by a documented
// default; such warnings are logged and counted, never swallowed.
package adapt

import (
	"fmt"
	"math/big"
	"time"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/wire"
)

// Int64FromNat converts a wire natural to int64. Values above MaxInt64 are
// rejected rather than truncated.
func Int64FromNat(n wire.Nat) (int64, error) {
	return int64FromBig(n.Big())
}

// Int64FromInt converts a wire integer to int64, rejecting out-of-range
// values.
func Int64FromInt(n wire.Int) (int64, error) {
	return int64FromBig(n.Big())
}

func int64FromBig(b *big.Int) (int64, error) {
	if !b.IsInt64() {
		return 0, apperr.New(apperr.KindDataIntegrity, "adapt.int64",
			fmt.Sprintf("integer %s exceeds the int64 range", b))
	}
	return b.Int64(), nil
}

// NatFromInt64 converts n to a wire natural. Negative values are rejected.
func NatFromInt64(n int64) (wire.Nat, error) {
	if n < 0 {
		return wire.Nat{}, apperr.New(apperr.KindInvalidInput, "adapt.nat",
			fmt.Sprintf("%d is negative", n))
	}
	return wire.NewNat(uint64(n)), nil
}

// IntFromInt64 converts n to a wire integer.
func IntFromInt64(n int64) wire.Int {
	return wire.NewInt(n)
}

// TimeFromInt converts a wire timestamp in nanoseconds since the Unix epoch.
func TimeFromInt(n wire.Int) (time.Time, error) {
	ns, err := Int64FromInt(n)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, ns).UTC(), nil
}

// IntFromTime converts t to a wire timestamp in nanoseconds. The zero time
// maps to 0.
func IntFromTime(t time.Time) wire.Int {
	if t.IsZero() {
		return wire.NewInt(0)
	}
	return wire.NewInt(t.UnixNano())
}
