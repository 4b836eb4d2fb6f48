package service

import (
	"context"

	"github.com/ve11yn/dochi/internal/adapt"
	"github.com/ve11yn/dochi/internal/config"
	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/types"
	"github.com/ve11yn/dochi/internal/wire"
)

// Focus wraps the focus-time service. Minutes accumulate per date; there is
// no record for a date until the first session on it is added.
type Focus struct {
	base
}

func NewFocus(sessions SessionSource, clients ClientSource) *Focus {
	return &Focus{base: newBase(config.ServiceFocus, sessions, clients)}
}

// AddFocusTime adds minutes to date and returns the new total for that date.
func (f *Focus) AddFocusTime(ctx context.Context, date string, minutes int64) (int64, error) {
	const op = "focus.addFocusTime"
	call, err := f.begin(ctx, op)
	if err != nil {
		return 0, err
	}
	if err := validDate(op, "date", date); err != nil {
		return 0, err
	}
	if minutes <= 0 {
		return 0, apperr.InvalidInput(op, "minutes must be positive")
	}
	n, err := adapt.NatFromInt64(minutes)
	if err != nil {
		return 0, withOp(op, err)
	}

	var res wire.Result[wire.Nat]
	if err := call.update(ctx, "addFocusTime", []any{date, n}, &res); err != nil {
		return 0, err
	}
	return adapt.UnwrapWith(op, res, adapt.Int64FromNat)
}

// FocusTime returns the minutes recorded for date; ok is false when nothing
// was recorded.
func (f *Focus) FocusTime(ctx context.Context, date string) (minutes int64, ok bool, err error) {
	const op = "focus.focusTime"
	call, err := f.begin(ctx, op)
	if err != nil {
		return 0, false, err
	}
	if err := validDate(op, "date", date); err != nil {
		return 0, false, err
	}

	var res wire.Opt[wire.Nat]
	if err := call.query(ctx, "getFocusTime", []any{date}, &res); err != nil {
		return 0, false, err
	}
	n := adapt.Optional(res)
	if n == nil {
		return 0, false, nil
	}
	minutes, err = adapt.Int64FromNat(*n)
	if err != nil {
		return 0, false, withOp(op, err)
	}
	return minutes, true, nil
}

func (f *Focus) AllFocusTime(ctx context.Context) (types.FocusRecord, error) {
	const op = "focus.allFocusTime"
	call, err := f.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	var entries []wire.FocusEntry
	if err := call.query(ctx, "getAllFocusTime", nil, &entries); err != nil {
		return nil, err
	}
	rec, err := adapt.FocusRecord(entries)
	if err != nil {
		return nil, withOp(op, err)
	}
	return rec, nil
}
