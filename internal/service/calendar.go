package service

import (
	"context"

	"github.com/ve11yn/dochi/internal/adapt"
	"github.com/ve11yn/dochi/internal/config"
	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/types"
	"github.com/ve11yn/dochi/internal/wire"
)

// Calendar wraps the calendar service: appointments and categories.
type Calendar struct {
	base
}

func NewCalendar(sessions SessionSource, clients ClientSource) *Calendar {
	return &Calendar{base: newBase(config.ServiceCalendar, sessions, clients)}
}

func (c *Calendar) CreateAppointment(ctx context.Context, req types.AppointmentRequest) (types.Appointment, error) {
	const op = "calendar.createAppointment"
	call, err := c.begin(ctx, op)
	if err != nil {
		return types.Appointment{}, err
	}
	if err := validAppointment(op, req); err != nil {
		return types.Appointment{}, err
	}

	var res wire.Result[wire.Appointment]
	if err := call.update(ctx, "createAppointment", []any{adapt.AppointmentInput(req)}, &res); err != nil {
		return types.Appointment{}, err
	}
	return adapt.UnwrapWith(op, res, adapt.Appointment)
}

// UpdateAppointment replaces every editable field of the appointment.
func (c *Calendar) UpdateAppointment(ctx context.Context, id int64, req types.AppointmentRequest) (types.Appointment, error) {
	const op = "calendar.updateAppointment"
	call, err := c.begin(ctx, op)
	if err != nil {
		return types.Appointment{}, err
	}
	if err := validAppointment(op, req); err != nil {
		return types.Appointment{}, err
	}
	nat, err := natID(op, id)
	if err != nil {
		return types.Appointment{}, err
	}

	var res wire.Result[wire.Appointment]
	if err := call.update(ctx, "updateAppointment", []any{nat, adapt.AppointmentInput(req)}, &res); err != nil {
		return types.Appointment{}, err
	}
	return adapt.UnwrapWith(op, res, adapt.Appointment)
}

func (c *Calendar) DeleteAppointment(ctx context.Context, id int64) error {
	const op = "calendar.deleteAppointment"
	call, err := c.begin(ctx, op)
	if err != nil {
		return err
	}
	nat, err := natID(op, id)
	if err != nil {
		return err
	}

	var res wire.Result[wire.Unit]
	if err := call.update(ctx, "deleteAppointment", []any{nat}, &res); err != nil {
		return err
	}
	_, err = adapt.Unwrap(op, res)
	return err
}

// ToggleAppointment flips the completed flag and returns the new state.
func (c *Calendar) ToggleAppointment(ctx context.Context, id int64) (types.Appointment, error) {
	const op = "calendar.toggleAppointment"
	call, err := c.begin(ctx, op)
	if err != nil {
		return types.Appointment{}, err
	}
	nat, err := natID(op, id)
	if err != nil {
		return types.Appointment{}, err
	}

	var res wire.Result[wire.Appointment]
	if err := call.update(ctx, "toggleAppointmentCompletion", []any{nat}, &res); err != nil {
		return types.Appointment{}, err
	}
	return adapt.UnwrapWith(op, res, adapt.Appointment)
}

func (c *Calendar) AppointmentsByDate(ctx context.Context, date string) ([]types.Appointment, error) {
	const op = "calendar.appointmentsByDate"
	call, err := c.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := validDate(op, "date", date); err != nil {
		return nil, err
	}
	return c.appointments(ctx, call, "getAppointmentsByDate", date)
}

// AppointmentsByRange lists appointments with from <= date <= to.
func (c *Calendar) AppointmentsByRange(ctx context.Context, from, to string) ([]types.Appointment, error) {
	const op = "calendar.appointmentsByRange"
	call, err := c.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := validDate(op, "from", from); err != nil {
		return nil, err
	}
	if err := validDate(op, "to", to); err != nil {
		return nil, err
	}
	// YYYY-MM-DD compares chronologically as a string
	if to < from {
		return nil, apperr.InvalidInput(op, "range ends before it starts")
	}
	return c.appointments(ctx, call, "getAppointmentsByDateRange", from, to)
}

func (c *Calendar) AllAppointments(ctx context.Context) ([]types.Appointment, error) {
	call, err := c.begin(ctx, "calendar.allAppointments")
	if err != nil {
		return nil, err
	}
	return c.appointments(ctx, call, "getAllAppointments")
}

func (c *Calendar) appointments(ctx context.Context, call *call, method string, args ...any) ([]types.Appointment, error) {
	var ws []wire.Appointment
	if err := call.query(ctx, method, args, &ws); err != nil {
		return nil, err
	}
	out, err := adapt.Appointments(ws)
	if err != nil {
		return nil, withOp(call.op, err)
	}
	return out, nil
}

func (c *Calendar) Categories(ctx context.Context) ([]types.Category, error) {
	call, err := c.begin(ctx, "calendar.categories")
	if err != nil {
		return nil, err
	}
	var ws []wire.Category
	if err := call.query(ctx, "getCategories", nil, &ws); err != nil {
		return nil, err
	}
	return adapt.Categories(ws), nil
}

func (c *Calendar) AddCategory(ctx context.Context, cat types.Category) (types.Category, error) {
	const op = "calendar.addCategory"
	call, err := c.begin(ctx, op)
	if err != nil {
		return types.Category{}, err
	}
	if err := required(op, "name", cat.Name); err != nil {
		return types.Category{}, err
	}

	var res wire.Result[wire.Category]
	if err := call.update(ctx, "addCategory", []any{adapt.WireCategory(cat)}, &res); err != nil {
		return types.Category{}, err
	}
	w, err := adapt.Unwrap(op, res)
	if err != nil {
		return types.Category{}, err
	}
	return adapt.Category(w), nil
}

// DeleteCategory removes the named category. current is the caller's view of
// the category set; when it holds one category or fewer the request is
// rejected without a remote call, since at least one category must remain.
// The service enforces the same rule.
func (c *Calendar) DeleteCategory(ctx context.Context, name string, current []types.Category) error {
	const op = "calendar.deleteCategory"
	call, err := c.begin(ctx, op)
	if err != nil {
		return err
	}
	if err := required(op, "name", name); err != nil {
		return err
	}
	if len(current) <= 1 {
		return apperr.InvalidInput(op, "cannot delete the last category")
	}

	var res wire.Result[wire.Unit]
	if err := call.update(ctx, "deleteCategory", []any{name}, &res); err != nil {
		return err
	}
	_, err = adapt.Unwrap(op, res)
	return err
}

func natID(op string, id int64) (wire.Nat, error) {
	n, err := adapt.NatFromInt64(id)
	if err != nil {
		return wire.Nat{}, withOp(op, err)
	}
	return n, nil
}
