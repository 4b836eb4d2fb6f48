package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/types"
)

const clockLayout = "15:04"

func validDate(op, field, value string) error {
	if !strfmt.IsDate(value) {
		return apperr.InvalidInput(op, fmt.Sprintf("%s %q is not a YYYY-MM-DD date", field, value))
	}
	return nil
}

func parseClock(op, field, value string) (time.Time, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return time.Time{}, apperr.InvalidInput(op, fmt.Sprintf("%s %q is not an HH:MM time", field, value))
	}
	return t, nil
}

func required(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.InvalidInput(op, field+" is required")
	}
	return nil
}

func validAppointment(op string, r types.AppointmentRequest) error {
	if err := required(op, "title", r.Title); err != nil {
		return err
	}
	if err := required(op, "category", r.Category); err != nil {
		return err
	}
	if err := validDate(op, "date", r.Date); err != nil {
		return err
	}
	start, err := parseClock(op, "startTime", r.StartTime)
	if err != nil {
		return err
	}
	end, err := parseClock(op, "endTime", r.EndTime)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return apperr.InvalidInput(op, "endTime is before startTime")
	}
	return nil
}

func validPriority(op string, p types.Priority) error {
	if p != "" && !p.Valid() {
		return apperr.InvalidInput(op, fmt.Sprintf("unknown priority %q", p))
	}
	return nil
}
