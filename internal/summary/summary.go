// Package summary builds the profile read-model: the user's profile plus
// appointment and focus statistics, fetched concurrently.
package summary

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/logger"
	"github.com/ve11yn/dochi/internal/types"
)

const dateLayout = "2006-01-02"

// Section names used in ProfileData.SectionErrors.
const (
	SectionAppointments = "appointments"
	SectionFocus        = "focus"
)

// ProfileSource returns the current identity's profile, or nil when it has
// none. *service.Profile implements it.
type ProfileSource interface {
	Get(ctx context.Context) (*types.User, error)
}

// AppointmentSource is implemented by *service.Calendar.
type AppointmentSource interface {
	AllAppointments(ctx context.Context) ([]types.Appointment, error)
}

// FocusSource is implemented by *service.Focus.
type FocusSource interface {
	AllFocusTime(ctx context.Context) (types.FocusRecord, error)
}

// DayMinutes is the focus total for one date.
type DayMinutes struct {
	Date    string `json:"date"`
	Minutes int64  `json:"minutes"`
}

// Stats are derived locally from already fetched data.
type Stats struct {
	TotalAppointments      int            `json:"totalAppointments"`
	CompletedAppointments  int            `json:"completedAppointments"`
	CompletionRate         float64        `json:"completionRate"` // 0..1
	AppointmentsByCategory map[string]int `json:"appointmentsByCategory"`
	TotalFocusMinutes      int64          `json:"totalFocusMinutes"`
	FocusDays              int            `json:"focusDays"`
	AverageFocusMinutes    float64        `json:"averageFocusMinutes"`
	BestDay                *DayMinutes    `json:"bestDay,omitempty"`
	// CurrentStreak counts consecutive focus days ending today (the UTC
	// date), or yesterday when nothing has been recorded today yet.
	CurrentStreak int       `json:"currentStreak"`
	MemberSince   time.Time `json:"memberSince"`
}

// ProfileData is the aggregated profile. A section that could not be
// fetched is empty and has an entry in SectionErrors.
type ProfileData struct {
	User          types.User          `json:"user"`
	Appointments  []types.Appointment `json:"appointments"`
	Focus         types.FocusRecord   `json:"focus"`
	Stats         Stats               `json:"stats"`
	SectionErrors map[string]error    `json:"-"`
}

// Service aggregates the profile, calendar and focus wrappers.
type Service struct {
	profile  ProfileSource
	calendar AppointmentSource
	focus    FocusSource
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for the streak.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(profile ProfileSource, calendar AppointmentSource, focus FocusSource, opts ...Option) *Service {
	s := &Service{
		profile:  profile,
		calendar: calendar,
		focus:    focus,
		now:      time.Now,
		log:      logger.New("summary"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProfileData fetches the three sections concurrently. Failure to fetch the
// profile, or a missing profile, fails the whole call. Appointment and
// focus failures are logged and reported per section.
func (s *Service) ProfileData(ctx context.Context) (*ProfileData, error) {
	const op = "summary.profileData"

	var (
		user            *types.User
		appointments    []types.Appointment
		focus           types.FocusRecord
		appointmentsErr error
		focusErr        error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.profile.Get(gctx)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.New(apperr.KindNotFound, op, "the current identity has no profile")
		}
		user = u
		return nil
	})
	g.Go(func() error {
		appointments, appointmentsErr = s.calendar.AllAppointments(gctx)
		return nil
	})
	g.Go(func() error {
		focus, focusErr = s.focus.AllFocusTime(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &ProfileData{
		User:          *user,
		Appointments:  appointments,
		Focus:         focus,
		SectionErrors: map[string]error{},
	}
	if appointmentsErr != nil {
		s.log.Warn().Err(appointmentsErr).Str("section", SectionAppointments).Msg("section unavailable")
		data.SectionErrors[SectionAppointments] = appointmentsErr
		data.Appointments = []types.Appointment{}
	}
	if focusErr != nil {
		s.log.Warn().Err(focusErr).Str("section", SectionFocus).Msg("section unavailable")
		data.SectionErrors[SectionFocus] = focusErr
		data.Focus = types.FocusRecord{}
	}
	if data.Appointments == nil {
		data.Appointments = []types.Appointment{}
	}
	if data.Focus == nil {
		data.Focus = types.FocusRecord{}
	}

	data.Stats = computeStats(data.User, data.Appointments, data.Focus, s.now())
	return data, nil
}

func computeStats(user types.User, appointments []types.Appointment, focus types.FocusRecord, now time.Time) Stats {
	st := Stats{
		TotalAppointments:      len(appointments),
		AppointmentsByCategory: make(map[string]int),
		MemberSince:            user.CreatedAt,
	}
	for _, a := range appointments {
		if a.Completed {
			st.CompletedAppointments++
		}
		st.AppointmentsByCategory[a.Category]++
	}
	if st.TotalAppointments > 0 {
		st.CompletionRate = float64(st.CompletedAppointments) / float64(st.TotalAppointments)
	}

	dates := make([]string, 0, len(focus))
	for d, m := range focus {
		if m <= 0 {
			continue
		}
		dates = append(dates, d)
		st.TotalFocusMinutes += m
	}
	sort.Strings(dates)
	st.FocusDays = len(dates)
	if st.FocusDays > 0 {
		st.AverageFocusMinutes = float64(st.TotalFocusMinutes) / float64(st.FocusDays)
	}
	// earliest date wins a tie
	for _, d := range dates {
		if st.BestDay == nil || focus[d] > st.BestDay.Minutes {
			st.BestDay = &DayMinutes{Date: d, Minutes: focus[d]}
		}
	}
	st.CurrentStreak = streak(focus, now)
	return st
}

func streak(focus types.FocusRecord, now time.Time) int {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if focus[day.Format(dateLayout)] <= 0 {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for focus[day.Format(dateLayout)] > 0 {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}
