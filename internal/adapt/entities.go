package adapt

import (
	"fmt"
	"sort"

	"github.com/ve11yn/dochi/internal/types"
	"github.com/ve11yn/dochi/internal/wire"
)

// ------------------------------
// Calendar
// ------------------------------

func Appointment(w wire.Appointment) (types.Appointment, error) {
	id, err := Int64FromNat(w.ID)
	if err != nil {
		return types.Appointment{}, err
	}
	return types.Appointment{
		ID:        id,
		Title:     w.Title,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		Color:     w.Color,
		Category:  w.Category,
		Completed: w.Completed,
		Date:      w.Date,
	}, nil
}

// WireAppointment is the inverse of Appointment.
func WireAppointment(a types.Appointment) (wire.Appointment, error) {
	id, err := NatFromInt64(a.ID)
	if err != nil {
		return wire.Appointment{}, err
	}
	return wire.Appointment{
		ID:        id,
		Title:     a.Title,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Color:     a.Color,
		Category:  a.Category,
		Completed: a.Completed,
		Date:      a.Date,
	}, nil
}

func Appointments(ws []wire.Appointment) ([]types.Appointment, error) {
	return mapAll(ws, Appointment)
}

func AppointmentInput(r types.AppointmentRequest) wire.AppointmentInput {
	return wire.AppointmentInput{
		Title:     r.Title,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Color:     r.Color,
		Category:  r.Category,
		Date:      r.Date,
	}
}

func Category(w wire.Category) types.Category {
	return types.Category{Name: w.Name, Color: w.Color, TextColor: w.TextColor}
}

func WireCategory(c types.Category) wire.Category {
	return wire.Category{Name: c.Name, Color: c.Color, TextColor: c.TextColor}
}

func Categories(ws []wire.Category) []types.Category {
	out := make([]types.Category, 0, len(ws))
	for _, w := range ws {
		out = append(out, Category(w))
	}
	return out
}

// ------------------------------
// Todos and notes
// ------------------------------

func Subtasks(ws []wire.Subtask) []types.Subtask {
	out := make([]types.Subtask, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.Subtask{ID: w.ID, Text: w.Text, Completed: w.Completed})
	}
	return out
}

func WireSubtasks(ss []types.Subtask) []wire.Subtask {
	out := make([]wire.Subtask, 0, len(ss))
	for _, s := range ss {
		out = append(out, wire.Subtask{ID: s.ID, Text: s.Text, Completed: s.Completed})
	}
	return out
}

func Todo(w wire.Todo) (types.TodoItem, error) {
	id, err := Int64FromNat(w.ID)
	if err != nil {
		return types.TodoItem{}, err
	}
	created, err := TimeFromInt(w.CreatedAt)
	if err != nil {
		return types.TodoItem{}, err
	}
	updated, err := TimeFromInt(w.UpdatedAt)
	if err != nil {
		return types.TodoItem{}, err
	}
	return types.TodoItem{
		ID:          id,
		Title:       w.Title,
		Description: w.Description,
		Priority:    Priority(w.Priority),
		Tags:        tags(w.Tags),
		Subtasks:    Subtasks(w.Subtasks),
		Completed:   w.Completed,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// WireTodo is the inverse of Todo.
func WireTodo(t types.TodoItem) (wire.Todo, error) {
	id, err := NatFromInt64(t.ID)
	if err != nil {
		return wire.Todo{}, err
	}
	return wire.Todo{
		ID:          id,
		Title:       t.Title,
		Description: t.Description,
		Priority:    PriorityVariant(t.Priority),
		Tags:        tags(t.Tags),
		Subtasks:    WireSubtasks(t.Subtasks),
		Completed:   t.Completed,
		CreatedAt:   IntFromTime(t.CreatedAt),
		UpdatedAt:   IntFromTime(t.UpdatedAt),
	}, nil
}

func Todos(ws []wire.Todo) ([]types.TodoItem, error) {
	return mapAll(ws, Todo)
}

func TodoInput(r types.CreateTodoRequest) wire.TodoInput {
	return wire.TodoInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    PriorityVariant(r.Priority),
		Tags:        tags(r.Tags),
		Subtasks:    WireSubtasks(r.Subtasks),
	}
}

func TodoUpdate(r types.UpdateTodoRequest) wire.TodoUpdate {
	return wire.TodoUpdate{
		Title:       FromOptional(r.Title),
		Description: FromOptional(r.Description),
		Priority:    mapOptional(r.Priority, PriorityVariant),
		Tags:        mapOptional(r.Tags, tags),
		Subtasks:    mapOptional(r.Subtasks, WireSubtasks),
		Completed:   FromOptional(r.Completed),
	}
}

// TodoUpdateRequest is the inverse of TodoUpdate.
func TodoUpdateRequest(w wire.TodoUpdate) types.UpdateTodoRequest {
	r := types.UpdateTodoRequest{
		Title:       Optional(w.Title),
		Description: Optional(w.Description),
		Completed:   Optional(w.Completed),
	}
	if v, ok := w.Priority.Get(); ok {
		p := Priority(v)
		r.Priority = &p
	}
	if v, ok := w.Tags.Get(); ok {
		ts := tags(v)
		r.Tags = &ts
	}
	if v, ok := w.Subtasks.Get(); ok {
		ss := Subtasks(v)
		r.Subtasks = &ss
	}
	return r
}

func Note(w wire.Note) (types.Note, error) {
	id, err := Int64FromNat(w.ID)
	if err != nil {
		return types.Note{}, err
	}
	created, err := TimeFromInt(w.CreatedAt)
	if err != nil {
		return types.Note{}, err
	}
	updated, err := TimeFromInt(w.UpdatedAt)
	if err != nil {
		return types.Note{}, err
	}
	return types.Note{
		ID:          id,
		Title:       w.Title,
		Description: w.Description,
		Tags:        tags(w.Tags),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func Notes(ws []wire.Note) ([]types.Note, error) {
	return mapAll(ws, Note)
}

func NoteInput(r types.CreateNoteRequest) wire.NoteInput {
	return wire.NoteInput{Title: r.Title, Description: r.Description, Tags: tags(r.Tags)}
}

func NoteUpdate(r types.UpdateNoteRequest) wire.NoteUpdate {
	return wire.NoteUpdate{
		Title:       FromOptional(r.Title),
		Description: FromOptional(r.Description),
		Tags:        mapOptional(r.Tags, tags),
	}
}

// tags normalises a tag list to a non-nil set: duplicates are dropped and
// first-seen order is kept.
func tags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ------------------------------
// Login
// ------------------------------

func User(w wire.User) (types.User, error) {
	created, err := TimeFromInt(w.CreatedAt)
	if err != nil {
		return types.User{}, err
	}
	return types.User{Name: w.Name, Principal: w.Principal, CreatedAt: created}, nil
}

// ------------------------------
// Focus
// ------------------------------

// FocusRecord converts (date, minutes) pairs. A date appearing twice is a
// data-integrity problem; the minutes are summed and a warning logged.
func FocusRecord(entries []wire.FocusEntry) (types.FocusRecord, error) {
	rec := make(types.FocusRecord, len(entries))
	for _, e := range entries {
		m, err := Int64FromNat(e.Minutes)
		if err != nil {
			return nil, err
		}
		if prev, dup := rec[e.Date]; dup {
			integrityWarning("focus_date", e.Date, "summed")
			m += prev
		}
		rec[e.Date] = m
	}
	return rec, nil
}

// FocusEntries is the inverse of FocusRecord, ordered by date.
func FocusEntries(rec types.FocusRecord) ([]wire.FocusEntry, error) {
	dates := make([]string, 0, len(rec))
	for d := range rec {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	out := make([]wire.FocusEntry, 0, len(rec))
	for _, d := range dates {
		n, err := NatFromInt64(rec[d])
		if err != nil {
			return nil, err
		}
		out = append(out, wire.FocusEntry{Date: d, Minutes: n})
	}
	return out, nil
}

func mapAll[W, T any](ws []W, fn func(W) (T, error)) ([]T, error) {
	out := make([]T, 0, len(ws))
	for i, w := range ws {
		v, err := fn(w)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
