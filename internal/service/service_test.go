package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/types"
	"github.com/ve11yn/dochi/internal/wire"
)

func standup() types.AppointmentRequest {
	return types.AppointmentRequest{
		Title:     "Standup",
		StartTime: "09:00",
		EndTime:   "09:15",
		Category:  "Work",
		Date:      "2025-06-10",
	}
}

func TestEveryOperationRequiresSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx := context.Background()
	title := "x"

	ops := map[string]func() error{
		"CreateAppointment": func() error { _, err := f.calendar.CreateAppointment(ctx, standup()); return err },
		"UpdateAppointment": func() error { _, err := f.calendar.UpdateAppointment(ctx, 1, standup()); return err },
		"DeleteAppointment": func() error { return f.calendar.DeleteAppointment(ctx, 1) },
		"ToggleAppointment": func() error { _, err := f.calendar.ToggleAppointment(ctx, 1); return err },
		"ByDate":            func() error { _, err := f.calendar.AppointmentsByDate(ctx, "2025-06-10"); return err },
		"ByRange":           func() error { _, err := f.calendar.AppointmentsByRange(ctx, "2025-06-01", "2025-06-30"); return err },
		"AllAppointments":   func() error { _, err := f.calendar.AllAppointments(ctx); return err },
		"Categories":        func() error { _, err := f.calendar.Categories(ctx); return err },
		"AddCategory":       func() error { _, err := f.calendar.AddCategory(ctx, types.Category{Name: "Gym"}); return err },
		// invalid input too: the session check comes first
		"DeleteCategory": func() error { return f.calendar.DeleteCategory(ctx, "Work", nil) },
		"AddFocusTime":   func() error { _, err := f.focus.AddFocusTime(ctx, "2025-06-10", 25); return err },
		"FocusTime":      func() error { _, _, err := f.focus.FocusTime(ctx, "2025-06-10"); return err },
		"AllFocusTime":   func() error { _, err := f.focus.AllFocusTime(ctx); return err },
		"CreateTodo":     func() error { _, err := f.todos.Create(ctx, types.CreateTodoRequest{Title: title}); return err },
		"UpdateTodo":     func() error { _, err := f.todos.Update(ctx, 1, types.UpdateTodoRequest{Title: &title}); return err },
		"DeleteTodo":     func() error { return f.todos.Delete(ctx, 1) },
		"ToggleTodo":     func() error { _, err := f.todos.Toggle(ctx, 1); return err },
		"ToggleSubtask":  func() error { _, err := f.todos.ToggleSubtask(ctx, 1, "s"); return err },
		"ListTodos":      func() error { _, err := f.todos.List(ctx); return err },
		"SearchTodos":    func() error { _, err := f.todos.Search(ctx, "x"); return err },
		"TodosByTag":     func() error { _, err := f.todos.ByTag(ctx, "x"); return err },
		"TodosByPrio":    func() error { _, err := f.todos.ByPriority(ctx, types.PriorityHigh); return err },
		"CreateNote":     func() error { _, err := f.notes.Create(ctx, types.CreateNoteRequest{Title: title}); return err },
		"UpdateNote":     func() error { _, err := f.notes.Update(ctx, 1, types.UpdateNoteRequest{Title: &title}); return err },
		"DeleteNote":     func() error { return f.notes.Delete(ctx, 1) },
		"ListNotes":      func() error { _, err := f.notes.List(ctx); return err },
		"SearchNotes":    func() error { _, err := f.notes.Search(ctx, "x"); return err },
		"NotesByTag":     func() error { _, err := f.notes.ByTag(ctx, "x"); return err },
		"ProfileExists":  func() error { _, err := f.profile.Exists(ctx); return err },
		"ProfileCreate":  func() error { _, err := f.profile.Create(ctx, "Alice"); return err },
		"ProfileUpdate":  func() error { _, err := f.profile.Update(ctx, "Alice"); return err },
		"ProfileDelete":  func() error { return f.profile.Delete(ctx) },
		"ProfileGet":     func() error { _, err := f.profile.Get(ctx); return err },
		"Health":         func() error { _, err := f.profile.Health(ctx); return err },
	}
	for name, op := range ops {
		err := op()
		require.Error(t, err, name)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated, name)
	}
	assert.Equal(t, 0, f.backend.totalCalls())
}

func TestCalendar_StandupScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.calendar.CreateAppointment(ctx, standup())
	require.NoError(t, err)
	assert.Positive(t, a.ID)
	assert.False(t, a.Completed)
	assert.Equal(t, "Standup", a.Title)
	assert.Equal(t, "09:00", a.StartTime)
	assert.Equal(t, "09:15", a.EndTime)
	assert.Equal(t, "Work", a.Category)
	assert.Equal(t, "2025-06-10", a.Date)

	got, err := f.calendar.AppointmentsByDate(ctx, "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, []types.Appointment{a}, got)

	other, err := f.calendar.AppointmentsByDate(ctx, "2025-06-11")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCalendar_UpdateToggleDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.calendar.CreateAppointment(ctx, standup())
	require.NoError(t, err)

	req := standup()
	req.Title = "Daily sync"
	req.Date = "2025-06-12"
	updated, err := f.calendar.UpdateAppointment(ctx, a.ID, req)
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, "Daily sync", updated.Title)

	toggled, err := f.calendar.ToggleAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	inRange, err := f.calendar.AppointmentsByRange(ctx, "2025-06-01", "2025-06-30")
	require.NoError(t, err)
	assert.Len(t, inRange, 1)

	require.NoError(t, f.calendar.DeleteAppointment(ctx, a.ID))
	err = f.calendar.DeleteAppointment(ctx, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.calendar.ToggleAppointment(ctx, a.ID)
	assert.ErrorIs(t, err, apperr.ErrRejected)
	assert.Contains(t, err.Error(), "Appointment not found")

	all, err := f.calendar.AllAppointments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCalendar_ValidationHappensBeforeRemoteCall(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	cases := map[string]types.AppointmentRequest{}
	r := standup()
	r.Date = "2025-13-40"
	cases["bad date"] = r
	r = standup()
	r.StartTime = "9am"
	cases["bad start"] = r
	r = standup()
	r.EndTime = "08:00"
	cases["end before start"] = r
	r = standup()
	r.Title = "  "
	cases["blank title"] = r

	for name, req := range cases {
		_, err := f.calendar.CreateAppointment(ctx, req)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, name)
	}
	_, err := f.calendar.AppointmentsByRange(ctx, "2025-06-30", "2025-06-01")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.calendar.UpdateAppointment(ctx, -1, standup())
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	assert.Equal(t, 0, f.backend.totalCalls())
}

func TestCalendar_DeleteLastCategoryRejectedLocally(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	err := f.calendar.DeleteCategory(ctx, "Work", []types.Category{{Name: "Work"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, 0, f.backend.count("deleteCategory"))
}

func TestCalendar_DeleteOneOfSeveralCategories(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	before, err := f.calendar.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, before, 2)

	require.NoError(t, f.calendar.DeleteCategory(ctx, "Personal", before))
	after, err := f.calendar.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	assert.Equal(t, "Work", after[0].Name)
	assert.Equal(t, 1, f.backend.count("deleteCategory"))
}

func TestCalendar_AddCategory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	c, err := f.calendar.AddCategory(ctx, types.Category{Name: "Gym", Color: "#f00", TextColor: "#fff"})
	require.NoError(t, err)
	assert.Equal(t, "Gym", c.Name)

	_, err = f.calendar.AddCategory(ctx, types.Category{Name: "Gym"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	var e *apperr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "calendar.addCategory", e.Op)
}

func TestFocus(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	_, found, err := f.focus.FocusTime(ctx, "2025-06-10")
	require.NoError(t, err)
	assert.False(t, found)

	total, err := f.focus.AddFocusTime(ctx, "2025-06-10", 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	total, err = f.focus.AddFocusTime(ctx, "2025-06-10", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(75), total)
	_, err = f.focus.AddFocusTime(ctx, "2025-06-11", 30)
	require.NoError(t, err)

	minutes, found, err := f.focus.FocusTime(ctx, "2025-06-10")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(75), minutes)

	all, err := f.focus.AllFocusTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.FocusRecord{"2025-06-10": 75, "2025-06-11": 30}, all)

	_, err = f.focus.AddFocusTime(ctx, "2025-06-10", 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.focus.AddFocusTime(ctx, "June 10", 5)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestFocus_OverflowingMinutesAreDataIntegrityErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.backend.on("getAllFocusTime", func([]json.RawMessage) (any, error) {
		return json.RawMessage(`[["2025-06-10","99999999999999999999"]]`), nil
	})
	_, err := f.focus.AllFocusTime(context.Background())
	assert.ErrorIs(t, err, apperr.ErrDataIntegrity)
	var e *apperr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "focus.allFocusTime", e.Op)
}

func TestTodos_ToggleWithoutSubtasksFlipsTwice(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	todo, err := f.todos.Create(ctx, types.CreateTodoRequest{Title: "Water plants"})
	require.NoError(t, err)
	assert.False(t, todo.Completed)
	assert.Equal(t, types.PriorityMedium, todo.Priority)

	first, err := f.todos.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	second, err := f.todos.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, second.Completed)

	assert.Equal(t, 2, f.backend.count("toggleTodoCompletion"))
	assert.Equal(t, 0, f.backend.count("updateTodo"))
}

func TestTodos_CompletionFollowsSubtasks(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	todo, err := f.todos.Create(ctx, types.CreateTodoRequest{
		Title:    "Release",
		Priority: types.PriorityHigh,
		Tags:     []string{"work", "work", "ship"},
		Subtasks: []types.Subtask{{Text: "tag"}, {Text: "publish"}},
	})
	require.NoError(t, err)
	require.Len(t, todo.Subtasks, 2)
	assert.Equal(t, "sub-1", todo.Subtasks[0].ID)
	assert.Equal(t, "sub-2", todo.Subtasks[1].ID)
	assert.Equal(t, []string{"work", "ship"}, todo.Tags)

	todo, err = f.todos.ToggleSubtask(ctx, todo.ID, "sub-1")
	require.NoError(t, err)
	assert.True(t, todo.Subtasks[0].Completed)
	assert.False(t, todo.Completed)

	todo, err = f.todos.ToggleSubtask(ctx, todo.ID, "sub-2")
	require.NoError(t, err)
	assert.True(t, todo.Completed)

	todo, err = f.todos.ToggleSubtask(ctx, todo.ID, "sub-1")
	require.NoError(t, err)
	assert.False(t, todo.Completed)

	// toggling the todo itself sets every subtask
	todo, err = f.todos.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, todo.Completed)
	for _, s := range todo.Subtasks {
		assert.True(t, s.Completed)
	}
	todo, err = f.todos.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, todo.Completed)
	for _, s := range todo.Subtasks {
		assert.False(t, s.Completed)
	}
	assert.Equal(t, 0, f.backend.count("toggleTodoCompletion"))

	_, err = f.todos.ToggleSubtask(ctx, todo.ID, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.todos.Toggle(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTodos_CreateDerivesCompletedFromSubtasks(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	done, err := f.todos.Create(ctx, types.CreateTodoRequest{
		Title:    "Move out",
		Subtasks: []types.Subtask{{Text: "boxes", Completed: true}, {Text: "keys", Completed: true}},
	})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Equal(t, 1, f.backend.count("updateTodo"))

	stored, err := f.todos.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Completed)

	open, err := f.todos.Create(ctx, types.CreateTodoRequest{
		Title:    "Move in",
		Subtasks: []types.Subtask{{Text: "boxes", Completed: true}, {Text: "keys"}},
	})
	require.NoError(t, err)
	assert.False(t, open.Completed)
	assert.Equal(t, 1, f.backend.count("updateTodo"))
}

func TestTodos_UpdateDerivesCompletedFromSubtasks(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	todo, err := f.todos.Create(ctx, types.CreateTodoRequest{Title: "Pack"})
	require.NoError(t, err)

	subtasks := []types.Subtask{{Text: "socks", Completed: true}, {Text: "charger", Completed: true}}
	no := false
	updated, err := f.todos.Update(ctx, todo.ID, types.UpdateTodoRequest{Subtasks: &subtasks, Completed: &no})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.NotEmpty(t, updated.Subtasks[0].ID)

	title := "Pack bags"
	prio := types.PriorityLow
	updated, err = f.todos.Update(ctx, todo.ID, types.UpdateTodoRequest{Title: &title, Priority: &prio})
	require.NoError(t, err)
	assert.Equal(t, "Pack bags", updated.Title)
	assert.Equal(t, types.PriorityLow, updated.Priority)
	assert.Len(t, updated.Subtasks, 2)
	assert.True(t, updated.CreatedAt.Before(updated.UpdatedAt))

	bad := types.Priority("Urgent")
	_, err = f.todos.Update(ctx, todo.ID, types.UpdateTodoRequest{Priority: &bad})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.todos.Update(ctx, 404, types.UpdateTodoRequest{Title: &title})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), "todo not found")
}

func TestTodos_Queries(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.todos.Create(ctx, types.CreateTodoRequest{Title: "Buy milk", Tags: []string{"home"}, Priority: types.PriorityLow})
	require.NoError(t, err)
	report, err := f.todos.Create(ctx, types.CreateTodoRequest{Title: "Quarterly report", Description: "numbers", Tags: []string{"work"}, Priority: types.PriorityHigh})
	require.NoError(t, err)

	all, err := f.todos.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.todos.Search(ctx, "REPORT")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, report.ID, found[0].ID)

	byTag, err := f.todos.ByTag(ctx, "home")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Buy milk", byTag[0].Title)

	high, err := f.todos.ByPriority(ctx, types.PriorityHigh)
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, report.ID, high[0].ID)

	_, err = f.todos.ByPriority(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	require.NoError(t, f.todos.Delete(ctx, report.ID))
	all, err = f.todos.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTodos_UnknownPriorityDefaultsToMedium(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.backend.on("getTodos", func([]json.RawMessage) (any, error) {
		return []wire.Todo{{ID: wire.NewNat(1), Title: "odd", Priority: wire.Tag("Critical"), CreatedAt: wire.NewInt(0), UpdatedAt: wire.NewInt(0)}}, nil
	})
	todos, err := f.todos.List(context.Background())
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, types.PriorityMedium, todos[0].Priority)
}

func TestNotes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	n, err := f.notes.Create(ctx, types.CreateNoteRequest{Title: "Ideas", Description: "garden layout", Tags: []string{"home"}})
	require.NoError(t, err)
	_, err = f.notes.Create(ctx, types.CreateNoteRequest{Title: "Meeting", Tags: []string{"work"}})
	require.NoError(t, err)

	desc := "garden and balcony layout"
	n, err = f.notes.Update(ctx, n.ID, types.UpdateNoteRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Ideas", n.Title)
	assert.Equal(t, desc, n.Description)

	found, err := f.notes.Search(ctx, "balcony")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, n.ID, found[0].ID)

	byTag, err := f.notes.ByTag(ctx, "work")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Meeting", byTag[0].Title)

	require.NoError(t, f.notes.Delete(ctx, n.ID))
	all, err := f.notes.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.notes.Create(ctx, types.CreateNoteRequest{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	exists, err := f.profile.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	u, err := f.profile.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	created, err := f.profile.Create(ctx, "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", created.Name)

	_, err = f.profile.Create(ctx, "Alice")
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	updated, err := f.profile.Update(ctx, "Alice B")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	u, err = f.profile.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Alice B", u.Name)

	status, err := f.profile.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", status)

	require.NoError(t, f.profile.Delete(ctx))
	assert.ErrorIs(t, f.profile.Delete(ctx), apperr.ErrNotFound)
}

func TestIdentityChangeDuringCallIsSuperseded(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.backend.before = func(method string) {
		if method == "getAllAppointments" {
			_ = f.sessions.Logout(context.Background())
		}
	}

	_, err := f.calendar.AllAppointments(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrSuperseded)
}

func TestTransportErrorsCarryOperation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.backend.on("getCategories", func([]json.RawMessage) (any, error) {
		return nil, &apperr.Error{Kind: apperr.KindTransport, Op: "calendar.getCategories", StatusCode: 503, Retryable: true}
	})

	_, err := f.calendar.Categories(context.Background())
	var e *apperr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, apperr.KindTransport, e.Kind)
	assert.Equal(t, "calendar.categories", e.Op)
	assert.True(t, e.Retryable)
}
