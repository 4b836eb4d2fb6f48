package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ve11yn/dochi/internal/identity"
	"github.com/ve11yn/dochi/internal/wire"
)

type handler func(args []json.RawMessage) (any, error)

// fakeBackend serves every service from memory. Arguments and results go
// through JSON so the wire encoding is exercised the way the real transport
// exercises it.
type fakeBackend struct {
	mu       sync.Mutex
	calls    map[string]int
	total    int
	handlers map[string]handler
	// before runs ahead of every call; tests use it to change identity
	// mid-flight.
	before func(method string)

	nextID       uint64
	appointments map[uint64]wire.Appointment
	categories   []wire.Category
	todos        map[uint64]wire.Todo
	notes        map[uint64]wire.Note
	focus        map[string]uint64
	user         *wire.User
	clock        int64
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		calls:        map[string]int{},
		appointments: map[uint64]wire.Appointment{},
		todos:        map[uint64]wire.Todo{},
		notes:        map[uint64]wire.Note{},
		focus:        map[string]uint64{},
		categories: []wire.Category{
			{Name: "Work", Color: "#3b82f6", TextColor: "#ffffff"},
			{Name: "Personal", Color: "#22c55e", TextColor: "#ffffff"},
		},
	}
	b.handlers = map[string]handler{
		"createAppointment":           b.createAppointment,
		"updateAppointment":           b.updateAppointment,
		"deleteAppointment":           b.deleteAppointment,
		"toggleAppointmentCompletion": b.toggleAppointment,
		"getAppointmentsByDate":       b.appointmentsByDate,
		"getAppointmentsByDateRange":  b.appointmentsByRange,
		"getAllAppointments":          b.allAppointments,
		"getCategories":               func([]json.RawMessage) (any, error) { return b.categories, nil },
		"addCategory":                 b.addCategory,
		"deleteCategory":              b.deleteCategory,
		"addFocusTime":                b.addFocusTime,
		"getFocusTime":                b.getFocusTime,
		"getAllFocusTime":             b.allFocusTime,
		"addTodo":                     b.addTodo,
		"updateTodo":                  b.updateTodo,
		"deleteTodo":                  b.deleteTodo,
		"toggleTodoCompletion":        b.toggleTodo,
		"getTodo":                     b.getTodo,
		"getTodos":                    b.listTodos(func(wire.Todo) bool { return true }),
		"addNote":                     b.addNote,
		"updateNote":                  b.updateNote,
		"deleteNote":                  b.deleteNote,
		"getNotes":                    b.listNotes(nil),
		"userExists":                  func([]json.RawMessage) (any, error) { return b.user != nil, nil },
		"createUser":                  b.createUser,
		"updateUser":                  b.updateUser,
		"deleteUser":                  b.deleteUser,
		"getUser":                     b.getUser,
		"health":                      func([]json.RawMessage) (any, error) { return "ok", nil },
	}
	return b
}

func (b *fakeBackend) Invoker(context.Context, string) (Invoker, error) {
	return fakeInvoker{b: b}, nil
}

func (b *fakeBackend) count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *fakeBackend) totalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// on replaces the handler for method.
func (b *fakeBackend) on(method string, h handler) {
	b.mu.Lock()
	b.handlers[method] = h
	b.mu.Unlock()
}

type fakeInvoker struct{ b *fakeBackend }

func (i fakeInvoker) Query(ctx context.Context, method string, args []any, out any) error {
	return i.b.invoke(method, args, out)
}

func (i fakeInvoker) Update(ctx context.Context, method string, args []any, out any) error {
	return i.b.invoke(method, args, out)
}

func (b *fakeBackend) invoke(method string, args []any, out any) error {
	if b.before != nil {
		b.before(method)
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return err
	}

	b.mu.Lock()
	b.calls[method]++
	b.total++
	h, ok := b.handlers[method]
	var result any
	if ok {
		result, err = h(raw)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("no handler for %s", method)
	}
	if err != nil {
		return err
	}
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (b *fakeBackend) id() wire.Nat {
	b.nextID++
	return wire.NewNat(b.nextID)
}

func (b *fakeBackend) now() wire.Int {
	b.clock += 1_000_000_000
	return wire.NewInt(1_749_546_000_000_000_000 + b.clock)
}

func okResult[T any](v T) wire.Result[T] { return wire.OkResult(v) }

func rejected[T any](reason any) wire.Result[T] {
	r, err := wire.ErrResult[T](reason)
	if err != nil {
		panic(err)
	}
	return r
}

func decode(raw []json.RawMessage, into ...any) error {
	if len(raw) != len(into) {
		return fmt.Errorf("want %d args, got %d", len(into), len(raw))
	}
	for i := range into {
		if err := json.Unmarshal(raw[i], into[i]); err != nil {
			return fmt.Errorf("arg %d: %w", i, err)
		}
	}
	return nil
}

func natKey(n wire.Nat) uint64 { return n.Big().Uint64() }

// ---- calendar ----

func (b *fakeBackend) createAppointment(raw []json.RawMessage) (any, error) {
	var in wire.AppointmentInput
	if err := decode(raw, &in); err != nil {
		return nil, err
	}
	a := wire.Appointment{ID: b.id(), Title: in.Title, StartTime: in.StartTime, EndTime: in.EndTime,
		Color: in.Color, Category: in.Category, Date: in.Date}
	b.appointments[natKey(a.ID)] = a
	return okResult(a), nil
}

func (b *fakeBackend) updateAppointment(raw []json.RawMessage) (any, error) {
	var (
		id wire.Nat
		in wire.AppointmentInput
	)
	if err := decode(raw, &id, &in); err != nil {
		return nil, err
	}
	a, found := b.appointments[natKey(id)]
	if !found {
		return rejected[wire.Appointment](wire.Tag("NotFound")), nil
	}
	a.Title, a.StartTime, a.EndTime, a.Color, a.Category, a.Date = in.Title, in.StartTime, in.EndTime, in.Color, in.Category, in.Date
	b.appointments[natKey(id)] = a
	return okResult(a), nil
}

func (b *fakeBackend) deleteAppointment(raw []json.RawMessage) (any, error) {
	var id wire.Nat
	if err := decode(raw, &id); err != nil {
		return nil, err
	}
	if _, found := b.appointments[natKey(id)]; !found {
		return rejected[wire.Unit](wire.Tag("NotFound")), nil
	}
	delete(b.appointments, natKey(id))
	return okResult(wire.Unit{}), nil
}

func (b *fakeBackend) toggleAppointment(raw []json.RawMessage) (any, error) {
	var id wire.Nat
	if err := decode(raw, &id); err != nil {
		return nil, err
	}
	a, found := b.appointments[natKey(id)]
	if !found {
		return rejected[wire.Appointment]("Appointment not found"), nil
	}
	a.Completed = !a.Completed
	b.appointments[natKey(id)] = a
	return okResult(a), nil
}

func (b *fakeBackend) sortedAppointments(keep func(wire.Appointment) bool) []wire.Appointment {
	out := []wire.Appointment{}
	for _, a := range b.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return natKey(out[i].ID) < natKey(out[j].ID) })
	return out
}

func (b *fakeBackend) appointmentsByDate(raw []json.RawMessage) (any, error) {
	var date string
	if err := decode(raw, &date); err != nil {
		return nil, err
	}
	return b.sortedAppointments(func(a wire.Appointment) bool { return a.Date == date }), nil
}

func (b *fakeBackend) appointmentsByRange(raw []json.RawMessage) (any, error) {
	var from, to string
	if err := decode(raw, &from, &to); err != nil {
		return nil, err
	}
	return b.sortedAppointments(func(a wire.Appointment) bool { return a.Date >= from && a.Date <= to }), nil
}

func (b *fakeBackend) allAppointments([]json.RawMessage) (any, error) {
	return b.sortedAppointments(func(wire.Appointment) bool { return true }), nil
}

func (b *fakeBackend) addCategory(raw []json.RawMessage) (any, error) {
	var c wire.Category
	if err := decode(raw, &c); err != nil {
		return nil, err
	}
	for _, existing := range b.categories {
		if existing.Name == c.Name {
			return rejected[wire.Category](wire.Tag("AlreadyExists")), nil
		}
	}
	b.categories = append(b.categories, c)
	return okResult(c), nil
}

func (b *fakeBackend) deleteCategory(raw []json.RawMessage) (any, error) {
	var name string
	if err := decode(raw, &name); err != nil {
		return nil, err
	}
	if len(b.categories) <= 1 {
		return rejected[wire.Unit]("Cannot delete the last category"), nil
	}
	for i, c := range b.categories {
		if c.Name == name {
			b.categories = append(b.categories[:i], b.categories[i+1:]...)
			return okResult(wire.Unit{}), nil
		}
	}
	return rejected[wire.Unit](wire.Tag("NotFound")), nil
}

// ---- focus ----

func (b *fakeBackend) addFocusTime(raw []json.RawMessage) (any, error) {
	var (
		date    string
		minutes wire.Nat
	)
	if err := decode(raw, &date, &minutes); err != nil {
		return nil, err
	}
	b.focus[date] += natKey(minutes)
	return okResult(wire.NewNat(b.focus[date])), nil
}

func (b *fakeBackend) getFocusTime(raw []json.RawMessage) (any, error) {
	var date string
	if err := decode(raw, &date); err != nil {
		return nil, err
	}
	m, found := b.focus[date]
	if !found {
		return wire.None[wire.Nat](), nil
	}
	return wire.Some(wire.NewNat(m)), nil
}

func (b *fakeBackend) allFocusTime([]json.RawMessage) (any, error) {
	out := []wire.FocusEntry{}
	for d, m := range b.focus {
		out = append(out, wire.FocusEntry{Date: d, Minutes: wire.NewNat(m)})
	}
	return out, nil
}

// ---- todos ----

func (b *fakeBackend) addTodo(raw []json.RawMessage) (any, error) {
	var in wire.TodoInput
	if err := decode(raw, &in); err != nil {
		return nil, err
	}
	now := b.now()
	t := wire.Todo{ID: b.id(), Title: in.Title, Description: in.Description, Priority: in.Priority,
		Tags: in.Tags, Subtasks: in.Subtasks, CreatedAt: now, UpdatedAt: now}
	b.todos[natKey(t.ID)] = t
	return okResult(t), nil
}

func (b *fakeBackend) updateTodo(raw []json.RawMessage) (any, error) {
	var (
		id wire.Nat
		u  wire.TodoUpdate
	)
	if err := decode(raw, &id, &u); err != nil {
		return nil, err
	}
	t, found := b.todos[natKey(id)]
	if !found {
		return rejected[wire.Todo](wire.Variant{Tag: "NotFound", Value: json.RawMessage(`"todo not found"`)}), nil
	}
	if v, ok := u.Title.Get(); ok {
		t.Title = v
	}
	if v, ok := u.Description.Get(); ok {
		t.Description = v
	}
	if v, ok := u.Priority.Get(); ok {
		t.Priority = v
	}
	if v, ok := u.Tags.Get(); ok {
		t.Tags = v
	}
	if v, ok := u.Subtasks.Get(); ok {
		t.Subtasks = v
	}
	if v, ok := u.Completed.Get(); ok {
		t.Completed = v
	}
	t.UpdatedAt = b.now()
	b.todos[natKey(id)] = t
	return okResult(t), nil
}

func (b *fakeBackend) deleteTodo(raw []json.RawMessage) (any, error) {
	var id wire.Nat
	if err := decode(raw, &id); err != nil {
		return nil, err
	}
	delete(b.todos, natKey(id))
	return okResult(wire.Unit{}), nil
}

func (b *fakeBackend) toggleTodo(raw []json.RawMessage) (any, error) {
	var id wire.Nat
	if err := decode(raw, &id); err != nil {
		return nil, err
	}
	t, found := b.todos[natKey(id)]
	if !found {
		return rejected[wire.Todo](wire.Tag("NotFound")), nil
	}
	t.Completed = !t.Completed
	t.UpdatedAt = b.now()
	b.todos[natKey(id)] = t
	return okResult(t), nil
}

func (b *fakeBackend) getTodo(raw []json.RawMessage) (any, error) {
	var id wire.Nat
	if err := decode(raw, &id); err != nil {
		return nil, err
	}
	t, found := b.todos[natKey(id)]
	if !found {
		return wire.None[wire.Todo](), nil
	}
	return wire.Some(t), nil
}

func (b *fakeBackend) listTodos(keep func(wire.Todo) bool) handler {
	return func([]json.RawMessage) (any, error) {
		out := []wire.Todo{}
		for _, t := range b.todos {
			if keep(t) {
				out = append(out, t)
			}
		}
		sort.Slice(out, func(i, j int) bool { return natKey(out[i].ID) < natKey(out[j].ID) })
		return out, nil
	}
}

// ---- notes ----

func (b *fakeBackend) addNote(raw []json.RawMessage) (any, error) {
	var in wire.NoteInput
	if err := decode(raw, &in); err != nil {
		return nil, err
	}
	now := b.now()
	n := wire.Note{ID: b.id(), Title: in.Title, Description: in.Description, Tags: in.Tags, CreatedAt: now, UpdatedAt: now}
	b.notes[natKey(n.ID)] = n
	return okResult(n), nil
}

func (b *fakeBackend) updateNote(raw []json.RawMessage) (any, error) {
	var (
		id wire.Nat
		u  wire.NoteUpdate
	)
	if err := decode(raw, &id, &u); err != nil {
		return nil, err
	}
	n, found := b.notes[natKey(id)]
	if !found {
		return rejected[wire.Note](wire.Tag("NotFound")), nil
	}
	if v, ok := u.Title.Get(); ok {
		n.Title = v
	}
	if v, ok := u.Description.Get(); ok {
		n.Description = v
	}
	if v, ok := u.Tags.Get(); ok {
		n.Tags = v
	}
	n.UpdatedAt = b.now()
	b.notes[natKey(id)] = n
	return okResult(n), nil
}

func (b *fakeBackend) deleteNote(raw []json.RawMessage) (any, error) {
	var id wire.Nat
	if err := decode(raw, &id); err != nil {
		return nil, err
	}
	delete(b.notes, natKey(id))
	return okResult(wire.Unit{}), nil
}

func (b *fakeBackend) listNotes(keep func(wire.Note, []json.RawMessage) bool) handler {
	return func(raw []json.RawMessage) (any, error) {
		out := []wire.Note{}
		for _, n := range b.notes {
			if keep == nil || keep(n, raw) {
				out = append(out, n)
			}
		}
		sort.Slice(out, func(i, j int) bool { return natKey(out[i].ID) < natKey(out[j].ID) })
		return out, nil
	}
}

// ---- login ----

func (b *fakeBackend) createUser(raw []json.RawMessage) (any, error) {
	var name string
	if err := decode(raw, &name); err != nil {
		return nil, err
	}
	if b.user != nil {
		return rejected[wire.User](wire.Tag("AlreadyExists")), nil
	}
	b.user = &wire.User{Name: name, Principal: "alice", CreatedAt: b.now()}
	return okResult(*b.user), nil
}

func (b *fakeBackend) updateUser(raw []json.RawMessage) (any, error) {
	var name string
	if err := decode(raw, &name); err != nil {
		return nil, err
	}
	if b.user == nil {
		return rejected[wire.User](wire.Tag("NotFound")), nil
	}
	b.user.Name = name
	return okResult(*b.user), nil
}

func (b *fakeBackend) deleteUser([]json.RawMessage) (any, error) {
	if b.user == nil {
		return rejected[wire.Unit](wire.Tag("NotFound")), nil
	}
	b.user = nil
	return okResult(wire.Unit{}), nil
}

func (b *fakeBackend) getUser([]json.RawMessage) (any, error) {
	if b.user == nil {
		return wire.None[wire.User](), nil
	}
	return wire.Some(*b.user), nil
}

// tagFilter builds list handlers for the by-tag and search methods.
func tagFilter(tags []string, raw []json.RawMessage) bool {
	var tag string
	if len(raw) != 1 || json.Unmarshal(raw[0], &tag) != nil {
		return false
	}
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func textFilter(title, description string, raw []json.RawMessage) bool {
	var q string
	if len(raw) != 1 || json.Unmarshal(raw[0], &q) != nil {
		return false
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(title), q) || strings.Contains(strings.ToLower(description), q)
}

func (b *fakeBackend) installQueries() {
	b.handlers["searchNotes"] = b.listNotes(func(n wire.Note, raw []json.RawMessage) bool {
		return textFilter(n.Title, n.Description, raw)
	})
	b.handlers["getNotesByTag"] = b.listNotes(func(n wire.Note, raw []json.RawMessage) bool {
		return tagFilter(n.Tags, raw)
	})
	b.handlers["searchTodos"] = func(raw []json.RawMessage) (any, error) {
		return b.listTodos(func(t wire.Todo) bool { return textFilter(t.Title, t.Description, raw) })(raw)
	}
	b.handlers["getTodosByTag"] = func(raw []json.RawMessage) (any, error) {
		return b.listTodos(func(t wire.Todo) bool { return tagFilter(t.Tags, raw) })(raw)
	}
	b.handlers["getTodosByPriority"] = func(raw []json.RawMessage) (any, error) {
		var p wire.Variant
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return b.listTodos(func(t wire.Todo) bool { return t.Priority.Tag == p.Tag })(raw)
	}
}

// ---- sessions ----

type fixture struct {
	backend  *fakeBackend
	sessions *identity.Manager
	calendar *Calendar
	focus    *Focus
	todos    *Todos
	notes    *Notes
	profile  *Profile
}

func newFixture(t *testing.T, loggedIn bool) *fixture {
	t.Helper()
	backend := newFakeBackend()
	backend.installQueries()
	m := identity.NewManager(identity.DevProvider{}, nil)
	if loggedIn {
		_, err := m.Login(context.Background())
		require.NoError(t, err)
	}
	f := &fixture{
		backend:  backend,
		sessions: m,
		calendar: NewCalendar(m, backend),
		focus:    NewFocus(m, backend),
		todos:    NewTodos(m, backend),
		notes:    NewNotes(m, backend),
		profile:  NewProfile(m, backend),
	}
	seq := 0
	f.todos.newID = func() string {
		seq++
		return fmt.Sprintf("sub-%d", seq)
	}
	return f
}
