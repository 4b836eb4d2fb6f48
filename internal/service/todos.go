package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/ve11yn/dochi/internal/adapt"
	"github.com/ve11yn/dochi/internal/config"
	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/types"
	"github.com/ve11yn/dochi/internal/wire"
)

// Todos wraps the todo half of the todo service.
//
// Completion rule: a todo that has subtasks is complete exactly when all of
// its subtasks are complete. Writes that carry subtasks derive the
// completed flag from them, and toggling such a todo sets every subtask to
// the new state. A todo without subtasks is toggled freely.
type Todos struct {
	base
	newID func() string
}

func NewTodos(sessions SessionSource, clients ClientSource) *Todos {
	return &Todos{base: newBase(config.ServiceTodo, sessions, clients), newID: uuid.NewString}
}

func (t *Todos) Create(ctx context.Context, req types.CreateTodoRequest) (types.TodoItem, error) {
	const op = "todos.create"
	call, err := t.begin(ctx, op)
	if err != nil {
		return types.TodoItem{}, err
	}
	if err := required(op, "title", req.Title); err != nil {
		return types.TodoItem{}, err
	}
	if err := validPriority(op, req.Priority); err != nil {
		return types.TodoItem{}, err
	}
	req.Subtasks = t.withSubtaskIDs(req.Subtasks)

	var res wire.Result[wire.Todo]
	if err := call.update(ctx, "addTodo", []any{adapt.TodoInput(req)}, &res); err != nil {
		return types.TodoItem{}, err
	}
	todo, err := adapt.UnwrapWith(op, res, adapt.Todo)
	if err != nil {
		return types.TodoItem{}, err
	}
	// addTodo stores the todo as open; settle the flag when the subtasks
	// say otherwise.
	if len(todo.Subtasks) == 0 || todo.SubtasksDone() == todo.Completed {
		return todo, nil
	}
	done := todo.SubtasksDone()
	t.log.Debug().Int64("id", todo.ID).Bool("derived", done).Msg("completed flag derived from subtasks on create")
	return t.update(ctx, call, todo.ID, types.UpdateTodoRequest{Completed: &done})
}

// Update applies a partial update. When the update carries a non-empty
// subtask list, completed is derived from it.
func (t *Todos) Update(ctx context.Context, id int64, req types.UpdateTodoRequest) (types.TodoItem, error) {
	const op = "todos.update"
	call, err := t.begin(ctx, op)
	if err != nil {
		return types.TodoItem{}, err
	}
	if req.Title != nil {
		if err := required(op, "title", *req.Title); err != nil {
			return types.TodoItem{}, err
		}
	}
	if req.Priority != nil {
		if err := validPriority(op, *req.Priority); err != nil {
			return types.TodoItem{}, err
		}
	}
	if req.Subtasks != nil {
		subtasks := t.withSubtaskIDs(*req.Subtasks)
		req.Subtasks = &subtasks
		if len(subtasks) > 0 {
			done := types.TodoItem{Subtasks: subtasks}.SubtasksDone()
			if req.Completed != nil && *req.Completed != done {
				t.log.Debug().Int64("id", id).Bool("requested", *req.Completed).Bool("derived", done).
					Msg("completed flag overridden by subtasks")
			}
			req.Completed = &done
		}
	}
	return t.update(ctx, call, id, req)
}

func (t *Todos) update(ctx context.Context, call *call, id int64, req types.UpdateTodoRequest) (types.TodoItem, error) {
	nat, err := natID(call.op, id)
	if err != nil {
		return types.TodoItem{}, err
	}
	var res wire.Result[wire.Todo]
	if err := call.update(ctx, "updateTodo", []any{nat, adapt.TodoUpdate(req)}, &res); err != nil {
		return types.TodoItem{}, err
	}
	return adapt.UnwrapWith(call.op, res, adapt.Todo)
}

func (t *Todos) Delete(ctx context.Context, id int64) error {
	const op = "todos.delete"
	call, err := t.begin(ctx, op)
	if err != nil {
		return err
	}
	nat, err := natID(op, id)
	if err != nil {
		return err
	}
	var res wire.Result[wire.Unit]
	if err := call.update(ctx, "deleteTodo", []any{nat}, &res); err != nil {
		return err
	}
	_, err = adapt.Unwrap(op, res)
	return err
}

// Toggle flips the todo's completed flag. For a todo with subtasks every
// subtask is set to the new state in the same update.
func (t *Todos) Toggle(ctx context.Context, id int64) (types.TodoItem, error) {
	const op = "todos.toggle"
	call, err := t.begin(ctx, op)
	if err != nil {
		return types.TodoItem{}, err
	}
	current, err := t.get(ctx, call, id)
	if err != nil {
		return types.TodoItem{}, err
	}

	if len(current.Subtasks) == 0 {
		nat, err := natID(op, id)
		if err != nil {
			return types.TodoItem{}, err
		}
		var res wire.Result[wire.Todo]
		if err := call.update(ctx, "toggleTodoCompletion", []any{nat}, &res); err != nil {
			return types.TodoItem{}, err
		}
		return adapt.UnwrapWith(op, res, adapt.Todo)
	}

	completed := !current.Completed
	subtasks := make([]types.Subtask, len(current.Subtasks))
	for i, s := range current.Subtasks {
		s.Completed = completed
		subtasks[i] = s
	}
	return t.update(ctx, call, id, types.UpdateTodoRequest{Subtasks: &subtasks, Completed: &completed})
}

// ToggleSubtask flips one subtask and recomputes the todo's completed flag.
func (t *Todos) ToggleSubtask(ctx context.Context, id int64, subtaskID string) (types.TodoItem, error) {
	const op = "todos.toggleSubtask"
	call, err := t.begin(ctx, op)
	if err != nil {
		return types.TodoItem{}, err
	}
	if err := required(op, "subtask id", subtaskID); err != nil {
		return types.TodoItem{}, err
	}
	current, err := t.get(ctx, call, id)
	if err != nil {
		return types.TodoItem{}, err
	}

	subtasks := make([]types.Subtask, len(current.Subtasks))
	copy(subtasks, current.Subtasks)
	found := false
	for i := range subtasks {
		if subtasks[i].ID == subtaskID {
			subtasks[i].Completed = !subtasks[i].Completed
			found = true
			break
		}
	}
	if !found {
		return types.TodoItem{}, apperr.New(apperr.KindNotFound, op, "no subtask "+subtaskID+" in todo "+strconv.FormatInt(id, 10))
	}
	completed := types.TodoItem{Subtasks: subtasks}.SubtasksDone()
	return t.update(ctx, call, id, types.UpdateTodoRequest{Subtasks: &subtasks, Completed: &completed})
}

func (t *Todos) get(ctx context.Context, call *call, id int64) (types.TodoItem, error) {
	nat, err := natID(call.op, id)
	if err != nil {
		return types.TodoItem{}, err
	}
	var res wire.Opt[wire.Todo]
	if err := call.query(ctx, "getTodo", []any{nat}, &res); err != nil {
		return types.TodoItem{}, err
	}
	w := adapt.Optional(res)
	if w == nil {
		return types.TodoItem{}, apperr.New(apperr.KindNotFound, call.op, "no todo "+strconv.FormatInt(id, 10))
	}
	todo, err := adapt.Todo(*w)
	if err != nil {
		return types.TodoItem{}, withOp(call.op, err)
	}
	return todo, nil
}

func (t *Todos) List(ctx context.Context) ([]types.TodoItem, error) {
	call, err := t.begin(ctx, "todos.list")
	if err != nil {
		return nil, err
	}
	return t.list(ctx, call, "getTodos")
}

// Search matches query against titles and descriptions on the service side.
func (t *Todos) Search(ctx context.Context, query string) ([]types.TodoItem, error) {
	call, err := t.begin(ctx, "todos.search")
	if err != nil {
		return nil, err
	}
	return t.list(ctx, call, "searchTodos", query)
}

func (t *Todos) ByTag(ctx context.Context, tag string) ([]types.TodoItem, error) {
	const op = "todos.byTag"
	call, err := t.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := required(op, "tag", tag); err != nil {
		return nil, err
	}
	return t.list(ctx, call, "getTodosByTag", tag)
}

func (t *Todos) ByPriority(ctx context.Context, p types.Priority) ([]types.TodoItem, error) {
	const op = "todos.byPriority"
	call, err := t.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	if !p.Valid() {
		return nil, apperr.InvalidInput(op, "unknown priority "+strconv.Quote(string(p)))
	}
	return t.list(ctx, call, "getTodosByPriority", adapt.PriorityVariant(p))
}

func (t *Todos) list(ctx context.Context, call *call, method string, args ...any) ([]types.TodoItem, error) {
	var ws []wire.Todo
	if err := call.query(ctx, method, args, &ws); err != nil {
		return nil, err
	}
	out, err := adapt.Todos(ws)
	if err != nil {
		return nil, withOp(call.op, err)
	}
	return out, nil
}

// withSubtaskIDs returns a copy of ss in which subtasks without an id get a
// fresh one.
func (t *Todos) withSubtaskIDs(ss []types.Subtask) []types.Subtask {
	out := make([]types.Subtask, len(ss))
	for i, s := range ss {
		if s.ID == "" {
			s.ID = t.newID()
		}
		out[i] = s
	}
	return out
}
