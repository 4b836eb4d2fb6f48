package service

import (
	"context"

	"github.com/ve11yn/dochi/internal/adapt"
	"github.com/ve11yn/dochi/internal/config"
	"github.com/ve11yn/dochi/internal/types"
	"github.com/ve11yn/dochi/internal/wire"
)

// Notes wraps the notes half of the todo service.
type Notes struct {
	base
}

func NewNotes(sessions SessionSource, clients ClientSource) *Notes {
	return &Notes{base: newBase(config.ServiceTodo, sessions, clients)}
}

func (n *Notes) Create(ctx context.Context, req types.CreateNoteRequest) (types.Note, error) {
	const op = "notes.create"
	call, err := n.begin(ctx, op)
	if err != nil {
		return types.Note{}, err
	}
	if err := required(op, "title", req.Title); err != nil {
		return types.Note{}, err
	}
	var res wire.Result[wire.Note]
	if err := call.update(ctx, "addNote", []any{adapt.NoteInput(req)}, &res); err != nil {
		return types.Note{}, err
	}
	return adapt.UnwrapWith(op, res, adapt.Note)
}

func (n *Notes) Update(ctx context.Context, id int64, req types.UpdateNoteRequest) (types.Note, error) {
	const op = "notes.update"
	call, err := n.begin(ctx, op)
	if err != nil {
		return types.Note{}, err
	}
	if req.Title != nil {
		if err := required(op, "title", *req.Title); err != nil {
			return types.Note{}, err
		}
	}
	nat, err := natID(op, id)
	if err != nil {
		return types.Note{}, err
	}
	var res wire.Result[wire.Note]
	if err := call.update(ctx, "updateNote", []any{nat, adapt.NoteUpdate(req)}, &res); err != nil {
		return types.Note{}, err
	}
	return adapt.UnwrapWith(op, res, adapt.Note)
}

func (n *Notes) Delete(ctx context.Context, id int64) error {
	const op = "notes.delete"
	call, err := n.begin(ctx, op)
	if err != nil {
		return err
	}
	nat, err := natID(op, id)
	if err != nil {
		return err
	}
	var res wire.Result[wire.Unit]
	if err := call.update(ctx, "deleteNote", []any{nat}, &res); err != nil {
		return err
	}
	_, err = adapt.Unwrap(op, res)
	return err
}

func (n *Notes) List(ctx context.Context) ([]types.Note, error) {
	call, err := n.begin(ctx, "notes.list")
	if err != nil {
		return nil, err
	}
	return n.list(ctx, call, "getNotes")
}

func (n *Notes) Search(ctx context.Context, query string) ([]types.Note, error) {
	call, err := n.begin(ctx, "notes.search")
	if err != nil {
		return nil, err
	}
	return n.list(ctx, call, "searchNotes", query)
}

func (n *Notes) ByTag(ctx context.Context, tag string) ([]types.Note, error) {
	const op = "notes.byTag"
	call, err := n.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := required(op, "tag", tag); err != nil {
		return nil, err
	}
	return n.list(ctx, call, "getNotesByTag", tag)
}

func (n *Notes) list(ctx context.Context, call *call, method string, args ...any) ([]types.Note, error) {
	var ws []wire.Note
	if err := call.query(ctx, method, args, &ws); err != nil {
		return nil, err
	}
	out, err := adapt.Notes(ws)
	if err != nil {
		return nil, withOp(call.op, err)
	}
	return out, nil
}
