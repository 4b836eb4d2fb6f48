package service

import (
	"context"
	"strings"

	"github.com/ve11yn/dochi/internal/adapt"
	"github.com/ve11yn/dochi/internal/config"
	"github.com/ve11yn/dochi/internal/types"
	"github.com/ve11yn/dochi/internal/wire"
)

// Profile wraps the login service, which stores one user profile per
// identity. The caller is implied by the session credential.
type Profile struct {
	base
}

func NewProfile(sessions SessionSource, clients ClientSource) *Profile {
	return &Profile{base: newBase(config.ServiceLogin, sessions, clients)}
}

// Exists reports whether the current identity has a profile.
func (p *Profile) Exists(ctx context.Context) (bool, error) {
	call, err := p.begin(ctx, "profile.exists")
	if err != nil {
		return false, err
	}
	var exists bool
	if err := call.query(ctx, "userExists", nil, &exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (p *Profile) Create(ctx context.Context, name string) (types.User, error) {
	return p.write(ctx, "profile.create", "createUser", name)
}

func (p *Profile) Update(ctx context.Context, name string) (types.User, error) {
	return p.write(ctx, "profile.update", "updateUser", name)
}

func (p *Profile) write(ctx context.Context, op, method, name string) (types.User, error) {
	call, err := p.begin(ctx, op)
	if err != nil {
		return types.User{}, err
	}
	if err := required(op, "name", name); err != nil {
		return types.User{}, err
	}

	var res wire.Result[wire.User]
	if err := call.update(ctx, method, []any{strings.TrimSpace(name)}, &res); err != nil {
		return types.User{}, err
	}
	return adapt.UnwrapWith(op, res, adapt.User)
}

func (p *Profile) Delete(ctx context.Context) error {
	const op = "profile.delete"
	call, err := p.begin(ctx, op)
	if err != nil {
		return err
	}
	var res wire.Result[wire.Unit]
	if err := call.update(ctx, "deleteUser", nil, &res); err != nil {
		return err
	}
	_, err = adapt.Unwrap(op, res)
	return err
}

// Get returns the current identity's profile, or nil when it has none.
func (p *Profile) Get(ctx context.Context) (*types.User, error) {
	const op = "profile.get"
	call, err := p.begin(ctx, op)
	if err != nil {
		return nil, err
	}
	var res wire.Opt[wire.User]
	if err := call.query(ctx, "getUser", nil, &res); err != nil {
		return nil, err
	}
	w := adapt.Optional(res)
	if w == nil {
		return nil, nil
	}
	u, err := adapt.User(*w)
	if err != nil {
		return nil, withOp(op, err)
	}
	return &u, nil
}

// Health returns the login service's status message.
func (p *Profile) Health(ctx context.Context) (string, error) {
	call, err := p.begin(ctx, "profile.health")
	if err != nil {
		return "", err
	}
	var status string
	if err := call.query(ctx, "health", nil, &status); err != nil {
		return "", err
	}
	return status, nil
}
