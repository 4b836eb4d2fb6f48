// Package service holds one wrapper per backend bounded context (calendar,
// focus, todos and notes, profile). Every operation checks for a session
// before anything else, builds the wire payload, performs the remote call
// and returns UI-level values or an *errors.Error. Most operations make a
// single call. Toggling a todo or one of its subtasks reads the todo first,
// and creating a todo whose subtasks are all complete writes its flag after
// the insert, so those take two.
//
// Wrappers keep no state between calls and do not queue or serialise
// operations. Two calls issued without waiting for the first may complete
// in either order; callers that need edit-then-toggle ordering on the same
// entity must wait for each call before issuing the next.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/identity"
	"github.com/ve11yn/dochi/internal/logger"
	"github.com/ve11yn/dochi/internal/remote"
)

// Invoker performs remote calls against one service. *remote.Client
// implements it.
type Invoker interface {
	Query(ctx context.Context, method string, args []any, out any) error
	Update(ctx context.Context, method string, args []any, out any) error
}

// SessionSource reports the current session. *identity.Manager implements
// it.
type SessionSource interface {
	Session(ctx context.Context) (*identity.Session, error)
	Guard() identity.Guard
}

// ClientSource hands out invokers bound to the current identity.
type ClientSource interface {
	Invoker(ctx context.Context, service string) (Invoker, error)
}

// FromFactory adapts a remote.Factory to ClientSource.
func FromFactory(f *remote.Factory) ClientSource {
	return factorySource{f: f}
}

type factorySource struct{ f *remote.Factory }

func (s factorySource) Invoker(ctx context.Context, service string) (Invoker, error) {
	c, err := s.f.Client(ctx, service)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// base is embedded by every wrapper.
type base struct {
	service  string
	sessions SessionSource
	clients  ClientSource
	log      zerolog.Logger
}

func newBase(service string, sessions SessionSource, clients ClientSource) base {
	return base{
		service:  service,
		sessions: sessions,
		clients:  clients,
		log:      logger.New("service." + service),
	}
}

// call is one operation in progress. It remembers the identity generation
// seen when the operation started.
type call struct {
	b     *base
	op    string
	guard identity.Guard
}

// begin fails with Unauthenticated when there is no session. It must run
// before any validation or remote work.
func (b *base) begin(ctx context.Context, op string) (*call, error) {
	if _, err := b.sessions.Session(ctx); err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthenticated {
			return nil, apperr.Unauthenticated(op)
		}
		return nil, err
	}
	return &call{b: b, op: op, guard: b.sessions.Guard()}, nil
}

func (c *call) query(ctx context.Context, method string, args []any, out any) error {
	return c.invoke(ctx, false, method, args, out)
}

func (c *call) update(ctx context.Context, method string, args []any, out any) error {
	return c.invoke(ctx, true, method, args, out)
}

func (c *call) invoke(ctx context.Context, mutating bool, method string, args []any, out any) error {
	inv, err := c.b.clients.Invoker(ctx, c.b.service)
	if err != nil {
		return err
	}
	if mutating {
		err = inv.Update(ctx, method, args, out)
	} else {
		err = inv.Query(ctx, method, args, out)
	}
	if !c.guard.Current() {
		// The caller must not apply this result to the new identity's state.
		c.b.log.Debug().Str("op", c.op).Msg("identity changed during call, discarding result")
		return apperr.New(apperr.KindSuperseded, c.op, "identity changed while the call was in flight")
	}
	if err != nil {
		return withOp(c.op, err)
	}
	return nil
}

// withOp labels transport failures with the wrapper operation, keeping the
// remote method in the message.
func withOp(op string, err error) error {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return apperr.Wrap(apperr.KindTransport, op, err)
	}
	cp := *e
	if cp.Message == "" && cp.Underlying != nil {
		cp.Message = cp.Underlying.Error()
	}
	cp.Op = op
	return &cp
}
