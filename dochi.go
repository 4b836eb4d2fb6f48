// Package dochi is the client sync layer for the dochi productivity services.
// An App is built once at start-up and owns the identity session, the
// per-service remote clients and one wrapper per backend.
package dochi

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ve11yn/dochi/internal/config"
	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/identity"
	"github.com/ve11yn/dochi/internal/logger"
	"github.com/ve11yn/dochi/internal/remote"
	"github.com/ve11yn/dochi/internal/service"
	"github.com/ve11yn/dochi/internal/summary"
	"github.com/ve11yn/dochi/internal/types"
)

// App wires the identity manager, client factory and service wrappers.
type App struct {
	Calendar *service.Calendar
	Focus    *service.Focus
	Todos    *service.Todos
	Notes    *service.Notes
	Profile  *service.Profile
	Summary  *summary.Service

	cfg      *config.Config
	sessions *identity.Manager
	factory  *remote.Factory
	closer   func() error
	log      zerolog.Logger

	closedOnce uint32
}

// New builds an App from a resolved configuration. Configuration problems
// (missing endpoints, unknown session store) are returned as Config errors.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	const op = "dochi.new"
	if cfg == nil {
		return nil, apperr.New(apperr.KindConfig, op, "config is nil")
	}

	s := settings{}
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return nil, apperr.Wrap(apperr.KindConfig, op, err)
		}
	}

	a := &App{cfg: cfg, closer: func() error { return nil }, log: logger.New("dochi")}

	store := s.store
	if store == nil {
		var err error
		store, a.closer, err = openStore(cfg)
		if err != nil {
			return nil, err
		}
	}
	provider := s.provider
	if provider == nil {
		provider = defaultProvider(cfg)
	}

	var managerOpts []identity.ManagerOption
	if s.now != nil {
		managerOpts = append(managerOpts, identity.WithClock(s.now))
	}
	a.sessions = identity.NewManager(provider, store, managerOpts...)

	factoryOpts := []remote.Option{remote.WithDebugLogging(s.debug || cfg.Debug)}
	if s.transport != nil {
		factoryOpts = append(factoryOpts, remote.WithTransport(s.transport))
	}
	if s.retry != nil {
		factoryOpts = append(factoryOpts, remote.WithRetryPolicy(*s.retry))
	}
	factory, err := remote.NewFactory(cfg, a.sessions, factoryOpts...)
	if err != nil {
		_ = a.closer()
		return nil, err
	}
	a.factory = factory

	clients := service.FromFactory(factory)
	a.Calendar = service.NewCalendar(a.sessions, clients)
	a.Focus = service.NewFocus(a.sessions, clients)
	a.Todos = service.NewTodos(a.sessions, clients)
	a.Notes = service.NewNotes(a.sessions, clients)
	a.Profile = service.NewProfile(a.sessions, clients)

	var summaryOpts []summary.Option
	if s.now != nil {
		summaryOpts = append(summaryOpts, summary.WithClock(s.now))
	}
	a.Summary = summary.New(a.Profile, a.Calendar, a.Focus, summaryOpts...)
	return a, nil
}

func openStore(cfg *config.Config) (identity.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.SessionStore {
	case "", "memory":
		return identity.NewMemoryStore(), noop, nil
	case "file":
		return identity.NewFileStore(cfg.SessionPath), noop, nil
	case "sqlite":
		st, err := identity.OpenSQLiteStore(cfg.SessionPath)
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.KindConfig, "dochi.openStore", err)
		}
		return st, st.Close, nil
	default:
		return nil, nil, apperr.New(apperr.KindConfig, "dochi.openStore", "unsupported session store "+cfg.SessionStore)
	}
}

func defaultProvider(cfg *config.Config) identity.Provider {
	if cfg.DevIdentity && cfg.IsLocal() {
		return identity.DevProvider{TTL: cfg.SessionTTL}
	}
	return identity.NewLoopbackProvider(cfg.IdentityProviderURL, cfg.SessionTTL)
}

// Initialize restores a stored session, if any. It never fails on a missing
// or unusable stored session; the App just stays logged out.
func (a *App) Initialize(ctx context.Context) error {
	return a.sessions.Initialize(ctx)
}

// Login runs the identity provider flow (or reuses the current session)
// and reports whether the identity still needs a profile.
func (a *App) Login(ctx context.Context) types.LoginResult {
	if _, err := a.sessions.Login(ctx); err != nil {
		return types.LoginResult{Err: err}
	}
	u, err := a.Profile.Get(ctx)
	if err != nil {
		// Logged in, but the profile lookup failed; report it without
		// undoing the login.
		a.log.Warn().Err(err).Msg("profile lookup after login failed")
		return types.LoginResult{Success: true, Err: err}
	}
	return types.LoginResult{Success: true, IsFirstTime: u == nil, User: u}
}

// Logout drops the session. Cached clients are discarded.
func (a *App) Logout(ctx context.Context) error {
	return a.sessions.Logout(ctx)
}

// IsAuthenticated reports whether a usable session exists.
func (a *App) IsAuthenticated(ctx context.Context) bool {
	return a.sessions.IsAuthenticated(ctx)
}

// CallerID returns the principal of the current session.
func (a *App) CallerID(ctx context.Context) (string, bool) {
	return a.sessions.CallerID(ctx)
}

// OnIdentityChange registers fn for identity changes and returns a function
// that removes it.
func (a *App) OnIdentityChange(fn func(IdentityChange)) func() {
	return a.sessions.Subscribe(fn)
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Close releases the session store and stops client invalidation. Safe to
// call multiple times.
func (a *App) Close() error {
	if !atomic.CompareAndSwapUint32(&a.closedOnce, 0, 1) {
		return nil
	}
	a.factory.Close()
	return a.closer()
}
