package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/logger"
)

// Manager is the identity session manager. It is safe for concurrent use and
// meant to be built once per application and shared.
type Manager struct {
	provider Provider
	store    Store
	log      zerolog.Logger
	now      func() time.Time
	// loginTimeout bounds a shared login flow once it is detached from the
	// callers' contexts.
	loginTimeout time.Duration

	group singleflight.Group

	mu          sync.RWMutex
	session     *Session
	initialized bool
	generation  uint64
	subs        map[int]func(Change)
	nextSub     int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// WithLoginTimeout bounds how long one provider flow may run. Defaults to
// DefaultLoginTimeout.
func WithLoginTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.loginTimeout = d }
}

// DefaultLoginTimeout is the upper bound for one interactive login.
const DefaultLoginTimeout = 5 * time.Minute

// NewManager constructs a Manager. A nil store keeps sessions in memory only.
func NewManager(provider Provider, store Store, opts ...ManagerOption) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	m := &Manager{
		provider: provider,
		store:    store,
		log:      logger.New("identity"),
		now:          time.Now,
		loginTimeout: DefaultLoginTimeout,
		subs:         make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize restores a previously stored session if it is still valid.
// Restoration problems are logged and leave the manager unauthenticated;
// they are never returned. Concurrent calls share one restoration, which
// runs detached from any single caller's context: a caller that gives up
// returns early and the restoration still completes for the others.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.RLock()
	done := m.initialized
	m.mu.RUnlock()
	if done {
		return nil
	}

	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan("initialize", func() (interface{}, error) {
		m.restore(detached)
		return nil, nil
	})
	select {
	case <-ch:
	case <-ctx.Done():
	}
	return nil
}

func (m *Manager) restore(ctx context.Context) {
	m.mu.RLock()
	done := m.initialized
	m.mu.RUnlock()
	if done {
		return
	}

	cred, err := m.store.Load(ctx)
	switch {
	case err != nil:
		m.log.Warn().Err(err).Msg("session restore failed, continuing unauthenticated")
		cred = nil
	case cred != nil && cred.Expired(m.now()):
		m.log.Info().Str("principal", cred.Principal).Msg("stored session expired")
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warn().Err(err).Msg("clearing expired session failed")
		}
		cred = nil
	}

	m.mu.Lock()
	if m.initialized {
		// a login finished while the store was being read; it wins
		m.mu.Unlock()
		return
	}
	m.initialized = true
	if cred == nil {
		m.mu.Unlock()
		return
	}
	change := m.swapLocked(&Session{Credential: *cred}, ReasonRestore)
	m.mu.Unlock()

	m.log.Info().Str("principal", cred.Principal).Msg("session restored")
	m.notify(change)
}

// Login runs the provider flow and establishes a session. If a live session
// already exists it is returned unchanged and no identity change is
// signalled. Concurrent calls share one provider flow. The flow is bounded
// by the login timeout rather than by the first caller's context; each
// caller stops waiting when its own context ends.
func (m *Manager) Login(ctx context.Context) (*Session, error) {
	_ = m.Initialize(ctx)

	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan("login", func() (interface{}, error) {
		flowCtx, cancel := context.WithTimeout(detached, m.loginTimeout)
		defer cancel()
		return m.login(flowCtx)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Session), nil
	case <-ctx.Done():
		return nil, classifyLoginError(ctx.Err())
	}
}

func (m *Manager) login(ctx context.Context) (*Session, error) {
	if s := m.current(); s != nil {
		return s, nil
	}
	if m.provider == nil {
		return nil, apperr.New(apperr.KindConfig, "identity.login", "no identity provider configured")
	}

	cred, err := m.provider.Authenticate(ctx)
	if err != nil {
		return nil, classifyLoginError(err)
	}
	if cred.Principal == "" || cred.Token == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "identity.login", "identity provider returned an empty credential")
	}
	if cred.Expired(m.now()) {
		return nil, apperr.New(apperr.KindUnauthenticated, "identity.login", "identity provider returned an expired credential")
	}

	if err := m.store.Save(ctx, cred); err != nil {
		// The session is still usable for this process.
		m.log.Warn().Err(err).Msg("persisting session failed")
	}

	s := &Session{Credential: cred}
	m.mu.Lock()
	m.initialized = true
	change := m.swapLocked(s, ReasonLogin)
	m.mu.Unlock()

	m.log.Info().Str("principal", cred.Principal).Msg("logged in")
	m.notify(change)
	return s, nil
}

func classifyLoginError(err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindUnauthenticated, "identity.login", err)
	}
	return apperr.NewNetworkError("identity.login", err)
}

// Logout clears the session and the stored credential. It is a no-op when
// no session exists.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.initialized = true
	if m.session == nil {
		m.mu.Unlock()
		return nil
	}
	change := m.swapLocked(nil, ReasonLogout)
	m.mu.Unlock()

	m.log.Info().Str("principal", change.Previous.CallerID()).Msg("logged out")
	m.notify(change)

	if err := m.store.Clear(ctx); err != nil {
		return apperr.Wrap(apperr.KindTransport, "identity.logout", err)
	}
	return nil
}

// IsAuthenticated reports whether a usable session exists, restoring a
// stored one first if needed.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	_ = m.Initialize(ctx)
	return m.current() != nil
}

// CallerID returns the principal of the current session.
func (m *Manager) CallerID(ctx context.Context) (string, bool) {
	_ = m.Initialize(ctx)
	s := m.current()
	if s == nil {
		return "", false
	}
	return s.CallerID(), true
}

// Session returns the current session or an Unauthenticated error.
func (m *Manager) Session(ctx context.Context) (*Session, error) {
	_ = m.Initialize(ctx)
	s := m.current()
	if s == nil {
		return nil, apperr.Unauthenticated("identity.session")
	}
	return s, nil
}

// Generation increases on every identity change.
func (m *Manager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Guard captures the current identity generation.
func (m *Manager) Guard() Guard {
	return Guard{m: m, gen: m.Generation()}
}

// Subscribe registers fn for identity changes and returns a function that
// removes it. fn runs synchronously on the goroutine that changed the
// identity, after the change is visible.
func (m *Manager) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// current returns the live session, dropping it first if it expired.
func (m *Manager) current() *Session {
	m.mu.RLock()
	s := m.session
	m.mu.RUnlock()
	if s == nil || !s.Credential.Expired(m.now()) {
		return s
	}

	m.mu.Lock()
	if m.session != s {
		cur := m.session
		m.mu.Unlock()
		return cur
	}
	change := m.swapLocked(nil, ReasonExpired)
	m.mu.Unlock()

	m.log.Info().Str("principal", s.CallerID()).Msg("session expired")
	m.notify(change)
	if err := m.store.Clear(context.Background()); err != nil {
		m.log.Warn().Err(err).Msg("clearing expired session failed")
	}
	return nil
}

func (m *Manager) swapLocked(s *Session, reason Reason) Change {
	prev := m.session
	m.session = s
	m.generation++
	return Change{Previous: prev, Current: s, Generation: m.generation, Reason: reason}
}

func (m *Manager) notify(c Change) {
	m.mu.RLock()
	fns := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Guard detects identity changes between capture and commit. UI code takes
// a guard before issuing a call and applies the result only if Current is
// still true.
type Guard struct {
	m   *Manager
	gen uint64
}

// Current reports whether the identity is unchanged since the guard was
// taken.
func (g Guard) Current() bool {
	return g.m != nil && g.m.Generation() == g.gen
}

// Generation is the identity generation captured by the guard.
func (g Guard) Generation() uint64 { return g.gen }
