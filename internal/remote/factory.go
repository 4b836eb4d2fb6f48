package remote

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/ve11yn/dochi/internal/config"
	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/identity"
	"github.com/ve11yn/dochi/internal/logger"
)

// SessionSource supplies the current session and identity-change events.
// *identity.Manager implements it.
type SessionSource interface {
	Session(ctx context.Context) (*identity.Session, error)
	Subscribe(fn func(identity.Change)) func()
}

type cacheKey struct {
	service   string
	principal string
}

// Factory hands out Clients bound to the current identity.
type Factory struct {
	host      string
	local     bool
	endpoints map[string]string
	timeout   time.Duration
	retry     RetryPolicy
	debug     bool
	transport http.RoundTripper

	sessions    SessionSource
	unsubscribe func()
	log         zerolog.Logger

	// clients is replaced wholesale, never mutated in place.
	clients atomic.Pointer[map[cacheKey]*Client]

	mu       sync.Mutex // serialises builds and handshakes
	rootKeys map[string]string
}

// Option configures a Factory.
type Option func(*Factory)

// WithRetryPolicy overrides the retry policy taken from the config.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Factory) { f.retry = p }
}

// WithTransport sets the base HTTP transport under the credential and debug
// layers.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Factory) { f.transport = rt }
}

// WithDebugLogging dumps HTTP traffic at debug level.
func WithDebugLogging(enabled bool) Option {
	return func(f *Factory) { f.debug = f.debug || enabled }
}

// NewFactory validates the endpoint configuration and subscribes to identity
// changes. A missing endpoint is a fatal Config error.
func NewFactory(cfg *config.Config, sessions SessionSource, opts ...Option) (*Factory, error) {
	const op = "remote.newFactory"
	if cfg == nil {
		return nil, apperr.New(apperr.KindConfig, op, "config is nil")
	}
	if cfg.Host == "" {
		return nil, apperr.New(apperr.KindConfig, op, "host is not configured")
	}
	endpoints := cfg.Endpoints()
	var missing []string
	for name, id := range endpoints {
		if id == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperr.New(apperr.KindConfig, op, "missing canister id for "+strings.Join(missing, ", "))
	}

	f := &Factory{
		host:      strings.TrimRight(cfg.Host, "/"),
		local:     cfg.IsLocal(),
		endpoints: endpoints,
		timeout:   cfg.HTTPTimeout,
		retry:     PolicyFromConfig(cfg.Retry),
		debug:     cfg.Debug || debugLoggingRequested(),
		sessions:  sessions,
		log:       logger.New("remote"),
		rootKeys:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.timeout <= 0 {
		f.timeout = 30 * time.Second
	}
	empty := map[cacheKey]*Client{}
	f.clients.Store(&empty)
	f.unsubscribe = sessions.Subscribe(f.onIdentityChange)
	return f, nil
}

// Client returns the client for service bound to the current principal,
// building it on first use. It fails with Unauthenticated when there is no
// session and with Config for an unknown service.
func (f *Factory) Client(ctx context.Context, service string) (*Client, error) {
	s, err := f.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}
	key := cacheKey{service: service, principal: s.CallerID()}
	if c := f.lookup(key, s.Credential.Token); c != nil {
		return c, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.lookup(key, s.Credential.Token); c != nil {
		return c, nil
	}

	canisterID, ok := f.endpoints[service]
	if !ok || canisterID == "" {
		return nil, apperr.New(apperr.KindConfig, "remote.client", fmt.Sprintf("no endpoint for service %q", service))
	}
	rootKey, err := f.ensureHandshakeLocked(ctx)
	if err != nil {
		return nil, err
	}

	c := f.build(service, canisterID, s)
	next := make(map[cacheKey]*Client, len(*f.clients.Load())+1)
	for k, v := range *f.clients.Load() {
		next[k] = v
	}
	next[key] = c
	f.clients.Store(&next)

	clientBuildsTotal.WithLabelValues(service).Inc()
	f.log.Debug().
		Str("service", service).
		Str("principal", key.principal).
		Bool("root_key_fetched", rootKey != "").
		Msg("built service client")
	return c, nil
}

// lookup returns a cached client whose credential is still the session's.
// A build racing with an identity change can leave a stale entry behind;
// the token check keeps it from being handed out.
func (f *Factory) lookup(key cacheKey, token string) *Client {
	c, ok := (*f.clients.Load())[key]
	if !ok || c.token != token {
		return nil
	}
	return c
}

func (f *Factory) build(service, canisterID string, s *identity.Session) *Client {
	base := f.transport
	if base == nil {
		base = http.DefaultTransport
	}
	if f.debug {
		base = &debugTransport{base: base}
	}
	hc := &http.Client{
		Timeout:   f.timeout,
		Transport: &credentialTransport{base: base, token: s.Credential.Token},
	}
	rc := resty.NewWithClient(hc).
		SetBaseURL(f.host).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		service:    service,
		canisterID: canisterID,
		principal:  s.CallerID(),
		token:      s.Credential.Token,
		http:       rc,
		retry:      f.retry,
		log:        f.log.With().Str("service", service).Logger(),
	}
}

type statusResponse struct {
	RootKey string `json:"root_key"`
}

// ensureHandshakeLocked fetches the local replica's root key once per host.
// Failures are not cached so the next call tries again.
func (f *Factory) ensureHandshakeLocked(ctx context.Context) (string, error) {
	if !f.local {
		return "", nil
	}
	if key, ok := f.rootKeys[f.host]; ok {
		return key, nil
	}

	const op = "remote.handshake"
	base := f.transport
	if base == nil {
		base = http.DefaultTransport
	}
	var status statusResponse
	resp, err := resty.NewWithClient(&http.Client{Timeout: f.timeout, Transport: base}).
		R().
		SetContext(ctx).
		SetResult(&status).
		Get(f.host + "/api/v2/status")
	if err != nil {
		return "", apperr.NewNetworkError(op, err)
	}
	if resp.IsError() {
		return "", apperr.ClassifyHTTPError(op, resp.StatusCode(), resp.String())
	}
	if status.RootKey == "" {
		return "", &apperr.Error{Kind: apperr.KindTransport, Op: op, Message: "replica returned an empty root key", Retryable: true}
	}

	f.rootKeys[f.host] = status.RootKey
	f.log.Info().Str("host", f.host).Msg("fetched local replica root key")
	return status.RootKey, nil
}

// RootKey returns the root key fetched from the local replica, if any.
func (f *Factory) RootKey() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.rootKeys[f.host]
	return k, ok
}

// Invalidate drops every cached client.
func (f *Factory) Invalidate() {
	empty := map[cacheKey]*Client{}
	old := f.clients.Swap(&empty)
	if n := len(*old); n > 0 {
		f.log.Debug().Int("clients", n).Msg("dropped cached service clients")
	}
}

func (f *Factory) onIdentityChange(c identity.Change) {
	f.log.Debug().Str("reason", string(c.Reason)).Uint64("generation", c.Generation).Msg("identity changed")
	f.Invalidate()
}

// Close stops listening for identity changes.
func (f *Factory) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
	f.Invalidate()
}
