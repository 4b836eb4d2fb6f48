package dochi

// Functional options for New. They override pieces the configuration would
// otherwise decide, mostly for tests and the CLI.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ve11yn/dochi/internal/identity"
	"github.com/ve11yn/dochi/internal/remote"
)

type settings struct {
	provider  identity.Provider
	store     identity.Store
	transport http.RoundTripper
	retry     *remote.RetryPolicy
	now       func() time.Time
	debug     bool
}

// Option configures an App during construction in New.
type Option func(*settings) error

// WithProvider replaces the identity provider chosen from the configuration.
func WithProvider(p identity.Provider) Option {
	return func(s *settings) error {
		if p == nil {
			return fmt.Errorf("identity provider must not be nil")
		}
		s.provider = p
		return nil
	}
}

// WithSessionStore replaces the session store chosen from the configuration.
// The App does not close a store passed this way.
func WithSessionStore(st identity.Store) Option {
	return func(s *settings) error {
		if st == nil {
			return fmt.Errorf("session store must not be nil")
		}
		s.store = st
		return nil
	}
}

// WithTransport sets the base HTTP transport used by every remote client.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) error {
		s.transport = rt
		return nil
	}
}

// WithRetryPolicy overrides the retry settings from the configuration.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *settings) error {
		if p.MaxAttempts < 1 {
			return fmt.Errorf("retry policy needs at least one attempt")
		}
		s.retry = &p
		return nil
	}
}

// WithClock sets the clock used for session expiry and summary streaks.
func WithClock(now func() time.Time) Option {
	return func(s *settings) error {
		s.now = now
		return nil
	}
}

// WithDebugLogging logs every remote request and response when enabled.
// Do not enable it in production: logs include method and URL metadata.
func WithDebugLogging(enabled bool) Option {
	return func(s *settings) error {
		s.debug = s.debug || enabled
		return nil
	}
}
