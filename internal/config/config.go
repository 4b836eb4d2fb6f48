package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Network selects which deployment the client talks to.
type Network string

const (
	// NetworkLocal is a local replica; clients must fetch its root key
	// before the first call.
	NetworkLocal Network = "local"
	// NetworkIC is production; the root key is well known and no handshake
	// is needed.
	NetworkIC Network = "ic"
)

// Service names, one per backend.
const (
	ServiceLogin    = "login"
	ServiceCalendar = "calendar"
	ServiceFocus    = "focus"
	ServiceTodo     = "todo"
)

// Config holds the configuration for the client.
// Environment variables are automatically parsed from the DOCHI_ prefix.
type Config struct {
	Network Network `envconfig:"NETWORK" default:"local"`
	// Host of the network gateway. Derived from Network when empty.
	Host string `envconfig:"HOST" default:""`

	// Per-service canister ids. All are required.
	LoginCanisterID    string `envconfig:"LOGIN_CANISTER_ID"`
	CalendarCanisterID string `envconfig:"CALENDAR_CANISTER_ID"`
	FocusCanisterID    string `envconfig:"FOCUS_CANISTER_ID"`
	TodoCanisterID     string `envconfig:"TODO_CANISTER_ID"`

	// Identity provider. On the local network the URL is derived from the
	// provider's canister id when not set explicitly.
	IdentityProviderURL string `envconfig:"IDENTITY_PROVIDER_URL" default:""`
	IICanisterID        string `envconfig:"II_CANISTER_ID" default:""`
	// DevIdentity skips the browser flow on the local network.
	DevIdentity bool `envconfig:"DEV_IDENTITY" default:"false"`

	SessionStore string        `envconfig:"SESSION_STORE" default:"file"` // file | sqlite | memory
	SessionPath  string        `envconfig:"SESSION_PATH" default:""`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"168h"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	Retry RetryConfig `envconfig:"RETRY"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// RetryConfig is the single retry policy applied to every remote call.
type RetryConfig struct {
	MaxAttempts     int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	InitialInterval time.Duration `envconfig:"INITIAL_INTERVAL" default:"200ms"`
	MaxInterval     time.Duration `envconfig:"MAX_INTERVAL" default:"5s"`
	Multiplier      float64       `envconfig:"MULTIPLIER" default:"2"`
	// RetryUpdates allows retrying mutating calls. Off by default because a
	// retried update may be applied twice.
	RetryUpdates bool `envconfig:"UPDATES" default:"false"`
}

// ResolveDefaults validates Network, derives Host, identity provider and
// session path, and checks that every service endpoint is configured.
// A returned error is fatal: the client cannot start misconfigured.
func (c *Config) ResolveDefaults() error {
	switch c.Network {
	case NetworkLocal:
		if c.Host == "" {
			c.Host = "http://127.0.0.1:4943"
		}
		if c.IdentityProviderURL == "" && c.IICanisterID != "" {
			c.IdentityProviderURL = fmt.Sprintf("http://%s.localhost:4943", c.IICanisterID)
		}
		if c.IdentityProviderURL == "" && !c.DevIdentity {
			return fmt.Errorf("network %q needs DOCHI_IDENTITY_PROVIDER_URL, DOCHI_II_CANISTER_ID or DOCHI_DEV_IDENTITY", c.Network)
		}
	case NetworkIC:
		if c.Host == "" {
			c.Host = "https://icp-api.io"
		}
		if c.IdentityProviderURL == "" {
			c.IdentityProviderURL = "https://identity.ic0.app"
		}
		if c.DevIdentity {
			return fmt.Errorf("DOCHI_DEV_IDENTITY is not allowed on network %q", c.Network)
		}
	default:
		return fmt.Errorf("unsupported DOCHI_NETWORK: %s", c.Network)
	}

	for name, id := range c.Endpoints() {
		if id == "" {
			return fmt.Errorf("missing canister id for service %q", name)
		}
	}

	switch c.SessionStore {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported DOCHI_SESSION_STORE: %s", c.SessionStore)
	}
	if c.SessionPath == "" && c.SessionStore != "memory" {
		dir, err := DataDir()
		if err != nil {
			return err
		}
		name := "session.json"
		if c.SessionStore == "sqlite" {
			name = "session.db"
		}
		c.SessionPath = filepath.Join(dir, name)
	}
	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}
	return nil
}

// Endpoints returns the canister id configured for every service.
func (c *Config) Endpoints() map[string]string {
	return map[string]string{
		ServiceLogin:    c.LoginCanisterID,
		ServiceCalendar: c.CalendarCanisterID,
		ServiceFocus:    c.FocusCanisterID,
		ServiceTodo:     c.TodoCanisterID,
	}
}

// IsLocal reports whether the client targets a local replica.
func (c *Config) IsLocal() bool {
	return c.Network == NetworkLocal
}

// New creates a new Config by parsing environment variables.
// Example: DOCHI_NETWORK=ic DOCHI_TODO_CANISTER_ID=...
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("DOCHI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("network", string(cfg.Network)).
		Str("host", cfg.Host).
		Str("identity_provider", cfg.IdentityProviderURL).
		Str("session_store", cfg.SessionStore).
		Int("retry_max_attempts", cfg.Retry.MaxAttempts).
		Bool("retry_updates", cfg.Retry.RetryUpdates).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a fully resolved local config with dummy canister ids
// and an in-memory session store.
func NewForTesting() *Config {
	return &Config{
		Network:             NetworkLocal,
		Host:                "http://127.0.0.1:4943",
		LoginCanisterID:     "login-test",
		CalendarCanisterID:  "calendar-test",
		FocusCanisterID:     "focus-test",
		TodoCanisterID:      "todo-test",
		IdentityProviderURL: "http://identity.localhost:4943",
		SessionStore:        "memory",
		SessionTTL:          time.Hour,
		HTTPTimeout:         5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
			Multiplier:      2,
		},
		LogLevel: "debug",
	}
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

const (
	envHome = "DOCHI_HOME" // override for tests
	dirName = "dochi"
)

// DataDir returns the directory where local state is stored
// (<user config dir>/dochi). It creates the directory with 0700 permissions
// if it does not exist.
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		if err := os.MkdirAll(custom, 0o700); err != nil {
			return "", err
		}
		return custom, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config dir: %w", err)
	}
	dir := filepath.Join(base, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
