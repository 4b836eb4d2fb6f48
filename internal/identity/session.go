// Package identity owns the authenticated-caller lifecycle: restoring a
// stored session at start-up, interactive login through an identity
// provider, logout, and notifying dependents when the identity changes.
package identity

import (
	"context"
	"time"
)

// Credential is the opaque delegation issued by the identity provider.
type Credential struct {
	Principal  string    `json:"principal"`
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"` // zero means no expiry
}

// Expired reports whether the credential is no longer usable at now.
func (c Credential) Expired(now time.Time) bool {
	return !c.Expiration.IsZero() && !now.Before(c.Expiration)
}

// Session is an authenticated caller. A nil *Session means
// unauthenticated, so a caller id exists exactly when a credential does.
type Session struct {
	Credential Credential
}

// CallerID is the principal of the session.
func (s *Session) CallerID() string {
	return s.Credential.Principal
}

// Provider runs the external authentication flow. Authenticate must not
// return before the provider signals success or failure (or ctx ends); it
// has no timeout of its own.
type Provider interface {
	Authenticate(ctx context.Context) (Credential, error)
}

// Store persists the credential between runs.
type Store interface {
	// Load returns the stored credential, or nil when there is none.
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, c Credential) error
	Clear(ctx context.Context) error
}

// Reason describes why the identity changed.
type Reason string

const (
	ReasonRestore Reason = "restore"
	ReasonLogin   Reason = "login"
	ReasonLogout  Reason = "logout"
	ReasonExpired Reason = "expired"
)

// Change is delivered to subscribers whenever the identity changes.
type Change struct {
	Previous   *Session
	Current    *Session
	Generation uint64
	Reason     Reason
}
