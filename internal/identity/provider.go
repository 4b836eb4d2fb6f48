package identity

import (
	"context"
	"time"
)

// DevPrincipal and DevToken identify the development caller. They are
// intentionally obvious and must never be accepted outside a local replica.
const (
	DevPrincipal = "dochi-dev"
	DevToken     = "LOCAL_DEV_MODE_NOT_FOR_PRODUCTION"
)

// DevProvider authenticates immediately as the development caller.
type DevProvider struct {
	TTL time.Duration
	Now func() time.Time
}

func (p DevProvider) Authenticate(ctx context.Context) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	c := Credential{Principal: DevPrincipal, Token: DevToken}
	if p.TTL > 0 {
		c.Expiration = now().Add(p.TTL)
	}
	return c, nil
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Credential, error)

func (f ProviderFunc) Authenticate(ctx context.Context) (Credential, error) { return f(ctx) }
