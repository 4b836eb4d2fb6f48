package remote

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/ve11yn/dochi/internal/config"
	apperr "github.com/ve11yn/dochi/internal/errors"
)

// RetryPolicy is the one retry policy applied to every remote call. Only
// failures classified as retryable are retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// RetryUpdates enables retries for update (mutating) calls. A retried
	// update may be applied twice by the backend.
	RetryUpdates bool
}

// DefaultRetryPolicy mirrors the configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
	}
}

// PolicyFromConfig converts the environment retry settings.
func PolicyFromConfig(c config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     c.MaxAttempts,
		InitialInterval: c.InitialInterval,
		MaxInterval:     c.MaxInterval,
		Multiplier:      c.Multiplier,
		RetryUpdates:    c.RetryUpdates,
	}
}

// attempts returns how many times a call of the given kind may run.
func (p RetryPolicy) attempts(kind callKind) int {
	if p.MaxAttempts < 1 || (kind == kindUpdate && !p.RetryUpdates) {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) backOff(ctx context.Context, kind callKind) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		exp.Multiplier = p.Multiplier
	}
	// attempts bound the loop, not elapsed time
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.attempts(kind)-1)), ctx)
}

// run executes op under the policy. notify is called before every retry.
func (p RetryPolicy) run(ctx context.Context, kind callKind, op func() error, notify func(error, time.Duration)) error {
	err := backoff.RetryNotify(func() error {
		err := op()
		if err != nil && apperr.IsIrrecoverable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx, kind), notify)
	return err
}
