// Package remote builds authenticated clients for the backend services and
// performs the calls. Clients are cached per (service, principal) and
// dropped whenever the identity changes.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperr "github.com/ve11yn/dochi/internal/errors"
)

type callKind string

const (
	kindQuery  callKind = "query"
	kindUpdate callKind = "call"
)

// Client calls one backend service as one principal.
type Client struct {
	service    string
	canisterID string
	principal  string
	token      string

	http  *resty.Client
	retry RetryPolicy
	log   zerolog.Logger
}

// Service returns the service name the client was built for.
func (c *Client) Service() string { return c.service }

// Principal returns the caller the client authenticates as.
func (c *Client) Principal() string { return c.principal }

// Query runs a read-only method. args are wire values encoded as a JSON
// array; the response is decoded into out when out is non-nil.
func (c *Client) Query(ctx context.Context, method string, args []any, out any) error {
	return c.call(ctx, kindQuery, method, args, out)
}

// Update runs a mutating method. It is retried only when the policy has
// RetryUpdates set.
func (c *Client) Update(ctx context.Context, method string, args []any, out any) error {
	return c.call(ctx, kindUpdate, method, args, out)
}

func (c *Client) call(ctx context.Context, kind callKind, method string, args []any, out any) error {
	op := c.service + "." + method
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, op, fmt.Errorf("encode arguments: %w", err))
	}
	path := fmt.Sprintf("/api/%s/%s/%s", url.PathEscape(c.canisterID), kind, url.PathEscape(method))

	start := time.Now()
	var raw []byte
	err = c.retry.run(ctx, kind, func() error {
		var attemptErr error
		raw, attemptErr = c.post(ctx, op, path, body)
		return attemptErr
	}, func(err error, wait time.Duration) {
		retriesTotal.WithLabelValues(c.service).Inc()
		c.log.Warn().Err(err).Str("method", method).Dur("backoff", wait).Msg("retrying remote call")
	})
	remoteCallSeconds.WithLabelValues(c.service, string(kind)).Observe(time.Since(start).Seconds())

	if err == nil && out != nil {
		if decodeErr := json.Unmarshal(raw, out); decodeErr != nil {
			err = apperr.NewDecodeError(op, decodeErr)
		}
	}
	if err != nil {
		err = classifyCallError(op, err)
		remoteCallsTotal.WithLabelValues(c.service, method, string(kind), apperr.KindOf(err).String()).Inc()
		c.log.Debug().Err(err).Str("method", method).Str("kind", string(kind)).Msg("remote call failed")
		return err
	}
	remoteCallsTotal.WithLabelValues(c.service, method, string(kind), "ok").Inc()
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, body []byte) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString()).
		SetBody(body).
		Post(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindTransport, op, ctx.Err())
		}
		return nil, apperr.NewNetworkError(op, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, apperr.ClassifyHTTPError(op, resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

// classifyCallError makes sure whatever leaves the retry loop is typed.
// Context errors from the backoff timer arrive bare.
func classifyCallError(op string, err error) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	return apperr.Wrap(apperr.KindTransport, op, err)
}

// credentialTransport adds the session's bearer credential to every request.
type credentialTransport struct {
	base  http.RoundTripper
	token string
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(cloned)
}
