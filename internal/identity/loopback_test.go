package identity

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/ve11yn/dochi/internal/errors"
)

// redirectingOpener plays the identity provider: it reads the authorize URL
// and calls back with the given extra query parameters.
func redirectingOpener(t *testing.T, extra url.Values, overrideState string, seen chan<- *url.URL) func(string) error {
	return func(raw string) error {
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		if seen != nil {
			seen <- u
		}
		q := u.Query()
		cb, err := url.Parse(q.Get("redirect_uri"))
		if err != nil {
			return err
		}
		params := url.Values{}
		for k, v := range extra {
			params[k] = v
		}
		state := q.Get("state")
		if overrideState != "" {
			state = overrideState
		}
		params.Set("state", state)
		cb.RawQuery = params.Encode()

		go func() {
			resp, err := http.Get(cb.String())
			if err != nil {
				t.Logf("callback: %v", err)
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()
		return nil
	}
}

func newTestLoopback(open func(string) error) *LoopbackProvider {
	return &LoopbackProvider{
		ProviderURL:   "https://identity.example.test",
		MaxTimeToLive: 8 * time.Hour,
		Open:          open,
		log:           zerolog.Nop(),
	}
}

func TestLoopbackProvider_Success(t *testing.T) {
	t.Parallel()
	exp := time.Date(2031, 3, 4, 5, 6, 7, 0, time.UTC)
	seen := make(chan *url.URL, 1)
	p := newTestLoopback(redirectingOpener(t, url.Values{
		"principal":  {"aaaaa-aa"},
		"delegation": {"signed-delegation"},
		"expiration": {strconv.FormatInt(exp.UnixNano(), 10)},
	}, "", seen))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cred, err := p.Authenticate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aaaaa-aa", cred.Principal)
	assert.Equal(t, "signed-delegation", cred.Token)
	assert.True(t, exp.Equal(cred.Expiration))

	u := <-seen
	assert.Equal(t, "identity.example.test", u.Host)
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, strconv.FormatInt((8*time.Hour).Nanoseconds(), 10), u.Query().Get("max_time_to_live"))
}

func TestLoopbackProvider_ProviderError(t *testing.T) {
	t.Parallel()
	p := newTestLoopback(redirectingOpener(t, url.Values{"error": {"UserInterrupt"}}, "", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := p.Authenticate(ctx)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "UserInterrupt")
}

func TestLoopbackProvider_IgnoresForeignState(t *testing.T) {
	t.Parallel()
	p := newTestLoopback(redirectingOpener(t, url.Values{
		"principal":  {"mallory"},
		"delegation": {"forged"},
	}, "someone-else", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := p.Authenticate(ctx)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestLoopbackProvider_MalformedExpiration(t *testing.T) {
	t.Parallel()
	p := newTestLoopback(redirectingOpener(t, url.Values{
		"principal":  {"aaaaa-aa"},
		"delegation": {"d"},
		"expiration": {"soon"},
	}, "", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := p.Authenticate(ctx)
	assert.Equal(t, apperr.KindDataIntegrity, apperr.KindOf(err))
}

func TestLoopbackProvider_BadProviderURL(t *testing.T) {
	t.Parallel()
	p := newTestLoopback(nil)
	p.ProviderURL = "not-a-url"
	_, err := p.Authenticate(context.Background())
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
}

func TestLoopbackLoginThroughManager(t *testing.T) {
	t.Parallel()
	p := newTestLoopback(redirectingOpener(t, url.Values{
		"principal":  {"aaaaa-aa"},
		"delegation": {"d"},
	}, "", nil))
	m := NewManager(p, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := m.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aaaaa-aa", s.CallerID())
}
