package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"

	apperr "github.com/ve11yn/dochi/internal/errors"
	"github.com/ve11yn/dochi/internal/logger"
)

// LoopbackProvider runs the identity provider's browser flow. It serves a
// callback on a 127.0.0.1 listener, opens the provider's authorize page with
// that callback as redirect target and waits for the provider to redirect
// back with a delegation or an error.
type LoopbackProvider struct {
	// ProviderURL is the identity provider origin.
	ProviderURL string
	// MaxTimeToLive is requested from the provider for the delegation.
	MaxTimeToLive time.Duration
	// ListenAddr defaults to 127.0.0.1:0.
	ListenAddr string
	// Open launches the authorize URL; defaults to the system browser.
	Open func(url string) error

	log zerolog.Logger
}

// NewLoopbackProvider returns a provider for the identity provider at
// providerURL.
func NewLoopbackProvider(providerURL string, ttl time.Duration) *LoopbackProvider {
	return &LoopbackProvider{
		ProviderURL:   providerURL,
		MaxTimeToLive: ttl,
		Open:          browser.OpenURL,
		log:           logger.New("identity.loopback"),
	}
}

type callbackOutcome struct {
	cred Credential
	err  error
}

// Authenticate blocks until the provider redirects back or ctx ends.
func (p *LoopbackProvider) Authenticate(ctx context.Context) (Credential, error) {
	addr := p.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Credential{}, apperr.NewNetworkError("identity.loopback", err)
	}

	state := uuid.NewString()
	results := make(chan callbackOutcome, 1)
	var once sync.Once
	resolve := func(o callbackOutcome) {
		once.Do(func() { results <- o })
	}

	r := mux.NewRouter()
	r.HandleFunc("/callback", p.callbackHandler(state, resolve)).Methods(http.MethodGet)
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			resolve(callbackOutcome{err: apperr.NewNetworkError("identity.loopback", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL, err := p.authorizeURL(fmt.Sprintf("http://%s/callback", ln.Addr()), state)
	if err != nil {
		return Credential{}, apperr.Wrap(apperr.KindConfig, "identity.loopback", err)
	}
	p.log.Info().Str("url", authURL).Msg("waiting for identity provider")
	if p.Open != nil {
		if err := p.Open(authURL); err != nil {
			// The user can still open the logged URL by hand.
			p.log.Warn().Err(err).Msg("could not open browser")
		}
	}

	select {
	case o := <-results:
		return o.cred, o.err
	case <-ctx.Done():
		return Credential{}, apperr.Wrap(apperr.KindUnauthenticated, "identity.loopback", ctx.Err())
	}
}

func (p *LoopbackProvider) authorizeURL(redirect, state string) (string, error) {
	u, err := url.Parse(p.ProviderURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("identity provider url %q is not absolute", p.ProviderURL)
	}
	u.Path = "/authorize"
	q := url.Values{}
	q.Set("redirect_uri", redirect)
	q.Set("state", state)
	if p.MaxTimeToLive > 0 {
		q.Set("max_time_to_live", strconv.FormatInt(p.MaxTimeToLive.Nanoseconds(), 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *LoopbackProvider) callbackHandler(state string, resolve func(callbackOutcome)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			// not our flow; keep waiting
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		if msg := q.Get("error"); msg != "" {
			resolve(callbackOutcome{err: apperr.New(apperr.KindUnauthenticated, "identity.loopback", msg)})
			writeDone(w, "Login failed: "+msg)
			return
		}

		cred := Credential{Principal: q.Get("principal"), Token: q.Get("delegation")}
		if exp := q.Get("expiration"); exp != "" {
			ns, err := strconv.ParseInt(exp, 10, 64)
			if err != nil {
				resolve(callbackOutcome{err: apperr.New(apperr.KindDataIntegrity, "identity.loopback", "malformed expiration "+exp)})
				writeDone(w, "Login failed.")
				return
			}
			cred.Expiration = time.Unix(0, ns).UTC()
		}
		resolve(callbackOutcome{cred: cred})
		writeDone(w, "Login complete. You can close this window.")
	}
}

func writeDone(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(msg + "\n"))
}
