package cloudauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/logging"
)

// Config is the immutable configuration of a Session.
type Config struct {
	Username string
	Password string

	// Trace sends every response to the Tracer.
	Trace bool

	// AuthURL and APIURL default to DefaultAuthURL and DefaultAPIURL.
	AuthURL string
	APIURL  string

	// AppVersion is sent as x-app-version until DetectAppVersion finds a newer one.
	AppVersion string

	// AppVersionURL is the store page scraped by DetectAppVersion.
	AppVersionURL string

	// Timeout bounds each HTTP call. Zero means no client-side timeout.
	Timeout time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithTransport sets the HTTP transport used for every call.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Session) { s.transport = rt }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRandSource sets the source for state, verifier and API key values.
func WithRandSource(src Source) Option {
	return func(s *Session) { s.rand = src }
}

// WithTracer sets the trace sink used when Config.Trace is true.
func WithTracer(t Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithTokenStore persists tokens across restarts.
func WithTokenStore(store TokenStore) Option {
	return func(s *Session) { s.store = store }
}

// WithLogger sets the session logger.
func WithLogger(l Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session owns one authenticated session against the cloud.
type Session struct {
	cfg       Config
	transport http.RoundTripper
	now       func() time.Time
	rand      Source
	tracer    Tracer
	store     TokenStore
	logger    Logger

	// apiClient follows redirects; login calls use a fresh client per flow.
	apiClient *http.Client

	// flowMu serialises EnsureLoggedIn, refresh and Logout.
	flowMu sync.Mutex

	// mu guards token and appVersion.
	mu         sync.RWMutex
	token      *Token
	appVersion string
}

// New creates a Session with no token.
func New(cfg Config, opts ...Option) (*Session, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("cloudauth: username and password are required")
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.AppVersion == "" {
		cfg.AppVersion = DefaultAppVersion
	}
	cfg.AuthURL = strings.TrimRight(cfg.AuthURL, "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	s := &Session{
		cfg:        cfg,
		transport:  http.DefaultTransport,
		now:        time.Now,
		logger:     noopLogger{},
		appVersion: cfg.AppVersion,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = NewSource()
	}
	if s.cfg.Trace && s.tracer == nil {
		s.tracer = NewLogTracer(s.logger)
	}

	s.apiClient = &http.Client{Transport: s.transport, Timeout: cfg.Timeout}
	return s, nil
}

// Username returns the account the session logs in as.
func (s *Session) Username() string {
	return s.cfg.Username
}

// account is the username as it may appear in logs.
func (s *Session) account() string {
	return logging.Redact(s.cfg.Username)
}

// APIURL returns the backend base URL without a trailing slash.
func (s *Session) APIURL() string {
	return s.cfg.APIURL
}

// Token returns the held token, or nil when no session is established.
// The returned value must not be modified.
func (s *Session) Token() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the token lifecycle state at the current time.
func (s *Session) State() State {
	return StateOf(s.Token(), s.now())
}

// AppVersion returns the x-app-version header value in use.
func (s *Session) AppVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appVersion
}

// EnsureLoggedIn establishes a valid token. With no token it runs the full
// authorization-code exchange; with an invalid token it refreshes; with a
// valid token it makes no network calls.
func (s *Session) EnsureLoggedIn(ctx context.Context) error {
	s.flowMu.Lock()
	defer s.flowMu.Unlock()

	current := s.Token()
	if current == nil {
		tok, err := s.exchange(ctx)
		if err != nil {
			return err
		}
		s.setToken(ctx, tok)
		s.logger.Info("cloud session established", "account", s.account())
		return nil
	}

	if current.IsValid(s.now()) {
		return nil
	}

	tok, err := s.refresh(ctx, current)
	if err != nil {
		return err
	}
	s.setToken(ctx, tok)
	s.logger.Debug("cloud token refreshed", "expires_at", tok.ExpiresAt())
	return nil
}

// Restore loads a previously saved token for this account. A missing token
// leaves the session empty.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	tok, err := s.store.Load(ctx, s.cfg.Username)
	if errors.Is(err, ErrTokenNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restoring token: %w", err)
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	s.logger.Info("cloud token restored", "account", s.account(), "state", StateOf(tok, s.now()))
	return nil
}

// setToken swaps in tok and persists it. Persistence failures are logged.
func (s *Session) setToken(ctx context.Context, tok *Token) {
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.cfg.Username, tok); err != nil {
		s.logger.Warn("failed to persist cloud token", "error", err)
	}
}

func (s *Session) clearToken(ctx context.Context) {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, s.cfg.Username); err != nil {
		s.logger.Warn("failed to delete stored cloud token", "error", err)
	}
}

// loginClient returns a client with its own cookie jar that never follows
// redirects, so each Location can be inspected.
func (s *Session) loginClient() (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &http.Client{
		Transport:     s.transport,
		Jar:           jar,
		Timeout:       s.cfg.Timeout,
		CheckRedirect: noRedirect,
	}, nil
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// call sends req, reads the body, traces the response when enabled and
// checks the status code.
func (s *Session) call(client *http.Client, req *http.Request, name string, expected int) (*http.Response, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, &RequestError{Name: name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, &RequestError{Name: name, Err: err}
	}

	if s.cfg.Trace && s.tracer != nil {
		s.tracer.TraceResponse(name, resp, body)
	}

	if resp.StatusCode != expected {
		return resp, body, &ResponseError{
			Name:     name,
			Expected: expected,
			Actual:   resp.StatusCode,
			Body:     string(body),
		}
	}
	return resp, body, nil
}
