package cloudauth

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	testUsername = "user@example.com"
	testPassword = "correct horse"
	testCSRF     = "csrf-token-1"
	testIdPState = "idp-state-1"
	testClientID = "acc-client-1"
)

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_760_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeCloud serves the identity provider and backend endpoints on one server.
type fakeCloud struct {
	t     *testing.T
	srv   *httptest.Server
	clock *fakeClock

	mu            sync.Mutex
	calls         []string
	grants        []string
	challenge     string
	issued        int
	lastRefresh   string
	lastHeaders   http.Header
	skipLogin     bool
	omitCode      bool
	tokenStatus   int
	refreshStatus int
	logoutStatus  int
	logoutResult  int
	tokenLifetime time.Duration
}

func newFakeCloud(t *testing.T, clock *fakeClock) *fakeCloud {
	t.Helper()
	f := &fakeCloud{t: t, clock: clock, tokenLifetime: time.Hour}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /authorize", f.handleAuthorize)
	mux.HandleFunc("GET /u/login", f.handleLoginPage)
	mux.HandleFunc("POST /usernamepassword/login", f.handleCredentials)
	mux.HandleFunc("POST /login/callback", f.handleCallback)
	mux.HandleFunc("GET /authorize/resume", f.handleResume)
	mux.HandleFunc("POST /oauth/token", f.handleToken)
	mux.HandleFunc("POST /auth/v2/login", f.handleAccLogin)
	mux.HandleFunc("POST /auth/v2/logout", f.handleLogout)
	mux.HandleFunc("GET /userinfo", f.handleUserInfo)
	mux.HandleFunc("GET /device/group", f.handleDevices)
	mux.HandleFunc("POST /echo", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastHeaders = r.Header.Clone()
		f.mu.Unlock()
		_, _ = io.Copy(w, r.Body)
	})
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>not json</html>"))
	})
	mux.HandleFunc("GET /store", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta itemprop="softwareVersion" content=" 1.22.1 "></head></html>`))
	})

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// session returns a Session pointed at the fake with deterministic randomness.
func (f *fakeCloud) session(opts ...Option) *Session {
	f.t.Helper()
	base := []Option{
		WithClock(f.clock.Now),
		WithRandSource(rand.New(rand.NewPCG(1, 2))),
	}
	s, err := New(Config{
		Username:      testUsername,
		Password:      testPassword,
		AuthURL:       f.srv.URL,
		APIURL:        f.srv.URL,
		AppVersionURL: f.srv.URL + "/store",
	}, append(base, opts...)...)
	if err != nil {
		f.t.Fatalf("New() error = %v", err)
	}
	return s
}

func (f *fakeCloud) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeCloud) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCloud) resetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.grants = nil
	f.mu.Unlock()
}

func (f *fakeCloud) grantTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.grants...)
}

func (f *fakeCloud) set(fn func(*fakeCloud)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeCloud) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("code_challenge_method") != "S256" || q.Get("client_id") != AppClientID || q.Get("redirect_uri") != RedirectURI {
		http.Error(w, "bad authorize request", http.StatusBadRequest)
		return
	}
	if len(q.Get("state")) != stateLength {
		http.Error(w, "bad state", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.challenge = q.Get("code_challenge")
	skip, omit := f.skipLogin, f.omitCode
	f.mu.Unlock()

	switch {
	case skip && omit:
		w.Header().Set("Location", RedirectURI+"?state=abc123")
	case skip:
		w.Header().Set("Location", RedirectURI+"?state=abc123&code=direct-code")
	default:
		w.Header().Set("Location", "/u/login?state="+testIdPState)
	}
	w.WriteHeader(http.StatusFound)
}

func (f *fakeCloud) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "_csrf", Value: testCSRF, Path: "/"})
	_, _ = w.Write([]byte("<html><body>login</body></html>"))
}

func (f *fakeCloud) handleCredentials(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if c, err := r.Cookie("_csrf"); err != nil || c.Value != testCSRF {
		http.Error(w, "missing csrf cookie", http.StatusForbidden)
		return
	}
	if body["_csrf"] != testCSRF || body["state"] != testIdPState {
		http.Error(w, "csrf/state mismatch", http.StatusForbidden)
		return
	}
	if body["username"] != testUsername || body["password"] != testPassword {
		http.Error(w, "wrong credentials", http.StatusUnauthorized)
		return
	}
	_, _ = w.Write([]byte(`<html><body><form method="post" action="/login/callback">
		<input type="hidden" name="wa" value="wsignin1.0">
		<input type="HIDDEN" name="wresult" value="signed-result">
		<input type="hidden" name="wctx" value='{"strategy":"auth0"}'>
		<input type="text" name="visible" value="skip-me">
		<noscript><input type="submit" value="Continue"></noscript>
	</form></body></html>`))
}

func (f *fakeCloud) handleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("wa") != "wsignin1.0" || r.PostForm.Get("wresult") != "signed-result" ||
		r.PostForm.Get("wctx") != `{"strategy":"auth0"}` || r.PostForm.Has("visible") {
		http.Error(w, "unexpected callback form", http.StatusBadRequest)
		return
	}
	w.Header().Set("Location", "/authorize/resume?state="+testIdPState)
	w.WriteHeader(http.StatusFound)
}

func (f *fakeCloud) handleResume(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Location", RedirectURI+"?code=interactive-code&state="+testIdPState)
	w.WriteHeader(http.StatusFound)
}

func (f *fakeCloud) handleToken(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, body["grant_type"])

	switch body["grant_type"] {
	case "authorization_code":
		if f.tokenStatus != 0 {
			http.Error(w, "token endpoint unavailable", f.tokenStatus)
			return
		}
		if body["code"] == "" || oauth2.S256ChallengeFromVerifier(body["code_verifier"]) != f.challenge {
			http.Error(w, "pkce mismatch", http.StatusForbidden)
			return
		}
	case "refresh_token":
		if f.refreshStatus != 0 {
			http.Error(w, `{"error":"invalid_grant"}`, f.refreshStatus)
			return
		}
		if body["refresh_token"] != f.lastRefresh {
			http.Error(w, "unknown refresh token", http.StatusForbidden)
			return
		}
	default:
		http.Error(w, "unsupported grant", http.StatusBadRequest)
		return
	}

	f.issued++
	f.lastRefresh = fmt.Sprintf("refresh-%d", f.issued)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  signedAccessToken(f.t, f.clock.Now().Add(f.tokenLifetime), f.issued),
		"refresh_token": f.lastRefresh,
		"id_token":      fmt.Sprintf("id-%d", f.issued),
		"scope":         Scope,
		"expires_in":    int64(f.tokenLifetime / time.Second),
		"token_type":    "Bearer",
	})
}

func (f *fakeCloud) handleAccLogin(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("X-User-Authorization-V2"), "Bearer ey") {
		http.Error(w, "missing bearer", http.StatusUnauthorized)
		return
	}
	_, _ = w.Write([]byte(`{"clientId":"` + testClientID + `"}`))
}

func (f *fakeCloud) handleLogout(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	status, result := f.logoutStatus, f.logoutResult
	f.mu.Unlock()
	if status != 0 {
		http.Error(w, "logout failed", status)
		return
	}
	_, _ = fmt.Fprintf(w, `{"result":%d}`, result)
}

func (f *fakeCloud) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Auth0-Client") != Auth0Client || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	_, _ = w.Write([]byte(`{"sub":"auth0|42","email":"user@example.com","email_verified":true}`))
}

func (f *fakeCloud) handleDevices(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.lastHeaders = r.Header.Clone()
	f.mu.Unlock()
	_, _ = w.Write([]byte(`{"groupList":[]}`))
}

// signedAccessToken returns a JWT with the given exp.
func signedAccessToken(t *testing.T, exp time.Time, n int) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "auth0|42",
		"jti": fmt.Sprintf("jti-%d", n),
	}).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Errorf("signing token: %v", err)
	}
	return tok
}
