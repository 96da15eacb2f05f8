package cloudauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// exchange runs the full authorization-code flow and returns a new token.
// Nothing is stored; the caller assigns the result.
func (s *Session) exchange(ctx context.Context) (*Token, error) {
	state := RandomString(stateLength, s.rand)
	verifier := RandomString(verifierLength, s.rand)

	client, err := s.loginClient()
	if err != nil {
		return nil, authError(StepAuthorize, err)
	}

	resp, err := s.authorize(ctx, client, state, oauth2.S256ChallengeFromVerifier(verifier))
	if err != nil {
		return nil, authError(StepAuthorize, err)
	}

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, RedirectURI) {
		resp, err = s.interactiveLogin(ctx, client, location)
		if err != nil {
			return nil, err
		}
	}

	code := queryParam(resp.Header.Get("Location"), "code")
	if code == "" {
		return nil, authError(StepGetToken, ErrMissingCode)
	}

	// Taken before the request so the local expiry errs early.
	receivedAt := s.now()

	tr, err := s.requestToken(ctx, client, StepGetToken, map[string]string{
		"scope":         "openid",
		"client_id":     AppClientID,
		"grant_type":    "authorization_code",
		"code":          code,
		"redirect_uri":  RedirectURI,
		"code_verifier": verifier,
	})
	if err != nil {
		return nil, authError(StepGetToken, err)
	}

	accClientID, err := s.accClientID(ctx, tr.AccessToken)
	if err != nil {
		return nil, authError(StepGetAccClientID, err)
	}

	return tr.token(receivedAt, accClientID), nil
}

func (s *Session) authorize(ctx context.Context, client *http.Client, state, challenge string) (*http.Response, error) {
	q := url.Values{}
	q.Set("scope", Scope)
	q.Set("audience", Audience)
	q.Set("protocol", "oauth2")
	q.Set("response_type", "code")
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("auth0Client", Auth0Client)
	q.Set("client_id", AppClientID)
	q.Set("redirect_uri", RedirectURI)
	q.Set("state", state)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.AuthURL+"/authorize?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", okhttpUserAgent)

	resp, _, err := s.call(client, req, StepAuthorize, http.StatusFound)
	return resp, err
}

// interactiveLogin submits the credentials and walks the redirect chain
// until the provider issues a Location carrying the authorization code.
func (s *Session) interactiveLogin(ctx context.Context, client *http.Client, location string) (*http.Response, error) {
	// The provider echoes its own state in the redirect; later steps use it.
	state := queryParam(location, "state")

	target, err := s.resolve(location)
	if err != nil {
		return nil, authError(StepAuthorizeRedirect, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, authError(StepAuthorizeRedirect, err)
	}
	resp, _, err := s.call(client, req, StepAuthorizeRedirect, http.StatusOK)
	if err != nil {
		return nil, authError(StepAuthorizeRedirect, err)
	}

	csrf := cookieValue(resp, "_csrf")
	if csrf == "" {
		return nil, authError(StepAuthorizeRedirect, ErrMissingCSRF)
	}

	form, err := s.submitCredentials(ctx, client, csrf, state)
	if err != nil {
		return nil, authError(StepLogin, err)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AuthURL+"/login/callback",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, authError(StepLoginCallback, err)
	}
	req.Header.Set("Content-Type", contentTypeForm)
	req.Header.Set("User-Agent", browserUserAgent)

	resp, _, err = s.call(client, req, StepLoginCallback, http.StatusFound)
	if err != nil {
		return nil, authError(StepLoginCallback, err)
	}

	target, err = s.resolve(resp.Header.Get("Location"))
	if err != nil {
		return nil, authError(StepLoginRedirect, err)
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, authError(StepLoginRedirect, err)
	}
	resp, _, err = s.call(client, req, StepLoginRedirect, http.StatusFound)
	if err != nil {
		return nil, authError(StepLoginRedirect, err)
	}
	return resp, nil
}

// submitCredentials posts the username and password and returns the hidden
// form fields of the page the provider answers with. The fields are passed
// on to login/callback untouched.
func (s *Session) submitCredentials(ctx context.Context, client *http.Client, csrf, state string) (url.Values, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     AppClientID,
		"redirect_uri":  RedirectURI,
		"tenant":        tenant,
		"response_type": "code",
		"scope":         Scope,
		"audience":      Audience,
		"_csrf":         csrf,
		"state":         state,
		"_intstate":     "deprecated",
		"username":      s.cfg.Username,
		"password":      s.cfg.Password,
		"lang":          "en",
		"connection":    connection,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AuthURL+"/usernamepassword/login",
		bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Auth0-Client", Auth0Client)
	req.Header.Set("User-Agent", okhttpUserAgent)

	_, body, err := s.call(client, req, StepLogin, http.StatusOK)
	if err != nil {
		return nil, err
	}

	fields, err := hiddenInputs(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Name: StepLogin, Err: err}
	}
	return fields, nil
}

var errMissingTokens = errors.New("token response missing access or refresh token")

// requestToken posts a grant to oauth/token and decodes the token set.
func (s *Session) requestToken(ctx context.Context, client *http.Client, step string, grant map[string]string) (tokenResponse, error) {
	payload, err := json.Marshal(grant)
	if err != nil {
		return tokenResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AuthURL+"/oauth/token",
		bytes.NewReader(payload))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Auth0-Client", Auth0Client)
	req.Header.Set("User-Agent", okhttpUserAgent)

	_, body, err := s.call(client, req, step, http.StatusOK)
	if err != nil {
		return tokenResponse{}, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return tokenResponse{}, &ParseError{Name: step, Err: err}
	}
	if tr.AccessToken == "" || tr.RefreshToken == "" {
		return tokenResponse{}, &ParseError{Name: step, Err: errMissingTokens}
	}
	return tr, nil
}

// accClientID bootstraps the backend session and returns its client id.
func (s *Session) accClientID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL+"/auth/v2/login",
		strings.NewReader(`{"language":0}`))
	if err != nil {
		return "", err
	}
	req.Header = s.apiHeaders(&Token{AccessToken: accessToken})

	_, body, err := s.call(s.apiClient, req, StepGetAccClientID, http.StatusOK)
	if err != nil {
		return "", err
	}

	var out struct {
		ClientID string `json:"clientId"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &ParseError{Name: StepGetAccClientID, Err: err}
	}
	if out.ClientID == "" {
		return "", ErrMissingClientID
	}
	return out.ClientID, nil
}

// resolve turns a Location header into an absolute URL on the identity provider.
func (s *Session) resolve(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("redirect without Location header")
	}
	base, err := url.Parse(s.cfg.AuthURL + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parsing Location %q: %w", location, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func queryParam(location, key string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
