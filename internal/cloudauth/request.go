package cloudauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ExecuteGet performs an authenticated GET and returns the JSON body.
//
// Parameters:
//   - ctx: Cancels login, refresh and the call itself
//   - url: Absolute backend URL
//   - name: Call name used in errors and traces
//   - expectedStatus: Status code the call must return
func (s *Session) ExecuteGet(ctx context.Context, url, name string, expectedStatus int) (json.RawMessage, error) {
	return s.execute(ctx, http.MethodGet, url, nil, name, expectedStatus)
}

// ExecutePost performs an authenticated POST of body encoded as JSON and
// returns the JSON response.
func (s *Session) ExecutePost(ctx context.Context, url string, body any, name string, expectedStatus int) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cloudauth: %s: encoding request: %w", name, err)
	}
	return s.execute(ctx, http.MethodPost, url, payload, name, expectedStatus)
}

func (s *Session) execute(ctx context.Context, method, url string, payload []byte, name string, expected int) (json.RawMessage, error) {
	if err := s.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}

	tok := s.Token()
	if tok == nil {
		// Logged out between EnsureLoggedIn and here.
		return nil, ErrNoToken
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &RequestError{Name: name, Err: err}
	}
	req.Header = s.apiHeaders(tok)

	_, respBody, err := s.call(s.apiClient, req, name, expected)
	if err != nil {
		return nil, err
	}
	return decodeJSON(name, respBody)
}

// apiHeaders builds the headers every backend call carries. A fresh API key
// is generated per call. x-client-id is omitted until the backend issued one.
func (s *Session) apiHeaders(tok *Token) http.Header {
	h := http.Header{}
	h.Set("Content-Type", contentTypeJSON)
	h.Set("X-App-Name", appName)
	h.Set("User-Agent", appUserAgent)
	h.Set("X-App-Timestamp", s.now().Format(timestampLayout))
	h.Set("X-App-Type", appType)
	h.Set("X-App-Version", s.AppVersion())
	h.Set("X-Cfc-Api-Key", RandomHex(apiKeyLength, s.rand))
	if tok.AccClientID != "" {
		h.Set("X-Client-Id", tok.AccClientID)
	}
	h.Set("X-User-Authorization-V2", "Bearer "+tok.AccessToken)
	return h
}

// Logout ends the backend session. On success the local token is dropped
// and removed from the store; on failure the session is left unchanged.
// A non-zero result code in the response is logged, not returned.
func (s *Session) Logout(ctx context.Context) error {
	s.flowMu.Lock()
	defer s.flowMu.Unlock()

	tok := s.Token()
	if tok == nil {
		return ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL+"/auth/v2/logout", nil)
	if err != nil {
		return &RequestError{Name: StepLogout, Err: err}
	}
	req.Header = s.apiHeaders(tok)

	_, body, err := s.call(s.apiClient, req, StepLogout, http.StatusOK)
	if err != nil {
		return err
	}

	var out struct {
		Result int `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		s.logger.Warn("unreadable logout response", "error", err)
	} else if out.Result != 0 {
		s.logger.Warn("logout returned non-zero result", "result", out.Result)
	}

	s.clearToken(ctx)
	s.logger.Info("cloud session logged out", "account", s.account())
	return nil
}

var errInvalidJSON = errors.New("body is not valid JSON")

func decodeJSON(name string, body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, &ParseError{Name: name, Err: errInvalidJSON}
	}
	return json.RawMessage(body), nil
}
