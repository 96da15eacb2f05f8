package cloudauth

import (
	"context"
	"encoding/json"
	"net/http"
)

// UserInfo is the identity provider's profile for the logged-in account.
type UserInfo struct {
	Subject       string `json:"sub"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	UpdatedAt     string `json:"updated_at"`
}

// UserInfo fetches the profile of the logged-in account.
func (s *Session) UserInfo(ctx context.Context) (*UserInfo, error) {
	if err := s.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}

	tok := s.Token()
	if tok == nil {
		return nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.AuthURL+"/userinfo", nil)
	if err != nil {
		return nil, &RequestError{Name: StepUserInfo, Err: err}
	}
	req.Header.Set("Auth0-Client", Auth0Client)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	_, body, err := s.call(s.apiClient, req, StepUserInfo, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &ParseError{Name: StepUserInfo, Err: err}
	}
	return &info, nil
}
