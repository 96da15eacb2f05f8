package cloudauth

import (
	"context"
	"net/http"
)

// refresh trades current's refresh token for a new token set. It is only
// reached from EnsureLoggedIn once a token is held. The backend client id is
// not reissued by the provider and is carried over from current.
func (s *Session) refresh(ctx context.Context, current *Token) (*Token, error) {
	receivedAt := s.now()

	client := &http.Client{
		Transport:     s.transport,
		Timeout:       s.cfg.Timeout,
		CheckRedirect: noRedirect,
	}

	tr, err := s.requestToken(ctx, client, StepRefreshToken, map[string]string{
		"scope":         current.Scope,
		"client_id":     AppClientID,
		"refresh_token": current.RefreshToken,
		"grant_type":    "refresh_token",
	})
	if err != nil {
		return nil, authError(StepRefreshToken, err)
	}

	return tr.token(receivedAt, current.AccClientID), nil
}
