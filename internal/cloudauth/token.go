package cloudauth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is the credential set for one cloud session.
//
// A Token is built whole and never mutated afterwards; the session swaps
// the pointer it holds, so a *Token obtained from Session.Token is stable.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`

	// ReceivedAt is the clock reading taken just before the token request.
	ReceivedAt time.Time `json:"received_at"`

	// ExpiresIn is the lifetime in seconds declared by the provider.
	ExpiresIn int64 `json:"expires_in"`

	// AccClientID is the backend client identifier sent as x-client-id.
	// Refresh does not reissue it, so it is carried across refreshes.
	AccClientID string `json:"acc_client_id"`

	Scope string `json:"scope"`
}

// State is the derived lifecycle state of a session's token.
type State string

const (
	StateNoToken State = "no_token"
	StateValid   State = "valid"
	StateExpired State = "expired"
)

// StateOf classifies t at the given time.
func StateOf(t *Token, now time.Time) State {
	switch {
	case t == nil:
		return StateNoToken
	case t.IsValid(now):
		return StateValid
	default:
		return StateExpired
	}
}

// LocalExpiry returns ReceivedAt plus the declared lifetime.
func (t *Token) LocalExpiry() time.Time {
	return t.ReceivedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// ClaimExpiry returns the exp claim embedded in the access token.
func (t *Token) ClaimExpiry() (time.Time, error) {
	return ExpiryClaim(t.AccessToken)
}

// ExpiresAt returns the earlier of the claim and local expiries. When the
// claim cannot be decoded the local expiry is returned.
func (t *Token) ExpiresAt() time.Time {
	local := t.LocalExpiry()
	claim, err := t.ClaimExpiry()
	if err != nil || local.Before(claim) {
		return local
	}
	return claim
}

// IsValid reports whether now is past neither the exp claim nor the local
// expiry. A nil token, or one whose claim cannot be read, is not valid.
func (t *Token) IsValid(now time.Time) bool {
	if t == nil {
		return false
	}
	exp, err := ExpiryClaim(t.AccessToken)
	if err != nil {
		return false
	}
	if now.After(exp) {
		return false
	}
	return !now.After(t.LocalExpiry())
}

// ExpiryClaim decodes segment 1 of a dot-separated access token and returns
// its exp claim. The segment is base64url, padded here to a multiple of 4.
// The signature is not verified.
func ExpiryClaim(accessToken string) (time.Time, error) {
	parts := strings.Split(accessToken, ".")
	if len(parts) < 2 {
		return time.Time{}, ErrMalformedToken
	}

	segment := parts[1]
	if rem := len(segment) % 4; rem != 0 {
		segment += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.URLEncoding.DecodeString(segment)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp == nil {
		return time.Time{}, ErrMissingExpiry
	}
	return exp.Time, nil
}

// tokenResponse is the oauth/token response body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func (r tokenResponse) token(receivedAt time.Time, accClientID string) *Token {
	return &Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		IDToken:      r.IDToken,
		ReceivedAt:   receivedAt,
		ExpiresIn:    r.ExpiresIn,
		AccClientID:  accClientID,
		Scope:        r.Scope,
	}
}
