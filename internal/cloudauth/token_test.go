package cloudauth

import (
	"encoding/base64"
	"errors"
	"strconv"
	"testing"
	"time"
)

// syntheticAccessToken builds "header.<claims>.sig" with padded base64url claims.
func syntheticAccessToken(claims string) string {
	return "header." + base64.URLEncoding.EncodeToString([]byte(claims)) + ".sig"
}

func TestExpiryClaim_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"padded segment", syntheticAccessToken(`{"exp":123}`)},
		{"unpadded segment", "header." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":123}`)) + ".sig"},
		{"extra claims", syntheticAccessToken(`{"sub":"auth0|1","exp":123,"aud":["a","b"]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := ExpiryClaim(tt.token)
			if err != nil {
				t.Fatalf("ExpiryClaim() error = %v", err)
			}
			if exp.Unix() != 123 {
				t.Errorf("exp = %d, want 123", exp.Unix())
			}
		})
	}
}

func TestExpiryClaim_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"no segments", "opaque", ErrMalformedToken},
		{"not base64", "header.!!!.sig", ErrMalformedToken},
		{"not json", syntheticAccessToken("not-json"), ErrMalformedToken},
		{"exp wrong type", syntheticAccessToken(`{"exp":"soon"}`), ErrMalformedToken},
		{"no exp", syntheticAccessToken(`{"sub":"x"}`), ErrMissingExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExpiryClaim(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("ExpiryClaim() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestToken_IsValid(t *testing.T) {
	tok := func(exp int, receipt int64, lifetime int64) *Token {
		return &Token{
			AccessToken: syntheticAccessToken(`{"exp":` + strconv.Itoa(exp) + `}`),
			ReceivedAt:  time.Unix(receipt, 0),
			ExpiresIn:   lifetime,
		}
	}

	tests := []struct {
		name  string
		token *Token
		now   int64
		want  bool
	}{
		{"nil token", nil, 0, false},
		{"both unexpired", tok(100, 50, 40), 85, true},
		{"local expiry trips first", tok(100, 50, 40), 95, false},
		{"claim trips first", tok(100, 50, 1000), 101, false},
		{"exactly at local expiry", tok(100, 50, 40), 90, true},
		{"exactly at claim", tok(100, 50, 1000), 100, true},
		{"both expired", tok(100, 50, 40), 200, false},
		{"undecodable claim", &Token{AccessToken: "opaque", ReceivedAt: time.Unix(50, 0), ExpiresIn: 1000}, 60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.IsValid(time.Unix(tt.now, 0)); got != tt.want {
				t.Errorf("IsValid(%d) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestToken_ExpiresAt(t *testing.T) {
	tok := &Token{
		AccessToken: syntheticAccessToken(`{"exp":100}`),
		ReceivedAt:  time.Unix(50, 0),
		ExpiresIn:   40,
	}
	if got := tok.ExpiresAt().Unix(); got != 90 {
		t.Errorf("ExpiresAt() = %d, want 90 (local)", got)
	}

	tok.ExpiresIn = 1000
	if got := tok.ExpiresAt().Unix(); got != 100 {
		t.Errorf("ExpiresAt() = %d, want 100 (claim)", got)
	}
}

func TestStateOf(t *testing.T) {
	valid := &Token{AccessToken: syntheticAccessToken(`{"exp":100}`), ReceivedAt: time.Unix(0, 0), ExpiresIn: 100}

	tests := []struct {
		name  string
		token *Token
		now   int64
		want  State
	}{
		{"absent", nil, 0, StateNoToken},
		{"valid", valid, 50, StateValid},
		{"expired", valid, 150, StateExpired},
	}
	for _, tt := range tests {
		if got := StateOf(tt.token, time.Unix(tt.now, 0)); got != tt.want {
			t.Errorf("%s: StateOf() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
