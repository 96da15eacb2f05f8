package cloudauth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenStore persists one token per account.
type TokenStore interface {
	// Load returns ErrTokenNotFound when nothing is stored for account.
	Load(ctx context.Context, account string) (*Token, error)
	Save(ctx context.Context, account string, tok *Token) error
	Delete(ctx context.Context, account string) error
}

// SQLiteTokenStore keeps tokens in the cloud_tokens table.
type SQLiteTokenStore struct {
	db *sql.DB
}

// NewSQLiteTokenStore creates a store on db. The cloud_tokens migration
// must have been applied.
func NewSQLiteTokenStore(db *sql.DB) *SQLiteTokenStore {
	return &SQLiteTokenStore{db: db}
}

// Load retrieves the token saved for account.
func (s *SQLiteTokenStore) Load(ctx context.Context, account string) (*Token, error) {
	var (
		tok        Token
		receivedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, id_token, scope, acc_client_id, received_at, expires_in
		FROM cloud_tokens WHERE account = ?`, account,
	).Scan(&tok.AccessToken, &tok.RefreshToken, &tok.IDToken, &tok.Scope, &tok.AccClientID, &receivedAt, &tok.ExpiresIn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}

	tok.ReceivedAt, err = time.Parse(time.RFC3339, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing received_at: %w", err)
	}
	return &tok, nil
}

// Save inserts or replaces the token for account. ReceivedAt is stored at
// second precision, truncated so the restored local expiry is never later.
func (s *SQLiteTokenStore) Save(ctx context.Context, account string, tok *Token) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cloud_tokens (id, account, access_token, refresh_token, id_token, scope,
			acc_client_id, received_at, expires_in, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			id_token = excluded.id_token,
			scope = excluded.scope,
			acc_client_id = excluded.acc_client_id,
			received_at = excluded.received_at,
			expires_in = excluded.expires_in,
			updated_at = excluded.updated_at`,
		"tok-"+uuid.NewString(), account,
		tok.AccessToken, tok.RefreshToken, tok.IDToken, tok.Scope, tok.AccClientID,
		tok.ReceivedAt.UTC().Truncate(time.Second).Format(time.RFC3339), tok.ExpiresIn,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Delete removes the token for account. Deleting a missing token is not an error.
func (s *SQLiteTokenStore) Delete(ctx context.Context, account string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cloud_tokens WHERE account = ?", account); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
