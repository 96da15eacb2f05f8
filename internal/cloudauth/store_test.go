package cloudauth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-bridges/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-bridges/migrations"
)

func openStore(t *testing.T) *SQLiteTokenStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "tokens.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteTokenStore(db.DB)
}

func TestSQLiteTokenStore(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, "nobody"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("Load() missing error = %v, want ErrTokenNotFound", err)
	}

	tok := &Token{
		AccessToken:  syntheticAccessToken(`{"exp":2000000000}`),
		RefreshToken: "refresh-1",
		IDToken:      "id-1",
		ReceivedAt:   time.Date(2026, 3, 1, 12, 0, 0, 900_000_000, time.UTC),
		ExpiresIn:    86400,
		AccClientID:  "acc-1",
		Scope:        Scope,
	}
	if err := store.Save(ctx, testUsername, tok); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, testUsername)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.AccessToken != tok.AccessToken || got.RefreshToken != "refresh-1" || got.IDToken != "id-1" ||
		got.AccClientID != "acc-1" || got.Scope != Scope || got.ExpiresIn != 86400 {
		t.Errorf("Load() = %+v, want %+v", got, tok)
	}
	// Sub-second precision is dropped downwards.
	if want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC); !got.ReceivedAt.Equal(want) {
		t.Errorf("ReceivedAt = %v, want %v", got.ReceivedAt, want)
	}

	// Save again replaces the row for the same account.
	replaced := *tok
	replaced.RefreshToken = "refresh-2"
	if err := store.Save(ctx, testUsername, &replaced); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, err = store.Load(ctx, testUsername)
	if err != nil || got.RefreshToken != "refresh-2" {
		t.Errorf("Load() after replace = %+v, %v", got, err)
	}

	if err := store.Delete(ctx, testUsername); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, testUsername); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Load() after Delete error = %v, want ErrTokenNotFound", err)
	}
	if err := store.Delete(ctx, testUsername); err != nil {
		t.Errorf("Delete() of missing token error = %v", err)
	}
}
