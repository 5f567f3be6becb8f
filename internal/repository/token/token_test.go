package token

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"labelshop/internal/domain"
	"labelshop/internal/migrate"
)

func TestPostgres_LifecycleAndExpirySweep(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping integration test")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, events, products, tokens, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	var userID string
	if err := pool.QueryRow(ctx, `INSERT INTO users (username, email, password_hash) VALUES ('tok', 'tok@example.com', 'x') RETURNING id::text`).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	repo := NewPostgres(pool)
	now := time.Now().UTC()
	for _, tok := range []Token{
		{Token: "live", UserID: userID, Kind: KindRefresh, ExpiresAt: now.Add(time.Hour)},
		{Token: "stale", UserID: userID, Kind: KindRefresh, ExpiresAt: now.Add(-time.Minute)},
	} {
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("create %s: %v", tok.Token, err)
		}
	}
	if err := repo.Create(ctx, Token{Token: "live", UserID: userID, Kind: KindRefresh, ExpiresAt: now}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate token, got %v", err)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired token removed, got %d", n)
	}
	if _, err := repo.Get(ctx, "stale"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected stale token gone, got %v", err)
	}
	got, err := repo.Get(ctx, "live")
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if got.UserID != userID || got.Kind != KindRefresh {
		t.Fatalf("unexpected token: %+v", got)
	}

	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "live"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
