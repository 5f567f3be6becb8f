package auth

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"labelshop/internal/migrate"
	tokenrepo "labelshop/internal/repository/token"
	userrepo "labelshop/internal/repository/user"
)

func TestRegisterLoginRefresh_Integration(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, events, products, tokens, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	svc := New(userrepo.NewPostgres(pool, nil), tokenrepo.NewPostgres(pool), Config{Secret: "integration"}, nil)

	password := "Abcdefg1"
	sess, err := svc.Register(ctx, RegisterInput{Username: "integration", Email: "integration@example.com", Password: password})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.ID == "" {
		t.Fatalf("expected created user, got %+v", sess.User)
	}

	if _, err := svc.Register(ctx, RegisterInput{Username: "integration", Email: "other@example.com", Password: password}); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}

	login, err := svc.Login(ctx, "INTEGRATION@example.com", password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := svc.LookupByToken(ctx, refreshed.AccessToken); err != nil {
		t.Fatalf("lookup: %v", err)
	}
}

func integrationPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("ping db: %v", err)
	}
	return pool
}
