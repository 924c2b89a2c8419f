package finance

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gestimmo/internal/domain/workflow"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func seedRecorder(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	ctx := context.Background()

	var roleID string
	if err := pool.QueryRow(ctx,
		"INSERT INTO roles (name) VALUES ('finance-test-role') ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id",
	).Scan(&roleID); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	var userID string
	if err := pool.QueryRow(ctx,
		"INSERT INTO users (email, password_hash, role_id) VALUES ('finance-test@gestimmo.local', 'x', $1) ON CONFLICT (email) DO UPDATE SET role_id = EXCLUDED.role_id RETURNING id",
		roleID,
	).Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
		_, _ = pool.Exec(ctx, "DELETE FROM roles WHERE id = $1", roleID)
	})
	return userID
}

func TestCancelTransaction(t *testing.T) {
	pool := testPool(t)
	s := NewStore(pool)
	ctx := context.Background()
	userID := seedRecorder(t, pool)

	id, err := s.CreateTransaction(ctx, Transaction{
		Description: "taxi to client site",
		Amount:      decimal.RequireFromString("42.50"),
		Category:    CategoryGeneral,
		Type:        TypeExpense,
		RecordedBy:  userID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DELETE FROM transactions WHERE id = $1", id)
	})

	// Still pending: the withdraw arm only applies after a rejection.
	if err := s.CancelTransaction(ctx, id); !errors.Is(err, ErrNotRejected) {
		t.Fatalf("cancel pending: expected ErrNotRejected, got %v", err)
	}

	if _, err := pool.Exec(ctx,
		"UPDATE transactions SET status = $1, rejection_reason = 'no receipt' WHERE id = $2",
		workflow.StatusRejected, id,
	); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if err := s.CancelTransaction(ctx, id); err != nil {
		t.Fatalf("cancel rejected: %v", err)
	}
	got, err := s.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != workflow.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}

	// Cancelled is terminal.
	if err := s.CancelTransaction(ctx, id); !errors.Is(err, ErrNotRejected) {
		t.Fatalf("cancel cancelled: expected ErrNotRejected, got %v", err)
	}

	missing := "00000000-0000-0000-0000-000000000000"
	if err := s.CancelTransaction(ctx, missing); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("cancel unknown: expected ErrTransactionNotFound, got %v", err)
	}
}
