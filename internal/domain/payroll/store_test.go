package payroll

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

func seedRunFixtures(t *testing.T, pool *pgxpool.Pool) (userID, employeeID string) {
	t.Helper()
	ctx := context.Background()

	var roleID string
	if err := pool.QueryRow(ctx,
		"INSERT INTO roles (name) VALUES ('payroll-test-role') ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id",
	).Scan(&roleID); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	if err := pool.QueryRow(ctx,
		"INSERT INTO users (email, password_hash, role_id) VALUES ('payroll-test@gestimmo.local', 'x', $1) ON CONFLICT (email) DO UPDATE SET role_id = EXCLUDED.role_id RETURNING id",
		roleID,
	).Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := pool.QueryRow(ctx,
		"INSERT INTO employees (matricule, first_name, last_name, email, status, created_by) VALUES ('MAT-TEST1', 'Jean', 'Dupont', 'jd@gestimmo.local', 'active', $1) ON CONFLICT (matricule) DO UPDATE SET email = EXCLUDED.email RETURNING id",
		userID,
	).Scan(&employeeID); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DELETE FROM employees WHERE id = $1", employeeID)
		_, _ = pool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
		_, _ = pool.Exec(ctx, "DELETE FROM roles WHERE id = $1", roleID)
	})
	return userID, employeeID
}

func TestItemWritesLockedAfterSubmit(t *testing.T) {
	pool := testPool(t)
	s := NewStore(pool)
	ctx := context.Background()
	userID, employeeID := seedRunFixtures(t, pool)

	runID, err := s.CreateRun(ctx, 5, 2026, "", userID)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DELETE FROM payroll_runs WHERE id = $1", runID)
	})

	item := Item{EmployeeID: employeeID, BaseSalary: decimal.RequireFromString("2500.00")}
	saved, err := s.UpsertItem(ctx, runID, item)
	if err != nil {
		t.Fatalf("upsert on draft run: %v", err)
	}
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !run.TotalAmount.Equal(decimal.RequireFromString("2500.00")) {
		t.Fatalf("total not recomputed, got %s", run.TotalAmount.String())
	}

	if _, err := pool.Exec(ctx,
		"UPDATE payroll_runs SET status = $1 WHERE id = $2", workflow.StatusHRValidated, runID,
	); err != nil {
		t.Fatalf("advance run: %v", err)
	}

	if _, err := s.UpsertItem(ctx, runID, item); !errors.Is(err, ErrRunLocked) {
		t.Fatalf("upsert on submitted run: expected ErrRunLocked, got %v", err)
	}
	if err := s.DeleteItem(ctx, runID, saved.ID); !errors.Is(err, ErrRunLocked) {
		t.Fatalf("delete on submitted run: expected ErrRunLocked, got %v", err)
	}

	run, err = s.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !run.TotalAmount.Equal(decimal.RequireFromString("2500.00")) {
		t.Fatalf("locked run total changed to %s", run.TotalAmount.String())
	}
}

func TestItemWritesUnknownRun(t *testing.T) {
	pool := testPool(t)
	s := NewStore(pool)
	ctx := context.Background()
	_, employeeID := seedRunFixtures(t, pool)

	missing := "00000000-0000-0000-0000-000000000000"
	if _, err := s.UpsertItem(ctx, missing, Item{EmployeeID: employeeID}); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := s.DeleteItem(ctx, missing, missing); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
