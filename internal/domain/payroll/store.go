package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestimmo/internal/domain/workflow"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateRun(ctx context.Context, month, year int, agencyID, createdBy string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_runs (month, year, agency_id, status, total_amount, created_by)
    VALUES ($1,$2,$3,$4,0,$5)
    RETURNING id
  `, month, year, nullIfEmpty(agencyID), workflow.StatusDraft, createdBy).Scan(&id)
	return id, err
}

func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	var agencyID, reason, validatedBy *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, month, year, agency_id, status, total_amount, rejection_reason, created_by, validated_by, created_at
    FROM payroll_runs
    WHERE id = $1
  `, id).Scan(&run.ID, &run.Month, &run.Year, &agencyID, &run.Status, &run.TotalAmount, &reason, &run.CreatedBy, &validatedBy, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}
	if agencyID != nil {
		run.AgencyID = *agencyID
	}
	if reason != nil {
		run.RejectionReason = *reason
	}
	if validatedBy != nil {
		run.ValidatedBy = *validatedBy
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, agencyID string, limit, offset int) ([]Run, int, error) {
	query := `
    SELECT id, month, year, agency_id, status, total_amount, rejection_reason, created_by, validated_by, created_at
    FROM payroll_runs
  `
	countQuery := "SELECT COUNT(1) FROM payroll_runs"
	args := []any{}
	if agencyID != "" {
		query += " WHERE agency_id = $1"
		countQuery += " WHERE agency_id = $1"
		args = append(args, agencyID)
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		total = 0
	}
	query += fmt.Sprintf(" ORDER BY year DESC, month DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var agency, reason, validatedBy *string
		if err := rows.Scan(&run.ID, &run.Month, &run.Year, &agency, &run.Status, &run.TotalAmount, &reason, &run.CreatedBy, &validatedBy, &run.CreatedAt); err != nil {
			return nil, 0, err
		}
		if agency != nil {
			run.AgencyID = *agency
		}
		if reason != nil {
			run.RejectionReason = *reason
		}
		if validatedBy != nil {
			run.ValidatedBy = *validatedBy
		}
		runs = append(runs, run)
	}
	return runs, total, nil
}

func (s *Store) ListItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, run_id, employee_id, base_salary, bonus, tax, social_contribution, advance, lateness_deduction, other_deduction, net_salary
    FROM payroll_items
    WHERE run_id = $1
    ORDER BY created_at
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.RunID, &item.EmployeeID, &item.BaseSalary, &item.Bonus, &item.Tax, &item.SocialContribution, &item.Advance, &item.LatenessDeduction, &item.OtherDeduction, &item.NetSalary); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// UpsertItem writes one item and recomputes the run total in the same
// transaction, keeping total_amount equal to the sum of item net salaries.
// The run row is locked for the duration so a concurrent submit cannot slip
// between the draft check and the write.
func (s *Store) UpsertItem(ctx context.Context, runID string, item Item) (Item, error) {
	item.NetSalary = NetSalary(item)

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Item{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockDraftRun(ctx, tx, runID); err != nil {
		return Item{}, err
	}

	if err := tx.QueryRow(ctx, `
    INSERT INTO payroll_items (run_id, employee_id, base_salary, bonus, tax, social_contribution, advance, lateness_deduction, other_deduction, net_salary)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    ON CONFLICT (run_id, employee_id) DO UPDATE SET
      base_salary = EXCLUDED.base_salary,
      bonus = EXCLUDED.bonus,
      tax = EXCLUDED.tax,
      social_contribution = EXCLUDED.social_contribution,
      advance = EXCLUDED.advance,
      lateness_deduction = EXCLUDED.lateness_deduction,
      other_deduction = EXCLUDED.other_deduction,
      net_salary = EXCLUDED.net_salary
    RETURNING id
  `, runID, item.EmployeeID, item.BaseSalary, item.Bonus, item.Tax, item.SocialContribution, item.Advance, item.LatenessDeduction, item.OtherDeduction, item.NetSalary).Scan(&item.ID); err != nil {
		return Item{}, err
	}

	if err := recomputeTotal(ctx, tx, runID); err != nil {
		return Item{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Item{}, err
	}
	item.RunID = runID
	return item, nil
}

func (s *Store) DeleteItem(ctx context.Context, runID, itemID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockDraftRun(ctx, tx, runID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM payroll_items WHERE run_id = $1 AND id = $2", runID, itemID); err != nil {
		return err
	}
	if err := recomputeTotal(ctx, tx, runID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RegisterRows(ctx context.Context, runID string) ([]RegisterRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.first_name, e.last_name, e.matricule,
           i.base_salary, i.bonus,
           i.tax + i.social_contribution + i.advance + i.lateness_deduction + i.other_deduction,
           i.net_salary
    FROM payroll_items i
    JOIN employees e ON i.employee_id = e.id
    WHERE i.run_id = $1
    ORDER BY e.last_name, e.first_name
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegisterRow
	for rows.Next() {
		var row RegisterRow
		if err := rows.Scan(&row.EmployeeID, &row.FirstName, &row.LastName, &row.Matricule, &row.BaseSalary, &row.Bonus, &row.Deductions, &row.NetSalary); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// lockDraftRun takes a row lock on the run and verifies it is still editable.
// Holding the lock until commit blocks a concurrent transition from moving
// the run out of draft while its items change.
func lockDraftRun(ctx context.Context, tx pgx.Tx, runID string) error {
	var status string
	err := tx.QueryRow(ctx, "SELECT status FROM payroll_runs WHERE id = $1 FOR UPDATE", runID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRunNotFound
	}
	if err != nil {
		return err
	}
	if status != workflow.StatusDraft {
		return ErrRunLocked
	}
	return nil
}

func recomputeTotal(ctx context.Context, tx pgx.Tx, runID string) error {
	_, err := tx.Exec(ctx, `
    UPDATE payroll_runs
    SET total_amount = COALESCE((SELECT SUM(net_salary) FROM payroll_items WHERE run_id = $1), 0)
    WHERE id = $1
  `, runID)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
