package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gestimmo/internal/domain/workflow"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateTransaction(ctx context.Context, t Transaction) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO transactions (description, amount, category, type, status, agency_id, recorded_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, t.Description, t.Amount, t.Category, t.Type, workflow.StatusPending, nullIfEmpty(t.AgencyID), t.RecordedBy).Scan(&id)
	return id, err
}

func (s *Store) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	var t Transaction
	var agencyID, validatedBy, reason *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, description, amount, category, type, status, agency_id, recorded_by, validated_by, rejection_reason, created_at
    FROM transactions
    WHERE id = $1
  `, id).Scan(&t.ID, &t.Description, &t.Amount, &t.Category, &t.Type, &t.Status, &agencyID, &t.RecordedBy, &validatedBy, &reason, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return Transaction{}, err
	}
	if agencyID != nil {
		t.AgencyID = *agencyID
	}
	if validatedBy != nil {
		t.ValidatedBy = *validatedBy
	}
	if reason != nil {
		t.RejectionReason = *reason
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, agencyID, status string, limit, offset int) ([]Transaction, int, error) {
	query := `
    SELECT id, description, amount, category, type, status, agency_id, recorded_by, validated_by, rejection_reason, created_at
    FROM transactions
    WHERE 1=1
  `
	countQuery := "SELECT COUNT(1) FROM transactions WHERE 1=1"
	args := []any{}
	if agencyID != "" {
		args = append(args, agencyID)
		clause := fmt.Sprintf(" AND agency_id = $%d", len(args))
		query += clause
		countQuery += clause
	}
	if status != "" {
		args = append(args, status)
		clause := fmt.Sprintf(" AND status = $%d", len(args))
		query += clause
		countQuery += clause
	}
	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		total = 0
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var agency, validatedBy, reason *string
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount, &t.Category, &t.Type, &t.Status, &agency, &t.RecordedBy, &validatedBy, &reason, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		if agency != nil {
			t.AgencyID = *agency
		}
		if validatedBy != nil {
			t.ValidatedBy = *validatedBy
		}
		if reason != nil {
			t.RejectionReason = *reason
		}
		out = append(out, t)
	}
	return out, total, nil
}

// UpdateTransaction only touches pending records; validated transactions are
// immutable except for status, which belongs to the engine.
func (s *Store) UpdateTransaction(ctx context.Context, id, description, category string, amount decimal.Decimal) error {
	ct, err := s.DB.Exec(ctx, `
    UPDATE transactions
    SET description = $1, category = $2, amount = $3
    WHERE id = $4 AND status = $5
  `, description, category, amount, id, workflow.StatusPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.GetTransaction(ctx, id); err != nil {
			return err
		}
		return ErrTransactionLocked
	}
	return nil
}

// CancelTransaction permanently withdraws a rejected expense report instead
// of correcting and resubmitting it. Cancelled is terminal.
func (s *Store) CancelTransaction(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `
    UPDATE transactions
    SET status = $1
    WHERE id = $2 AND status = $3
  `, workflow.StatusCancelled, id, workflow.StatusRejected)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.GetTransaction(ctx, id); err != nil {
			return err
		}
		return ErrNotRejected
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
