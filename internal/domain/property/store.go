package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrLotNotFound     = errors.New("lot not found")
	ErrInvalidLotState = errors.New("invalid lot status")
)

// BulkError reports which ids made an all-or-nothing batch fail.
type BulkError struct {
	MissingIDs []string
}

func (e *BulkError) Error() string {
	return "bulk update aborted, unknown lot ids: " + strings.Join(e.MissingIDs, ", ")
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateLot(ctx context.Context, lot Lot) (string, error) {
	if !validLotStatus(lot.Status) {
		return "", ErrInvalidLotState
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO lots (reference, location, area, price, status, agency_id)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, lot.Reference, lot.Location, lot.Area, lot.Price, lot.Status, nullIfEmpty(lot.AgencyID)).Scan(&id)
	return id, err
}

func (s *Store) GetLot(ctx context.Context, id string) (Lot, error) {
	var lot Lot
	var agencyID, location *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, reference, location, area, price, status, agency_id, created_at
    FROM lots
    WHERE id = $1
  `, id).Scan(&lot.ID, &lot.Reference, &location, &lot.Area, &lot.Price, &lot.Status, &agencyID, &lot.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lot{}, ErrLotNotFound
	}
	if err != nil {
		return Lot{}, err
	}
	if location != nil {
		lot.Location = *location
	}
	if agencyID != nil {
		lot.AgencyID = *agencyID
	}
	return lot, nil
}

func (s *Store) ListLots(ctx context.Context, agencyID, status string, limit, offset int) ([]Lot, int, error) {
	query := `
    SELECT id, reference, location, area, price, status, agency_id, created_at
    FROM lots
    WHERE 1=1
  `
	countQuery := "SELECT COUNT(1) FROM lots WHERE 1=1"
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
	query += fmt.Sprintf(" ORDER BY reference LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Lot
	for rows.Next() {
		var lot Lot
		var agency, location *string
		if err := rows.Scan(&lot.ID, &lot.Reference, &location, &lot.Area, &lot.Price, &lot.Status, &agency, &lot.CreatedAt); err != nil {
			return nil, 0, err
		}
		if location != nil {
			lot.Location = *location
		}
		if agency != nil {
			lot.AgencyID = *agency
		}
		out = append(out, lot)
	}
	return out, total, nil
}

// BulkUpdateStatus applies one status to a set of lots, all-or-nothing.
// Every id is checked inside the transaction; any unknown id aborts the
// whole batch and is reported in the returned BulkError.
func (s *Store) BulkUpdateStatus(ctx context.Context, ids []string, status string) (int, error) {
	if !validLotStatus(status) {
		return 0, ErrInvalidLotState
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, "SELECT id FROM lots WHERE id = ANY($1) FOR UPDATE", ids)
	if err != nil {
		return 0, err
	}
	found := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		found[id] = true
	}
	rows.Close()

	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return 0, &BulkError{MissingIDs: missing}
	}

	ct, err := tx.Exec(ctx, "UPDATE lots SET status = $1 WHERE id = ANY($2)", status, ids)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func validLotStatus(status string) bool {
	for _, s := range LotStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
