package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestimmo/internal/domain/workflow"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmployeeLocked   = errors.New("employee record is not editable in its current status")
	ErrNotRejected      = errors.New("only rejected records can be resubmitted or withdrawn")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// CreateEmployee reserves the next matricule and opens the onboarding chain
// at pending_agency. The matricule is generated once and never regenerated.
func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Employee{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var next int64
	if err := tx.QueryRow(ctx, `
    INSERT INTO sequence_counters (name, next_value)
    VALUES ($1, 2)
    ON CONFLICT (name) DO UPDATE SET next_value = sequence_counters.next_value + 1
    RETURNING next_value - 1
  `, "employee_matricule").Scan(&next); err != nil {
		return Employee{}, err
	}
	emp.Matricule = fmt.Sprintf("MAT-%05d", next)
	emp.Status = workflow.StatusPendingAgency

	if err := tx.QueryRow(ctx, `
    INSERT INTO employees (matricule, first_name, last_name, email, position, status, agency_id, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id, created_at
  `, emp.Matricule, emp.FirstName, emp.LastName, emp.Email, emp.Position, emp.Status, nullIfEmpty(emp.AgencyID), emp.CreatedBy).Scan(&emp.ID, &emp.CreatedAt); err != nil {
		return Employee{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	var emp Employee
	var agencyID, pendingAgencyID, reason, position *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, matricule, first_name, last_name, email, position, status, agency_id, pending_agency_id, rejection_reason, created_by, created_at
    FROM employees
    WHERE id = $1
  `, id).Scan(&emp.ID, &emp.Matricule, &emp.FirstName, &emp.LastName, &emp.Email, &position, &emp.Status, &agencyID, &pendingAgencyID, &reason, &emp.CreatedBy, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	if position != nil {
		emp.Position = *position
	}
	if agencyID != nil {
		emp.AgencyID = *agencyID
	}
	if pendingAgencyID != nil {
		emp.PendingAgencyID = *pendingAgencyID
	}
	if reason != nil {
		emp.RejectionReason = *reason
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, agencyID, status string, limit, offset int) ([]Employee, int, error) {
	query := `
    SELECT id, matricule, first_name, last_name, email, position, status, agency_id, pending_agency_id, rejection_reason, created_by, created_at
    FROM employees
    WHERE 1=1
  `
	countQuery := "SELECT COUNT(1) FROM employees WHERE 1=1"
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
	query += fmt.Sprintf(" ORDER BY matricule LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		var agency, pending, reason, position *string
		if err := rows.Scan(&emp.ID, &emp.Matricule, &emp.FirstName, &emp.LastName, &emp.Email, &position, &emp.Status, &agency, &pending, &reason, &emp.CreatedBy, &emp.CreatedAt); err != nil {
			return nil, 0, err
		}
		if position != nil {
			emp.Position = *position
		}
		if agency != nil {
			emp.AgencyID = *agency
		}
		if pending != nil {
			emp.PendingAgencyID = *pending
		}
		if reason != nil {
			emp.RejectionReason = *reason
		}
		out = append(out, emp)
	}
	return out, total, nil
}

// UpdateEmployee edits identity fields while the record is still before the
// general direction stage. The matricule is never rewritten.
func (s *Store) UpdateEmployee(ctx context.Context, id, firstName, lastName, email, position, pendingAgencyID string) error {
	ct, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET first_name = $1, last_name = $2, email = $3, position = $4, pending_agency_id = $5
    WHERE id = $6 AND status IN ($7, $8)
  `, firstName, lastName, email, position, nullIfEmpty(pendingAgencyID), id, workflow.StatusPendingAgency, workflow.StatusRejected)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.GetEmployee(ctx, id); err != nil {
			return err
		}
		return ErrEmployeeLocked
	}
	return nil
}

// Resubmit re-enters a corrected rejected record into the forward chain at
// its origin stage. The stored reason survives until the next approval.
func (s *Store) Resubmit(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET status = $1
    WHERE id = $2 AND status = $3
  `, workflow.StatusPendingAgency, id, workflow.StatusRejected)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.GetEmployee(ctx, id); err != nil {
			return err
		}
		return ErrNotRejected
	}
	return nil
}

// Withdraw permanently cancels a rejected onboarding record.
func (s *Store) Withdraw(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `
    DELETE FROM employees WHERE id = $1 AND status = $2
  `, id, workflow.StatusRejected)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		if _, err := s.GetEmployee(ctx, id); err != nil {
			return err
		}
		return ErrNotRejected
	}
	return nil
}

func (s *Store) ListAgencies(ctx context.Context) ([]Agency, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(city, ''), created_at
    FROM agencies
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Agency
	for rows.Next() {
		var agency Agency
		if err := rows.Scan(&agency.ID, &agency.Name, &agency.City, &agency.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, agency)
	}
	return out, nil
}

func (s *Store) CreateAgency(ctx context.Context, name, city string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO agencies (name, city)
    VALUES ($1,$2)
    RETURNING id
  `, name, nullIfEmpty(city)).Scan(&id)
	return id, err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
