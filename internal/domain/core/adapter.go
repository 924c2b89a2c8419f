package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gestimmo/internal/domain/workflow"
)

// Adapter exposes employee onboarding records to the transition engine.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) Load(ctx context.Context, id string) (workflow.Record, error) {
	var rec workflow.Record
	var agencyID, reason *string
	err := a.store.DB.QueryRow(ctx, `
    SELECT id, status, agency_id, created_by, rejection_reason, matricule || ' ' || first_name || ' ' || last_name
    FROM employees
    WHERE id = $1
  `, id).Scan(&rec.ID, &rec.Status, &agencyID, &rec.OwnerUserID, &reason, &rec.Label)
	if errors.Is(err, pgx.ErrNoRows) {
		return workflow.Record{}, workflow.ErrNotFound
	}
	if err != nil {
		return workflow.Record{}, err
	}
	if agencyID != nil {
		rec.AgencyID = *agencyID
	}
	if reason != nil {
		rec.RejectionReason = *reason
	}
	rec.Amount = decimal.Zero
	return rec, nil
}

func (a *Adapter) UpdateStatus(ctx context.Context, tx workflow.Tx, rec workflow.Record, to, actorID string, action workflow.Action, reason string) (bool, error) {
	if action == workflow.ActionReject {
		ct, err := tx.Exec(ctx, `
      UPDATE employees
      SET status = $1, rejection_reason = $2, validated_by = $3, validated_at = now()
      WHERE id = $4 AND status = $5
    `, to, reason, actorID, rec.ID, rec.Status)
		if err != nil {
			return false, err
		}
		return ct.RowsAffected() > 0, nil
	}

	if to == workflow.StatusActive {
		// Final approval applies any pending agency reassignment.
		ct, err := tx.Exec(ctx, `
      UPDATE employees
      SET status = $1,
          agency_id = COALESCE(pending_agency_id, agency_id),
          pending_agency_id = NULL,
          rejection_reason = NULL,
          validated_by = $2,
          validated_at = now()
      WHERE id = $3 AND status = $4
    `, to, actorID, rec.ID, rec.Status)
		if err != nil {
			return false, err
		}
		return ct.RowsAffected() > 0, nil
	}

	ct, err := tx.Exec(ctx, `
    UPDATE employees
    SET status = $1, rejection_reason = NULL, validated_by = $2, validated_at = now()
    WHERE id = $3 AND status = $4
  `, to, actorID, rec.ID, rec.Status)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
