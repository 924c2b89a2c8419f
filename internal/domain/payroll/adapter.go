package payroll

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"gestimmo/internal/domain/workflow"
)

// Adapter exposes payroll runs to the transition engine.
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
    SELECT id, status, agency_id, created_by, total_amount, rejection_reason,
           'Payroll ' || lpad(month::text, 2, '0') || '/' || year
    FROM payroll_runs
    WHERE id = $1
  `, id).Scan(&rec.ID, &rec.Status, &agencyID, &rec.OwnerUserID, &rec.Amount, &reason, &rec.Label)
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
	return rec, nil
}

// UpdateStatus applies the optimistic precondition. Approvals record the
// validator and clear any stored rejection reason; reverts keep the reason so
// the corrector still sees it.
func (a *Adapter) UpdateStatus(ctx context.Context, tx workflow.Tx, rec workflow.Record, to, actorID string, action workflow.Action, reason string) (bool, error) {
	var tag int64
	switch action {
	case workflow.ActionReject:
		ct, err := tx.Exec(ctx, `
      UPDATE payroll_runs
      SET status = $1, rejection_reason = $2, validated_by = $3, validated_at = now()
      WHERE id = $4 AND status = $5
    `, to, reason, actorID, rec.ID, rec.Status)
		if err != nil {
			return false, err
		}
		tag = ct.RowsAffected()
	case workflow.ActionRevert:
		ct, err := tx.Exec(ctx, `
      UPDATE payroll_runs
      SET status = $1
      WHERE id = $2 AND status = $3
    `, to, rec.ID, rec.Status)
		if err != nil {
			return false, err
		}
		tag = ct.RowsAffected()
	default:
		ct, err := tx.Exec(ctx, `
      UPDATE payroll_runs
      SET status = $1, rejection_reason = NULL, validated_by = $2, validated_at = now()
      WHERE id = $3 AND status = $4
    `, to, actorID, rec.ID, rec.Status)
		if err != nil {
			return false, err
		}
		tag = ct.RowsAffected()
	}
	return tag > 0, nil
}
