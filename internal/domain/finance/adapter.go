package finance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"gestimmo/internal/domain/workflow"
)

// TransactionAdapter exposes expense/income transactions to the engine.
type TransactionAdapter struct {
	store *Store
}

func NewTransactionAdapter(store *Store) *TransactionAdapter {
	return &TransactionAdapter{store: store}
}

func (a *TransactionAdapter) Load(ctx context.Context, id string) (workflow.Record, error) {
	var rec workflow.Record
	var agencyID, reason *string
	err := a.store.DB.QueryRow(ctx, `
    SELECT id, status, agency_id, recorded_by, amount, rejection_reason, description
    FROM transactions
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

func (a *TransactionAdapter) UpdateStatus(ctx context.Context, tx workflow.Tx, rec workflow.Record, to, actorID string, action workflow.Action, reason string) (bool, error) {
	if action == workflow.ActionReject {
		ct, err := tx.Exec(ctx, `
      UPDATE transactions
      SET status = $1, rejection_reason = $2, validated_by = $3, validated_at = now()
      WHERE id = $4 AND status = $5
    `, to, reason, actorID, rec.ID, rec.Status)
		if err != nil {
			return false, err
		}
		return ct.RowsAffected() > 0, nil
	}
	ct, err := tx.Exec(ctx, `
    UPDATE transactions
    SET status = $1, rejection_reason = NULL, validated_by = $2, validated_at = now()
    WHERE id = $3 AND status = $4
  `, to, actorID, rec.ID, rec.Status)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// InvoiceAdapter exposes invoices to the engine. The invoice status carries
// both the document lifecycle (draft/sent/paid) and the approval stage.
type InvoiceAdapter struct {
	store *Store
}

func NewInvoiceAdapter(store *Store) *InvoiceAdapter {
	return &InvoiceAdapter{store: store}
}

func (a *InvoiceAdapter) Load(ctx context.Context, id string) (workflow.Record, error) {
	var rec workflow.Record
	var agencyID, reason *string
	err := a.store.DB.QueryRow(ctx, `
    SELECT id, status, agency_id, created_by, total, rejection_reason, number
    FROM invoices
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

func (a *InvoiceAdapter) UpdateStatus(ctx context.Context, tx workflow.Tx, rec workflow.Record, to, actorID string, action workflow.Action, reason string) (bool, error) {
	if action == workflow.ActionReject {
		ct, err := tx.Exec(ctx, `
      UPDATE invoices
      SET status = $1, rejection_reason = $2, validated_by = $3, validated_at = now()
      WHERE id = $4 AND status = $5
    `, to, reason, actorID, rec.ID, rec.Status)
		if err != nil {
			return false, err
		}
		return ct.RowsAffected() > 0, nil
	}
	ct, err := tx.Exec(ctx, `
    UPDATE invoices
    SET status = $1, rejection_reason = NULL, validated_by = $2, validated_at = now()
    WHERE id = $3 AND status = $4
  `, to, actorID, rec.ID, rec.Status)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
