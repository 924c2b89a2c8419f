package finance

import (
	"context"

	"gestimmo/internal/domain/workflow"
)

// PayrollPaidEffect creates the expense transaction that mirrors a paid
// payroll run. It runs inside the transition's transaction: the run cannot be
// marked paid without the transaction existing, and vice versa.
func PayrollPaidEffect() workflow.SideEffect {
	return func(ctx context.Context, tx workflow.Tx, rec workflow.Record, actorID string) error {
		_, err := tx.Exec(ctx, `
      INSERT INTO transactions (description, amount, category, type, status, agency_id, recorded_by, validated_by, validated_at, source_entity, source_id)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$7,now(),$8,$9)
    `, rec.Label, rec.Amount, CategoryPayroll, TypeExpense, workflow.StatusApproved,
			nullIfEmpty(rec.AgencyID), actorID, string(workflow.EntityPayrollRun), rec.ID)
		return err
	}
}

// InvoicePaidEffect records the income transaction for a validated invoice,
// atomically with the status change to paid.
func InvoicePaidEffect() workflow.SideEffect {
	return func(ctx context.Context, tx workflow.Tx, rec workflow.Record, actorID string) error {
		_, err := tx.Exec(ctx, `
      INSERT INTO transactions (description, amount, category, type, status, agency_id, recorded_by, validated_by, validated_at, source_entity, source_id)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$7,now(),$8,$9)
    `, "Invoice "+rec.Label, rec.Amount, CategoryInvoice, TypeIncome, workflow.StatusApproved,
			nullIfEmpty(rec.AgencyID), actorID, string(workflow.EntityInvoice), rec.ID)
		return err
	}
}
