package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gestimmo/internal/domain/workflow"
)

// NextInvoiceNumber reserves the next sequential number for an invoice type.
// The counter row is locked so two concurrent creations cannot collide; the
// number is generated once at creation and never regenerated.
func NextInvoiceNumber(ctx context.Context, tx pgx.Tx, invoiceType string, year int) (string, error) {
	var next int64
	err := tx.QueryRow(ctx, `
    INSERT INTO sequence_counters (name, next_value)
    VALUES ($1, 2)
    ON CONFLICT (name) DO UPDATE SET next_value = sequence_counters.next_value + 1
    RETURNING next_value - 1
  `, "invoice_"+invoiceType).Scan(&next)
	if err != nil {
		return "", err
	}
	prefix := "FAC"
	if invoiceType == InvoiceTypePurchase {
		prefix = "FAA"
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, year, next), nil
}

// CreateInvoice writes the invoice, its items, and reserves the number in one
// transaction. The total is recomputed server-side from the items.
func (s *Store) CreateInvoice(ctx context.Context, inv Invoice, year int) (Invoice, error) {
	if len(inv.Items) == 0 {
		return Invoice{}, ErrEmptyInvoice
	}

	total := decimal.Zero
	for i := range inv.Items {
		inv.Items[i].Amount = inv.Items[i].Quantity.Mul(inv.Items[i].UnitPrice)
		total = total.Add(inv.Items[i].Amount)
	}
	inv.Total = total
	inv.Status = workflow.StatusDraft

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Invoice{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inv.Number, err = NextInvoiceNumber(ctx, tx, inv.Type, year)
	if err != nil {
		return Invoice{}, err
	}

	if err := tx.QueryRow(ctx, `
    INSERT INTO invoices (number, type, status, total, agency_id, client_id, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id, created_at
  `, inv.Number, inv.Type, inv.Status, inv.Total, nullIfEmpty(inv.AgencyID), nullIfEmpty(inv.ClientID), inv.CreatedBy).Scan(&inv.ID, &inv.CreatedAt); err != nil {
		return Invoice{}, err
	}

	for i := range inv.Items {
		if err := tx.QueryRow(ctx, `
      INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, amount)
      VALUES ($1,$2,$3,$4,$5)
      RETURNING id
    `, inv.ID, inv.Items[i].Description, inv.Items[i].Quantity, inv.Items[i].UnitPrice, inv.Items[i].Amount).Scan(&inv.Items[i].ID); err != nil {
			return Invoice{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	var inv Invoice
	var agencyID, clientID, validatedBy, reason *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, number, type, status, total, agency_id, client_id, rejection_reason, created_by, validated_by, created_at
    FROM invoices
    WHERE id = $1
  `, id).Scan(&inv.ID, &inv.Number, &inv.Type, &inv.Status, &inv.Total, &agencyID, &clientID, &reason, &inv.CreatedBy, &validatedBy, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrInvoiceNotFound
	}
	if err != nil {
		return Invoice{}, err
	}
	if agencyID != nil {
		inv.AgencyID = *agencyID
	}
	if clientID != nil {
		inv.ClientID = *clientID
	}
	if validatedBy != nil {
		inv.ValidatedBy = *validatedBy
	}
	if reason != nil {
		inv.RejectionReason = *reason
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, description, quantity, unit_price, amount
    FROM invoice_items
    WHERE invoice_id = $1
    ORDER BY created_at
  `, id)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return Invoice{}, err
		}
		inv.Items = append(inv.Items, item)
	}
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, agencyID, status string, limit, offset int) ([]Invoice, int, error) {
	query := `
    SELECT id, number, type, status, total, agency_id, client_id, rejection_reason, created_by, validated_by, created_at
    FROM invoices
    WHERE 1=1
  `
	countQuery := "SELECT COUNT(1) FROM invoices WHERE 1=1"
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

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		var agency, client, validatedBy, reason *string
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.Type, &inv.Status, &inv.Total, &agency, &client, &reason, &inv.CreatedBy, &validatedBy, &inv.CreatedAt); err != nil {
			return nil, 0, err
		}
		if agency != nil {
			inv.AgencyID = *agency
		}
		if client != nil {
			inv.ClientID = *client
		}
		if validatedBy != nil {
			inv.ValidatedBy = *validatedBy
		}
		if reason != nil {
			inv.RejectionReason = *reason
		}
		out = append(out, inv)
	}
	return out, total, nil
}

// ReplaceInvoiceItems rewrites the item lines of a draft invoice and
// recomputes the total. The number is never touched.
func (s *Store) ReplaceInvoiceItems(ctx context.Context, invoiceID string, items []InvoiceItem) (Invoice, error) {
	if len(items) == 0 {
		return Invoice{}, ErrEmptyInvoice
	}
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Status != workflow.StatusDraft {
		return Invoice{}, ErrInvoiceLocked
	}

	total := decimal.Zero
	for i := range items {
		items[i].Amount = items[i].Quantity.Mul(items[i].UnitPrice)
		total = total.Add(items[i].Amount)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Invoice{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", invoiceID); err != nil {
		return Invoice{}, err
	}
	for i := range items {
		if err := tx.QueryRow(ctx, `
      INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, amount)
      VALUES ($1,$2,$3,$4,$5)
      RETURNING id
    `, invoiceID, items[i].Description, items[i].Quantity, items[i].UnitPrice, items[i].Amount).Scan(&items[i].ID); err != nil {
			return Invoice{}, err
		}
	}
	if _, err := tx.Exec(ctx, "UPDATE invoices SET total = $1 WHERE id = $2", total, invoiceID); err != nil {
		return Invoice{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}

	inv.Items = items
	inv.Total = total
	return inv, nil
}
