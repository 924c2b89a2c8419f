package finance

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionLocked   = errors.New("validated transactions are immutable")
	ErrNotRejected         = errors.New("only rejected transactions can be cancelled")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvoiceLocked       = errors.New("invoice is not editable in its current status")
	ErrEmptyInvoice        = errors.New("invoice requires at least one item")
)
