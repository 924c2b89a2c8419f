package payroll

import "errors"

var (
	ErrRunNotFound   = errors.New("payroll run not found")
	ErrRunLocked     = errors.New("payroll run is not editable in its current status")
	ErrNegativeItem  = errors.New("payroll item amounts must be non-negative")
	ErrDuplicateItem = errors.New("employee already has an item in this run")
)
