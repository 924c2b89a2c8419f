package workflow

import "errors"

var (
	ErrUnauthorized      = errors.New("insufficient permissions for this stage")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("status changed concurrently")
	ErrUnknownEntity     = errors.New("unknown entity type")
)
