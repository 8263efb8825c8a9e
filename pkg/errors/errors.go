package kit_errors

import "errors"

// Common errors
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotConfigured     = errors.New("cdn offload not configured")
	ErrClientUnavailable = errors.New("object store client unavailable")
	ErrSourceMissing     = errors.New("source file missing")
	ErrUploadInProgress  = errors.New("upload already in progress")
	ErrTransferFailed    = errors.New("transfer failed")
)
