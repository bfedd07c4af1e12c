package models

import "errors"

// Sentinel errors shared across packages. Callers compare with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrWorldNotFound    = errors.New("world not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrStoryNotFound    = errors.New("story not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidationFailed = errors.New("validation failed")
	ErrDuplicate        = errors.New("duplicate entry")

	// ErrGenerationFailed wraps narrative generator failures.
	ErrGenerationFailed = errors.New("generation failed")
)
