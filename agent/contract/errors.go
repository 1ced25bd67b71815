package contract

import "errors"

var (
	// ErrModelInvoke wraps any chat model failure; the router never retries it.
	ErrModelInvoke = errors.New("model invoke failed")
	// ErrSchemaViolation covers empty model replies and tool loops that run past
	// the configured round limit.
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidQuery    = errors.New("query is empty")
)
