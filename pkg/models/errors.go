package models

import "errors"

// Sentinel errors shared across the scheduling core.
// Check with errors.Is: errors.Is(err, models.ErrNotFound)
var (
	// ErrValidation marks malformed input (bad rating, negative latency,
	// invalid identifiers). Rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing card, item or session. No partial effects.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration marks a malformed or incomplete parameter vector.
	// Fatal at parameter-store load time, never per review.
	ErrConfiguration = errors.New("invalid configuration")
)
