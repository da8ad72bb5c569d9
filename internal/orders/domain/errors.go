package domain

import "errors"

var (
	// ErrOrderNotFound is surfaced precisely, with the identifier wrapped in.
	ErrOrderNotFound = errors.New("order not found")

	// ErrSagaFailed is the single client-facing error for any failure inside
	// the creation saga or an enriched lookup. Detail goes to the logs only.
	ErrSagaFailed = errors.New("order processing failed, check service logs")

	// ErrInvalidTransition rejects manual status moves outside the
	// transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
)
