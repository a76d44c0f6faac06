package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and workers return these
// (optionally wrapped) so callers can branch on them with errors.Is.
//
// - ErrDuplicate: an idempotency key was already claimed
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrDuplicate   = errors.New("duplicate")
	ErrUnavailable = errors.New("unavailable")
)
