package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the guild authority client
// return these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: row does not exist in store (routine for optional linkage)
// - ErrConflict: unique key already taken
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: guild authority or backing store temporarily unreachable
//
// For validation errors (bad action, malformed payload), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
