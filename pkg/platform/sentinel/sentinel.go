package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors with the right
// code and message for the caller.
//
// These represent factual states about resources, not rule failures:
// - ErrNotFound: entity does not exist in the store
// - ErrConflict: a uniqueness or concurrent-update conflict
// - ErrInvalidState: entity in the wrong state for the requested operation
// - ErrUnavailable: backing service temporarily unreachable
//
// Business-rule rejections (assignment checks, transition legality) never use
// these; they are Decision values or pkg/domain-errors codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
