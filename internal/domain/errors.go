package domain

import "errors"

// Engine error taxonomy. Services return these (wrapped) so handlers can map
// them to HTTP statuses with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrCycleDetected = errors.New("cycle detected")
	ErrCrossTenant   = errors.New("cross-tenant violation")
	ErrInvalidState  = errors.New("invalid state")
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrPropertyInUse = errors.New("property in use")
)
