package model

import "errors"

// Storage error kinds. Backends wrap these so callers can use errors.Is.
var (
	// ErrNotFound means the identifier has no active entity
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey means an insert targeted an identifier (or unique field) already in use
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrVersionConflict means the supplied version token no longer matches the stored one
	ErrVersionConflict = errors.New("version conflict")

	// ErrStorageUnavailable means the backend could not be reached
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrIntegrityViolation means a multi-statement write failed and was rolled back
	ErrIntegrityViolation = errors.New("integrity violation")
)

// ErrMissingID is returned when an entity is inserted without an identifier
var ErrMissingID = errors.New("entity id is required")
