package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional update matched no rows
	// because another writer got there first.
	ErrConflict = errors.New("conditional update lost")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint (e.g. a reused idempotency key).
	ErrDuplicate = errors.New("duplicate entity")
)
