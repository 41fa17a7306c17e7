package store

import "errors"

var (
	// ErrNotFound is returned when no record matches the given id.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput is returned when a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned when a status change skips, repeats or
	// reverses a step of the status chain, or leaves Finalizado.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict is returned when a concurrent writer changed the record first.
	ErrConflict = errors.New("record was modified concurrently")
	// ErrInUse is returned when deleting a record that active appointments reference.
	ErrInUse = errors.New("record is referenced by active appointments")
)
