package store

import "errors"

var (
	// ErrNotFound is returned by updates that match no record. Lookups
	// report a missing record as (nil, nil) instead.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when a create collides with an existing
	// record.
	ErrAlreadyExists = errors.New("record already exists")
)
