package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence wraps every failure reported by a backing store.
	ErrPersistence = errors.New("persistence failure")

	// ErrNoGroupAssociation means the caller has no usable household group.
	ErrNoGroupAssociation = errors.New("no group association")

	// ErrItemNotFound means no item with that id exists in the group,
	// in either status.
	ErrItemNotFound = errors.New("item not found")
)

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
