package repository

import (
	"errors"
	"fmt"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrImmutableField      = errors.New("intake fields are immutable after creation")
	ErrStatusConflict      = errors.New("status transition not allowed from current status")
)

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
