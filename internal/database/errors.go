package database

import (
	"errors"
	"fmt"

	"baristalog/internal/models"
)

// ErrNotFound is returned when no entity has the requested record key.
var ErrNotFound = errors.New("not found")

// ValidationError is raised at the store boundary before anything is written.
type ValidationError = models.ValidationError

// PersistenceError reports an underlying storage failure. The operation
// that triggered it is treated as not applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError unless it is nil, already a
// PersistenceError, a validation failure or ErrNotFound.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *PersistenceError
	var verr *ValidationError
	if errors.As(err, &perr) || errors.As(err, &verr) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
