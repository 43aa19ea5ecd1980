package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error taxonomy shared by the store and the services built on it.
// Callers match with errors.Is; context is added with fmt.Errorf("%w: ...").
var (
	// ErrNotFound: an id resolves to nothing.
	ErrNotFound = errors.New("not found")
	// ErrIntegrityViolation: the operation would break a relational invariant
	// (e.g. a hole number outside 1..18, an id collision on import).
	ErrIntegrityViolation = errors.New("integrity violation")
	// ErrStorageFailure: the database is unavailable or a transaction aborted.
	ErrStorageFailure = errors.New("storage failure")
	// ErrValidationFailed: caller-supplied data is malformed.
	ErrValidationFailed = errors.New("validation failed")
)

// Classify maps driver/ORM errors onto the taxonomy. Errors that already belong to it
// pass through unchanged so context added by callers is kept.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrIntegrityViolation),
		errors.Is(err, ErrStorageFailure), errors.Is(err, ErrValidationFailed):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
}
