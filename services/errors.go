package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Domain error taxonomy. Handlers map these onto HTTP statuses; everything
// else coming out of a service is wrapped as ErrTransient and is safe to
// retry because transactions leave no partial state.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrTransient  = errors.New("transient infrastructure error")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// wrapDBError translates storage errors at the service boundary so callers
// only ever see the domain taxonomy.
func wrapDBError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err // already classified inside the transaction
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundf("%s", op)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return conflictf("%s", op)
	default:
		return fmt.Errorf("%w: %s: %v", ErrTransient, op, err)
	}
}
