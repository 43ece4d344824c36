package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Every error returned by the services wraps exactly one of these. Handlers
// translate them to status codes with errors.Is.
var (
	ErrValidation      = errors.New("invalid input")
	ErrConflict        = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrExpired         = errors.New("expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrRateLimited     = errors.New("rate limited")
	ErrInvalidCode     = errors.New("invalid code")
	ErrDependency      = errors.New("dependency failure")
)

// dbErr converts storage errors into the service taxonomy. Anything that isn't
// a missing row or a unique violation is returned as is so it ends up as a 500.
func dbErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func depErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
}
