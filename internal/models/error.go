package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadRequest         = errors.New("bad request")
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrInternalServer     = errors.New("internal server error")

	// Password recovery and identity errors
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrEmailDeliveryFailed   = errors.New("email delivery failed")
	ErrNotAuthenticated      = errors.New("not authenticated")

	// Catalog query errors
	ErrInvalidFilter = errors.New("invalid filter")
)

// EntityNotFoundError names the entity and lookup key that produced ErrNotFound.
type EntityNotFoundError struct {
	Entity string
	Field  string
	Value  any
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %v", e.Entity, e.Field, e.Value)
}

func (e *EntityNotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFound returns an EntityNotFoundError that matches ErrNotFound with errors.Is.
func NewNotFound(entity, field string, value any) error {
	return &EntityNotFoundError{Entity: entity, Field: field, Value: value}
}
