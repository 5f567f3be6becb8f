package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint would be violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden indicates the caller may not access the entity.
	ErrForbidden = errors.New("forbidden")
)
