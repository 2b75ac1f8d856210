package directory

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrCodeRegistry ErrorCode = "registry"
	ErrCodeKey      ErrorCode = "key"
)

// DirectoryError is returned when the registry or the configured keys cannot be loaded or used.
// Lookups for participants that are not registered return uftp unknown participant errors instead.
type DirectoryError struct {

	// code is the error classification
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *DirectoryError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *DirectoryError) Code() ErrorCode { return e.code }
func (e *DirectoryError) Unwrap() error   { return e.wrapped }

func NewRegistryError(msg string) error {
	return &DirectoryError{code: ErrCodeRegistry, message: msg}
}

func WrapRegistryError(err error, msg string) error {
	return &DirectoryError{code: ErrCodeRegistry, message: msg, wrapped: err}
}

func NewKeyError(msg string) error {
	return &DirectoryError{code: ErrCodeKey, message: msg}
}

func WrapKeyError(err error, msg string) error {
	return &DirectoryError{code: ErrCodeKey, message: msg, wrapped: err}
}

// IsKeyError reports whether err is a DirectoryError with code ErrCodeKey.
func IsKeyError(err error) bool {
	var dirErr *DirectoryError
	return errors.As(err, &dirErr) && dirErr.code == ErrCodeKey
}
