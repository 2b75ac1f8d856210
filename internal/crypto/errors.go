package crypto

import (
	"errors"
	"fmt"
)

// Error represents a structured error from the crypto package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	ErrCodeAuthentication ErrorCode = "authentication"
	ErrCodeSigning        ErrorCode = "signing"
	ErrCodeKeyManagement  ErrorCode = "key_management"
	ErrCodeValidation     ErrorCode = "validation"
	ErrCodeInternal       ErrorCode = "internal"
)

// CryptoError represents a structured error from the crypto package
type CryptoError struct {

	// code is the error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *CryptoError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *CryptoError) Code() ErrorCode { return e.code }
func (e *CryptoError) Unwrap() error   { return e.wrapped }

// NewAuthenticationError creates an error for messages that are not validly signed.
// Use this when a signature does not verify or the opened payload is empty.
//
// The returned error will have code ErrCodeAuthentication.
func NewAuthenticationError(msg string) error {
	return &CryptoError{code: ErrCodeAuthentication, message: msg}
}

// WrapAuthenticationError wraps an existing error as an authentication error.
//
// The returned error will have code ErrCodeAuthentication.
func WrapAuthenticationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeAuthentication, message: msg, wrapped: err}
}

// NewSigningError creates an error for failures while sealing an outgoing message.
//
// The returned error will have code ErrCodeSigning.
func NewSigningError(msg string) error {
	return &CryptoError{code: ErrCodeSigning, message: msg}
}

// WrapSigningError wraps an existing error as a signing error.
//
// The returned error will have code ErrCodeSigning.
func WrapSigningError(err error, msg string) error {
	return &CryptoError{code: ErrCodeSigning, message: msg, wrapped: err}
}

// NewKeyManagementError creates a key management error.
// Use this for errors related to key loading, key generation,
// invalid key format, or JWK parsing failures.
//
// The returned error will have code ErrCodeKeyManagement.
func NewKeyManagementError(msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg}
}

// WrapKeyManagementError wraps an existing error as a key management error.
//
// The returned error will have code ErrCodeKeyManagement.
func WrapKeyManagementError(err error, msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg, wrapped: err}
}

// NewValidationError creates a validation error for invalid input such as empty payloads.
//
// The returned error will have code ErrCodeValidation.
func NewValidationError(msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg}
}

// WrapValidationError wraps an existing error as a validation error.
//
// The returned error will have code ErrCodeValidation.
func WrapValidationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
//
// The returned error will have code ErrCodeInternal.
func NewInternalError(msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
// Use this for pool failures or system errors that should not normally occur.
//
// The returned error will have code ErrCodeInternal.
func WrapInternalError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg, wrapped: err}
}

// IsAuthenticationError reports whether err is a failed signature verification.
func IsAuthenticationError(err error) bool {
	return hasCode(err, ErrCodeAuthentication)
}

func hasCode(err error, code ErrorCode) bool {
	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) {
		return false
	}
	return cryptoErr.Code() == code
}
