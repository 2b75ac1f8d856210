package sending

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrCodeValidation        ErrorCode = "validation"
	ErrCodeClient            ErrorCode = "client_error"
	ErrCodeServer            ErrorCode = "server_error"
	ErrCodeUnexpectedStatus  ErrorCode = "unexpected_status"
	ErrCodeMalformedEndpoint ErrorCode = "malformed_endpoint"
	ErrCodeTransport         ErrorCode = "transport"
	ErrCodeInterrupted       ErrorCode = "interrupted"
)

// SendError is returned when a message could not be delivered.
// HTTP status failures carry the status code.
type SendError struct {

	// code is the failure kind
	code ErrorCode

	// message is a human-readable error message
	message string

	// status is the HTTP status returned by the peer, 0 when no response was received
	status int

	// wrapped is the optional underlying error
	wrapped error
}

func (e *SendError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *SendError) Code() ErrorCode { return e.code }
func (e *SendError) StatusCode() int { return e.status }
func (e *SendError) Unwrap() error   { return e.wrapped }

// Retryable reports whether the caller may try again later: server errors and transport failures.
func (e *SendError) Retryable() bool {
	return e.code == ErrCodeServer || e.code == ErrCodeTransport
}

// NewValidationError is returned by ValidateAndSend when the chain rejects the message.
// No network call was made.
func NewValidationError(reason string) error {
	return &SendError{code: ErrCodeValidation, message: fmt.Sprintf("message rejected before sending: %s", reason)}
}

// NewStatusError classifies a non-2xx HTTP status.
func NewStatusError(status int, body string) error {
	code := ErrCodeUnexpectedStatus
	switch {
	case status >= 400 && status < 500:
		code = ErrCodeClient
	case status >= 500 && status < 600:
		code = ErrCodeServer
	}

	msg := fmt.Sprintf("peer answered HTTP %d", status)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	return &SendError{code: code, message: msg, status: status}
}

// WrapMalformedEndpointError is returned when the directory's endpoint URL is unusable.
func WrapMalformedEndpointError(err error, endpoint string) error {
	return &SendError{code: ErrCodeMalformedEndpoint, message: fmt.Sprintf("malformed endpoint %q", endpoint), wrapped: err}
}

// WrapTransportError is returned for DNS, connect, TLS and I/O failures.
func WrapTransportError(err error, msg string) error {
	return &SendError{code: ErrCodeTransport, message: msg, wrapped: err}
}

// WrapInterruptedError is returned when the caller's context ended during the exchange.
func WrapInterruptedError(err error, msg string) error {
	return &SendError{code: ErrCodeInterrupted, message: msg, wrapped: err}
}

// ErrorCodeOf returns the SendError code of err, or "" when err is not a SendError.
func ErrorCodeOf(err error) ErrorCode {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.code
	}
	return ""
}
