package uftp

// errors.go defines the structured errors returned by the uftp package and its collaborators

import (
	"errors"
	"fmt"
)

// ErrMessageNotFound is returned by MessageStore implementations when no message matches the query.
var ErrMessageNotFound = errors.New("message not found")

// ErrorCode classifies a UftpError.
type ErrorCode string

const (
	ErrCodeMalformedMessage   ErrorCode = "malformed_message"
	ErrCodeDuplicateMessage   ErrorCode = "duplicate_message"
	ErrCodeReusedMessageID    ErrorCode = "reused_message_id"
	ErrCodeUnknownParticipant ErrorCode = "unknown_participant"
	ErrCodeInternal           ErrorCode = "internal"
)

// UftpError represents a structured error from the uftp package.
type UftpError struct {

	// code is the error classification
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *UftpError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *UftpError) Code() ErrorCode { return e.code }
func (e *UftpError) Unwrap() error   { return e.wrapped }

// NewMalformedMessageError creates an error for payloads that cannot be decoded or
// are structurally invalid (unknown root element, bad base64, bad attribute values).
func NewMalformedMessageError(msg string) error {
	return &UftpError{code: ErrCodeMalformedMessage, message: msg}
}

// WrapMalformedMessageError wraps a decoding error as a malformed message error.
func WrapMalformedMessageError(err error, msg string) error {
	return &UftpError{code: ErrCodeMalformedMessage, message: msg, wrapped: err}
}

// NewDuplicateReceiveError creates the error raised when a received message was seen before.
// result selects between ErrCodeDuplicateMessage and ErrCodeReusedMessageID.
func NewDuplicateReceiveError(result DuplicateResult, messageID string) error {
	code := ErrCodeDuplicateMessage
	if result == ReusedIDDifferentContent {
		code = ErrCodeReusedMessageID
	}
	return &UftpError{
		code:    code,
		message: fmt.Sprintf("message %s already received (%s)", messageID, result),
	}
}

// NewUnknownParticipantError creates an error for senders or recipients that are not in the directory.
func NewUnknownParticipantError(msg string) error {
	return &UftpError{code: ErrCodeUnknownParticipant, message: msg}
}

// WrapUnknownParticipantError wraps a directory lookup failure.
func WrapUnknownParticipantError(err error, msg string) error {
	return &UftpError{code: ErrCodeUnknownParticipant, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &UftpError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &UftpError{code: ErrCodeInternal, message: msg, wrapped: err}
}

// IsDuplicateReceive reports whether err signals a duplicate or reused-id receipt.
func IsDuplicateReceive(err error) bool {
	var uftpErr *UftpError
	if !errors.As(err, &uftpErr) {
		return false
	}
	return uftpErr.code == ErrCodeDuplicateMessage || uftpErr.code == ErrCodeReusedMessageID
}
