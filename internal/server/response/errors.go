package response

// errors.go maps engine errors to HTTP statuses.

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/directory"
	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/sending"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

type ErrorCode string

// request level error codes raised by middleware and handlers
const (
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"
	ErrCodeRequestTooLarge   ErrorCode = "request_too_large"
	ErrCodeMalformedRequest  ErrorCode = "malformed_request"
)

// RequestError is an error about the HTTP request itself rather than its UFTP content.
type RequestError struct {
	code    ErrorCode
	message string
}

func (e *RequestError) Error() string   { return e.message }
func (e *RequestError) Code() ErrorCode { return e.code }

func NewRateLimitError(msg string) error {
	return &RequestError{code: ErrCodeRateLimitExceeded, message: msg}
}

func NewRequestTooLargeError(msg string) error {
	return &RequestError{code: ErrCodeRequestTooLarge, message: msg}
}

func NewMalformedRequestError(msg string) error {
	return &RequestError{code: ErrCodeMalformedRequest, message: msg}
}

// MapErrorToStatus returns the HTTP status for err and the error code reported to the client.
func MapErrorToStatus(err error) (int, string) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.code {
		case ErrCodeRateLimitExceeded:
			return http.StatusTooManyRequests, string(reqErr.code)
		case ErrCodeRequestTooLarge:
			return http.StatusRequestEntityTooLarge, string(reqErr.code)
		default:
			return http.StatusBadRequest, string(reqErr.code)
		}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge, string(ErrCodeRequestTooLarge)
	}

	var uftpErr *uftp.UftpError
	if errors.As(err, &uftpErr) {
		switch uftpErr.Code() {
		case uftp.ErrCodeMalformedMessage, uftp.ErrCodeDuplicateMessage, uftp.ErrCodeReusedMessageID:
			return http.StatusBadRequest, string(uftpErr.Code())
		case uftp.ErrCodeUnknownParticipant:
			return http.StatusUnauthorized, string(uftpErr.Code())
		default:
			return http.StatusInternalServerError, string(uftpErr.Code())
		}
	}

	var cryptoErr *crypto.CryptoError
	if errors.As(err, &cryptoErr) {
		switch cryptoErr.Code() {
		case crypto.ErrCodeAuthentication:
			return http.StatusUnauthorized, string(cryptoErr.Code())
		case crypto.ErrCodeValidation:
			return http.StatusBadRequest, string(cryptoErr.Code())
		default:
			return http.StatusInternalServerError, string(cryptoErr.Code())
		}
	}

	// the sender's key could not be resolved: the request cannot be authenticated
	var dirErr *directory.DirectoryError
	if errors.As(err, &dirErr) {
		if dirErr.Code() == directory.ErrCodeKey {
			return http.StatusUnauthorized, string(dirErr.Code())
		}
		return http.StatusInternalServerError, string(dirErr.Code())
	}

	var sendErr *sending.SendError
	if errors.As(err, &sendErr) {
		switch sendErr.Code() {
		case sending.ErrCodeValidation:
			return http.StatusUnprocessableEntity, string(sendErr.Code())
		case sending.ErrCodeClient, sending.ErrCodeServer, sending.ErrCodeUnexpectedStatus, sending.ErrCodeTransport:
			return http.StatusBadGateway, string(sendErr.Code())
		case sending.ErrCodeInterrupted:
			return http.StatusGatewayTimeout, string(sendErr.Code())
		default:
			return http.StatusInternalServerError, string(sendErr.Code())
		}
	}

	return http.StatusInternalServerError, "internal"
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	StatusCode     int    `json:"statusCode" example:"400"`
	StatusCodeText string `json:"statusCodeText" example:"Bad Request"`
	ErrorCode      string `json:"errorCode" example:"duplicate_message"`

	// Message is omitted for internal errors
	Message   string `json:"message,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// RespondWithError logs err and writes the mapped ErrorResponse.
// The error text is only returned to the client for 4xx statuses.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := MapErrorToStatus(err)
	requestID := requestID(r)

	reqLogger := logger.ContextRequestLogger(r.Context())
	attrs := []any{
		slog.String("error", err.Error()),
		slog.Int("status_code", status),
		slog.String("error_code", code),
	}
	if status >= http.StatusInternalServerError {
		reqLogger.Error("request failed", append(attrs, slog.String("error_type", fmt.Sprintf("%T", err)))...)
	} else {
		reqLogger.Warn("request failed", attrs...)
	}

	body := ErrorResponse{
		StatusCode:     status,
		StatusCodeText: http.StatusText(status),
		ErrorCode:      code,
		RequestID:      requestID,
	}
	if status < http.StatusInternalServerError {
		body.Message = err.Error()
	}
	RespondWithJSONPayload(w, status, body)
}
