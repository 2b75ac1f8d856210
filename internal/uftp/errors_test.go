package uftp

import (
	"errors"
	"fmt"
	"testing"
)

// check to ensure error code handling has not been broken
func TestUftpError_Code(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"malformed", NewMalformedMessageError("test"), ErrCodeMalformedMessage},
		{"malformed wrapped", WrapMalformedMessageError(errors.New("x"), "test"), ErrCodeMalformedMessage},
		{"duplicate", NewDuplicateReceiveError(DuplicateMessage, "id"), ErrCodeDuplicateMessage},
		{"reused", NewDuplicateReceiveError(ReusedIDDifferentContent, "id"), ErrCodeReusedMessageID},
		{"unknown participant", NewUnknownParticipantError("test"), ErrCodeUnknownParticipant},
		{"internal", NewInternalError("test"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var uftpErr *UftpError
			if !errors.As(fmt.Errorf("outer: %w", tt.err), &uftpErr) {
				t.Fatal("error is not a UftpError")
			}
			if uftpErr.Code() != tt.wantCode {
				t.Errorf("Code() = %q, want %q", uftpErr.Code(), tt.wantCode)
			}
		})
	}
}

func TestIsDuplicateReceive(t *testing.T) {
	if !IsDuplicateReceive(NewDuplicateReceiveError(DuplicateMessage, "a")) {
		t.Error("duplicate error not recognised")
	}
	if !IsDuplicateReceive(NewDuplicateReceiveError(ReusedIDDifferentContent, "a")) {
		t.Error("reused id error not recognised")
	}
	if IsDuplicateReceive(NewInternalError("a")) {
		t.Error("internal error recognised as duplicate")
	}
}
