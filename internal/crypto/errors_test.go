package crypto

import (
	"errors"
	"fmt"
	"testing"
)

// check to ensure error code handling has not been broken
func TestCryptoError_Code(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"authentication", NewAuthenticationError("test"), ErrCodeAuthentication},
		{"signing", NewSigningError("test"), ErrCodeSigning},
		{"key_management", NewKeyManagementError("test"), ErrCodeKeyManagement},
		{"validation", NewValidationError("test"), ErrCodeValidation},
		{"internal", NewInternalError("test"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cryptoErr *CryptoError
			if !errors.As(tt.err, &cryptoErr) {
				t.Fatal("error is not a CryptoError")
			}
			if cryptoErr.Code() != tt.wantCode {
				t.Errorf("Code() = %q, want %q", cryptoErr.Code(), tt.wantCode)
			}
		})
	}
}

func TestIsAuthenticationErrorThroughWrapping(t *testing.T) {
	inner := WrapAuthenticationError(errors.New("bad signature"), "verify failed")
	wrapped := fmt.Errorf("receive: %w", inner)

	if !IsAuthenticationError(wrapped) {
		t.Error("wrapped authentication error not detected")
	}
	if IsAuthenticationError(NewSigningError("x")) {
		t.Error("signing error reported as authentication error")
	}
}
