package auth

import (
	"errors"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		message string
		want    error
	}{
		{"INVALID_CODE", ErrCodeInvalid},
		{"SESSION_EXPIRED", ErrCodeInvalid},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled", ErrTooManyAttempts},
		{"INVALID_PHONE_NUMBER : Invalid format.", ErrInvalidPhone},
		{"CAPTCHA_CHECK_FAILED", ErrChallengeFailed},
		{"EMAIL_EXISTS", ErrEmailInUse},
		{"INVALID_PASSWORD", ErrWrongPassword},
		{"EMAIL_NOT_FOUND", ErrUserNotFound},
		{"INVALID_EMAIL", ErrInvalidEmail},
	}
	for _, tt := range tests {
		got := classifyProviderError(&googleapi.Error{Code: 400, Message: tt.message})
		if !errors.Is(got, tt.want) {
			t.Errorf("classify(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestClassifyProviderError_Passthrough(t *testing.T) {
	unknown := &googleapi.Error{Code: 500, Message: "INTERNAL_ERROR"}
	if got := classifyProviderError(unknown); got != error(unknown) {
		t.Errorf("unknown code should pass through, got %v", got)
	}
	plain := errors.New("dial tcp: timeout")
	if got := classifyProviderError(plain); got != plain {
		t.Errorf("non-API error should pass through, got %v", got)
	}
}
