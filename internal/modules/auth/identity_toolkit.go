// README: Phone OTP and email sign-in through the Identity Toolkit REST API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// IdentityToolkit implements PhoneProvider and PasswordProvider with the project's web
// API key, the same calls the browser SDK makes.
type IdentityToolkit struct {
	svc *identitytoolkit.Service
}

func NewIdentityToolkit(ctx context.Context, apiKey string) (*IdentityToolkit, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit.NewService: %w", err)
	}
	return &IdentityToolkit{svc: svc}, nil
}

func (p *IdentityToolkit) SendCode(ctx context.Context, phone, challengeToken string) (string, error) {
	resp, err := p.svc.Relyingparty.SendVerificationCode(&identitytoolkit.IdentitytoolkitRelyingpartySendVerificationCodeRequest{
		PhoneNumber:    phone,
		RecaptchaToken: challengeToken,
	}).Context(ctx).Do()
	if err != nil {
		return "", classifyProviderError(err)
	}
	return resp.SessionInfo, nil
}

func (p *IdentityToolkit) VerifyCode(ctx context.Context, verificationID, code string) (string, error) {
	resp, err := p.svc.Relyingparty.VerifyPhoneNumber(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPhoneNumberRequest{
		SessionInfo: verificationID,
		Code:        code,
	}).Context(ctx).Do()
	if err != nil {
		return "", classifyProviderError(err)
	}
	return resp.IdToken, nil
}

func (p *IdentityToolkit) SignIn(ctx context.Context, email, password string) (string, error) {
	resp, err := p.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return "", classifyProviderError(err)
	}
	return resp.IdToken, nil
}

var providerCodes = map[string]error{
	"TOO_MANY_ATTEMPTS_TRY_LATER": ErrTooManyAttempts,
	"QUOTA_EXCEEDED":              ErrTooManyAttempts,
	"INVALID_PHONE_NUMBER":        ErrInvalidPhone,
	"MISSING_PHONE_NUMBER":        ErrInvalidPhone,
	"CAPTCHA_CHECK_FAILED":        ErrChallengeFailed,
	"INVALID_RECAPTCHA_TOKEN":     ErrChallengeFailed,
	"MISSING_RECAPTCHA_TOKEN":     ErrChallengeFailed,
	"INVALID_CODE":                ErrCodeInvalid,
	"MISSING_CODE":                ErrCodeInvalid,
	"SESSION_EXPIRED":             ErrCodeInvalid,
	"INVALID_SESSION_INFO":        ErrCodeInvalid,
	"EMAIL_EXISTS":                ErrEmailInUse,
	"INVALID_PASSWORD":            ErrWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   ErrWrongPassword,
	"EMAIL_NOT_FOUND":             ErrUserNotFound,
	"INVALID_EMAIL":               ErrInvalidEmail,
}

// classifyProviderError maps the API's error code (the leading token of the message,
// e.g. "TOO_MANY_ATTEMPTS_TRY_LATER : ...") onto the package sentinels.
func classifyProviderError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	code, _, _ := strings.Cut(strings.TrimSpace(gerr.Message), " ")
	if sentinel, ok := providerCodes[code]; ok {
		return fmt.Errorf("%w: %s", sentinel, code)
	}
	return err
}
