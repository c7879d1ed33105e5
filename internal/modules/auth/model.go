// README: Auth domain types, sentinel errors and provider interfaces.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrChallengeFailed    = errors.New("verification challenge failed")
	ErrCodeInvalid        = errors.New("invalid verification code")
	ErrAuthExchangeFailed = errors.New("auth exchange failed")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrMissingFields      = errors.New("missing fields")
	ErrWeakPassword       = errors.New("password too short")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWrongPassword      = errors.New("wrong password")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
)

// User is the profile stored next to the session token.
type User struct {
	UID         string    `json:"uid"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        Role      `json:"role"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// Identity is the result of a successful sign-in.
type Identity struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Challenge is a satisfied anti-automation check owned by one client scope.
type Challenge struct {
	Scope     string    `json:"scope"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CodeHandle identifies an outstanding one-time code.
type CodeHandle struct {
	VerificationID string `json:"verification_id"`
	Phone          string `json:"phone"`
}

type RequestCodeCommand struct {
	Scope string
	Phone string
}

type VerifyCodeCommand struct {
	VerificationID string
	Phone          string
	Code           string
}

type EmailCommand struct {
	Email    string
	Password string
}

// PhoneProvider sends and checks one-time codes. Implementations map provider failures to
// the sentinel errors above.
type PhoneProvider interface {
	SendCode(ctx context.Context, phone, challengeToken string) (verificationID string, err error)
	VerifyCode(ctx context.Context, verificationID, code string) (idToken string, err error)
}

// PasswordProvider exchanges email credentials for an identity token.
type PasswordProvider interface {
	SignIn(ctx context.Context, email, password string) (idToken string, err error)
}

// AccountCreator registers a new email account carrying role.
type AccountCreator interface {
	CreateAccount(ctx context.Context, email, password string, role Role) (uid string, err error)
}

type ChallengeStore interface {
	Acquire(ctx context.Context, scope, token string) (Challenge, error)
	Live(ctx context.Context, scope string) (Challenge, error)
	Release(ctx context.Context, scope string) error
}

type SessionStore interface {
	Save(ctx context.Context, id Identity) error
	Load(ctx context.Context, token string) (Identity, error)
	Delete(ctx context.Context, token string) error
}

type UserStore interface {
	Upsert(ctx context.Context, u User) error
}
