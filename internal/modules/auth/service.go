// README: Auth service: challenge lifecycle, phone OTP, driver email auth and session issue.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"transporter/internal/infra"
)

type ServiceDeps struct {
	Challenges ChallengeStore
	Phone      PhoneProvider
	Passwords  PasswordProvider
	Accounts   AccountCreator
	Verifier   infra.TokenVerifier
	Tokens     *TokenIssuer
	Sessions   SessionStore
	Users      UserStore
}

type Service struct {
	challenges ChallengeStore
	phone      PhoneProvider
	passwords  PasswordProvider
	accounts   AccountCreator
	verifier   infra.TokenVerifier
	tokens     *TokenIssuer
	sessions   SessionStore
	users      UserStore
	now        func() time.Time
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		challenges: deps.Challenges,
		phone:      deps.Phone,
		passwords:  deps.Passwords,
		accounts:   deps.Accounts,
		verifier:   deps.Verifier,
		tokens:     deps.Tokens,
		sessions:   deps.Sessions,
		users:      deps.Users,
		now:        time.Now,
	}
}

// AcquireChallenge records a satisfied challenge for scope, replacing any earlier one.
func (s *Service) AcquireChallenge(ctx context.Context, scope, token string) (Challenge, error) {
	if err := s.challenges.Release(ctx, scope); err != nil {
		slog.WarnContext(ctx, "challenge release failed", "scope", scope, "error", err)
	}
	return s.challenges.Acquire(ctx, scope, token)
}

func (s *Service) ReleaseChallenge(ctx context.Context, scope string) error {
	return s.challenges.Release(ctx, scope)
}

// RequestCode sends a one-time code. It needs a live challenge for cmd.Scope; when the
// provider rejects the challenge it is released so the client must satisfy a new one.
func (s *Service) RequestCode(ctx context.Context, cmd RequestCodeCommand) (CodeHandle, error) {
	phone, err := NormalizePhone(cmd.Phone)
	if err != nil {
		return CodeHandle{}, err
	}
	ch, err := s.challenges.Live(ctx, cmd.Scope)
	if err != nil {
		return CodeHandle{}, err
	}
	id, err := s.phone.SendCode(ctx, phone, ch.Token)
	if err != nil {
		if errors.Is(err, ErrChallengeFailed) {
			_ = s.challenges.Release(ctx, cmd.Scope)
		}
		return CodeHandle{}, err
	}
	return CodeHandle{VerificationID: id, Phone: phone}, nil
}

// VerifyCode checks the code and signs the customer in. Provider failures other than
// rate limiting all surface as ErrCodeInvalid.
func (s *Service) VerifyCode(ctx context.Context, cmd VerifyCodeCommand) (Identity, error) {
	code := strings.TrimSpace(cmd.Code)
	if strings.TrimSpace(cmd.VerificationID) == "" || !validCode(code) {
		return Identity{}, ErrCodeInvalid
	}
	idToken, err := s.phone.VerifyCode(ctx, cmd.VerificationID, code)
	if err != nil {
		if errors.Is(err, ErrTooManyAttempts) {
			return Identity{}, err
		}
		slog.InfoContext(ctx, "code verification failed", "error", err)
		return Identity{}, fmt.Errorf("%w: %v", ErrCodeInvalid, err)
	}
	phone, _ := NormalizePhone(cmd.Phone)
	return s.exchange(ctx, idToken, User{Phone: phone, Role: RoleCustomer})
}

// DriverSignUp creates a driver account and signs it in.
func (s *Service) DriverSignUp(ctx context.Context, cmd EmailCommand) (Identity, error) {
	cmd, err := validateEmailCommand(cmd)
	if err != nil {
		return Identity{}, err
	}
	if _, err := s.accounts.CreateAccount(ctx, cmd.Email, cmd.Password, RoleDriver); err != nil {
		return Identity{}, err
	}
	return s.driverSignIn(ctx, cmd)
}

func (s *Service) DriverSignIn(ctx context.Context, cmd EmailCommand) (Identity, error) {
	cmd, err := validateEmailCommand(cmd)
	if err != nil {
		return Identity{}, err
	}
	return s.driverSignIn(ctx, cmd)
}

func (s *Service) driverSignIn(ctx context.Context, cmd EmailCommand) (Identity, error) {
	idToken, err := s.passwords.SignIn(ctx, cmd.Email, cmd.Password)
	if err != nil {
		return Identity{}, err
	}
	return s.exchange(ctx, idToken, User{Email: cmd.Email, Role: RoleDriver})
}

// exchange turns a provider ID token into a stored session. The session is written first
// and removed again if the profile upsert fails, so a failed exchange leaves neither.
func (s *Service) exchange(ctx context.Context, idToken string, profile User) (Identity, error) {
	tok, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: verify id token: %v", ErrAuthExchangeFailed, err)
	}
	u := profile
	u.UID = tok.UID
	if v := tok.StringClaim("phone_number"); v != "" {
		u.Phone = v
	}
	if v := tok.StringClaim("email"); v != "" {
		u.Email = v
	}
	u.LastLoginAt = s.now().UTC()

	token, err := s.tokens.Issue(u)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: issue token: %v", ErrAuthExchangeFailed, err)
	}
	id := Identity{Token: token, User: u}
	if err := s.sessions.Save(ctx, id); err != nil {
		return Identity{}, fmt.Errorf("%w: save session: %v", ErrAuthExchangeFailed, err)
	}
	if err := s.users.Upsert(ctx, u); err != nil {
		if derr := s.sessions.Delete(ctx, token); derr != nil {
			slog.WarnContext(ctx, "session rollback failed", "uid", u.UID, "error", derr)
		}
		return Identity{}, fmt.Errorf("%w: save profile: %v", ErrAuthExchangeFailed, err)
	}
	slog.InfoContext(ctx, "signed in", "uid", u.UID, "role", u.Role)
	return id, nil
}

// Session resolves a bearer token to its stored identity.
func (s *Service) Session(ctx context.Context, token string) (Identity, error) {
	if _, _, err := s.tokens.Parse(token); err != nil {
		return Identity{}, err
	}
	return s.sessions.Load(ctx, token)
}

// UserMessage is the text shown next to the auth form for err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPhone):
		return "Please enter a valid 10-digit mobile number."
	case errors.Is(err, ErrTooManyAttempts):
		return "Too many attempts. Please try again later."
	case errors.Is(err, ErrChallengeFailed):
		return "reCAPTCHA error. Please refresh and try again."
	case errors.Is(err, ErrCodeInvalid):
		return "Invalid OTP or Network Error."
	case errors.Is(err, ErrMissingFields):
		return "Please fill in all fields."
	case errors.Is(err, ErrWeakPassword):
		return "Password must be at least 6 characters."
	case errors.Is(err, ErrEmailInUse):
		return "Email already in use. Please login."
	case errors.Is(err, ErrWrongPassword):
		return "Invalid password."
	case errors.Is(err, ErrUserNotFound):
		return "No driver account found with this email."
	case errors.Is(err, ErrInvalidEmail):
		return "Invalid email address."
	case errors.Is(err, ErrSessionNotFound):
		return "Please sign in again."
	}
	return "Authentication failed."
}
