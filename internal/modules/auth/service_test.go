package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"transporter/internal/infra"
)

// memChallenges is an in-memory ChallengeStore with a controllable clock.
type memChallenges struct {
	mu   sync.Mutex
	now  time.Time
	ttl  time.Duration
	byID map[string]Challenge
}

func newMemChallenges() *memChallenges {
	return &memChallenges{now: time.Unix(1_700_000_000, 0), ttl: time.Minute, byID: map[string]Challenge{}}
}

func (m *memChallenges) Acquire(_ context.Context, scope, token string) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if scope == "" || token == "" {
		return Challenge{}, ErrChallengeFailed
	}
	ch := Challenge{Scope: scope, Token: token, ExpiresAt: m.now.Add(m.ttl)}
	m.byID[scope] = ch
	return ch, nil
}

func (m *memChallenges) Live(_ context.Context, scope string) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.byID[scope]
	if !ok || !m.now.Before(ch.ExpiresAt) {
		return Challenge{}, ErrChallengeFailed
	}
	return ch, nil
}

func (m *memChallenges) Release(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, scope)
	return nil
}

type stubPhone struct {
	sentTo    string
	sentToken string
	sendErr   error
	verifyErr error
}

func (p *stubPhone) SendCode(_ context.Context, phone, token string) (string, error) {
	p.sentTo, p.sentToken = phone, token
	if p.sendErr != nil {
		return "", p.sendErr
	}
	return "session-info-1", nil
}

func (p *stubPhone) VerifyCode(_ context.Context, id, code string) (string, error) {
	if p.verifyErr != nil {
		return "", p.verifyErr
	}
	if id != "session-info-1" || code != "123456" {
		return "", ErrCodeInvalid
	}
	return "id-token-phone", nil
}

type stubPasswords struct {
	accounts map[string]string
}

func (p *stubPasswords) SignIn(_ context.Context, email, password string) (string, error) {
	pw, ok := p.accounts[email]
	switch {
	case !ok:
		return "", ErrUserNotFound
	case pw != password:
		return "", ErrWrongPassword
	}
	return "id-token-" + email, nil
}

func (p *stubPasswords) CreateAccount(_ context.Context, email, password string, _ Role) (string, error) {
	if _, ok := p.accounts[email]; ok {
		return "", ErrEmailInUse
	}
	p.accounts[email] = password
	return "uid-" + email, nil
}

type stubVerifier struct {
	err error
}

func (v *stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*infra.FirebaseToken, error) {
	if v.err != nil {
		return nil, v.err
	}
	claims := map[string]interface{}{}
	if idToken == "id-token-phone" {
		claims["phone_number"] = "+919876543210"
	}
	return &infra.FirebaseToken{UID: "uid:" + idToken, Claims: claims}, nil
}

type memSessions struct {
	byToken map[string]Identity
	err     error
}

func (m *memSessions) Save(_ context.Context, id Identity) error {
	if m.err != nil {
		return m.err
	}
	m.byToken[id.Token] = id
	return nil
}

func (m *memSessions) Delete(_ context.Context, token string) error {
	delete(m.byToken, token)
	return nil
}

func (m *memSessions) Load(_ context.Context, token string) (Identity, error) {
	id, ok := m.byToken[token]
	if !ok {
		return Identity{}, ErrSessionNotFound
	}
	return id, nil
}

type memUsers struct {
	users map[string]User
	err   error
}

func (m *memUsers) Upsert(_ context.Context, u User) error {
	if m.err != nil {
		return m.err
	}
	m.users[u.UID] = u
	return nil
}

type fixture struct {
	svc        *Service
	challenges *memChallenges
	phone      *stubPhone
	passwords  *stubPasswords
	verifier   *stubVerifier
	sessions   *memSessions
	users      *memUsers
}

func newFixture() *fixture {
	f := &fixture{
		challenges: newMemChallenges(),
		phone:      &stubPhone{},
		passwords:  &stubPasswords{accounts: map[string]string{"driver@transporter.in": "secret1"}},
		verifier:   &stubVerifier{},
		sessions:   &memSessions{byToken: map[string]Identity{}},
		users:      &memUsers{users: map[string]User{}},
	}
	f.svc = NewService(ServiceDeps{
		Challenges: f.challenges,
		Phone:      f.phone,
		Passwords:  f.passwords,
		Accounts:   f.passwords,
		Verifier:   f.verifier,
		Tokens:     NewTokenIssuer("test-secret"),
		Sessions:   f.sessions,
		Users:      f.users,
	})
	return f
}

func TestRequestCode_RequiresLiveChallenge(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.RequestCode(ctx, RequestCodeCommand{Scope: "page-1", Phone: "9876543210"})
	if !errors.Is(err, ErrChallengeFailed) {
		t.Fatalf("expected ErrChallengeFailed without challenge, got %v", err)
	}

	if _, err := f.svc.AcquireChallenge(ctx, "page-1", "recaptcha-token"); err != nil {
		t.Fatal(err)
	}
	h, err := f.svc.RequestCode(ctx, RequestCodeCommand{Scope: "page-1", Phone: "9876543210"})
	if err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}
	if h.Phone != "+919876543210" || h.VerificationID == "" {
		t.Errorf("handle = %+v", h)
	}
	if f.phone.sentTo != "+919876543210" || f.phone.sentToken != "recaptcha-token" {
		t.Errorf("provider got %q / %q", f.phone.sentTo, f.phone.sentToken)
	}

	// Expired challenges must be re-satisfied.
	f.challenges.now = f.challenges.now.Add(2 * time.Minute)
	if _, err := f.svc.RequestCode(ctx, RequestCodeCommand{Scope: "page-1", Phone: "9876543210"}); !errors.Is(err, ErrChallengeFailed) {
		t.Fatalf("expected ErrChallengeFailed after expiry, got %v", err)
	}
}

func TestRequestCode_ReleasedChallenge(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.AcquireChallenge(ctx, "page-1", "tok")
	if err := f.svc.ReleaseChallenge(ctx, "page-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RequestCode(ctx, RequestCodeCommand{Scope: "page-1", Phone: "9876543210"}); !errors.Is(err, ErrChallengeFailed) {
		t.Fatalf("expected ErrChallengeFailed, got %v", err)
	}
}

func TestRequestCode_ProviderRejectsChallenge(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.AcquireChallenge(ctx, "page-1", "stale-token")
	f.phone.sendErr = ErrChallengeFailed

	if _, err := f.svc.RequestCode(ctx, RequestCodeCommand{Scope: "page-1", Phone: "9876543210"}); !errors.Is(err, ErrChallengeFailed) {
		t.Fatalf("expected ErrChallengeFailed, got %v", err)
	}
	if _, err := f.challenges.Live(ctx, "page-1"); err == nil {
		t.Error("rejected challenge should be released")
	}
}

func TestRequestCode_InvalidPhone(t *testing.T) {
	f := newFixture()
	f.svc.AcquireChallenge(context.Background(), "page-1", "tok")
	_, err := f.svc.RequestCode(context.Background(), RequestCodeCommand{Scope: "page-1", Phone: "12345"})
	if !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	if f.phone.sentTo != "" {
		t.Error("provider called with invalid phone")
	}
}

func TestVerifyCode_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id, err := f.svc.VerifyCode(ctx, VerifyCodeCommand{VerificationID: "session-info-1", Phone: "9876543210", Code: "123456"})
	if err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}
	if id.Token == "" || id.User.UID != "uid:id-token-phone" || id.User.Role != RoleCustomer {
		t.Fatalf("identity = %+v", id)
	}
	if id.User.Phone != "+919876543210" {
		t.Errorf("phone = %q", id.User.Phone)
	}
	if _, ok := f.users.users[id.User.UID]; !ok {
		t.Error("profile not stored")
	}

	got, err := f.svc.Session(ctx, id.Token)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got.User.UID != id.User.UID {
		t.Errorf("session user = %+v", got.User)
	}
}

func TestVerifyCode_Failures(t *testing.T) {
	tests := []struct {
		name      string
		cmd       VerifyCodeCommand
		verifyErr error
		want      error
	}{
		{"wrong code", VerifyCodeCommand{VerificationID: "session-info-1", Code: "000000"}, nil, ErrCodeInvalid},
		{"malformed code", VerifyCodeCommand{VerificationID: "session-info-1", Code: "12ab"}, nil, ErrCodeInvalid},
		{"missing handle", VerifyCodeCommand{Code: "123456"}, nil, ErrCodeInvalid},
		{"network failure", VerifyCodeCommand{VerificationID: "session-info-1", Code: "123456"}, errors.New("connection reset"), ErrCodeInvalid},
		{"rate limited", VerifyCodeCommand{VerificationID: "session-info-1", Code: "123456"}, ErrTooManyAttempts, ErrTooManyAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.phone.verifyErr = tt.verifyErr
			_, err := f.svc.VerifyCode(context.Background(), tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if len(f.sessions.byToken) != 0 {
				t.Error("session stored on failure")
			}
		})
	}
}

func TestVerifyCode_ExchangeFailureKeepsNoSession(t *testing.T) {
	f := newFixture()
	f.verifier.err = errors.New("token revoked")
	_, err := f.svc.VerifyCode(context.Background(), VerifyCodeCommand{VerificationID: "session-info-1", Code: "123456"})
	if !errors.Is(err, ErrAuthExchangeFailed) {
		t.Fatalf("expected ErrAuthExchangeFailed, got %v", err)
	}
	if len(f.sessions.byToken) != 0 || len(f.users.users) != 0 {
		t.Error("partial state kept after exchange failure")
	}

	f = newFixture()
	f.users.err = errors.New("db down")
	_, err = f.svc.VerifyCode(context.Background(), VerifyCodeCommand{VerificationID: "session-info-1", Code: "123456"})
	if !errors.Is(err, ErrAuthExchangeFailed) || len(f.sessions.byToken) != 0 {
		t.Fatalf("error = %v, sessions = %d", err, len(f.sessions.byToken))
	}

	f = newFixture()
	f.sessions.err = errors.New("redis down")
	_, err = f.svc.VerifyCode(context.Background(), VerifyCodeCommand{VerificationID: "session-info-1", Code: "123456"})
	if !errors.Is(err, ErrAuthExchangeFailed) {
		t.Fatalf("expected ErrAuthExchangeFailed, got %v", err)
	}
	if len(f.users.users) != 0 {
		t.Errorf("profile written without a session: %+v", f.users.users)
	}
}

func TestDriverAuth(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id, err := f.svc.DriverSignUp(ctx, EmailCommand{Email: "new@transporter.in", Password: "secret1"})
	if err != nil {
		t.Fatalf("DriverSignUp() error = %v", err)
	}
	if id.User.Role != RoleDriver || id.User.Email != "new@transporter.in" {
		t.Errorf("identity = %+v", id.User)
	}

	if _, err := f.svc.DriverSignUp(ctx, EmailCommand{Email: "new@transporter.in", Password: "secret1"}); !errors.Is(err, ErrEmailInUse) {
		t.Errorf("duplicate signup error = %v", err)
	}
	if _, err := f.svc.DriverSignIn(ctx, EmailCommand{Email: "driver@transporter.in", Password: "secret1"}); err != nil {
		t.Errorf("DriverSignIn() error = %v", err)
	}
	if _, err := f.svc.DriverSignIn(ctx, EmailCommand{Email: "driver@transporter.in", Password: "wrong-pw"}); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := f.svc.DriverSignIn(ctx, EmailCommand{Email: "ghost@transporter.in", Password: "secret1"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v", err)
	}
	if _, err := f.svc.DriverSignIn(ctx, EmailCommand{Email: "driver@transporter.in", Password: "123"}); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password error = %v", err)
	}
}

func TestSession_UnknownToken(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Session(context.Background(), "garbage"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	// Well-signed but never stored.
	tok, _ := NewTokenIssuer("test-secret").Issue(User{UID: "u1", Role: RoleCustomer})
	if _, err := f.svc.Session(context.Background(), tok); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(ErrCodeInvalid); got != "Invalid OTP or Network Error." {
		t.Errorf("got %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != "Authentication failed." {
		t.Errorf("got %q", got)
	}
}
