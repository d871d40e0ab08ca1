// Package auth owns the process's single authentication session.
//
// The manager is a two-state machine (SignedOut, SignedIn) over a pluggable
// IdentityProvider. Failures are reported once and never retried.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgauth "zeus-backend/pkg/auth"
	apperrors "zeus-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrNotSignedIn is returned by operations that need an active session.
var ErrNotSignedIn = errors.New("not signed in")

type State int

const (
	SignedOut State = iota
	SignedIn
)

func (s State) String() string {
	if s == SignedIn {
		return "signed_in"
	}
	return "signed_out"
}

// Session is the credential state issued by the identity provider.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	// ExpiresAt is zero when the provider did not report an expiry.
	ExpiresAt time.Time
}

// Registration is the result of a sign-up. ConfirmationRequired is set when
// the account must be confirmed before the first sign-in.
type Registration struct {
	UserID               string
	Email                string
	ConfirmationRequired bool
}

// IdentityProvider is the third-party email/password endpoint.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string) (Registration, error)
	SignOut(ctx context.Context, accessToken string) error
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type Manager struct {
	provider IdentityProvider
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	session *Session
}

func NewManager(provider IdentityProvider, logger *zap.Logger) *Manager {
	return &Manager{
		provider: provider,
		validate: validator.New(),
		logger:   logger.Named("auth"),
		now:      time.Now,
	}
}

// SignIn authenticates and moves the manager to SignedIn. On failure the
// current state is left as it was.
func (m *Manager) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := m.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return Session{}, apperrors.NewValidation("a valid email and a password are required")
	}

	session, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		m.logger.Info("sign-in failed", zap.String("email", email), zap.Error(err))
		return Session{}, apperrors.NewAuth("sign-in failed", err)
	}
	if session.AccessToken == "" {
		return Session{}, apperrors.NewAuth("sign-in returned no session", nil)
	}
	if session.Email == "" {
		session.Email = email
	}
	if session.ExpiresAt.IsZero() {
		if exp, err := pkgauth.ExpiresAt(session.AccessToken); err == nil {
			session.ExpiresAt = exp
		}
	}

	m.mu.Lock()
	m.session = &session
	m.mu.Unlock()

	m.logger.Info("signed in", zap.String("user_id", session.UserID))
	return session, nil
}

// SignUp registers an account. It never changes the session state.
func (m *Manager) SignUp(ctx context.Context, email, password string) (Registration, error) {
	if err := m.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return Registration{}, apperrors.NewValidation("a valid email and a password are required")
	}

	reg, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		m.logger.Info("sign-up failed", zap.String("email", email), zap.Error(err))
		return Registration{}, apperrors.NewAuth("sign-up failed", err)
	}
	if reg.Email == "" {
		reg.Email = email
	}
	return reg, nil
}

// SignOut returns to SignedOut unconditionally. A provider failure is logged
// and does not keep the local session alive.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	session := m.session
	m.session = nil
	m.mu.Unlock()

	if session == nil {
		return
	}
	if err := m.provider.SignOut(ctx, session.AccessToken); err != nil {
		m.logger.Warn("provider sign-out failed", zap.String("user_id", session.UserID), zap.Error(err))
	}
	m.logger.Info("signed out", zap.String("user_id", session.UserID))
}

// IsSignedIn reports whether a session exists and has not expired. It never blocks on I/O.
func (m *Manager) IsSignedIn() bool {
	return m.State() == SignedIn
}

func (m *Manager) State() State {
	if _, ok := m.Session(); ok {
		return SignedIn
	}
	return SignedOut
}

// Session returns the current, unexpired session.
func (m *Manager) Session() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return Session{}, false
	}
	if !m.session.ExpiresAt.IsZero() && !m.now().Before(m.session.ExpiresAt) {
		return Session{}, false
	}
	return *m.session, true
}

// AccessToken returns the bearer token of the current session or ErrNotSignedIn.
func (m *Manager) AccessToken() (string, error) {
	s, ok := m.Session()
	if !ok {
		return "", ErrNotSignedIn
	}
	return s.AccessToken, nil
}
