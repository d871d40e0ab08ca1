package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "zeus-backend/pkg/errors"
)

type fakeProvider struct {
	session    Session
	reg        Registration
	signInErr  error
	signUpErr  error
	signOutErr error

	signOutCalls int
	lastToken    string
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	if f.signInErr != nil {
		return Session{}, f.signInErr
	}
	return f.session, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (Registration, error) {
	if f.signUpErr != nil {
		return Registration{}, f.signUpErr
	}
	return f.reg, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, accessToken string) error {
	f.signOutCalls++
	f.lastToken = accessToken
	return f.signOutErr
}

func newManager(p IdentityProvider) *Manager {
	return NewManager(p, zap.NewNop())
}

func TestSignInTransitions(t *testing.T) {
	p := &fakeProvider{session: Session{UserID: "u1", AccessToken: "opaque"}}
	m := newManager(p)
	ctx := context.Background()

	assert.False(t, m.IsSignedIn())
	assert.Equal(t, SignedOut, m.State())

	s, err := m.SignIn(ctx, "user@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", s.Email)
	assert.True(t, m.IsSignedIn())
	assert.Equal(t, "signed_in", m.State().String())

	token, err := m.AccessToken()
	require.NoError(t, err)
	assert.Equal(t, "opaque", token)
}

func TestSignInFailureStaysSignedOut(t *testing.T) {
	p := &fakeProvider{signInErr: errors.New("invalid login credentials")}
	m := newManager(p)

	_, err := m.SignIn(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.False(t, m.IsSignedIn())

	_, err = m.AccessToken()
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSignInValidatesInput(t *testing.T) {
	m := newManager(&fakeProvider{})

	_, err := m.SignIn(context.Background(), "not-an-email", "pw")
	assert.True(t, apperrors.IsValidation(err))

	_, err = m.SignIn(context.Background(), "user@example.com", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestSignUpDoesNotSignIn(t *testing.T) {
	p := &fakeProvider{reg: Registration{UserID: "u2", ConfirmationRequired: true}}
	m := newManager(p)

	reg, err := m.SignUp(context.Background(), "new@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, reg.ConfirmationRequired)
	assert.Equal(t, "new@example.com", reg.Email)
	assert.False(t, m.IsSignedIn())

	p.signUpErr = errors.New("user already registered")
	_, err = m.SignUp(context.Background(), "new@example.com", "pw")
	assert.True(t, apperrors.IsAuth(err))
}

func TestSignOutIsUnconditional(t *testing.T) {
	p := &fakeProvider{
		session:    Session{UserID: "u1", AccessToken: "tok"},
		signOutErr: errors.New("network down"),
	}
	m := newManager(p)
	_, err := m.SignIn(context.Background(), "user@example.com", "pw")
	require.NoError(t, err)

	m.SignOut(context.Background())
	assert.False(t, m.IsSignedIn())
	assert.Equal(t, 1, p.signOutCalls)
	assert.Equal(t, "tok", p.lastToken)

	// signing out while signed out does not reach the provider
	m.SignOut(context.Background())
	assert.Equal(t, 1, p.signOutCalls)
}

func TestSessionExpiry(t *testing.T) {
	now := time.Now()
	p := &fakeProvider{session: Session{UserID: "u1", AccessToken: "tok", ExpiresAt: now.Add(time.Minute)}}
	m := newManager(p)
	m.now = func() time.Time { return now }

	_, err := m.SignIn(context.Background(), "user@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, m.IsSignedIn())

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, m.IsSignedIn())
}

func TestExpiryReadFromAccessToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	m := newManager(&fakeProvider{session: Session{UserID: "u1", AccessToken: tok}})
	s, err := m.SignIn(context.Background(), "user@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, exp.Equal(s.ExpiresAt))
}
