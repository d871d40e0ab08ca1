package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// GoTrueProvider talks to Supabase Auth. It never changes the credentials of
// the shared Supabase client: the stores keep using the anon key whatever the
// session state, and the user's token is only sent on Logout.
type GoTrueProvider struct {
	client gotrue.Client
}

func NewGoTrueProvider(client gotrue.Client) *GoTrueProvider {
	return &GoTrueProvider{client: client}
}

var _ IdentityProvider = (*GoTrueProvider)(nil)

func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	resp, err := p.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return Session{}, err
	}
	return fromSession(resp.Session), nil
}

func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string) (Registration, error) {
	if err := ctx.Err(); err != nil {
		return Registration{}, err
	}
	resp, err := p.client.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return Registration{}, err
	}

	reg := Registration{
		Email:                resp.User.Email,
		ConfirmationRequired: resp.Session.AccessToken == "",
	}
	if resp.User.ID != uuid.Nil {
		reg.UserID = resp.User.ID.String()
	} else if resp.Session.User.ID != uuid.Nil {
		reg.UserID = resp.Session.User.ID.String()
	}
	return reg, nil
}

func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.client.WithToken(accessToken).Logout()
}

func fromSession(s types.Session) Session {
	out := Session{
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.User.ID != uuid.Nil {
		out.UserID = s.User.ID.String()
	}
	if s.ExpiresAt > 0 {
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	} else if s.ExpiresIn > 0 {
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return out
}
