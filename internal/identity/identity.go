// Package identity is the port to the identity provider.
//
// An Authenticator is stateless and talks to the provider. A Client keeps
// the signed-in session of a CLI user on disk; ContextSource serves HTTP
// requests whose bearer token was verified by middleware.
package identity

import (
	"context"

	"golang.org/x/oauth2"
)

// Identity is an authenticated user as reported by the provider.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Session is an Identity plus the provider token that proves it.
// Token.AccessToken carries the provider's ID token.
type Session struct {
	Identity
	Token *oauth2.Token `json:"token"`
}

// IDToken returns the bearer token of s, or "" when there is none.
func (s Session) IDToken() string {
	if s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

// Authenticator is an identity provider.
type Authenticator interface {
	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, email, password, displayName string) (Session, error)

	// SignIn exchanges credentials for a session. Wrong credentials yield
	// apperr.ErrInvalidCredentials.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// Verify checks an ID token and returns the identity it names.
	Verify(ctx context.Context, idToken string) (Identity, error)

	// UpdateProfile sets the provider-side display name.
	UpdateProfile(ctx context.Context, idToken, displayName string) error

	// TokenSource returns a source that refreshes tok when it expires.
	TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
}

// Source reports the current session, or nil when nobody is signed in.
type Source interface {
	Session(ctx context.Context) (*Session, error)
}

// Adopter is a Source that can take over a session the provider has just
// issued, before the caller persists it.
type Adopter interface {
	Adopt(s Session)
}
