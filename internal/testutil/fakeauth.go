package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"todoshare/internal/apperr"
	"todoshare/internal/identity"
)

type account struct {
	uid      string
	password string
	name     string
}

// FakeAuth is an in-memory identity.Authenticator. Tokens are "tok-<uid>"
// and refresh tokens "refresh-<uid>".
type FakeAuth struct {
	mu       sync.Mutex
	accounts map[string]account // email -> account
	next     int

	// Now stamps token expiry; defaults to time.Now.
	Now func() time.Time

	// Error injection for testing
	SignUpErr  error
	SignInErr  error
	RefreshErr error
	UpdateErr  error

	Refreshes int
}

// NewFakeAuth creates an empty FakeAuth.
func NewFakeAuth() *FakeAuth {
	return &FakeAuth{accounts: make(map[string]account), Now: time.Now}
}

// AddAccount registers an account directly and returns its uid.
func (f *FakeAuth) AddAccount(email, password, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	uid := fmt.Sprintf("U%d", f.next)
	f.accounts[email] = account{uid: uid, password: password, name: name}
	return uid
}

// SessionFor returns a valid session for the account with email.
func (f *FakeAuth) SessionFor(email string) identity.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session(email, f.accounts[email])
}

func (f *FakeAuth) session(email string, a account) identity.Session {
	return identity.Session{
		Identity: identity.Identity{UID: a.uid, Email: email, DisplayName: a.name},
		Token: &oauth2.Token{
			AccessToken:  "tok-" + a.uid,
			RefreshToken: "refresh-" + a.uid,
			TokenType:    "Bearer",
			Expiry:       f.Now().Add(time.Hour),
		},
	}
}

// SignUp implements identity.Authenticator.
func (f *FakeAuth) SignUp(ctx context.Context, email, password, displayName string) (identity.Session, error) {
	if f.SignUpErr != nil {
		return identity.Session{}, f.SignUpErr
	}
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return identity.Session{}, apperr.Validation("email", "email already in use")
	}
	f.mu.Unlock()
	f.AddAccount(email, password, displayName)
	return f.SessionFor(email), nil
}

// SignIn implements identity.Authenticator.
func (f *FakeAuth) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	if f.SignInErr != nil {
		return identity.Session{}, f.SignInErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok || a.password != password {
		return identity.Session{}, apperr.ErrInvalidCredentials
	}
	return f.session(email, a), nil
}

// Verify implements identity.Authenticator.
func (f *FakeAuth) Verify(ctx context.Context, idToken string) (identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := strings.CutPrefix(idToken, "tok-")
	if ok {
		for email, a := range f.accounts {
			if a.uid == uid {
				return identity.Identity{UID: uid, Email: email, DisplayName: a.name}, nil
			}
		}
	}
	return identity.Identity{}, apperr.ErrInvalidCredentials
}

// UpdateProfile implements identity.Authenticator.
func (f *FakeAuth) UpdateProfile(ctx context.Context, idToken, displayName string) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	id, err := f.Verify(ctx, idToken)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.accounts[id.Email]
	a.name = displayName
	f.accounts[id.Email] = a
	return nil
}

// TokenSource implements identity.Authenticator.
func (f *FakeAuth) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return fakeTokenSource{f: f, tok: tok}
}

// DisplayName returns the provider-side name of the account with email.
func (f *FakeAuth) DisplayName(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[email].name
}

type fakeTokenSource struct {
	f   *FakeAuth
	tok *oauth2.Token
}

func (s fakeTokenSource) Token() (*oauth2.Token, error) {
	if s.tok.Valid() {
		return s.tok, nil
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.Refreshes++
	if s.f.RefreshErr != nil {
		return nil, s.f.RefreshErr
	}
	uid, ok := strings.CutPrefix(s.tok.RefreshToken, "refresh-")
	if !ok {
		return nil, apperr.ErrInvalidCredentials
	}
	return &oauth2.Token{
		AccessToken:  "tok-" + uid,
		RefreshToken: s.tok.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.f.Now().Add(time.Hour),
	}, nil
}

// StaticSource is an identity.Source returning a fixed session.
// A nil Current means signed out.
type StaticSource struct {
	Current *identity.Session
	Err     error
	Calls   int
}

// Session implements identity.Source.
func (s *StaticSource) Session(ctx context.Context) (*identity.Session, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Current == nil {
		return nil, nil
	}
	cp := *s.Current
	return &cp, nil
}
