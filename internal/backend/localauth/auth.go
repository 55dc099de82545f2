// Package localauth implements identity.Authenticator on top of the document
// store: bcrypt password hashes and HS256-signed JWT sessions. It serves
// self-hosted deployments without a managed identity provider.
package localauth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"todoshare/internal/apperr"
	"todoshare/internal/docstore"
	"todoshare/internal/identity"
)

// AccountsCollection holds one document per account.
const AccountsCollection = "accounts"

const (
	kindAccess  = "access"
	kindRefresh = "refresh"

	minPasswordLen = 6
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = time.Hour

// RefreshTTL is the lifetime of a refresh token.
const RefreshTTL = 30 * 24 * time.Hour

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// Auth implements identity.Authenticator.
type Auth struct {
	docs   docstore.Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// New creates an Auth signing tokens with secret.
func New(docs docstore.Store, secret string, ttl time.Duration) (*Auth, error) {
	if len(secret) < 16 {
		return nil, errors.New("local jwt_secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Auth{docs: docs, secret: []byte(secret), ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}, nil
}

// SetCost overrides the bcrypt cost (for testing).
func (a *Auth) SetCost(cost int) { a.cost = cost }

// SetClock overrides the time source (for testing).
func (a *Auth) SetClock(now func() time.Time) { a.now = now }

// SignUp implements identity.Authenticator.
func (a *Auth) SignUp(ctx context.Context, email, password, displayName string) (identity.Session, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return identity.Session{}, apperr.Validation("email", "invalid email address")
	}
	if len(password) < minPasswordLen {
		return identity.Session{}, apperr.Validation("password", fmt.Sprintf("password should be at least %d characters", minPasswordLen))
	}
	existing, err := a.docs.Query(ctx, AccountsCollection, docstore.Eq("email", email))
	if err != nil {
		return identity.Session{}, docstore.Wrap("look up account", err)
	}
	if len(existing) > 0 {
		return identity.Session{}, apperr.Validation("email", "email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return identity.Session{}, fmt.Errorf("hash password: %w", err)
	}
	id := identity.Identity{UID: uuid.NewString(), Email: email, DisplayName: strings.TrimSpace(displayName)}
	err = a.docs.Set(ctx, AccountsCollection, id.UID, map[string]any{
		"email":        email,
		"passwordHash": string(hash),
		"displayName":  id.DisplayName,
		"createdAt":    a.now(),
	})
	if err != nil {
		return identity.Session{}, docstore.Wrap("create account", err)
	}
	return a.issue(id)
}

// SignIn implements identity.Authenticator. Unknown emails and wrong
// passwords are indistinguishable.
func (a *Auth) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	docs, err := a.docs.Query(ctx, AccountsCollection, docstore.Eq("email", email))
	if err != nil {
		return identity.Session{}, docstore.Wrap("look up account", err)
	}
	if len(docs) == 0 {
		return identity.Session{}, apperr.ErrInvalidCredentials
	}
	doc := docs[0]
	hash, _ := doc.Fields["passwordHash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return identity.Session{}, apperr.ErrInvalidCredentials
	}
	name, _ := doc.Fields["displayName"].(string)
	return a.issue(identity.Identity{UID: doc.ID, Email: email, DisplayName: name})
}

// Verify implements identity.Authenticator.
func (a *Auth) Verify(ctx context.Context, idToken string) (identity.Identity, error) {
	c, err := a.parse(idToken, kindAccess)
	if err != nil {
		return identity.Identity{}, err
	}
	return identity.Identity{UID: c.Subject, Email: c.Email, DisplayName: c.Name}, nil
}

// UpdateProfile implements identity.Authenticator.
func (a *Auth) UpdateProfile(ctx context.Context, idToken, displayName string) error {
	id, err := a.Verify(ctx, idToken)
	if err != nil {
		return err
	}
	err = a.docs.Update(ctx, AccountsCollection, id.UID, map[string]any{"displayName": displayName})
	if err != nil {
		return docstore.Wrap("update account", err)
	}
	return nil
}

// TokenSource implements identity.Authenticator.
func (a *Auth) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(tok, refresher{a: a, refresh: tok.RefreshToken})
}

type refresher struct {
	a       *Auth
	refresh string
}

func (r refresher) Token() (*oauth2.Token, error) {
	c, err := r.a.parse(r.refresh, kindRefresh)
	if err != nil {
		return nil, err
	}
	s, err := r.a.issue(identity.Identity{UID: c.Subject, Email: c.Email, DisplayName: c.Name})
	if err != nil {
		return nil, err
	}
	return s.Token, nil
}

func (a *Auth) issue(id identity.Identity) (identity.Session, error) {
	now := a.now()
	access, err := a.sign(id, kindAccess, now, now.Add(a.ttl))
	if err != nil {
		return identity.Session{}, err
	}
	refresh, err := a.sign(id, kindRefresh, now, now.Add(RefreshTTL))
	if err != nil {
		return identity.Session{}, err
	}
	return identity.Session{
		Identity: id,
		Token: &oauth2.Token{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			Expiry:       now.Add(a.ttl),
		},
	}, nil
}

func (a *Auth) sign(id identity.Identity, kind string, now, exp time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		Name:  id.DisplayName,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *Auth) parse(raw, kind string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || c.Kind != kind || c.Subject == "" {
		return nil, fmt.Errorf("%s token: %w", kind, apperr.ErrInvalidCredentials)
	}
	return &c, nil
}
