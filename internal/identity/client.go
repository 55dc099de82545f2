package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	"todoshare/internal/apperr"
)

// Client is the Source of a CLI user: one signed-in session kept in a JSON
// file, its token refreshed through the Authenticator.
type Client struct {
	auth Authenticator
	path string

	mu   sync.Mutex
	held *Session // set by Adopt
}

// NewClient creates a Client storing its session at path.
func NewClient(auth Authenticator, path string) *Client {
	return &Client{auth: auth, path: path}
}

// Current returns the signed-in identity, or nil.
func (c *Client) Current(ctx context.Context) (*Identity, error) {
	s, err := c.Session(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return &s.Identity, nil
}

// Session implements Source. An expired token is refreshed and saved; a
// session the provider no longer accepts is discarded.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.held != nil && c.held.Token.Valid() {
		s := *c.held
		return &s, nil
	}
	s, err := LoadSession(c.path)
	if err != nil || s == nil || s.Token == nil {
		return nil, err
	}
	if s.Token.Valid() {
		return s, nil
	}
	tok, err := c.auth.TokenSource(ctx, s.Token).Token()
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			_ = ClearSession(c.path)
			return nil, nil
		}
		return nil, apperr.Store("refresh session", err)
	}
	s.Token = tok
	if err := SaveSession(c.path, *s); err != nil {
		return nil, err
	}
	return s, nil
}

// TokenSource returns the signed-in user's token, refreshed as needed. It
// lets backends call Google APIs as the user.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return clientTokens{ctx: ctx, c: c}
}

type clientTokens struct {
	ctx context.Context
	c   *Client
}

func (t clientTokens) Token() (*oauth2.Token, error) {
	s, err := t.c.Session(t.ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.ErrAuthRequired
	}
	return s.Token, nil
}

// Adopt makes s the current session of this process, ahead of whatever
// the session file holds. Sign-up uses it so the profile write that follows
// is made as the new account.
func (c *Client) Adopt(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = &s
}

// SignOut forgets the stored session.
func (c *Client) SignOut() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = nil
	return ClearSession(c.path)
}

// SaveSession writes s to path with mode 0600, creating the parent
// directory with mode 0700.
func SaveSession(path string, s Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession reads the session at path. A missing or unreadable session
// file means nobody is signed in.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.UID == "" {
		return nil, nil
	}
	return &s, nil
}

// ClearSession removes the session at path. Removing a missing session is
// not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
