// Package session gates every operation on an authenticated identity.
package session

import (
	"context"

	"todoshare/internal/apperr"
	"todoshare/internal/identity"
)

// Guard consults the identity source on every call. It never caches.
type Guard struct {
	src identity.Source
}

// NewGuard creates a Guard over src.
func NewGuard(src identity.Source) *Guard {
	return &Guard{src: src}
}

// Require returns the current session or apperr.ErrAuthRequired. It does
// no document store I/O.
func (g *Guard) Require(ctx context.Context) (identity.Session, error) {
	if g == nil || g.src == nil {
		return identity.Session{}, apperr.ErrAuthRequired
	}
	s, err := g.src.Session(ctx)
	if err != nil {
		return identity.Session{}, err
	}
	if s == nil || s.UID == "" {
		return identity.Session{}, apperr.ErrAuthRequired
	}
	return *s, nil
}
