// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"todoshare/internal/backend/memory"
	"todoshare/internal/events"
	"todoshare/internal/identity"
	"todoshare/internal/service"
)

// Password is the password of every account created by Fixture.SignUp.
const Password = "secret123"

// Clock is a deterministic time source advancing one second per reading.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

// Now returns the next instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// Fixture is a complete in-memory service: memory document store, fake
// identity provider and recorded events.
type Fixture struct {
	Docs    *memory.Store
	Auth    *FakeAuth
	Source  *StaticSource
	Events  *events.Recorder
	Clock   *Clock
	Service *service.Core
}

// NewFixture creates a Fixture with nobody signed in.
func NewFixture() *Fixture {
	f := &Fixture{
		Docs:   memory.New(),
		Auth:   NewFakeAuth(),
		Source: &StaticSource{},
		Events: &events.Recorder{},
		Clock:  NewClock(),
	}
	f.Service = service.New(service.Deps{
		Source: f.Source,
		Auth:   f.Auth,
		Docs:   f.Docs,
		Events: f.Events,
		Now:    f.Clock.Now,
	})
	return f
}

// SignUp registers an account through the service and signs it in.
func (f *Fixture) SignUp(t *testing.T, email, name string) identity.Session {
	t.Helper()
	s, err := f.Service.Register(context.Background(), email, Password, name)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	f.As(s)
	return s
}

// As makes s the current session.
func (f *Fixture) As(s identity.Session) {
	f.Source.Current = &s
}

// SignOut clears the current session.
func (f *Fixture) SignOut() {
	f.Source.Current = nil
}
