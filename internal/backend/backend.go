// Package backend assembles a service from configuration: the document
// store, the identity provider and the optional profile cache and event
// publisher.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"google.golang.org/api/option"

	"todoshare/internal/backend/firebaseauth"
	"todoshare/internal/backend/firestore"
	"todoshare/internal/backend/localauth"
	"todoshare/internal/backend/memory"
	"todoshare/internal/backend/mongodb"
	"todoshare/internal/cache"
	"todoshare/internal/config"
	"todoshare/internal/docstore"
	"todoshare/internal/events"
	"todoshare/internal/identity"
	"todoshare/internal/logging"
	"todoshare/internal/service"
	"todoshare/internal/users"
)

// Mode selects where the signed-in identity comes from.
type Mode int

const (
	// CLI reads the session file in the config directory.
	CLI Mode = iota
	// Server reads the session placed in each request context.
	Server
)

// Backend is a Service together with the resources it owns.
type Backend struct {
	*service.Core

	Auth   identity.Authenticator
	Client *identity.Client // nil in Server mode

	closers []func() error
}

// Open builds a Backend for cfg. The caller must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger, mode Mode) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	b := &Backend{}
	ok := false
	defer func() {
		if !ok {
			_ = b.Close()
		}
	}()

	// Firebase auth does not need the store, local auth lives in it.
	if cfg.Auth == config.AuthFirebase {
		auth, err := firebaseauth.New(ctx, cfg.Firebase.APIKey)
		if err != nil {
			return nil, err
		}
		b.Auth = auth
		b.setSource(cfg, mode)
	}

	docs, err := b.openDocs(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, docs.Close)

	if cfg.Auth == config.AuthLocal {
		ttl, err := cfg.TokenTTL()
		if err != nil {
			return nil, err
		}
		auth, err := localauth.New(docs, cfg.Local.JWTSecret, ttl)
		if err != nil {
			return nil, err
		}
		b.Auth = auth
		b.setSource(cfg, mode)
	}

	var profiles users.Cache
	if cfg.Redis.URL != "" {
		c, err := cache.New(ctx, cfg.Redis.URL, cache.DefaultTTL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, c.Close)
		profiles = c
		logger.Debug("profile cache enabled", "url", cfg.Redis.URL)
	}

	var pub events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		n, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, n.Close)
		pub = n
		logger.Debug("publishing events", "url", cfg.NATS.URL)
	}

	var src identity.Source = identity.ContextSource{}
	if b.Client != nil {
		src = b.Client
	}
	b.Core = service.New(service.Deps{
		Source: src,
		Auth:   b.Auth,
		Docs:   docs,
		Cache:  profiles,
		Events: pub,
		Logger: logger,
	})
	ok = true
	return b, nil
}

func (b *Backend) setSource(cfg *config.Config, mode Mode) {
	if mode == CLI {
		b.Client = identity.NewClient(b.Auth, cfg.SessionPath())
	}
}

func (b *Backend) openDocs(ctx context.Context, cfg *config.Config, logger *log.Logger) (docstore.Store, error) {
	switch cfg.Backend {
	case config.BackendFirestore:
		var opts []option.ClientOption
		switch {
		case cfg.Firebase.CredentialsFile != "":
			opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		case os.Getenv("FIRESTORE_EMULATOR_HOST") != "":
		case b.Client != nil:
			// Firestore sees the signed-in user, so security rules apply.
			opts = append(opts, option.WithTokenSource(b.Client.TokenSource(ctx)))
		}
		logger.Debug("opening firestore", "project", cfg.Firebase.ProjectID)
		return firestore.New(ctx, cfg.Firebase.ProjectID, opts...)
	case config.BackendMongo:
		logger.Debug("opening mongodb", "database", cfg.Mongo.Database)
		return mongodb.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	case config.BackendMemory:
		logger.Warn("using the in-memory store, data is lost on exit")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
}

// Close releases every resource in reverse order of acquisition.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
