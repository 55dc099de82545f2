// Package users resolves user profiles stored in the users collection.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"todoshare/internal/apperr"
	"todoshare/internal/docstore"
	"todoshare/internal/logging"
	"todoshare/internal/model"
)

// Unknown is shown for user ids without a profile document.
const Unknown = "Unknown"

// Cache is an optional read-through cache of profiles by id.
// Cache failures are treated as misses.
type Cache interface {
	Get(ctx context.Context, id string) (model.User, bool, error)
	Set(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id string) error
}

// Directory reads and writes user profiles.
type Directory struct {
	store docstore.Store
	cache Cache
	log   *log.Logger
}

// New creates a Directory. cache may be nil.
func New(store docstore.Store, cache Cache) *Directory {
	return &Directory{store: store, cache: cache, log: logging.Discard()}
}

// SetLogger sets the logger that records cache failures.
func (d *Directory) SetLogger(l *log.Logger) {
	if l != nil {
		d.log = l
	}
}

// Get returns the profile for id.
func (d *Directory) Get(ctx context.Context, id string) (model.User, error) {
	if d.cache != nil {
		u, ok, err := d.cache.Get(ctx, id)
		if err == nil && ok {
			return u, nil
		}
		if err != nil {
			d.log.Debug("profile cache read failed", "user", id, "err", err)
		}
	}
	doc, err := d.store.Get(ctx, model.UsersCollection, id)
	if err != nil {
		return model.User{}, docstore.Wrap("get user", err)
	}
	u := model.UserFromFields(doc.ID, doc.Fields)
	if d.cache != nil {
		if err := d.cache.Set(ctx, u); err != nil {
			d.log.Debug("profile cache write failed", "user", id, "err", err)
		}
	}
	return u, nil
}

// FindByEmail returns the user whose email matches exactly.
func (d *Directory) FindByEmail(ctx context.Context, email string) (model.User, error) {
	docs, err := d.store.Query(ctx, model.UsersCollection, docstore.Eq(model.FieldEmail, email))
	if err != nil {
		return model.User{}, docstore.Wrap("find user by email", err)
	}
	if len(docs) == 0 {
		return model.User{}, fmt.Errorf("no user with email %s: %w", email, apperr.ErrNotFound)
	}
	return model.UserFromFields(docs[0].ID, docs[0].Fields), nil
}

// Put creates or replaces the profile document of u.
func (d *Directory) Put(ctx context.Context, u model.User) error {
	if err := d.store.Set(ctx, model.UsersCollection, u.ID, model.UserFields(u)); err != nil {
		return docstore.Wrap("save user", err)
	}
	d.invalidate(ctx, u.ID)
	return nil
}

// Rename updates the stored display name. Participant snapshots in existing
// lists are deliberately left as they are.
func (d *Directory) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if err := d.store.Update(ctx, model.UsersCollection, id, map[string]any{"name": name}); err != nil {
		return docstore.Wrap("rename user", err)
	}
	d.invalidate(ctx, id)
	return nil
}

// ResolveNames maps each id to its display name, or Unknown when the profile
// is missing. Store failures other than not-found are returned.
func (d *Directory) ResolveNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, done := names[id]; done {
			continue
		}
		u, err := d.Get(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				names[id] = Unknown
				continue
			}
			return nil, err
		}
		names[id] = u.Name
	}
	return names, nil
}

func (d *Directory) invalidate(ctx context.Context, id string) {
	if d.cache != nil {
		// A stale entry survives until its TTL expires.
		if err := d.cache.Delete(ctx, id); err != nil {
			d.log.Warn("profile cache invalidation failed", "user", id, "err", err)
		}
	}
}

