// Package cache provides a Redis-backed read-through cache of user profiles.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"todoshare/internal/model"
)

// DefaultTTL bounds how stale a cached profile can be.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "todoshare:user:"

// ProfileCache implements users.Cache.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the Redis server at url (redis://...) and pings it.
func New(ctx context.Context, url string, ttl time.Duration) (*ProfileCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

// Key returns the Redis key of user id.
func Key(id string) string {
	return keyPrefix + id
}

type entry struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Get implements users.Cache.
func (c *ProfileCache) Get(ctx context.Context, id string) (model.User, bool, error) {
	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return model.User{}, false, nil
	}
	return model.User{ID: id, Name: e.Name, Email: e.Email, CreatedAt: e.CreatedAt}, true, nil
}

// Set implements users.Cache.
func (c *ProfileCache) Set(ctx context.Context, u model.User) error {
	data, err := json.Marshal(entry{Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(u.ID), data, c.ttl).Err()
}

// Delete implements users.Cache.
func (c *ProfileCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, Key(id)).Err()
}

// Close closes the client.
func (c *ProfileCache) Close() error {
	return c.client.Close()
}
