package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoshare/internal/apperr"
	"todoshare/internal/backend"
	"todoshare/internal/config"
	"todoshare/internal/identity"
	"todoshare/internal/logging"
)

func memoryConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Backend = config.BackendMemory
	cfg.Auth = config.AuthLocal
	cfg.Local.JWTSecret = "0123456789abcdef0123"
	return cfg
}

func TestOpenCLI(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)

	b, err := backend.Open(ctx, cfg, logging.Discard(), backend.CLI)
	require.NoError(t, err)
	defer b.Close()
	require.NotNil(t, b.Client)

	_, err = b.ListLists(ctx)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)

	sess, err := b.Register(ctx, "una@example.com", "secret123", "Una")
	require.NoError(t, err)
	require.NoError(t, identity.SaveSession(cfg.SessionPath(), sess))

	v, err := b.CreateList(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", v.Title)

	who, err := b.Client.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, who)
	assert.Equal(t, sess.UID, who.UID)
}

func TestOpenServer(t *testing.T) {
	ctx := context.Background()
	b, err := backend.Open(ctx, memoryConfig(t), nil, backend.Server)
	require.NoError(t, err)
	defer b.Close()
	assert.Nil(t, b.Client)

	sess, err := b.Register(ctx, "una@example.com", "secret123", "Una")
	require.NoError(t, err)

	_, err = b.ListLists(ctx)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)

	id, err := b.Auth.Verify(ctx, sess.IDToken())
	require.NoError(t, err)
	views, err := b.ListLists(identity.WithSession(ctx, identity.Session{Identity: id, Token: sess.Token}))
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	cfg := memoryConfig(t)
	cfg.Local.JWTSecret = "short"
	_, err := backend.Open(ctx, cfg, nil, backend.CLI)
	assert.Error(t, err)

	cfg = memoryConfig(t)
	cfg.Backend = "sqlite"
	_, err = backend.Open(ctx, cfg, nil, backend.CLI)
	assert.ErrorContains(t, err, "unknown backend")

	cfg = memoryConfig(t)
	cfg.Auth = config.AuthFirebase
	_, err = backend.Open(ctx, cfg, nil, backend.CLI)
	assert.ErrorContains(t, err, "api_key")
}

func TestCloseIsIdempotent(t *testing.T) {
	b, err := backend.Open(context.Background(), memoryConfig(t), nil, backend.CLI)
	require.NoError(t, err)
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
