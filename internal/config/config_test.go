package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoshare/internal/config"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir, noEnv)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, config.BackendFirestore, cfg.Backend)
	assert.Equal(t, config.AuthFirebase, cfg.Auth)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, filepath.Join(dir, "session.json"), cfg.SessionPath())
	assert.False(t, cfg.HasSession())
}

func TestConfigFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	toml := `
backend = "mongo"
auth = "local"
default_list = "Groceries"

[mongo]
uri = "mongodb://file:27017"

[local]
jwt_secret = "from-the-config-file"
token_ttl = "30m"

[nats]
url = "nats://localhost:4222"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte(toml), 0600))

	cfg, err := config.Load(dir, envMap(map[string]string{
		"TODOSHARE_MONGO_URI":       "mongodb://env:27017",
		"TODOSHARE_HTTP_LOGIN_RATE": "2.5",
	}))
	require.NoError(t, err)

	assert.Equal(t, config.BackendMongo, cfg.Backend)
	assert.Equal(t, config.AuthLocal, cfg.Auth)
	assert.Equal(t, "Groceries", cfg.DefaultList)
	assert.Equal(t, "mongodb://env:27017", cfg.Mongo.URI)
	assert.Equal(t, "todoshare", cfg.Mongo.Database)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, 2.5, cfg.HTTP.LoginRate)

	ttl, err := cfg.TokenTTL()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, ttl)
}

func TestInvalidSettings(t *testing.T) {
	dir := t.TempDir()
	_, err := config.Load(dir, envMap(map[string]string{"TODOSHARE_BACKEND": "sqlite"}))
	assert.ErrorContains(t, err, "unknown backend")

	_, err = config.Load(dir, envMap(map[string]string{"TODOSHARE_AUTH": "ldap"}))
	assert.ErrorContains(t, err, "unknown auth")

	_, err = config.Load(dir, envMap(map[string]string{"TODOSHARE_TOKEN_TTL": "soon"}))
	assert.ErrorContains(t, err, "token_ttl")

	_, err = config.Load(dir, envMap(map[string]string{"TODOSHARE_HTTP_LOGIN_RATE": "fast"}))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("backend = ["), 0600))
	_, err = config.Load(dir, noEnv)
	assert.ErrorContains(t, err, "config.toml")
}

func TestDefaultConfigDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "todoshare"), config.DefaultConfigDir())
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "todoshare")
	cfg, err := config.Load(dir, noEnv)
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
