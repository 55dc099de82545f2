// Package config handles the XDG configuration directory, config.toml, .env
// files and TODOSHARE_* environment overrides.
//
// Precedence, lowest first: defaults, config.toml, environment (including
// .env), command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "todoshare"

	// ConfigFile is the optional settings file inside Dir.
	ConfigFile = "config.toml"

	// SessionFile is the stored sign-in session filename.
	SessionFile = "session.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TODOSHARE_"
)

// Backend names.
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"

	AuthFirebase = "firebase"
	AuthLocal    = "local"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `toml:"-"`

	// Debug enables debug logging.
	Debug bool `toml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `toml:"-"`

	// Backend selects the document store: firestore, mongo or memory.
	Backend string `toml:"backend"`

	// Auth selects the identity provider: firebase or local.
	Auth string `toml:"auth"`

	// DefaultList is the list title used when a command gets no --list.
	DefaultList string `toml:"default_list"`

	Log      LogConfig      `toml:"log"`
	Firebase FirebaseConfig `toml:"firebase"`
	Mongo    MongoConfig    `toml:"mongo"`
	Local    LocalConfig    `toml:"local"`
	Redis    RedisConfig    `toml:"redis"`
	NATS     NATSConfig     `toml:"nats"`
	HTTP     HTTPConfig     `toml:"http"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// FirebaseConfig locates the Firebase project.
type FirebaseConfig struct {
	ProjectID string `toml:"project_id"`
	APIKey    string `toml:"api_key"`
	// CredentialsFile is a service account key. Without it the signed-in
	// user's token is used, so Firestore security rules apply.
	CredentialsFile string `toml:"credentials_file"`
}

// MongoConfig locates the MongoDB database.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// LocalConfig configures the self-hosted identity provider.
type LocalConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
}

// RedisConfig enables the profile cache when URL is set.
type RedisConfig struct {
	URL string `toml:"url"`
}

// NATSConfig enables event publication when URL is set.
type NATSConfig struct {
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// HTTPConfig configures `todoshare serve`.
type HTTPConfig struct {
	Addr string `toml:"addr"`
	// LoginRate is the sustained sign-in attempts per second per client.
	LoginRate float64 `toml:"login_rate"`
	// LoginBurst is the number of sign-in attempts allowed at once.
	LoginBurst int `toml:"login_burst"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Backend: BackendFirestore,
		Auth:    AuthFirebase,
		Log:     LogConfig{Level: "warn", Format: "text"},
		Mongo:   MongoConfig{Database: "todoshare"},
		Local:   LocalConfig{TokenTTL: "1h"},
		NATS:    NATSConfig{SubjectPrefix: "todoshare"},
		HTTP:    HTTPConfig{Addr: ":8080", LoginRate: 1, LoginBurst: 5},
	}
}

// New creates a Config from the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todoshare or $HOME/.config/todoshare.
// A .env file in the working directory is loaded into the environment first;
// variables that are already set win.
func New(configDir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("invalid .env file: %w", err)
	}
	return Load(configDir, os.LookupEnv)
}

// Load reads config.toml from configDir and applies overrides from lookup.
func Load(configDir string, lookup func(string) (string, bool)) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := Default()
	if _, err := toml.DecodeFile(filepath.Join(dir, ConfigFile), cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	cfg.Dir = dir
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BACKEND":                   &c.Backend,
		"AUTH":                      &c.Auth,
		"DEFAULT_LIST":              &c.DefaultList,
		"LOG_LEVEL":                 &c.Log.Level,
		"LOG_FORMAT":                &c.Log.Format,
		"FIREBASE_PROJECT_ID":       &c.Firebase.ProjectID,
		"FIREBASE_API_KEY":          &c.Firebase.APIKey,
		"FIREBASE_CREDENTIALS_FILE": &c.Firebase.CredentialsFile,
		"MONGO_URI":                 &c.Mongo.URI,
		"MONGO_DATABASE":            &c.Mongo.Database,
		"JWT_SECRET":                &c.Local.JWTSecret,
		"TOKEN_TTL":                 &c.Local.TokenTTL,
		"REDIS_URL":                 &c.Redis.URL,
		"NATS_URL":                  &c.NATS.URL,
		"NATS_SUBJECT_PREFIX":       &c.NATS.SubjectPrefix,
		"HTTP_ADDR":                 &c.HTTP.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	if v, ok := lookup(EnvPrefix + "HTTP_LOGIN_RATE"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sHTTP_LOGIN_RATE: %s", EnvPrefix, v)
		}
		c.HTTP.LoginRate = rate
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFirestore, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown backend: %s (want firestore, mongo or memory)", c.Backend)
	}
	switch c.Auth {
	case AuthFirebase, AuthLocal:
	default:
		return fmt.Errorf("unknown auth provider: %s (want firebase or local)", c.Auth)
	}
	if _, err := c.TokenTTL(); err != nil {
		return err
	}
	return nil
}

// TokenTTL parses Local.TokenTTL.
func (c *Config) TokenTTL() (time.Duration, error) {
	if c.Local.TokenTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Local.TokenTTL)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid token_ttl: %s", c.Local.TokenTTL)
	}
	return d, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// ConfigPath returns the path to config.toml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if the session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}
