// Package config loads the proxy's runtime configuration.
//
// Settings come from built-in defaults overlaid with POPULARE_* environment
// variables (POPULARE_SERVER_ADDR, POPULARE_DB_MAX_OPEN_CONNS,
// POPULARE_LOG_LEVEL, ...). The database URI is a secret mounted as a file;
// see ResolveDatabaseURI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"

	"github.com/populare/dbproxy/internal/store"
)

const (
	envPrefix = "POPULARE_"

	// DefaultSecretPath is where the database URI secret volume is mounted.
	DefaultSecretPath = "/etc/populare-db-proxy/db-certs/db-uri"

	// DefaultFallbackURI is used when the secret is missing and allowed to be.
	DefaultFallbackURI = "sqlite:////tmp/populare.db"

	// AllowMissingSecretEnv permits running without the secret file when it
	// is present in the environment, whatever its value.
	AllowMissingSecretEnv = "POPULARE_ALLOW_MISSING_SECRET"
)

// fallbackURIEnv lists the variables consulted, in order, when the secret
// file is missing and allowed to be.
var fallbackURIEnv = []string{"SQLALCHEMY_DATABASE_URI", "POPULARE_DATABASE_URI"}

// Config is the complete runtime configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	DB     DBConfig     `koanf:"db"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `koanf:"addr"                validate:"required"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"    validate:"gte=0"`
}

// DBConfig configures the record store connection. URI is never read from
// the environment directly; Load resolves it.
type DBConfig struct {
	URI             string        `koanf:"-"`
	SecretPath      string        `koanf:"secret_path"       validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
	ConnectRetries  int           `koanf:"connect_retries"   validate:"gte=0"`
	ConnectBackoff  time.Duration `koanf:"connect_backoff"   validate:"gte=0"`
	PingTimeout     time.Duration `koanf:"ping_timeout"      validate:"gte=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":5000",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		DB: DBConfig{
			SecretPath:     DefaultSecretPath,
			MaxOpenConns:   20,
			MaxIdleConns:   20,
			ConnectRetries: 5,
			ConnectBackoff: 200 * time.Millisecond,
			PingTimeout:    3 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// StoreConfig converts the database settings for store.Open.
func (c DBConfig) StoreConfig() store.Config {
	return store.Config{
		URI:             c.URI,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnectRetries:  c.ConnectRetries,
		ConnectBackoff:  c.ConnectBackoff,
		PingTimeout:     c.PingTimeout,
	}
}

// Options controls where Load reads from. Zero values mean the real
// filesystem and process environment.
type Options struct {
	FS      afero.Fs
	Environ func() []string

	// DatabaseURI, when set, is used instead of the secret file.
	DatabaseURI string
}

// Load builds the configuration from defaults, the environment and the
// database URI secret.
func Load(opts Options) (*Config, error) {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnvKey,
		EnvironFunc:   opts.Environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if opts.DatabaseURI != "" {
		cfg.DB.URI = opts.DatabaseURI
		return &cfg, nil
	}
	uri, err := ResolveDatabaseURI(opts.FS, cfg.DB.SecretPath, opts.Environ())
	if err != nil {
		return nil, err
	}
	cfg.DB.URI = uri
	return &cfg, nil
}

// sections are the top-level keys an environment variable may address.
var sections = map[string]bool{"server": true, "db": true, "log": true}

// transformEnvKey maps POPULARE_DB_MAX_OPEN_CONNS to db.max_open_conns.
// Variables outside a known section are skipped.
func transformEnvKey(key, value string) (string, any) {
	rest := strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, field, ok := strings.Cut(rest, "_")
	if !ok || !sections[section] || field == "" {
		return "", nil
	}
	return section + "." + field, value
}

// ResolveDatabaseURI reads the database URI from the secret file at path.
//
// A missing file is an error wrapping fs.ErrNotExist, because a proxy
// replica without the shared database would silently diverge. When
// POPULARE_ALLOW_MISSING_SECRET is set in environ, the URI instead comes
// from SQLALCHEMY_DATABASE_URI or POPULARE_DATABASE_URI, defaulting to a
// local SQLite file.
func ResolveDatabaseURI(fsys afero.Fs, path string, environ []string) (string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err == nil {
		uri := strings.TrimSpace(string(data))
		if uri == "" {
			return "", fmt.Errorf("database uri secret %s is empty", path)
		}
		return uri, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read database uri secret: %w", err)
	}

	vars := envMap(environ)
	if _, ok := vars[AllowMissingSecretEnv]; !ok {
		return "", fmt.Errorf("database uri secret %s: %w (set %s to fall back to the environment)",
			path, err, AllowMissingSecretEnv)
	}
	for _, name := range fallbackURIEnv {
		if uri := strings.TrimSpace(vars[name]); uri != "" {
			return uri, nil
		}
	}
	return DefaultFallbackURI, nil
}

func envMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		m[k] = v
	}
	return m
}
