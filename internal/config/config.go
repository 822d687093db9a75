// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package config loads quill's configuration from defaults, an optional
// YAML file and command-line flags, in increasing order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/quillblog/quill/internal/auth"
	"github.com/quillblog/quill/internal/store"
	"github.com/quillblog/quill/pkg/errutil"
)

// DatabaseURLEnv is consulted when no database URL is configured.
const DatabaseURLEnv = "DATABASE_URL"

// Config is the complete runtime configuration.
type Config struct {
	LogFormat string         `koanf:"log_format" json:"log_format,omitempty" yaml:"log_format" jsonschema:"enum=json,enum=text" jsonschema_description:"Log output format"`
	Database  DatabaseConfig `koanf:"database" json:"database,omitempty" yaml:"database"`
	Auth      AuthConfig     `koanf:"auth" json:"auth,omitempty" yaml:"auth"`
	Articles  ArticlesConfig `koanf:"articles" json:"articles,omitempty" yaml:"articles"`
	HTTP      HTTPConfig     `koanf:"http" json:"http,omitempty" yaml:"http"`
	Metrics   MetricsConfig  `koanf:"metrics" json:"metrics,omitempty" yaml:"metrics"`
}

// DatabaseConfig selects and locates the backing store.
type DatabaseConfig struct {
	Driver         string        `koanf:"driver" json:"driver,omitempty" yaml:"driver" jsonschema:"enum=postgres,enum=sqlite"`
	URL            string        `koanf:"url" json:"url,omitempty" yaml:"url" jsonschema_description:"PostgreSQL DSN or SQLite file path"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" json:"connect_timeout,omitempty" yaml:"connect_timeout"`
}

// AuthConfig tunes sessions and the session cookie.
type AuthConfig struct {
	SessionDuration time.Duration `koanf:"session_duration" json:"session_duration,omitempty" yaml:"session_duration"`
	CookieName      string        `koanf:"cookie_name" json:"cookie_name,omitempty" yaml:"cookie_name"`
	CookiePath      string        `koanf:"cookie_path" json:"cookie_path,omitempty" yaml:"cookie_path"`
	CleanupInterval time.Duration `koanf:"cleanup_interval" json:"cleanup_interval,omitempty" yaml:"cleanup_interval"`
}

// ArticlesConfig selects the article backend.
type ArticlesConfig struct {
	InMemory bool `koanf:"in_memory" json:"in_memory,omitempty" yaml:"in_memory" jsonschema_description:"Keep articles in process memory instead of the database"`
}

// HTTPConfig configures the public HTTP listener.
type HTTPConfig struct {
	Addr           string        `koanf:"addr" json:"addr,omitempty" yaml:"addr"`
	AllowedOrigins []string      `koanf:"allowed_origins" json:"allowed_origins,omitempty" yaml:"allowed_origins"`
	CSRFSecret     string        `koanf:"csrf_secret" json:"csrf_secret,omitempty" yaml:"csrf_secret" jsonschema_description:"HMAC key for anti-forgery tokens; empty disables the check"`
	CSRFTTL        time.Duration `koanf:"csrf_ttl" json:"csrf_ttl,omitempty" yaml:"csrf_ttl"`
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr" jsonschema_description:"Metrics and health check address; empty disables"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogFormat: "json",
		Database: DatabaseConfig{
			Driver:         string(store.DriverPostgres),
			ConnectTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			SessionDuration: auth.DefaultSessionDuration,
			CookieName:      auth.DefaultCookieName,
			CookiePath:      "/",
			CleanupInterval: time.Minute,
		},
		HTTP: HTTPConfig{
			Addr:    ":8080",
			CSRFTTL: time.Hour,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-format":         "log_format",
	"database-driver":    "database.driver",
	"database-url":       "database.url",
	"connect-timeout":    "database.connect_timeout",
	"session-duration":   "auth.session_duration",
	"cookie-name":        "auth.cookie_name",
	"cleanup-interval":   "auth.cleanup_interval",
	"in-memory-articles": "articles.in_memory",
	"addr":               "http.addr",
	"allowed-origins":    "http.allowed_origins",
	"csrf-secret":        "http.csrf_secret",
	"metrics-addr":       "metrics.addr",
}

// BindFlags registers the configuration flags on fs with default values.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("log-format", d.LogFormat, "log format (json, text)")
	fs.String("database-driver", d.Database.Driver, "database driver (postgres, sqlite)")
	fs.String("database-url", d.Database.URL, "PostgreSQL DSN or SQLite path (default $"+DatabaseURLEnv+")")
	fs.Duration("connect-timeout", d.Database.ConnectTimeout, "how long to wait for the database on startup")
	fs.Duration("session-duration", d.Auth.SessionDuration, "sliding session lifetime")
	fs.String("cookie-name", d.Auth.CookieName, "session cookie name")
	fs.Duration("cleanup-interval", d.Auth.CleanupInterval, "interval between expired session sweeps")
	fs.Bool("in-memory-articles", d.Articles.InMemory, "keep articles in memory instead of the database")
	fs.String("addr", d.HTTP.Addr, "HTTP listen address")
	fs.StringSlice("allowed-origins", d.HTTP.AllowedOrigins, "CORS allowed origins")
	fs.String("csrf-secret", d.HTTP.CSRFSecret, "anti-forgery token signing key")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")
}

// Load builds the effective configuration. path names an optional YAML
// file; fs holds flags registered by BindFlags (may be nil); getenv resolves
// environment fallbacks (may be nil).
func Load(path string, fs *pflag.FlagSet, getenv func(string) string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("operation", "decode").Wrap(err)
	}

	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = nil
	}
	if cfg.Database.URL == "" && getenv != nil {
		cfg.Database.URL = getenv(DatabaseURLEnv)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	fe := errutil.FieldErrors{}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		fe["log_format"] = "must be json or text"
	}
	if _, err := store.ParseDriver(c.Database.Driver); err != nil {
		fe["database.driver"] = "must be postgres or sqlite"
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		fe["database.url"] = "is required (or set " + DatabaseURLEnv + ")"
	}
	if c.Database.ConnectTimeout <= 0 {
		fe["database.connect_timeout"] = "must be positive"
	}
	if c.Auth.SessionDuration <= 0 {
		fe["auth.session_duration"] = "must be positive"
	}
	if c.Auth.CookieName == "" || strings.ContainsAny(c.Auth.CookieName, " \t;,=\"") {
		fe["auth.cookie_name"] = "must be a non-empty cookie token"
	}
	if !strings.HasPrefix(c.Auth.CookiePath, "/") {
		fe["auth.cookie_path"] = "must start with /"
	}
	if c.Auth.CleanupInterval <= 0 {
		fe["auth.cleanup_interval"] = "must be positive"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		fe["http.addr"] = "is required"
	}
	if c.HTTP.CSRFTTL <= 0 {
		fe["http.csrf_ttl"] = "must be positive"
	}

	if len(fe) > 0 {
		return oops.Code("CONFIG_INVALID").Wrap(fe)
	}
	return nil
}

// Driver returns the parsed database driver. Call after Validate.
func (c Config) Driver() store.Driver {
	d, err := store.ParseDriver(c.Database.Driver)
	if err != nil {
		return store.DriverPostgres
	}
	return d
}
