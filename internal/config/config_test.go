// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillblog/quill/internal/config"
	"github.com/quillblog/quill/internal/store"
	"github.com/quillblog/quill/pkg/errutil"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func noEnv(string) string { return "" }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", newFlags(t), noEnv)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 5*time.Minute, cfg.Auth.SessionDuration)
	assert.Equal(t, "BlogSession", cfg.Auth.CookieName)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
log_format: text
database:
  driver: sqlite
  url: /tmp/quill.db
auth:
  session_duration: 15m
  cookie_name: QuillSession
articles:
  in_memory: true
http:
  allowed_origins:
    - https://blog.example.com
`)
	cfg, err := config.Load(path, newFlags(t), noEnv)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, store.DriverSQLite, cfg.Driver())
	assert.Equal(t, "/tmp/quill.db", cfg.Database.URL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.SessionDuration)
	assert.Equal(t, "QuillSession", cfg.Auth.CookieName)
	assert.True(t, cfg.Articles.InMemory)
	assert.Equal(t, []string{"https://blog.example.com"}, cfg.HTTP.AllowedOrigins)
	// untouched keys keep their defaults
	assert.Equal(t, time.Minute, cfg.Auth.CleanupInterval)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, `
auth:
  session_duration: 15m
http:
  addr: ":9000"
`)
	fs := newFlags(t, "--session-duration=2m", "--database-url=postgres://db/quill")
	cfg, err := config.Load(path, fs, noEnv)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Auth.SessionDuration)
	assert.Equal(t, "postgres://db/quill", cfg.Database.URL)
	assert.Equal(t, ":9000", cfg.HTTP.Addr, "unchanged flag must not clobber the file")
}

func TestLoad_DatabaseURLFromEnv(t *testing.T) {
	getenv := func(key string) string {
		if key == config.DatabaseURLEnv {
			return "postgres://env/quill"
		}
		return ""
	}

	cfg, err := config.Load("", newFlags(t), getenv)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/quill", cfg.Database.URL)

	cfg, err = config.Load("", newFlags(t, "--database-url=postgres://flag/quill"), getenv)
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/quill", cfg.Database.URL, "explicit url wins over the environment")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		c := config.Default()
		c.Database.URL = "postgres://db/quill"
		return c
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
		{"unknown driver", func(c *config.Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"missing url", func(c *config.Config) { c.Database.URL = "" }, "database.url"},
		{"zero session duration", func(c *config.Config) { c.Auth.SessionDuration = 0 }, "auth.session_duration"},
		{"negative cleanup", func(c *config.Config) { c.Auth.CleanupInterval = -time.Second }, "auth.cleanup_interval"},
		{"empty cookie name", func(c *config.Config) { c.Auth.CookieName = "" }, "auth.cookie_name"},
		{"cookie name with separator", func(c *config.Config) { c.Auth.CookieName = "a;b" }, "auth.cookie_name"},
		{"relative cookie path", func(c *config.Config) { c.Auth.CookiePath = "blog" }, "auth.cookie_path"},
		{"empty http addr", func(c *config.Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"zero csrf ttl", func(c *config.Config) { c.HTTP.CSRFTTL = 0 }, "http.csrf_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")

			var fe errutil.FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe, tt.field)
		})
	}
}
