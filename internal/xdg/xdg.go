// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package xdg locates Quill's default config file and SQLite database
// following the XDG Base Directory layout.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "quill"

// File names inside the XDG directories.
const (
	ConfigFileName = "config.yaml"
	DatabaseName   = "quill.db"
)

// ConfigDir returns the config directory for quill.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the data directory for quill.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() (string, error) {
	return dir("XDG_DATA_HOME", ".local", "share")
}

func dir(env string, fallback ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", oops.Code("XDG_HOME_UNKNOWN").With("env", env).Wrap(err)
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	return filepath.Join(base, appName), nil
}

// DefaultConfigFile returns the path of the user config file if it exists,
// or "" when there is none.
func DefaultConfigFile() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(d, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("XDG_STAT_FAILED").With("path", path).Wrap(err)
	}
	return path, nil
}

// DefaultDatabasePath returns the SQLite database path under DataDir,
// creating the directory.
func DefaultDatabasePath() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := EnsureDir(d); err != nil {
		return "", err
	}
	return filepath.Join(d, DatabaseName), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_MKDIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
