// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package store opens database connections and manages schema migrations
// for the supported backends.
package store

import (
	"strings"

	"github.com/samber/oops"
)

// Driver names a supported database backend.
type Driver string

// Supported drivers.
const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Drivers lists every supported driver in display order.
func Drivers() []Driver {
	return []Driver{DriverPostgres, DriverSQLite}
}

// ParseDriver resolves a configured driver name. Matching is case-insensitive.
func ParseDriver(name string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(name))) {
	case DriverPostgres:
		return DriverPostgres, nil
	case DriverSQLite:
		return DriverSQLite, nil
	default:
		return "", oops.Code("UNKNOWN_DRIVER").
			With("driver", name).
			Errorf("unsupported database driver %q", name)
	}
}

// String implements fmt.Stringer.
func (d Driver) String() string { return string(d) }
