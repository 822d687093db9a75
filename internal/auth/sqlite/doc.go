// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package sqlite implements the auth repositories on SQLite via
// database/sql and go-sqlite3. Timestamps are stored in UTC.
package sqlite
