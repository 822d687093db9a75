// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package postgres implements the auth repositories on PostgreSQL via pgx.
package postgres
