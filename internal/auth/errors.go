// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package auth

import (
	"errors"

	"github.com/quillblog/quill/pkg/errutil"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store-level uniqueness violations. Repositories wrap these so the
// service can report the taken field even when a concurrent registration
// slips past the pre-checks.
var (
	ErrUsernameConflict = errors.New("username already exists")
	ErrEmailConflict    = errors.New("email already exists")
)

// FieldErrors maps an input field name to a human readable problem.
type FieldErrors = errutil.FieldErrors
