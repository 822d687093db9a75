// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package auth provides session-based authentication for Quill.
//
// # Primitives
//
//   - PBKDF2Hasher derives salted password digests
//   - SessionIssuer mints session ids and computes sliding expiries
//   - CookieDirective describes the client token as plain data
//
// # Gate
//
// Service orchestrates Register, Login, ValidateRequest, Logout and
// Cleanup over a UserRepository and a SessionRepository. Session
// failures of any kind resolve to the anonymous RequestIdentity; only
// storage failures surface as errors. Sweeper calls Cleanup periodically.
//
// Repository implementations live in the postgres and sqlite
// subpackages.
package auth
