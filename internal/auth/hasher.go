// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing any of these invalidates stored digests.
const (
	pbkdf2Iterations = 100_000
	pbkdf2SaltLen    = 16 // 128-bit salt
	pbkdf2KeyLen     = 32 // 256-bit digest
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash derives a digest from the password using a fresh random salt.
	// Both values are returned encoded for text storage.
	Hash(password string) (digest, salt string, err error)

	// Verify reports whether password matches the stored digest and salt.
	// Undecodable inputs are a mismatch, never an error.
	Verify(password, digest, salt string) bool
}

// PBKDF2Hasher implements PasswordHasher with PBKDF2-HMAC-SHA256.
type PBKDF2Hasher struct{}

// NewPBKDF2Hasher creates a new PBKDF2Hasher.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Hash produces a base64 digest and base64 salt for the password.
func (h *PBKDF2Hasher) Hash(password string) (digest, salt string, err error) {
	if password == "" {
		return "", "", ErrEmptyPassword
	}

	saltBytes := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := derive(password, saltBytes)
	return base64.StdEncoding.EncodeToString(key), base64.StdEncoding.EncodeToString(saltBytes), nil
}

// Verify re-derives the digest with the stored salt and compares in constant time.
func (h *PBKDF2Hasher) Verify(password, digest, salt string) bool {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil || len(saltBytes) == 0 {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(digest)
	if err != nil || len(expected) != pbkdf2KeyLen {
		return false
	}

	computed := derive(password, saltBytes)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
}
