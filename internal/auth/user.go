// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Field limits for registration input.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MaxNameLength     = 100
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	Name         string
	Email        string
	DateOfBirth  time.Time
	PasswordHash string
	PasswordSalt string
	CreatedAt    time.Time
}

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Username    string
	Name        string
	Email       string
	DateOfBirth time.Time
	Password    string
}

// Validate checks every field and reports all problems at once.
// now bounds the date of birth.
func (r RegisterRequest) Validate(now time.Time) error {
	fe := FieldErrors{}

	if msg := usernameProblem(r.Username); msg != "" {
		fe["username"] = msg
	}

	switch n := utf8.RuneCountInString(r.Name); {
	case strings.TrimSpace(r.Name) == "":
		fe["name"] = "name is required"
	case n > MaxNameLength:
		fe["name"] = "name cannot exceed 100 characters"
	}

	if r.Email == "" {
		fe["email"] = "email is required"
	} else if !ValidEmail(r.Email) {
		fe["email"] = "please enter a valid email address"
	}

	switch {
	case r.DateOfBirth.IsZero():
		fe["dateOfBirth"] = "date of birth is required"
	case r.DateOfBirth.After(now):
		fe["dateOfBirth"] = "date of birth cannot be in the future"
	}

	if r.Password == "" {
		fe["password"] = "password is required"
	}

	if len(fe) == 0 {
		return nil
	}
	return oops.Code("AUTH_VALIDATION_FAILED").Wrap(fe)
}

// ValidateUsername checks the username length rules.
func ValidateUsername(username string) error {
	if msg := usernameProblem(username); msg != "" {
		return oops.Code("AUTH_VALIDATION_FAILED").
			With("min", MinUsernameLength).
			With("max", MaxUsernameLength).
			Wrap(FieldErrors{"username": msg})
	}
	return nil
}

func usernameProblem(username string) string {
	if username == "" {
		return "username is required"
	}
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return "username must be between 3 and 50 characters"
	}
	return ""
}

// ValidEmail reports whether s is a bare RFC 5322 address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && addr.Name == ""
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and assigns its ID. Returns an error
	// wrapping ErrUsernameConflict or ErrEmailConflict when the store's
	// uniqueness constraint rejects the row.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user. Returns an error wrapping ErrNotFound.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by exact username. Returns an error
	// wrapping ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// UsernameExists reports whether a user holds the username.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// EmailExists reports whether a user holds the email.
	EmailExists(ctx context.Context, email string) (bool, error)
}
