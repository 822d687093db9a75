// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/auth"
)

const userColumns = `id, username, name, email, date_of_birth, password_hash, password_salt, created_at`

// UserRepository implements auth.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ auth.UserRepository = (*UserRepository)(nil)

// Create inserts the user and sets its ID from the database.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, name, email, date_of_birth, password_hash, password_salt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		user.Username,
		user.Name,
		user.Email,
		user.DateOfBirth.UTC(),
		user.PasswordHash,
		user.PasswordSalt,
		user.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.conflict(ctx, user, err)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "read inserted id").
			Wrap(err)
	}
	user.ID = id
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// conflict names the column behind a unique violation. SQLite reports it in
// the message ("UNIQUE constraint failed: users.email"); when the message
// does not say, the existing rows decide.
func (r *UserRepository) conflict(ctx context.Context, user *auth.User, cause error) error {
	msg := cause.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return oops.Code("USER_CONFLICT").With("username", user.Username).Wrap(auth.ErrUsernameConflict)
	case strings.Contains(msg, "users.email"):
		return oops.Code("USER_CONFLICT").With("username", user.Username).Wrap(auth.ErrEmailConflict)
	}

	if taken, err := r.UsernameExists(ctx, user.Username); err == nil && taken {
		return oops.Code("USER_CONFLICT").With("username", user.Username).Wrap(auth.ErrUsernameConflict)
	}
	if taken, err := r.EmailExists(ctx, user.Email); err == nil && taken {
		return oops.Code("USER_CONFLICT").With("username", user.Username).Wrap(auth.ErrEmailConflict)
	}
	return oops.Code("USER_CREATE_FAILED").
		With("operation", "insert user").
		With("username", user.Username).
		Wrap(cause)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// GetByUsername retrieves a user by exact, case-sensitive username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// UsernameExists reports whether a user with the exact username exists.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", `SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`, username)
}

// EmailExists reports whether a user with the exact email exists.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", `SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)`, email)
}

func (r *UserRepository) exists(ctx context.Context, field, query, value string) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&found); err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").
			With("operation", "check "+field).
			Wrap(err)
	}
	return found, nil
}

func scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.DateOfBirth,
		&u.PasswordHash,
		&u.PasswordSalt,
		&u.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	u.DateOfBirth = u.DateOfBirth.UTC()
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
