// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillblog/quill/internal/auth"
	"github.com/quillblog/quill/pkg/errutil"
)

var sessionRowColumns = []string{
	"session_id", "user_id", "created_at", "last_activity_at", "expires_at", "is_active",
}

func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := &auth.Session{
		ID:             "abcdefghijklmnopqrstuv",
		UserID:         3,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(5 * time.Minute),
		IsActive:       true,
	}

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(session.ID, int64(3), now, now, now.Add(5*time.Minute), true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewSessionRepository(mock).Create(context.Background(), session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Create_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO sessions`).WillReturnError(errors.New("fk violation"))

	err = NewSessionRepository(mock).Create(context.Background(), &auth.Session{ID: "x", UserID: 9})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SESSION_CREATE_FAILED")
	errutil.AssertErrorContext(t, err, "user_id", int64(9))
}

func TestSessionRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantCode  string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM sessions`).
					WithArgs("tok").
					WillReturnRows(pgxmock.NewRows(sessionRowColumns).
						AddRow("tok", int64(1), now, now, now.Add(time.Minute), true))
			},
		},
		{
			name: "missing",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM sessions`).WithArgs("tok").WillReturnError(pgx.ErrNoRows)
			},
			wantErr:  auth.ErrNotFound,
			wantCode: "SESSION_NOT_FOUND",
		},
		{
			name: "storage failure",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM sessions`).WithArgs("tok").WillReturnError(errors.New("broken pipe"))
			},
			wantCode: "SESSION_GET_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewSessionRepository(mock).GetByID(ctx, "tok")
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "tok", got.ID)
				assert.Equal(t, int64(1), got.UserID)
				assert.True(t, got.IsActive)
				assert.True(t, got.ExpiresAt.Equal(now.Add(time.Minute)))
			} else {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NotErrorIs(t, err, auth.ErrNotFound)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSessionRepository_UpdateActivity(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(5 * time.Minute)

	t.Run("refreshes active row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE sessions\s+SET last_activity_at = \$2, expires_at = \$3\s+WHERE session_id = \$1 AND is_active`).
			WithArgs("tok", now, expires).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewSessionRepository(mock).UpdateActivity(ctx, "tok", now, expires))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active row is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE sessions`).
			WithArgs("tok", now, expires).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewSessionRepository(mock).UpdateActivity(ctx, "tok", now, expires)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("exec error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE sessions`).WillReturnError(errors.New("deadlock"))

		err = NewSessionRepository(mock).UpdateActivity(ctx, "tok", now, expires)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "SESSION_UPDATE_FAILED")
	})
}

func TestSessionRepository_Invalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("missing row is not an error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE sessions SET is_active = FALSE`).
			WithArgs("tok").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		require.NoError(t, NewSessionRepository(mock).Invalidate(ctx, "tok"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE sessions SET is_active = FALSE`).WillReturnError(errors.New("read only"))

		err = NewSessionRepository(mock).Invalidate(ctx, "tok")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_INVALIDATE_FAILED")
	})
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1 OR NOT is_active`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := NewSessionRepository(mock).DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
