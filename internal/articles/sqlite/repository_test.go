// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillblog/quill/internal/articles"
	"github.com/quillblog/quill/pkg/errutil"
)

func TestRepository_AddComment_ForeignKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO comments`).
		WithArgs(int64(8), "hi", at).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey})

	err = NewRepository(db).AddComment(context.Background(), &articles.Comment{ArticleID: 8, Content: "hi", PublishedAt: at})
	require.Error(t, err)
	assert.ErrorIs(t, err, articles.ErrNotFound)
	errutil.AssertErrorCode(t, err, "ARTICLE_NOT_FOUND")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AddComment_OtherFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO comments`).WillReturnError(errors.New("disk I/O error"))

	err = NewRepository(db).AddComment(context.Background(), &articles.Comment{ArticleID: 8, Content: "hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, articles.ErrNotFound)
	errutil.AssertErrorCode(t, err, "COMMENT_INSERT_FAILED")
}

func TestRepository_Create_AssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO articles`).
		WithArgs("Ada", "ada@example.com", "t", "c", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))

	a := &articles.Article{AuthorName: "Ada", AuthorEmail: "ada@example.com", Title: "t", Content: "c", PublishedAt: time.Now()}
	require.NoError(t, NewRepository(db).Create(context.Background(), a))
	assert.Equal(t, int64(5), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM articles`).WillReturnError(errors.New("no such table: articles"))

	_, err = NewRepository(db).List(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "ARTICLE_QUERY_FAILED")
}
