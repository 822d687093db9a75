// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package postgres implements articles.Repository on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/articles"
	"github.com/quillblog/quill/internal/store"
)

const articleColumns = `id, author_name, author_email, title, content, published_at`

// Repository implements articles.Repository using PostgreSQL.
type Repository struct {
	db store.Querier
}

// NewRepository creates a new Repository.
func NewRepository(db store.Querier) *Repository {
	return &Repository{db: db}
}

var _ articles.Repository = (*Repository)(nil)

// List returns every article, newest first.
func (r *Repository) List(ctx context.Context) ([]articles.Article, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		ORDER BY published_at DESC, id DESC
	`)
	if err != nil {
		return nil, oops.Code("ARTICLE_QUERY_FAILED").With("operation", "list articles").Wrap(err)
	}
	return collectArticles(rows, "list articles")
}

// ListByDateRange returns articles published within [from, to].
func (r *Repository) ListByDateRange(ctx context.Context, from, to time.Time) ([]articles.Article, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE published_at >= $1 AND published_at <= $2
		ORDER BY published_at DESC, id DESC
	`, from, to)
	if err != nil {
		return nil, oops.Code("ARTICLE_QUERY_FAILED").With("operation", "list articles by date").Wrap(err)
	}
	return collectArticles(rows, "list articles by date")
}

func collectArticles(rows pgx.Rows, operation string) ([]articles.Article, error) {
	defer rows.Close()

	list := make([]articles.Article, 0)
	for rows.Next() {
		var a articles.Article
		if err := rows.Scan(&a.ID, &a.AuthorName, &a.AuthorEmail, &a.Title, &a.Content, &a.PublishedAt); err != nil {
			return nil, oops.Code("ARTICLE_SCAN_FAILED").With("operation", operation).Wrap(err)
		}
		a.PublishedAt = a.PublishedAt.UTC()
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ARTICLE_QUERY_FAILED").With("operation", operation).Wrap(err)
	}
	return list, nil
}

// Get retrieves an article by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*articles.Article, error) {
	var a articles.Article
	err := r.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id).
		Scan(&a.ID, &a.AuthorName, &a.AuthorEmail, &a.Title, &a.Content, &a.PublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ARTICLE_NOT_FOUND").With("id", id).Wrap(articles.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ARTICLE_QUERY_FAILED").With("operation", "get article").With("id", id).Wrap(err)
	}
	a.PublishedAt = a.PublishedAt.UTC()
	return &a, nil
}

// Create stores the article and assigns its ID.
func (r *Repository) Create(ctx context.Context, article *articles.Article) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO articles (author_name, author_email, title, content, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, article.AuthorName, article.AuthorEmail, article.Title, article.Content, article.PublishedAt).
		Scan(&article.ID)
	if err != nil {
		return oops.Code("ARTICLE_INSERT_FAILED").With("title", article.Title).Wrap(err)
	}
	return nil
}

// AddComment stores the comment. A foreign key violation means the article
// does not exist.
func (r *Repository) AddComment(ctx context.Context, comment *articles.Comment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO comments (article_id, content, published_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, comment.ArticleID, comment.Content, comment.PublishedAt).Scan(&comment.ID)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return oops.Code("ARTICLE_NOT_FOUND").With("id", comment.ArticleID).Wrap(articles.ErrNotFound)
	}
	return oops.Code("COMMENT_INSERT_FAILED").With("article_id", comment.ArticleID).Wrap(err)
}

// ListComments returns an article's comments, oldest first.
func (r *Repository) ListComments(ctx context.Context, articleID int64) ([]articles.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, article_id, content, published_at
		FROM comments
		WHERE article_id = $1
		ORDER BY published_at ASC, id ASC
	`, articleID)
	if err != nil {
		return nil, oops.Code("COMMENT_QUERY_FAILED").With("article_id", articleID).Wrap(err)
	}
	defer rows.Close()

	comments := make([]articles.Comment, 0)
	for rows.Next() {
		var c articles.Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.Content, &c.PublishedAt); err != nil {
			return nil, oops.Code("COMMENT_SCAN_FAILED").With("article_id", articleID).Wrap(err)
		}
		c.PublishedAt = c.PublishedAt.UTC()
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("COMMENT_QUERY_FAILED").With("article_id", articleID).Wrap(err)
	}
	return comments, nil
}
