// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package articles

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/quillblog/quill/pkg/errutil"
)

// Service validates and publishes articles and comments.
type Service struct {
	repo   Repository
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp publications.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates an article service over repo.
func NewService(repo Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, oops.Code("ARTICLE_INVALID_CONFIG").Errorf("article repository is required")
	}
	s := &Service{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns every article, newest first.
func (s *Service) List(ctx context.Context) ([]Article, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, oops.Code("ARTICLE_LIST_FAILED").Wrap(err)
	}
	return list, nil
}

// ListByDateRange returns articles published between from and to,
// inclusive, newest first.
func (s *Service) ListByDateRange(ctx context.Context, from, to time.Time) ([]Article, error) {
	if from.After(to) {
		return nil, oops.Code("ARTICLE_VALIDATION_FAILED").
			With("from", from).
			With("to", to).
			Wrap(errutil.FieldErrors{"to": "end date must not be before start date"})
	}
	list, err := s.repo.ListByDateRange(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, oops.Code("ARTICLE_LIST_FAILED").
			With("operation", "list by date range").
			Wrap(err)
	}
	return list, nil
}

// Get retrieves a single article.
func (s *Service) Get(ctx context.Context, id int64) (*Article, error) {
	a, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, errArticleNotFound(id, err)
	}
	if err != nil {
		return nil, oops.Code("ARTICLE_GET_FAILED").With("id", id).Wrap(err)
	}
	return a, nil
}

// Create validates and publishes an article, stamping its publication time.
func (s *Service) Create(ctx context.Context, article Article) (*Article, error) {
	article.AuthorName = strings.TrimSpace(article.AuthorName)
	article.AuthorEmail = strings.TrimSpace(article.AuthorEmail)
	article.Title = strings.TrimSpace(article.Title)
	if err := article.Validate(); err != nil {
		return nil, oops.Code("ARTICLE_VALIDATION_FAILED").Wrap(err)
	}

	article.ID = 0
	article.PublishedAt = s.now().UTC()
	if err := s.repo.Create(ctx, &article); err != nil {
		return nil, oops.Code("ARTICLE_CREATE_FAILED").
			With("title", article.Title).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "article published", "article_id", article.ID, "author", article.AuthorName)
	return &article, nil
}

// AddComment attaches a comment to an existing article.
func (s *Service) AddComment(ctx context.Context, articleID int64, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, oops.Code("COMMENT_VALIDATION_FAILED").
			With("article_id", articleID).
			Wrap(errutil.FieldErrors{"content": "comment content is required"})
	}

	comment := &Comment{
		ArticleID:   articleID,
		Content:     content,
		PublishedAt: s.now().UTC(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errArticleNotFound(articleID, err)
		}
		return nil, oops.Code("COMMENT_CREATE_FAILED").
			With("article_id", articleID).
			Wrap(err)
	}

	s.logger.DebugContext(ctx, "comment added", "article_id", articleID, "comment_id", comment.ID)
	return comment, nil
}

// ListComments returns the comments on an existing article, oldest first.
func (s *Service) ListComments(ctx context.Context, articleID int64) ([]Comment, error) {
	if _, err := s.Get(ctx, articleID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, articleID)
	if err != nil {
		return nil, oops.Code("COMMENT_LIST_FAILED").
			With("article_id", articleID).
			Wrap(err)
	}
	return comments, nil
}

func errArticleNotFound(id int64, cause error) error {
	return oops.Code("ARTICLE_NOT_FOUND").With("article_id", id).Wrap(cause)
}
