// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

// Package articles manages blog articles and their comments.
package articles

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/quillblog/quill/pkg/errutil"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 100

// ErrNotFound is returned when an article does not exist.
var ErrNotFound = errors.New("article not found")

// Article is a published blog post.
type Article struct {
	ID          int64     `json:"id"`
	AuthorName  string    `json:"authorName"`
	AuthorEmail string    `json:"authorEmail"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Validate reports every missing or malformed field at once.
func (a Article) Validate() error {
	fe := errutil.FieldErrors{}
	if strings.TrimSpace(a.AuthorName) == "" {
		fe["authorName"] = "author name is required"
	}
	switch {
	case strings.TrimSpace(a.AuthorEmail) == "":
		fe["authorEmail"] = "author email is required"
	case !validEmail(a.AuthorEmail):
		fe["authorEmail"] = "please enter a valid email address"
	}
	switch {
	case strings.TrimSpace(a.Title) == "":
		fe["title"] = "title is required"
	case utf8.RuneCountInString(a.Title) > MaxTitleLength:
		fe["title"] = "title cannot exceed 100 characters"
	}
	if strings.TrimSpace(a.Content) == "" {
		fe["content"] = "content is required"
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Name == "" && addr.Address == s
}

// Comment is a reader's reply to an article.
type Comment struct {
	ID          int64     `json:"id"`
	ArticleID   int64     `json:"articleId"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Repository persists articles and comments.
type Repository interface {
	// List returns every article, newest first.
	List(ctx context.Context) ([]Article, error)

	// ListByDateRange returns articles published within [from, to], newest
	// first.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Article, error)

	// Get retrieves an article. Returns an error wrapping ErrNotFound.
	Get(ctx context.Context, id int64) (*Article, error)

	// Create stores the article and assigns its ID.
	Create(ctx context.Context, article *Article) error

	// AddComment stores the comment and assigns its ID. Returns an error
	// wrapping ErrNotFound when the article does not exist.
	AddComment(ctx context.Context, comment *Comment) error

	// ListComments returns an article's comments, oldest first.
	ListComments(ctx context.Context, articleID int64) ([]Comment, error)
}
