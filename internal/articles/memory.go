// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package articles

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"
)

// MemoryRepository keeps articles in process memory. Contents are lost on
// restart.
type MemoryRepository struct {
	mu          sync.RWMutex
	articles    []Article
	comments    []Comment
	nextArticle int64
	nextComment int64
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextArticle: 1, nextComment: 1}
}

var _ Repository = (*MemoryRepository)(nil)

// List returns every article, newest first.
func (r *MemoryRepository) List(_ context.Context) ([]Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.articles, func(Article) bool { return true }), nil
}

// ListByDateRange returns articles published within [from, to].
func (r *MemoryRepository) ListByDateRange(_ context.Context, from, to time.Time) ([]Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.articles, func(a Article) bool {
		return !a.PublishedAt.Before(from) && !a.PublishedAt.After(to)
	}), nil
}

func newestFirst(all []Article, keep func(Article) bool) []Article {
	out := make([]Article, 0, len(all))
	for _, a := range all {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

// Get retrieves an article by ID.
func (r *MemoryRepository) Get(_ context.Context, id int64) (*Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.articles {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, oops.Code("ARTICLE_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
}

// Create stores the article and assigns its ID.
func (r *MemoryRepository) Create(_ context.Context, article *Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	article.ID = r.nextArticle
	r.nextArticle++
	r.articles = append(r.articles, *article)
	return nil
}

// AddComment stores the comment if its article exists.
func (r *MemoryRepository) AddComment(_ context.Context, comment *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists := false
	for _, a := range r.articles {
		if a.ID == comment.ArticleID {
			exists = true
			break
		}
	}
	if !exists {
		return oops.Code("ARTICLE_NOT_FOUND").With("id", comment.ArticleID).Wrap(ErrNotFound)
	}

	comment.ID = r.nextComment
	r.nextComment++
	r.comments = append(r.comments, *comment)
	return nil
}

// ListComments returns an article's comments, oldest first.
func (r *MemoryRepository) ListComments(_ context.Context, articleID int64) ([]Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Comment, 0)
	for _, c := range r.comments {
		if c.ArticleID == articleID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PublishedAt.Before(out[j].PublishedAt)
	})
	return out, nil
}
