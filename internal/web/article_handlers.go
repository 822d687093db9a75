// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/articles"
	"github.com/quillblog/quill/pkg/errutil"
)

type articleRequest struct {
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *handler) listArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("from") && !q.Has("to") {
		list, err := h.articles.List(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
		return
	}

	from, to, err := parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.articles.ListByDateRange(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// parseRange accepts RFC 3339 timestamps or calendar dates. A date given
// as the upper bound covers the whole day.
func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	fe := errutil.FieldErrors{}
	from, ok := parseInstant(fromRaw, false)
	if !ok {
		fe["from"] = "from must be a date (YYYY-MM-DD) or RFC 3339 timestamp"
	}
	to, ok := parseInstant(toRaw, true)
	if !ok {
		fe["to"] = "to must be a date (YYYY-MM-DD) or RFC 3339 timestamp"
	}
	if len(fe) > 0 {
		return time.Time{}, time.Time{}, oops.Code("REQUEST_INVALID").Wrap(fe)
	}
	return from, to, nil
}

func parseInstant(raw string, endOfDay bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

func (h *handler) getArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.articles.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) createArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if user := IdentityFrom(r.Context()).User; user != nil {
		if req.AuthorName == "" {
			req.AuthorName = user.Name
		}
		if req.AuthorEmail == "" {
			req.AuthorEmail = user.Email
		}
	}

	a, err := h.articles.Create(r.Context(), articles.Article{
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Title:       req.Title,
		Content:     req.Content,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/articles/"+strconv.FormatInt(a.ID, 10))
	writeJSON(w, http.StatusCreated, a)
}

func (h *handler) listComments(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	comments, err := h.articles.ListComments(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(comments))
}

func (h *handler) addComment(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.articles.AddComment(r.Context(), id, req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func articleID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, oops.Code("REQUEST_INVALID").
			With("id", raw).
			Wrap(errutil.FieldErrors{"id": "article id must be a positive integer"})
	}
	return id, nil
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
