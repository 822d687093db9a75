// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package web

import (
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/auth"
	"github.com/quillblog/quill/pkg/errutil"
)

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

type registerRequest struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	DateOfBirth string    `json:"dateOfBirth"`
	CreatedAt   time.Time `json:"createdAt"`
}

type loginResponse struct {
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type csrfResponse struct {
	Enabled   bool       `json:"enabled"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func newUserResponse(u *auth.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
	if !u.DateOfBirth.IsZero() {
		resp.DateOfBirth = u.DateOfBirth.Format(dateLayout)
	}
	return resp
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	var dob time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			h.writeError(w, r, oops.Code("REQUEST_INVALID").
				Wrap(errutil.FieldErrors{"dateOfBirth": "date of birth must be formatted as YYYY-MM-DD"}))
			return
		}
		dob = parsed
	}

	user, err := h.auth.Register(r.Context(), auth.RegisterRequest{
		Username:    req.Username,
		Name:        req.Name,
		Email:       req.Email,
		DateOfBirth: dob,
		Password:    req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, cookie, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	applyCookie(w, cookie)
	writeJSON(w, http.StatusOK, loginResponse{
		UserID:    session.UserID,
		Username:  req.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := h.auth.Logout(r.Context(), h.sessionToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	applyCookie(w, cookie)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserResponse(IdentityFrom(r.Context()).User))
}

func (h *handler) issueCSRF(w http.ResponseWriter, r *http.Request) {
	if !h.csrf.Enabled() {
		writeJSON(w, http.StatusOK, csrfResponse{Enabled: false})
		return
	}
	issued, err := h.csrf.Issue()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.SetCookie(w, h.csrf.Cookie(issued))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, csrfResponse{Enabled: true, Token: issued.Token, ExpiresAt: &issued.ExpiresAt})
}
