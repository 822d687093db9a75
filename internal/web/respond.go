// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/quillblog/quill/internal/articles"
	"github.com/quillblog/quill/pkg/errutil"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusOf maps an error code to an HTTP status and a client-safe message.
func statusOf(err error) (int, string, string) {
	if errors.Is(err, articles.ErrNotFound) {
		return http.StatusNotFound, "ARTICLE_NOT_FOUND", "article not found"
	}

	code := errutil.Code(err)
	switch code {
	case "AUTH_VALIDATION_FAILED", "ARTICLE_VALIDATION_FAILED", "COMMENT_VALIDATION_FAILED", "REQUEST_INVALID":
		return http.StatusBadRequest, code, "validation failed"
	case "AUTH_USERNAME_TAKEN":
		return http.StatusConflict, code, "username already taken"
	case "AUTH_EMAIL_TAKEN":
		return http.StatusConflict, code, "email already registered"
	case "AUTH_INVALID_CREDENTIALS":
		return http.StatusUnauthorized, code, "invalid username or password"
	case "AUTH_REQUIRED":
		return http.StatusUnauthorized, code, "authentication required"
	case "CSRF_INVALID":
		return http.StatusForbidden, code, "invalid anti-forgery token"
	case "CSRF_DISABLED", "ROUTE_NOT_FOUND":
		return http.StatusNotFound, code, "not found"
	case "METHOD_NOT_ALLOWED":
		return http.StatusMethodNotAllowed, code, "method not allowed"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal server error"
	}
}

// writeError renders err as JSON. Server errors are logged and their
// details withheld from the client.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := statusOf(err)
	resp := errorResponse{Code: code, Message: msg}
	if status == http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), h.logger, "request failed", err)
	} else if fields, ok := errutil.Fields(err); ok {
		resp.Fields = fields
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return oops.Code("REQUEST_INVALID").
			Wrap(errutil.FieldErrors{"body": "request body must be a valid JSON object"})
	}
	return nil
}
