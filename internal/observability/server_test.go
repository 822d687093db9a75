// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quillblog/quill/pkg/errutil"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestHandler_HealthChecks(t *testing.T) {
	tests := []struct {
		name       string
		ready      ReadinessChecker
		path       string
		wantStatus int
		wantBody   string
	}{
		{"liveness ignores readiness", func() bool { return false }, "/healthz/liveness", http.StatusOK, "ok\n"},
		{"ready", func() bool { return true }, "/healthz/readiness", http.StatusOK, "ok\n"},
		{"not ready", func() bool { return false }, "/healthz/readiness", http.StatusServiceUnavailable, "not ready\n"},
		{"nil checker is ready", nil, "/healthz/readiness", http.StatusOK, "ok\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, NewServer("127.0.0.1:0", tt.ready).Handler(), tt.path)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestHandler_MetricsExposition(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	s.Metrics().ObserveLogin("success")
	s.Metrics().ObserveHTTP(http.MethodGet, "/articles/{id}", http.StatusNotFound, 3*time.Millisecond)

	status, body := get(t, s.Handler(), "/metrics")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	for _, want := range []string{
		"go_goroutines",
		"process_",
		`quill_logins_total{result="success"} 1`,
		`quill_http_requests_total{method="GET",route="/articles/{id}",status="404"} 1`,
		"quill_http_request_duration_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestHandler_RejectsWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer("127.0.0.1:0", nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz/liveness", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestServer_Lifecycle(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	if s.Addr() != "" {
		t.Fatalf("Addr before Start = %q, want empty", s.Addr())
	}

	errCh, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = s.Start()
	errutil.AssertErrorCode(t, err, "OBSERVABILITY_RUNNING")

	resp, err := http.Get("http://" + s.Addr() + "/healthz/liveness")
	if err != nil {
		t.Fatalf("GET liveness: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok\n" {
		t.Errorf("liveness = %d %q", resp.StatusCode, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.Addr() != "" {
		t.Errorf("Addr after Stop = %q, want empty", s.Addr())
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("second Stop: %v", err)
	}

	select {
	case err, ok := <-errCh:
		if ok {
			t.Errorf("error channel delivered %v on clean shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error channel not closed after Stop")
	}
}

func TestServer_ListenFailure(t *testing.T) {
	first := NewServer("127.0.0.1:0", nil)
	if _, err := first.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	_, err := NewServer(first.Addr(), nil).Start()
	errutil.AssertErrorCode(t, err, "OBSERVABILITY_LISTEN_FAILED")
}
