// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "Failed to parse JSON: %s", buf.String())
	return entry
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("quill", "1.0.0", "json", &buf)

	logger.Info("user registered")

	entry := decode(t, &buf)
	assert.Equal(t, "user registered", entry["msg"])
	assert.Equal(t, "quill", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "level")
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("quill-cleanup", "1.0.0", "text", &buf)

	logger.Info("sweep finished")

	output := buf.String()
	assert.Contains(t, output, "sweep finished")
	assert.Contains(t, output, "quill-cleanup")
}

func TestSetup_DefaultFormatIsJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup("quill", "1.0.0", "", &buf).Info("hello")

	decode(t, &buf)
}

func TestHandler_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("quill", "1.0.0", "json", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "traced message")

	entry := decode(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_NoTraceContext(t *testing.T) {
	var buf bytes.Buffer
	Setup("quill", "1.0.0", "json", &buf).Info("plain")

	entry := decode(t, &buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
	assert.NotContains(t, entry, "request_id")
}

func TestHandler_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("quill", "1.0.0", "json", &buf)

	ctx := WithRequestID(context.Background(), "01HZX3J5Q8W4N6V2T0R9K7M1PD")
	logger.InfoContext(ctx, "request handled")

	entry := decode(t, &buf)
	assert.Equal(t, "01HZX3J5Q8W4N6V2T0R9K7M1PD", entry["request_id"])
	assert.Equal(t, "01HZX3J5Q8W4N6V2T0R9K7M1PD", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestHandler_RedactsSensitiveAttributes(t *testing.T) {
	tests := []struct {
		key string
	}{
		{key: "password"},
		{key: "session_id"},
		{key: "token"},
		{key: "csrf_token"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var buf bytes.Buffer
			Setup("quill", "1.0.0", "json", &buf).Info("login", tt.key, "s3cret", "username", "alice")

			entry := decode(t, &buf)
			assert.Equal(t, redacted, entry[tt.key])
			assert.Equal(t, "alice", entry["username"])
			assert.NotContains(t, buf.String(), "s3cret")
		})
	}
}

func TestHandler_RedactsWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("quill", "1.0.0", "json", &buf).With("session_id", "abc123")

	logger.Info("session touched")

	assert.NotContains(t, buf.String(), "abc123")
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger := SetDefault("quill", "2.0.0", "json")

	assert.Same(t, logger, slog.Default())
}
