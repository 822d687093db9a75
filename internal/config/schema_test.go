// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/quillblog/quill/internal/config"
	"github.com/quillblog/quill/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	raw, err := config.GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, config.SchemaID, doc["$id"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"log_format", "database", "auth", "articles", "http", "metrics"} {
		assert.Contains(t, props, key)
	}

	authProps := props["auth"].(map[string]any)["properties"].(map[string]any)
	duration := authProps["session_duration"].(map[string]any)
	assert.Equal(t, "string", duration["type"], "durations are written as strings")
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"empty file", ``, false},
		{"full file", `
log_format: text
database:
  driver: sqlite
  url: quill.db
  connect_timeout: 10s
auth:
  session_duration: 5m
  cookie_name: BlogSession
  cookie_path: /
  cleanup_interval: 1m
articles:
  in_memory: false
http:
  addr: ":8080"
  allowed_origins: ["https://example.com"]
  csrf_secret: s3cret
  csrf_ttl: 1h
metrics:
  addr: ""
`, false},
		{"unknown top-level key", "colour: blue\n", true},
		{"unknown nested key", "auth:\n  session_length: 5m\n", true},
		{"numeric duration", "auth:\n  session_duration: 300\n", true},
		{"malformed duration", "auth:\n  session_duration: five minutes\n", true},
		{"bad driver", "database:\n  driver: oracle\n", true},
		{"bad log format", "log_format: xml\n", true},
		{"not yaml", "auth: [unclosed\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.ValidateFile([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMarshal_RoundTripsThroughValidateFile(t *testing.T) {
	c := config.Default()
	c.Database.URL = "postgres://db/quill"

	out, err := c.Marshal()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Equal(t, "5m0s", doc["auth"].(map[string]any)["session_duration"])

	require.NoError(t, config.ValidateFile(out))
}
