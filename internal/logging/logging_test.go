package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONIncludesServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("identity", "test", "json", "debug", &buf)

	logger.Debug("hello", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "identity", entry["service"])
	assert.Equal(t, "test", entry["version"])
	assert.Equal(t, "v", entry["k"])
}

func TestSetup_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("identity", "test", "text", "warn", &buf)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.True(t, strings.Contains(out, "msg=kept"), out)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("AUTH_STORE_FAILED").With("operation", "FindByEmail").Errorf("db down")
	Error(context.Background(), logger, "request failed", err, "path", "/v1/auth/login")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "AUTH_STORE_FAILED", entry["code"])
	assert.Equal(t, "/v1/auth/login", entry["path"])
}

func TestError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	Error(context.Background(), logger, "request failed", errors.New("plain"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry["error"], "plain")
	assert.NotContains(t, entry, "code")
}
