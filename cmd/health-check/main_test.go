package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, modelURL string, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
app:
  environment: test
  log_level: error
database:
  driver: sqlite
  path: %q
ai:
  providers: [openai]
  openai_api_key: test-key
  openai_base_url: %q
monitoring:
  enable_metrics: false
`, filepath.Join(dir, "nutriplan.db"), modelURL) + strings.Join(extra, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func modelServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_Healthy(t *testing.T) {
	path := writeConfig(t, modelServer(t, http.StatusOK).URL)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path, "-format", "json"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "healthy", out["status"])
	assert.Len(t, out["checks"], 2)
}

func TestRun_ModelDown(t *testing.T) {
	path := writeConfig(t, modelServer(t, http.StatusServiceUnavailable).URL)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path}, &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stdout.String(), "Status: unhealthy")
	assert.Contains(t, stdout.String(), "model: unhealthy (no provider is available)")
	assert.Contains(t, stdout.String(), "database: healthy")
}

func TestRun_SkipModel(t *testing.T) {
	path := writeConfig(t, "http://127.0.0.1:1")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path, "-skip-model", "-verbose"}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "database: healthy")
	assert.NotContains(t, stdout.String(), "model:")
}

func TestRun_RedisDownDegrades(t *testing.T) {
	path := writeConfig(t, modelServer(t, http.StatusOK).URL, `redis:
  host: 127.0.0.1
  port: 1
  dial_timeout: 50ms`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path}, &stdout, &stderr)

	assert.Equal(t, 1, code, stderr.String())
	assert.Contains(t, stdout.String(), "Status: degraded")
	assert.Contains(t, stdout.String(), "redis: unhealthy")
	assert.Contains(t, stdout.String(), "optional")
}

func TestRun_BadFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(context.Background(), []string{"-format", "xml"}, &stdout, &stderr))
	assert.Equal(t, 2, run(context.Background(), []string{"-nope"}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
}
