package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/core"
)

func writeConfig(t *testing.T, llmURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fragent.yaml")
	content := `
database:
  provider: sqlite
  config:
    db_path: ` + filepath.Join(dir, "cli.db") + `
llm:
  default_provider: custom
  providers:
    custom:
      base_url: ` + llmURL + `
      default_model: test-model
log:
  level: error
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLIWorkflow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`))
	}))
	defer server.Close()
	cfg := writeConfig(t, server.URL)

	out, err := run(t, "--config", cfg, "agent", "create", "cli-agent", "--system-prompt", "Be brief")
	require.NoError(t, err)
	agentID := strings.TrimSpace(out)
	require.NotEmpty(t, agentID)

	out, err = run(t, "--config", cfg, "agent", "list")
	require.NoError(t, err)
	assert.Contains(t, out, agentID+"\tcli-agent")

	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")
	out, err = run(t, "--config", cfg, "--metrics-file", metricsPath, "ask", agentID, "ping", "please")
	require.NoError(t, err)
	assert.Equal(t, "pong\n", out)
	dump, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(dump), `fragent_llm_request_total{provider="custom",status="ok"}`)

	out, err = run(t, "--config", cfg, "trigger", agentID, "--type", "alert", "disk full")
	require.NoError(t, err)
	assert.Equal(t, "pong\n", out)

	out, err = run(t, "--config", cfg, "stats", "--agent", agentID)
	require.NoError(t, err)
	var stats core.MemoryStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(4), stats.Permanent)

	out, err = run(t, "--config", cfg, "cleanup", "temporary", "--days", "1")
	require.NoError(t, err)
	assert.Equal(t, "deleted 0 temporary memories\n", out)

	out, err = run(t, "--config", cfg, "sweep")
	require.NoError(t, err)
	assert.Equal(t, "deleted 0 temporary and 0 execution memories\n", out)

}

func TestCLIRejectsBadInput(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	_, err := run(t, "--config", cfg, "cleanup", "execution", "--hours", "0")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = run(t, "--config", cfg, "provider", "set", "anthropic", "--api-key", "x")
	assert.Error(t, err)

	_, err = run(t, "--config", cfg, "stats", "--agent", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	out, err := run(t, "--config", cfg, "provider", "set", "openai", "--api-key", "sk", "--host", "https://api.openai.com/v1", "--default")
	require.NoError(t, err)
	assert.Equal(t, "saved settings for openai\n", out)
}
