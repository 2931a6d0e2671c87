package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gaurav-prasanna/docpipe/chat"
	"github.com/gaurav-prasanna/docpipe/core/fetch"
	"github.com/gaurav-prasanna/docpipe/core/normalize"
	"github.com/gaurav-prasanna/docpipe/monitor"
	"github.com/gaurav-prasanna/docpipe/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"OPENAI_API_KEY", "DOCPIPE_API_KEY", "DOCPIPE_MODEL", "DOCPIPE_BASE_URL",
	"DOCPIPE_ORIGIN", "DOCPIPE_DB", "DOCPIPE_LOG_LEVEL",
}

// clearEnv blanks every variable the loader reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, ".env"))
	require.Error(t, err, "explicit path must exist")

	t.Chdir(dir)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, fetch.DefaultTimeoutSecs, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, fetch.DefaultUserAgent, cfg.Fetch.UserAgent)
	assert.Equal(t, pipeline.DefaultConcurrency, cfg.Pipeline.Concurrency)
	assert.Equal(t, normalize.CrawlCap, cfg.Pipeline.CrawlCap)
	assert.Equal(t, normalize.SampleCap, cfg.Pipeline.SampleCap)
	assert.Equal(t, chat.DefaultModel, cfg.Chat.Model)
	assert.Equal(t, monitor.DefaultInterval, cfg.Monitor.Interval)
	assert.Equal(t, normalize.HTMLModeText, cfg.Normalize.HTMLMode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "docpipe.yaml", `
fetch:
  timeout_seconds: 10
  origin: chrome-extension://abc
normalize:
  html_mode: markdown
  main_content: true
pipeline:
  concurrency: 2
  crawl_cap: 500
chat:
  model: gpt-4o-mini
  temperature: 0.2
monitor:
  interval: 90s
store:
  path: /tmp/docpipe-test.db
log:
  level: debug
`)

	cfg, err := load(path, filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, "chrome-extension://abc", cfg.Fetch.Origin)
	assert.Equal(t, normalize.HTMLModeMarkdown, cfg.Normalize.HTMLMode)
	assert.True(t, cfg.Normalize.MainContent)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, 500, cfg.Pipeline.CrawlCap)
	assert.Equal(t, normalize.SampleCap, cfg.Pipeline.SampleCap)
	assert.Equal(t, "gpt-4o-mini", cfg.Chat.Model)
	assert.InDelta(t, 0.2, cfg.Chat.Temperature, 1e-9)
	assert.Equal(t, 90*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, "/tmp/docpipe-test.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "fetch: [unclosed")

	_, err := load(path, filepath.Join(dir, ".env"))
	assert.Error(t, err)
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "docpipe.yaml", "chat:\n  model: from-yaml\n  api_key: sk-yaml\n")
	t.Setenv("DOCPIPE_MODEL", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("DOCPIPE_ORIGIN", "https://origin.test")

	cfg, err := load(path, filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Chat.Model)
	assert.Equal(t, "sk-openai", cfg.Chat.APIKey)
	assert.Equal(t, "https://origin.test", cfg.Fetch.Origin)

	t.Setenv("DOCPIPE_API_KEY", "sk-docpipe")
	cfg, err = load(path, filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "sk-docpipe", cfg.Chat.APIKey)
}

func TestDotEnvFillsUnsetVariables(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("DOCPIPE_DB")
	os.Unsetenv("DOCPIPE_BASE_URL")
	t.Cleanup(func() {
		os.Unsetenv("DOCPIPE_DB")
		os.Unsetenv("DOCPIPE_BASE_URL")
	})
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "DOCPIPE_DB=/tmp/from-dotenv.db\nDOCPIPE_BASE_URL=http://localhost:1234/v1\n")

	writeFile(t, dir, "docpipe.yaml", "")
	cfg, err := load(filepath.Join(dir, "docpipe.yaml"), envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Store.Path)
	assert.Equal(t, "http://localhost:1234/v1", cfg.Chat.BaseURL)
}
