package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvCompletionURL, "")
	t.Setenv(EnvCorpus, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.StageDelay())
	assert.Equal(t, 20*time.Second, cfg.Session.RequestTimeout())
	assert.Equal(t, time.Hour, cfg.Server.SessionTTL())
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv(EnvCompletionURL, "")
	t.Setenv(EnvCorpus, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
corpus:
  source: https://example.com/ask-ai-index.json
completion:
  url: https://proxy.example.com/ask
  api_key_env: ASKAI_KEY
session:
  stage_delay_ms: 0
server:
  allowed_origins: ["https://example.com"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/ask-ai-index.json", cfg.Corpus.Source)
	assert.Equal(t, 10*time.Second, cfg.Corpus.Timeout())
	assert.Equal(t, "https://proxy.example.com/ask", cfg.Completion.URL)
	assert.Equal(t, "ASKAI_KEY", cfg.Completion.APIKeyEnv)
	assert.Equal(t, 20*time.Second, cfg.Completion.Timeout())
	assert.Equal(t, 5, cfg.Retrieval.Limit)
	assert.Zero(t, cfg.Session.StageDelay())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("corpus: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvCompletionURL, "http://127.0.0.1:9999/ask")
	t.Setenv(EnvCorpus, "testdata/corpus.json")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/ask", cfg.Completion.URL)
	assert.Equal(t, "testdata/corpus.json", cfg.Corpus.Source)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvCompletionURL, "")
	t.Setenv(EnvCorpus, "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Retrieval.Limit = 8
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	t.Setenv(EnvCompletionURL, "")
	t.Setenv(EnvCorpus, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "askai", "config.yaml"), path)
	assert.Equal(t, defaultConfig(), cfg)
	assert.FileExists(t, path)
}
