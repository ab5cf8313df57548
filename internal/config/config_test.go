package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: "9090"
  environment: "production"
  log_level: "debug"
generation:
  provider: "anthropic"
  model: "claude-sonnet-4-0"
  temperature: 0.4
providers:
  anthropic:
    api_key: "test-key"
    base_url: "https://example.com"
`)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, "debug", cfg.GetNormalizedLogLevel())
		assert.Equal(t, "anthropic", cfg.Generation.Provider)
		assert.Equal(t, "claude-sonnet-4-0", cfg.Generation.Model)
		assert.Equal(t, 0.4, cfg.Generation.Temperature)

		pc, ok := cfg.ProviderConfig("anthropic")
		require.True(t, ok)
		assert.Equal(t, "test-key", pc.APIKey)
		assert.Equal(t, "https://example.com", pc.BaseURL)
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeConfigFile(t, `
generation:
  model: "gpt-4o-mini"
providers:
  openai:
    api_key: "test-key"
`)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "development", cfg.Server.Environment)
		assert.False(t, cfg.IsProduction())
		assert.Equal(t, "openai", cfg.Generation.Provider)
		assert.Equal(t, 0.6, cfg.Generation.Temperature)
	})

	t.Run("env var substitution", func(t *testing.T) {
		t.Setenv("TEST_QS_API_KEY", "from-env")

		path := writeConfigFile(t, `
generation:
  model: "gpt-4o-mini"
providers:
  openai:
    api_key: "${TEST_QS_API_KEY}"
    base_url: "${TEST_QS_MISSING:-https://fallback.example.com}"
`)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		pc, ok := cfg.ProviderConfig("openai")
		require.True(t, ok)
		assert.Equal(t, "from-env", pc.APIKey)
		assert.Equal(t, "https://fallback.example.com", pc.BaseURL)
	})

	t.Run("provider keys are case insensitive", func(t *testing.T) {
		path := writeConfigFile(t, `
generation:
  provider: "openai"
  model: "gpt-4o-mini"
providers:
  OpenAI:
    api_key: "test-key"
`)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		_, ok := cfg.ProviderConfig("openai")
		assert.True(t, ok)
	})

	t.Run("unknown generation provider rejected", func(t *testing.T) {
		path := writeConfigFile(t, `
generation:
  provider: "cohere"
  model: "command-r"
providers:
  cohere:
    api_key: "test-key"
`)

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("selected provider must have an entry", func(t *testing.T) {
		path := writeConfigFile(t, `
generation:
  provider: "anthropic"
  model: "claude-sonnet-4-0"
providers:
  openai:
    api_key: "test-key"
`)

		_, err := LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "anthropic")
	})

	t.Run("missing model rejected", func(t *testing.T) {
		path := writeConfigFile(t, `
providers:
  openai:
    api_key: "test-key"
`)

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("non yaml extension rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
