package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ASSISTANT_GITHUB_TOKEN", "ghp_test")
	t.Setenv("ASSISTANT_CONTENT_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, "sk-test", cfg.ContentAPIKey)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "assistant.db", cfg.DBPath)
	assert.Equal(t, "https://studio-server-preview.api.vertesia.io", cfg.ContentAPIURL)
	assert.Equal(t, "https://zeno-server-preview.api.vertesia.io", cfg.ContentStore)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ASSISTANT_GITHUB_TOKEN", "ghp_test")
	t.Setenv("ASSISTANT_CONTENT_API_KEY", "sk-test")
	t.Setenv("ASSISTANT_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("ASSISTANT_DB_PATH", "/var/lib/assistant/state.db")
	t.Setenv("ASSISTANT_CONTENT_API_URL", "https://studio-server.api.vertesia.io")
	t.Setenv("ASSISTANT_CONTENT_STORE_URL", "https://zeno-server.api.vertesia.io")
	t.Setenv("ASSISTANT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/assistant/state.db", cfg.DBPath)
	assert.Equal(t, "https://studio-server.api.vertesia.io", cfg.ContentAPIURL)
	assert.Equal(t, "https://zeno-server.api.vertesia.io", cfg.ContentStore)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("ASSISTANT_GITHUB_TOKEN", "")
	t.Setenv("ASSISTANT_CONTENT_API_KEY", "sk-test")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSISTANT_GITHUB_TOKEN")
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("ASSISTANT_GITHUB_TOKEN", "ghp_test")
	t.Setenv("ASSISTANT_CONTENT_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSISTANT_CONTENT_API_KEY")
}

func TestLoadInvalidLogLevel(t *testing.T) {
	t.Setenv("ASSISTANT_GITHUB_TOKEN", "ghp_test")
	t.Setenv("ASSISTANT_CONTENT_API_KEY", "sk-test")
	t.Setenv("ASSISTANT_LOG_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSISTANT_LOG_LEVEL")
}
