// Package config loads application configuration from environment variables
// and holds the static feature tables that gate assistance per repository
// and per user.
package config

import (
	"fmt"
	"log/slog"
	"os"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken   string
	ListenAddr    string
	DBPath        string
	ContentAPIURL string
	ContentStore  string
	ContentAPIKey string
	LogLevel      slog.Level
}

// Load reads configuration from environment variables and returns a validated
// Config. ASSISTANT_GITHUB_TOKEN and ASSISTANT_CONTENT_API_KEY are required.
// Optional variables with defaults: ASSISTANT_LISTEN_ADDR (127.0.0.1:8080),
// ASSISTANT_DB_PATH (assistant.db), ASSISTANT_CONTENT_API_URL,
// ASSISTANT_CONTENT_STORE_URL, ASSISTANT_LOG_LEVEL (info).
func Load() (*Config, error) {
	token := os.Getenv("ASSISTANT_GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("ASSISTANT_GITHUB_TOKEN is required")
	}

	apiKey := os.Getenv("ASSISTANT_CONTENT_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ASSISTANT_CONTENT_API_KEY is required")
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("ASSISTANT_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "assistant.db"
	if v, ok := os.LookupEnv("ASSISTANT_DB_PATH"); ok {
		dbPath = v
	}

	apiURL := "https://studio-server-preview.api.vertesia.io"
	if v, ok := os.LookupEnv("ASSISTANT_CONTENT_API_URL"); ok {
		apiURL = v
	}

	storeURL := "https://zeno-server-preview.api.vertesia.io"
	if v, ok := os.LookupEnv("ASSISTANT_CONTENT_STORE_URL"); ok {
		storeURL = v
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("ASSISTANT_LOG_LEVEL"); ok {
		parsed, err := parseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("ASSISTANT_LOG_LEVEL has invalid level %q: %w", v, err)
		}
		logLevel = parsed
	}

	return &Config{
		GitHubToken:   token,
		ListenAddr:    listenAddr,
		DBPath:        dbPath,
		ContentAPIURL: apiURL,
		ContentStore:  storeURL,
		ContentAPIKey: apiKey,
		LogLevel:      logLevel,
	}, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}
