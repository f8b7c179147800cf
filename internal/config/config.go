// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBaseURL string
	APIToken   string
	LoginURL   string
	DBPath     string
	RedisURL   string
}

// HasToken returns true when an API token is configured. Without one the
// client runs unauthenticated: submissions are stashed and deferred to the
// authentication flow instead of dispatched.
func (c *Config) HasToken() bool {
	return c.APIToken != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. THREADKIT_API_URL is required. THREADKIT_TOKEN is optional; without
// it the client starts logged out. Optional variables with defaults:
// THREADKIT_LOGIN_URL (<api url>/login), THREADKIT_DB_PATH (threadkit.db).
// THREADKIT_REDIS_URL switches the draft stash from SQLite to Redis.
func Load() (*Config, error) {
	baseURL := strings.TrimRight(os.Getenv("THREADKIT_API_URL"), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("THREADKIT_API_URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("THREADKIT_API_URL is not a valid URL %q: %w", baseURL, err)
	}

	loginURL := baseURL + "/login"
	if v, ok := os.LookupEnv("THREADKIT_LOGIN_URL"); ok && v != "" {
		loginURL = v
	}

	dbPath := "threadkit.db"
	if v, ok := os.LookupEnv("THREADKIT_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	return &Config{
		APIBaseURL: baseURL,
		APIToken:   os.Getenv("THREADKIT_TOKEN"),
		LoginURL:   loginURL,
		DBPath:     dbPath,
		RedisURL:   os.Getenv("THREADKIT_REDIS_URL"),
	}, nil
}
