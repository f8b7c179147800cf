package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresAPIURL(t *testing.T) {
	t.Setenv("THREADKIT_API_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THREADKIT_API_URL")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("THREADKIT_API_URL", "https://blog.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://blog.example", cfg.APIBaseURL)
	assert.Equal(t, "https://blog.example/login", cfg.LoginURL)
	assert.Equal(t, "threadkit.db", cfg.DBPath)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.HasToken())
}

func TestLoad_TrimsTrailingSlash(t *testing.T) {
	t.Setenv("THREADKIT_API_URL", "https://blog.example/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example", cfg.APIBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("THREADKIT_API_URL", "https://blog.example")
	t.Setenv("THREADKIT_TOKEN", "tok123")
	t.Setenv("THREADKIT_LOGIN_URL", "https://id.example/signin")
	t.Setenv("THREADKIT_DB_PATH", "/tmp/tk.db")
	t.Setenv("THREADKIT_REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.HasToken())
	assert.Equal(t, "https://id.example/signin", cfg.LoginURL)
	assert.Equal(t, "/tmp/tk.db", cfg.DBPath)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
}

func TestLoad_InvalidURL(t *testing.T) {
	t.Setenv("THREADKIT_API_URL", "not a url")

	_, err := Load()
	require.Error(t, err)
}
