package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.APIBaseURL)
	assert.Equal(t, 30, cfg.RequestTimeoutSec)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DatabasePath)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jimmy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"api_base_url: https://jimmy.example.com/api/v1\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://jimmy.example.com/api/v1", cfg.APIBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	// unset keys keep their defaults
	assert.Equal(t, 30, cfg.RequestTimeoutSec)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jimmy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: https://file.example.com\n"), 0o644))

	t.Setenv("JIMMY_API_URL", "https://env.example.com")
	t.Setenv("JIMMY_REQUEST_TIMEOUT_SEC", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.APIBaseURL)
	assert.Equal(t, 5, cfg.RequestTimeoutSec)
}

func TestLoad_BadIntEnvIgnored(t *testing.T) {
	t.Setenv("JIMMY_REQUEST_TIMEOUT_SEC", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.RequestTimeoutSec)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jimmy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: [oops\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
