package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"COMPLAINTS_API_URL", "COMPLAINTS_TIMEOUT", "COMPLAINTS_TOKEN_STORE", "COMPLAINTS_TOKEN_DIR",
	"COMPLAINTS_REDIS_ADDR", "COMPLAINTS_REDIS_PASSWORD", "COMPLAINTS_REDIS_DB", "COMPLAINTS_REDIS_PREFIX",
	"COMPLAINTS_REDIS_TTL", "COMPLAINTS_LOG_LEVEL", "COMPLAINTS_LOG_FORMAT", "COMPLAINTS_WATCH_INTERVAL",
}

// clearEnv blanks every variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	// Run from an empty directory so a developer .env is not picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.0.104:8000", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "file", cfg.TokenStore)
	assert.Equal(t, DefaultTokenDir(), cfg.TokenDir)
	assert.Equal(t, "complaints:", cfg.RedisPrefix)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMPLAINTS_API_URL", "https://complaints.example.edu")
	t.Setenv("COMPLAINTS_TIMEOUT", "3s")
	t.Setenv("COMPLAINTS_TOKEN_STORE", "redis")
	t.Setenv("COMPLAINTS_REDIS_DB", "4")
	t.Setenv("COMPLAINTS_WATCH_INTERVAL", "1m")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://complaints.example.edu", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.WatchInterval)

	kv := cfg.KVStore()
	assert.Equal(t, "redis", kv.Backend)
	assert.Equal(t, 4, kv.RedisDB)
	assert.Equal(t, cfg.APIURL, cfg.HTTP().BaseURL)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "lab.env")
	require.NoError(t, os.WriteFile(path, []byte("COMPLAINTS_API_URL=http://10.0.0.5:8000\nCOMPLAINTS_TOKEN_STORE=memory\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("COMPLAINTS_API_URL")
		os.Unsetenv("COMPLAINTS_TOKEN_STORE")
	})

	cfg, err := Load(Options{EnvFile: path})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.APIURL)
	assert.Equal(t, "memory", cfg.TokenStore)

	_, err = Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, err)
}

func TestLoad_YAMLProfileBelowEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://staging.example.edu
timeout: 5s
token_store: memory
log_format: json
watch_interval: 2m
`), 0o600))
	t.Setenv("COMPLAINTS_LOG_FORMAT", "text")

	cfg, err := Load(Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.edu", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "memory", cfg.TokenStore)
	assert.Equal(t, 2*time.Minute, cfg.WatchInterval)
	assert.Equal(t, "text", cfg.LogFormat, "environment wins over the profile")
	assert.Equal(t, "info", cfg.LogLevel, "defaults survive when the profile is silent")
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad scheme":    {"COMPLAINTS_API_URL": "ftp://example.edu"},
		"bad store":     {"COMPLAINTS_TOKEN_STORE": "sqlite"},
		"bad format":    {"COMPLAINTS_LOG_FORMAT": "xml"},
		"zero interval": {"COMPLAINTS_WATCH_INTERVAL": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(Options{})
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
