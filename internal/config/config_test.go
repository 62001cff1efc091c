package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, envPrefix) || key == "PORT" || key == "OPENAI_API_KEY" {
			t.Setenv(key, "")
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, ProviderMock, cfg.Model.Provider)
	assert.Equal(t, 60*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 2, cfg.Model.MaxAttempts)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "http://localhost:5173", cfg.HTTP.CORSOrigin)
	assert.False(t, cfg.HTTP.CookieSecure)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "weekendship.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
log:
  level: debug
model:
  provider: openai
  name: gpt-4o-mini
  timeout: 30s
openai:
  api_key: from-file
storage:
  backend: sqlite
  sqlite_path: /tmp/ws.db
http:
  cookie_secure: true
`), 0o644))

	t.Setenv("WEEKENDSHIP_MODEL_NAME", "gpt-4o")
	t.Setenv("WEEKENDSHIP_MODEL_MAX_ATTEMPTS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 4, cfg.Model.MaxAttempts)
	assert.Equal(t, "from-file", cfg.OpenAI.APIKey)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/ws.db", cfg.Storage.SQLitePath)
	assert.True(t, cfg.HTTP.CookieSecure)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\n"), 0o644))
	t.Setenv("WEEKENDSHIP_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
}

func TestLoadPortPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)

	t.Setenv("WEEKENDSHIP_PORT", "8082")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "8082", cfg.Port)
}

func TestLoadFallsBackToOpenAIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEEKENDSHIP_LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"gcp mode without project", map[string]string{"WEEKENDSHIP_MODE": "gcp"}},
		{"unknown mode", map[string]string{"WEEKENDSHIP_MODE": "cloud"}},
		{"openai without key", map[string]string{"WEEKENDSHIP_LLM_PROVIDER": "openai"}},
		{"vertex without project", map[string]string{"WEEKENDSHIP_LLM_PROVIDER": "vertex"}},
		{"gemini without key", map[string]string{"WEEKENDSHIP_LLM_PROVIDER": "gemini"}},
		{"unknown provider", map[string]string{"WEEKENDSHIP_LLM_PROVIDER": "llama"}},
		{"firestore without project", map[string]string{"WEEKENDSHIP_STORAGE_BACKEND": "firestore"}},
		{"unknown backend", map[string]string{"WEEKENDSHIP_STORAGE_BACKEND": "redis"}},
		{"bad timeout", map[string]string{"WEEKENDSHIP_MODEL_TIMEOUT": "soon"}},
		{"zero attempts", map[string]string{"WEEKENDSHIP_MODEL_MAX_ATTEMPTS": "0"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
