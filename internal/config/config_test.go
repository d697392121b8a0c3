package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(20), cfg.MaxUploadSizeMB)
	assert.Equal(t, "tickets", cfg.RedisQueue)
	assert.Equal(t, 512, cfg.AssistantMaxTokens)
	assert.False(t, cfg.AssistantEnabled())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=9090\nTIMEZONE=Europe/Berlin\nADMIN_KEY=secret\nMAX_UPLOAD_MB=5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "secret", cfg.AdminKey)
	assert.Equal(t, int64(5), cfg.MaxUploadSizeMB)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLocation(t *testing.T) {
	for _, tz := range []string{"", "Local", "local"} {
		loc, err := Config{Timezone: tz}.Location()
		require.NoError(t, err)
		assert.Equal(t, time.Local, loc)
	}
	loc, err := Config{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
