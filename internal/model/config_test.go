package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TASKBOT_TOKEN", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Bot.PollTimeoutSec)
	assert.Equal(t, 20, cfg.Report.Hour)
	assert.Equal(t, 0, cfg.Report.Minute)
	assert.Equal(t, "UTC", cfg.Report.Timezone)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.Storage.Path)
}

func TestLoadConfigTokenFromEnv(t *testing.T) {
	t.Setenv("TASKBOT_TOKEN", "env-token")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Bot.Token)
}

func TestLoadConfigReadsFile(t *testing.T) {
	t.Setenv("TASKBOT_TOKEN", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bot:
  token: file-token
report:
  hour: 8
  minute: 30
  timezone: Europe/Kyiv
storage:
  path: /tmp/bot.db
log_level: debug
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Bot.Token)
	assert.Equal(t, 8, cfg.Report.Hour)
	assert.Equal(t, 30, cfg.Report.Minute)
	assert.Equal(t, "Europe/Kyiv", cfg.Report.Timezone)
	assert.Equal(t, "/tmp/bot.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 30, cfg.Bot.PollTimeoutSec)
}

func TestLoadConfigRejectsBadReportTime(t *testing.T) {
	t.Setenv("TASKBOT_TOKEN", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  hour: 24\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestReportConfigLocation(t *testing.T) {
	loc, err := ReportConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = ReportConfig{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
