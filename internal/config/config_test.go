package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer func() { _ = os.Chdir(wd) }()

	t.Setenv("METERWATCH_DATA_DIR", "")
	t.Setenv("METERWATCH_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEV_MODE", "")
	t.Setenv("METERWATCH_VERDICT_TTL_HOURS", "")
	t.Setenv("METERWATCH_CLEANUP_SCHEDULE", "")
	t.Setenv("METERWATCH_CHECKPOINT_SCHEDULE", "")
	t.Setenv("METERWATCH_BACKUP_SCHEDULE", "")
	t.Setenv("METERWATCH_VACUUM_SCHEDULE", "")
	t.Setenv("METERWATCH_BACKUP_RETENTION_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.Equal(t, "data", filepath.Base(cfg.DataDir))
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 24*time.Hour, cfg.VerdictTTL)
	assert.Equal(t, "0 0 3 * * *", cfg.CleanupSchedule)
	assert.Equal(t, "0 */30 * * * *", cfg.CheckpointSchedule)
	assert.Equal(t, "0 0 2 * * *", cfg.BackupSchedule)
	assert.Equal(t, "0 0 4 * * 0", cfg.VacuumSchedule)
	assert.Equal(t, 14, cfg.BackupRetention)
	assert.Equal(t, filepath.Join(cfg.DataDir, "backups"), cfg.BackupDir())
}

func TestLoad_FromEnvironment(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "meters")
	t.Setenv("METERWATCH_DATA_DIR", dataDir)
	t.Setenv("METERWATCH_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("METERWATCH_VERDICT_TTL_HOURS", "6")
	t.Setenv("METERWATCH_CLEANUP_SCHEDULE", "@every 1h")
	t.Setenv("METERWATCH_CHECKPOINT_SCHEDULE", "")
	t.Setenv("METERWATCH_BACKUP_SCHEDULE", "")
	t.Setenv("METERWATCH_VACUUM_SCHEDULE", "")
	t.Setenv("METERWATCH_BACKUP_RETENTION_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.BackupRetention)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 6*time.Hour, cfg.VerdictTTL)
	assert.Equal(t, "@every 1h", cfg.CleanupSchedule)
	assert.Equal(t, filepath.Join(dataDir, "cache.db"), cfg.DatabasePath("cache"))
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("METERWATCH_DATA_DIR", t.TempDir())
	t.Setenv("METERWATCH_PORT", "not-a-number")
	t.Setenv("DEV_MODE", "maybe")
	t.Setenv("METERWATCH_VERDICT_TTL_HOURS", "")
	t.Setenv("METERWATCH_CLEANUP_SCHEDULE", "")
	t.Setenv("METERWATCH_CHECKPOINT_SCHEDULE", "")
	t.Setenv("METERWATCH_BACKUP_SCHEDULE", "")
	t.Setenv("METERWATCH_VACUUM_SCHEDULE", "")
	t.Setenv("METERWATCH_BACKUP_RETENTION_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
	assert.False(t, cfg.DevMode)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:               8001,
		VerdictTTL:         time.Hour,
		CleanupSchedule:    "0 0 3 * * *",
		CheckpointSchedule: "@every 30m",
		BackupSchedule:     "0 0 2 * * *",
		VacuumSchedule:     "0 0 4 * * 0",
		BackupRetention:    14,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"port zero", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"port too large", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"non-positive ttl", func(c *Config) { c.VerdictTTL = 0 }, "verdict TTL"},
		{"five-field schedule", func(c *Config) { c.CleanupSchedule = "0 3 * * *" }, "cleanup schedule"},
		{"bad checkpoint schedule", func(c *Config) { c.CheckpointSchedule = "sometimes" }, "checkpoint schedule"},
		{"bad backup schedule", func(c *Config) { c.BackupSchedule = "" }, "backup schedule"},
		{"bad vacuum schedule", func(c *Config) { c.VacuumSchedule = "* *" }, "vacuum schedule"},
		{"non-positive retention", func(c *Config) { c.BackupRetention = 0 }, "backup retention"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
