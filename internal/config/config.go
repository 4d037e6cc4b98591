// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for all databases (always absolute)
	Port               int
	LogLevel           string
	DevMode            bool
	VerdictTTL         time.Duration // How long a cached verdict is served
	CleanupSchedule    string        // Six-field cron schedule of the cache cleanup job
	CheckpointSchedule string        // Six-field cron schedule of the WAL checkpoint job
	BackupSchedule     string        // Six-field cron schedule of the database backup job
	VacuumSchedule     string        // Six-field cron schedule of the VACUUM job
	BackupRetention    int           // Days a backup is kept
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("METERWATCH_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("METERWATCH_PORT", 8001),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		VerdictTTL:         time.Duration(getEnvAsInt("METERWATCH_VERDICT_TTL_HOURS", 24)) * time.Hour,
		CleanupSchedule:    getEnv("METERWATCH_CLEANUP_SCHEDULE", "0 0 3 * * *"),
		CheckpointSchedule: getEnv("METERWATCH_CHECKPOINT_SCHEDULE", "0 */30 * * * *"),
		BackupSchedule:     getEnv("METERWATCH_BACKUP_SCHEDULE", "0 0 2 * * *"),
		VacuumSchedule:     getEnv("METERWATCH_VACUUM_SCHEDULE", "0 0 4 * * 0"),
		BackupRetention:    getEnvAsInt("METERWATCH_BACKUP_RETENTION_DAYS", 14),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath returns the path of a named database file under DataDir
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
}

// BackupDir returns the directory database backups are written to
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.VerdictTTL <= 0 {
		return fmt.Errorf("verdict TTL must be positive, got %s", c.VerdictTTL)
	}
	if c.BackupRetention <= 0 {
		return fmt.Errorf("backup retention must be positive, got %d days", c.BackupRetention)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedules := []struct {
		name  string
		value string
	}{
		{"cleanup", c.CleanupSchedule},
		{"checkpoint", c.CheckpointSchedule},
		{"backup", c.BackupSchedule},
		{"vacuum", c.VacuumSchedule},
	}
	for _, s := range schedules {
		if _, err := parser.Parse(s.value); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", s.name, s.value, err)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
