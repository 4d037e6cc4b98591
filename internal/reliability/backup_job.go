// Package reliability provides database backup and maintenance jobs.
package reliability

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/meterwatch/internal/database"
	"github.com/rs/zerolog"
)

// backupTimeLayout is the timestamp embedded in backup file names
const backupTimeLayout = "20060102-150405"

// DefaultRetentionDays is how long backups are kept when no retention is configured
const DefaultRetentionDays = 14

// BackupInfo describes one backup file
type BackupInfo struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// BackupJob snapshots a database into backupDir with VACUUM INTO and rotates
// snapshots older than the retention window
type BackupJob struct {
	db            *database.DB
	backupDir     string
	retentionDays int
	now           func() time.Time
	log           zerolog.Logger
}

// NewBackupJob creates a backup job for db
func NewBackupJob(db *database.DB, backupDir string, retentionDays int, log zerolog.Logger) *BackupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &BackupJob{
		db:            db,
		backupDir:     backupDir,
		retentionDays: retentionDays,
		now:           time.Now,
		log:           log.With().Str("job", "database_backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "database_backup"
}

// Run writes a new snapshot and removes expired ones
func (j *BackupJob) Run() error {
	startTime := time.Now()

	if err := os.MkdirAll(j.backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(j.backupDir, fmt.Sprintf("%s-%s.db", j.db.Name(), j.now().UTC().Format(backupTimeLayout)))
	if _, err := j.db.Conn().Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("failed to back up %s: %w", j.db.Name(), err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("backup %s not written: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("backup %s is empty", path)
	}

	removed, err := j.rotate()
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to rotate old backups")
	}

	j.log.Info().
		Str("database", j.db.Name()).
		Str("path", path).
		Int64("size_bytes", info.Size()).
		Int("rotated", removed).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Database backup completed")

	return nil
}

// ListBackups returns the snapshots of the database, newest first
func (j *BackupJob) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(j.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	prefix := j.db.Name() + "-"
	backups := make([]BackupInfo, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".db") {
			continue
		}
		createdAt, err := time.Parse(backupTimeLayout, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".db"))
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(j.backupDir, name),
			CreatedAt: createdAt,
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(backups, func(a, b int) bool {
		return backups[a].CreatedAt.After(backups[b].CreatedAt)
	})
	return backups, nil
}

func (j *BackupJob) rotate() (int, error) {
	backups, err := j.ListBackups()
	if err != nil {
		return 0, err
	}

	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)
	removed := 0
	for _, b := range backups {
		if !b.CreatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", b.Path, err)
		}
		removed++
	}
	return removed, nil
}
