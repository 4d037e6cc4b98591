// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/meterwatch/internal/config"
	"github.com/aristath/meterwatch/internal/reliability"
	"github.com/aristath/meterwatch/internal/scheduler"
	"github.com/aristath/meterwatch/internal/verdictcache"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the maintenance jobs and schedules them.
// Returns JobInstances for manual triggering via API.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Scheduler == nil {
		return nil, fmt.Errorf("services must be initialized first")
	}

	instances := &JobInstances{
		CacheCleanup:  verdictcache.NewCleanupJob(container.VerdictCache, container.Metrics, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(log, container.MainDB, container.CacheDB),
		Backup:        reliability.NewBackupJob(container.MainDB, cfg.BackupDir(), cfg.BackupRetention, log),
		Vacuum:        reliability.NewVacuumJob(log, container.MainDB, container.CacheDB),
	}

	schedules := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.CleanupSchedule, instances.CacheCleanup},
		{cfg.CheckpointSchedule, instances.WALCheckpoint},
		{cfg.BackupSchedule, instances.Backup},
		{cfg.VacuumSchedule, instances.Vacuum},
	}
	for _, s := range schedules {
		if err := container.Scheduler.AddJob(s.schedule, s.job); err != nil {
			return nil, err
		}
	}

	return instances, nil
}
