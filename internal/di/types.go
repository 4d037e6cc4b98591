/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"github.com/aristath/meterwatch/internal/database"
	"github.com/aristath/meterwatch/internal/metrics"
	"github.com/aristath/meterwatch/internal/modules/classification"
	"github.com/aristath/meterwatch/internal/modules/expedientes"
	"github.com/aristath/meterwatch/internal/scheduler"
	"github.com/aristath/meterwatch/internal/verdictcache"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	MainDB  *database.DB // meterwatch.db - expedientes, series, verdict history
	CacheDB *database.DB // cache.db - memoized verdicts

	// Repositories
	ExpedienteRepo *expedientes.Repository
	VerdictCache   *verdictcache.Repository

	// Services
	Metrics               *metrics.Collector
	ClassificationService *classification.Service
	ExpedienteService     *expedientes.Service
	Scheduler             *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	CacheCleanup  scheduler.Job
	WALCheckpoint scheduler.Job
	Backup        scheduler.Job
	Vacuum        scheduler.Job
}

// All returns the registered jobs
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{j.CacheCleanup, j.WALCheckpoint, j.Backup, j.Vacuum}
}

// Close closes every open database
func (c *Container) Close() {
	if c.MainDB != nil {
		c.MainDB.Close()
	}
	if c.CacheDB != nil {
		c.CacheDB.Close()
	}
}
