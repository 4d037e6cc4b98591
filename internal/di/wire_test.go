package di

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/meterwatch/internal/config"
	"github.com/aristath/meterwatch/internal/domain"
	testingpkg "github.com/aristath/meterwatch/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:            t.TempDir(),
		Port:               8001,
		VerdictTTL:         time.Hour,
		CleanupSchedule:    "0 0 3 * * *",
		CheckpointSchedule: "0 */30 * * * *",
		BackupSchedule:     "0 0 2 * * *",
		VacuumSchedule:     "0 0 4 * * 0",
		BackupRetention:    14,
	}
}

func TestWire(t *testing.T) {
	container, jobs, err := Wire(testConfig(t), prometheus.NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.MainDB)
	assert.NotNil(t, container.CacheDB)
	assert.NotNil(t, container.ExpedienteRepo)
	assert.NotNil(t, container.VerdictCache)
	assert.NotNil(t, container.ClassificationService)
	assert.NotNil(t, container.ExpedienteService)

	require.NotNil(t, jobs)
	assert.Equal(t, "verdict_cache_cleanup", jobs.CacheCleanup.Name())
	assert.Equal(t, "wal_checkpoint", jobs.WALCheckpoint.Name())
	assert.Equal(t, "database_backup", jobs.Backup.Name())
	assert.Equal(t, "vacuum", jobs.Vacuum.Name())
	assert.Len(t, jobs.All(), 4)
	assert.Equal(t, 4, container.Scheduler.JobCount())
}

func TestWire_ClassificationUsesCache(t *testing.T) {
	container, jobs, err := Wire(testConfig(t), prometheus.NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	series := testingpkg.NewSustainedDeclineSeries()
	result, cached, err := container.ClassificationService.Classify(context.Background(), series)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, domain.CategorySustainedDecline, result.Category)

	count, err := container.VerdictCache.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, cached, err = container.ClassificationService.Classify(context.Background(), series)
	require.NoError(t, err)
	assert.True(t, cached)

	require.NoError(t, jobs.CacheCleanup.Run())
	require.NoError(t, jobs.WALCheckpoint.Run())
	require.NoError(t, jobs.Vacuum.Run())
	require.NoError(t, jobs.Backup.Run())
}

func TestWire_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.CleanupSchedule = "never"

	_, _, err := Wire(cfg, prometheus.NewRegistry(), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register jobs")
}

func TestInitializeServices_RequiresDatabases(t *testing.T) {
	err := InitializeServices(&Container{}, testConfig(t), prometheus.NewRegistry(), zerolog.Nop())
	assert.Error(t, err)
}

func TestRegisterJobs_RequiresScheduler(t *testing.T) {
	_, err := RegisterJobs(&Container{}, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
}
