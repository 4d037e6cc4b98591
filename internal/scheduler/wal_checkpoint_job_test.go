package scheduler

import (
	"path/filepath"
	"testing"

	"github.com/aristath/meterwatch/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T, name string, profile database.Profile) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestWALCheckpointJob(t *testing.T) {
	main := openDB(t, database.NameMeterwatch, database.ProfileStandard)
	cache := openDB(t, database.NameCache, database.ProfileCache)

	job := NewWALCheckpointJob(zerolog.Nop(), main, nil, cache)
	assert.Equal(t, "wal_checkpoint", job.Name())
	assert.NoError(t, job.Run())
}

func TestWALCheckpointJob_ClosedDatabase(t *testing.T) {
	db := openDB(t, database.NameCache, database.ProfileCache)
	require.NoError(t, db.Close())

	job := NewWALCheckpointJob(zerolog.Nop(), db)
	err := job.Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), database.NameCache)
}
