package verdictcache

import (
	"testing"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/classification"
	testingpkg "github.com/aristath/meterwatch/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(testingpkg.NewMemoryDB(t, "cache_schema.sql"))
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := setupRepo(t)
	verdict := classification.Classify(testingpkg.NewSustainedDeclineSeries())

	require.NoError(t, repo.Store("abc", verdict, time.Hour))

	got, err := repo.GetIfFresh("abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, verdict, *got)
	assert.Equal(t, "2023-01", got.AnomalyStartPeriod.OrElse(""))
}

func TestGetIfFresh_Unknown(t *testing.T) {
	repo := setupRepo(t)

	got, err := repo.GetIfFresh("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetIfFresh_Expired(t *testing.T) {
	repo := setupRepo(t)
	verdict := domain.ClassificationResult{Category: domain.CategoryUndeterminedAnomaly, Detail: []string{}}

	require.NoError(t, repo.Store("abc", verdict, time.Hour))

	repo.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	got, err := repo.GetIfFresh("abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Replaces(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("abc", domain.ClassificationResult{Category: domain.CategorySustainedDecline}, time.Hour))
	require.NoError(t, repo.Store("abc", domain.ClassificationResult{Category: domain.CategoryPowerChangeExcluded}, time.Hour))

	got, err := repo.GetIfFresh("abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.CategoryPowerChangeExcluded, got.Category)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDelete(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("abc", domain.ClassificationResult{}, time.Hour))
	require.NoError(t, repo.Delete("abc"))
	require.NoError(t, repo.Delete("abc"), "deleting twice is fine")

	got, err := repo.GetIfFresh("abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteExpired(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Store("short", domain.ClassificationResult{}, time.Minute))
	require.NoError(t, repo.Store("long", domain.ClassificationResult{}, 48*time.Hour))

	repo.now = func() time.Time { return time.Now().Add(time.Hour) }
	deleted, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	got, err := repo.GetIfFresh("long")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRepository_SatisfiesVerdictCache(t *testing.T) {
	var _ domain.VerdictCache = (*Repository)(nil)
}

func TestClampTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, ClampTTL(0))
	assert.Equal(t, DefaultTTL, ClampTTL(-time.Hour))
	assert.Equal(t, MinTTL, ClampTTL(time.Second))
	assert.Equal(t, MaxTTL, ClampTTL(365*24*time.Hour))
	assert.Equal(t, 6*time.Hour, ClampTTL(6*time.Hour))
}
