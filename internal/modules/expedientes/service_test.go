package expedientes

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/classification"
	testingpkg "github.com/aristath/meterwatch/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyRecorder struct {
	stored int
}

func (r *historyRecorder) RecordStoredVerdict() {
	r.stored++
}

func setupService(t *testing.T) (*Service, *historyRecorder) {
	t.Helper()
	recorder := &historyRecorder{}
	classifier := classification.NewService(testingpkg.NewMockVerdictCache(), nil, time.Hour, zerolog.Nop())
	return NewService(setupRepo(t), classifier, recorder, zerolog.Nop()), recorder
}

func TestService_ClassifyStoresVerdict(t *testing.T) {
	service, recorder := setupService(t)
	_, err := service.Repository().Upsert("EXP-001", "")
	require.NoError(t, err)
	_, err = service.ReplaceSeries("EXP-001", testingpkg.NewSustainedDeclineSeries())
	require.NoError(t, err)

	stored, cached, err := service.Classify(context.Background(), "EXP-001")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, domain.CategorySustainedDecline, stored.Verdict.Category)
	assert.Len(t, stored.Fingerprint, 64)

	_, cached, err = service.Classify(context.Background(), "EXP-001")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 2, recorder.stored)

	history, err := service.Repository().VerdictHistory("EXP-001", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestService_ClassifyUnknownExpediente(t *testing.T) {
	service, _ := setupService(t)

	_, _, err := service.Classify(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ClassifyEmptySeries(t *testing.T) {
	service, _ := setupService(t)
	_, err := service.Repository().Upsert("EXP-001", "")
	require.NoError(t, err)

	stored, _, err := service.Classify(context.Background(), "EXP-001")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryUndeterminedAnomaly, stored.Verdict.Category)
	assert.Equal(t, 0, stored.Verdict.Confidence)
}

func TestService_ReplaceSeriesValidates(t *testing.T) {
	service, _ := setupService(t)
	_, err := service.Repository().Upsert("EXP-001", "")
	require.NoError(t, err)

	records := testingpkg.NewStableSeries(5)
	records[4] = records[1]

	_, err = service.ReplaceSeries("EXP-001", records)
	assert.ErrorIs(t, err, domain.ErrInvalidSeries)
}
