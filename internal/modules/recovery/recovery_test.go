package recovery

import (
	"testing"

	"github.com/aristath/meterwatch/internal/domain"
	testingpkg "github.com/aristath/meterwatch/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_RecoveredBlock(t *testing.T) {
	events := Detect(testingpkg.NewRecoverySeries())
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "2023-01 → 2023-03", e.DescentRange)
	assert.Equal(t, 12, e.DescentStartIndex)
	assert.Equal(t, 14, e.DescentEndIndex)
	assert.Equal(t, "2023-04", e.RecoveryPeriod)
	assert.Equal(t, 15, e.RecoveryIndex)
	assert.InDelta(t, 300.0, e.DescentAverage, 1e-9)
	assert.Equal(t, 450.0, e.RecoveryConsumption)
	assert.InDelta(t, -40.0/3, e.DescentAverageVariation.OrElse(0), 1e-9)

	assert.True(t, Covered(events, 12))
	assert.True(t, Covered(events, 15))
	assert.False(t, Covered(events, 11))
	assert.False(t, Covered(events, 16))
}

func TestDetect_NoRecovery(t *testing.T) {
	events := Detect(testingpkg.NewSustainedDeclineSeries())
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestDetect_SinglePeriodDipIgnored(t *testing.T) {
	series := testingpkg.NewSeriesBuilder(2022, 1).AddN(12, 500).Add(200).AddN(3, 500).Build()
	assert.Empty(t, Detect(series))
}

func TestDetect_RecoveryBelowThreshold(t *testing.T) {
	// 420 is under 85% of 500
	series := testingpkg.NewSeriesBuilder(2022, 1).AddN(12, 500).AddN(3, 300).AddN(2, 420).Build()
	assert.Empty(t, Detect(series))
}

func TestDetect_PowerChangeSplitsBlock(t *testing.T) {
	series := testingpkg.NewSeriesBuilder(2022, 1).
		AddNWithPower(12, 500, 10).
		AddWithPower(300, 10).
		AddNWithPower(2, 300, 5).
		AddWithPower(500, 5).
		Build()

	events := Detect(series)
	require.Len(t, events, 1)
	assert.Equal(t, 13, events[0].DescentStartIndex)
	assert.Equal(t, 14, events[0].DescentEndIndex)
	assert.Equal(t, 15, events[0].RecoveryIndex)
}

func TestDetect_RecoverySkipsPowerChangePeriod(t *testing.T) {
	series := testingpkg.NewSeriesBuilder(2022, 1).
		AddNWithPower(12, 500, 10).
		AddNWithPower(2, 300, 10).
		AddWithPower(480, 15).
		AddWithPower(470, 15).
		Build()

	events := Detect(series)
	require.Len(t, events, 1)
	assert.Equal(t, 15, events[0].RecoveryIndex)
	assert.Equal(t, "2023-04", events[0].RecoveryPeriod)
}

func TestDetect_MultipleBlocks(t *testing.T) {
	series := testingpkg.NewSeriesBuilder(2021, 1).
		AddN(12, 500).
		AddN(2, 100).
		Add(500).
		AddN(3, 200).
		Add(460).
		AddN(21, 500).
		Build()

	events := Detect(series)
	require.Len(t, events, 2)
	assert.Equal(t, 12, events[0].DescentStartIndex)
	assert.Equal(t, 14, events[0].RecoveryIndex)
	assert.Equal(t, 15, events[1].DescentStartIndex)
	assert.Equal(t, 17, events[1].DescentEndIndex)
	assert.Equal(t, 18, events[1].RecoveryIndex)
}

func TestDetect_Degenerate(t *testing.T) {
	assert.Empty(t, Detect(nil))
	assert.Empty(t, Detect(domain.Series{}))
	assert.Empty(t, Detect(testingpkg.NewSeriesBuilder(2022, 1).AddN(10, 0).Build()))
}

func TestDetect_ShortBillingPeriodsAreNotDescents(t *testing.T) {
	// 20 kWh/day throughout: two 20-day periods bill less but consume the same
	series := testingpkg.NewSeriesBuilder(2022, 1).AddN(12, 600).AddN(2, 400).Add(600).Build()
	series[12].BilledDays = 20
	series[13].BilledDays = 20

	assert.Empty(t, Detect(series))
}

func TestDetect_NormalizesBilledDays(t *testing.T) {
	// 600 kWh over 60 days is 300 per 30 days, a real descent
	series := testingpkg.NewSeriesBuilder(2022, 1).AddN(12, 600).AddN(2, 600).Add(560).Build()
	series[12].BilledDays = 60
	series[13].BilledDays = 60

	events := Detect(series)
	require.Len(t, events, 1)
	assert.Equal(t, 12, events[0].DescentStartIndex)
	assert.Equal(t, 13, events[0].DescentEndIndex)
	assert.Equal(t, "2023-03", events[0].RecoveryPeriod)
	assert.Equal(t, 600.0, events[0].DescentAverage, "reported in billed kWh")
}
