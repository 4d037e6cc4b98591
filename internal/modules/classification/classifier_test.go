package classification

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aristath/meterwatch/internal/domain"
	testingpkg "github.com/aristath/meterwatch/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailContains(t *testing.T, res domain.ClassificationResult, fragment string) {
	t.Helper()
	for _, line := range res.Detail {
		if strings.Contains(line, fragment) {
			return
		}
	}
	t.Errorf("no detail line contains %q: %v", fragment, res.Detail)
}

func TestClassify_ShortSeriesFloor(t *testing.T) {
	full := testingpkg.NewSustainedDeclineSeries()

	for n := 0; n < MinSeriesLength; n++ {
		res := Classify(full[:n])
		assert.Equal(t, domain.CategoryUndeterminedAnomaly, res.Category, "n=%d", n)
		assert.Equal(t, 0, res.Confidence, "n=%d", n)
		assert.NotNil(t, res.Detail)
		assert.NotNil(t, res.Recoveries)
	}

	assert.Empty(t, Classify(nil).Detail)
	assert.Equal(t, RuleEmptySeries, Classify(nil).Rule)

	res := Classify(full[:2])
	assert.Equal(t, RuleInsufficientHistory, res.Rule)
	detailContains(t, res, "Insufficient history")
}

func TestClassify_Deterministic(t *testing.T) {
	fixtures := map[string]domain.Series{
		"sustained":    testingpkg.NewSustainedDeclineSeries(),
		"power change": testingpkg.NewPowerChangeSeries(),
		"recovery":     testingpkg.NewRecoverySeries(),
		"stable":       testingpkg.NewStableSeries(24),
		"seasonal":     testingpkg.SeasonalOnlySeries(2020, 3, 0),
	}

	for name, series := range fixtures {
		t.Run(name, func(t *testing.T) {
			first, err := json.Marshal(Classify(series))
			require.NoError(t, err)
			second, err := json.Marshal(Classify(series))
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestClassify_DoesNotModifyInput(t *testing.T) {
	series := testingpkg.NewSustainedDeclineSeries()
	Classify(series)

	for _, r := range series {
		assert.Equal(t, domain.DerivedStats{}, r.Derived)
	}
}

func TestClassify_AllExpectedZero(t *testing.T) {
	t.Run("zero readings", func(t *testing.T) {
		series := testingpkg.SeasonalOnlySeries(2020, 3, 0)
		require.Len(t, series, 12)

		res := Classify(series)
		assert.Equal(t, domain.CategoryNoAnomalyZeroExpected, res.Category)
		assert.Equal(t, 100, res.Confidence)
		assert.Equal(t, RuleAllExpectedZero, res.Rule)
		assert.Equal(t, 12, res.ExpectedZeroPeriods)
		assert.False(t, res.AnomalyStartPeriod.IsPresent())
	})

	t.Run("small readings at the threshold", func(t *testing.T) {
		series := testingpkg.SeasonalOnlySeries(2020, 3, 5)
		res := Classify(series)
		assert.Equal(t, domain.CategoryNoAnomalyZeroExpected, res.Category)
		assert.Equal(t, 100, res.Confidence)
	})
}

func TestClassify_MostlyExpectedZero(t *testing.T) {
	series := testingpkg.SeasonalOnlySeries(2020, 3, 0)
	series[1].ActiveEnergy = 200
	series[6].ActiveEnergy = 200

	res := Classify(series)
	assert.Equal(t, domain.CategoryNoAnomalyZeroExpected, res.Category)
	assert.Equal(t, 95, res.Confidence)
	assert.Equal(t, RuleMostlyExpectedZero, res.Rule)
	assert.Equal(t, 10, res.ExpectedZeroPeriods)
}

func TestClassify_PowerChangeExcluded(t *testing.T) {
	res := Classify(testingpkg.NewPowerChangeSeries())

	assert.Equal(t, domain.CategoryPowerChangeExcluded, res.Category)
	assert.NotEqual(t, domain.CategorySustainedDecline, res.Category)
	assert.Equal(t, 95, res.Confidence)
	assert.Equal(t, RulePowerChangeNear, res.Rule)
	assert.Equal(t, 1, res.PowerChanges)
	assert.True(t, res.AnomalyStartPeriod.IsPresent())
	detailContains(t, res, "Power change in 2023-01")
	assert.Empty(t, res.Recoveries)
}

func TestClassify_SustainedDeclineWithoutRecovery(t *testing.T) {
	res := Classify(testingpkg.NewSustainedDeclineSeries())

	assert.Equal(t, domain.CategorySustainedDecline, res.Category)
	assert.Equal(t, RuleSustainedDecline, res.Rule)
	assert.Contains(t, []int{90, 95}, res.Confidence)
	assert.Equal(t, 95, res.Confidence, "last third is far below the first third")

	assert.Equal(t, "2023-01", res.AnomalyStartPeriod.OrElse(""))
	assert.Equal(t, "2023-01-01", res.AnomalyStartDate.OrElse(""))
	assert.Equal(t, 50.0, res.AnomalyStartConsumption.OrElse(0))
	assert.Equal(t, 500.0, res.PreviousConsumption.OrElse(0))
	assert.InDelta(t, -90.0, res.AnomalyVariation.OrElse(0), 1e-9)

	assert.Equal(t, 1, res.AnomalousPeriods)
	assert.Equal(t, 0, res.PowerChanges)
	assert.Empty(t, res.Recoveries)
	detailContains(t, res, "initial baseline 500.0 kWh")
	detailContains(t, res, "longest low run 6 periods")
	detailContains(t, res, "No recovery")
}

func TestClassify_RecoveredBlockIsNotSustained(t *testing.T) {
	res := Classify(testingpkg.NewRecoverySeries())

	assert.NotEqual(t, domain.CategorySustainedDecline, res.Category)
	assert.Equal(t, domain.CategoryUndeterminedAnomaly, res.Category)
	assert.Equal(t, RuleIrregularOutliers, res.Rule)
	assert.Equal(t, 70, res.Confidence)

	require.Len(t, res.Recoveries, 1)
	assert.Equal(t, "2023-01 → 2023-03", res.Recoveries[0].DescentRange)
	assert.Equal(t, "2023-04", res.Recoveries[0].RecoveryPeriod)
	detailContains(t, res, "Recovery: descent 2023-01 → 2023-03")
}

func TestClassify_IrregularOutliersNearPowerChange(t *testing.T) {
	build := func(spikePower float64) domain.Series {
		return testingpkg.NewSeriesBuilder(2022, 1).
			AddNWithPower(12, 500, 10).
			AddNWithPower(2, 300, 10).
			AddNWithPower(8, 500, 10).
			AddNWithPower(2, 1500, spikePower).
			Build()
	}

	t.Run("spikes follow a power change", func(t *testing.T) {
		res := Classify(build(15))

		assert.Equal(t, domain.CategoryPowerChangeExcluded, res.Category)
		assert.Equal(t, RuleIrregularOutliers, res.Rule)
		assert.Equal(t, 95, res.Confidence)
		assert.Equal(t, "2023-01", res.AnomalyStartPeriod.OrElse(""))
		assert.Equal(t, 1, res.PowerChanges)
		detailContains(t, res, "2023-11, 2023-12")
		detailContains(t, res, "Power change in 2023-11")
	})

	t.Run("same spikes without a power change", func(t *testing.T) {
		res := Classify(build(10))

		assert.Equal(t, domain.CategoryUndeterminedAnomaly, res.Category)
		assert.Equal(t, RuleIrregularOutliers, res.Rule)
		assert.Equal(t, 70, res.Confidence)
		assert.Equal(t, 0, res.PowerChanges)
	})
}

func TestClassify_RecoveredBlockThenSustainedDecline(t *testing.T) {
	series := testingpkg.NewSeriesBuilder(2022, 1).
		AddN(12, 500).
		AddN(3, 300).
		Add(450).
		AddN(2, 500).
		AddN(6, 50).
		Build()

	res := Classify(series)

	assert.Equal(t, domain.CategorySustainedDecline, res.Category)
	assert.Equal(t, "2023-07", res.AnomalyStartPeriod.OrElse(""))
	assert.Equal(t, 95, res.Confidence)
	assert.Len(t, res.Recoveries, 1)
}

func TestClassify_LowConsumptionWithSpikes(t *testing.T) {
	series := testingpkg.NewSeriesBuilder(2022, 1).AddN(10, 90).AddN(2, 1000).Build()

	res := Classify(series)

	assert.Equal(t, domain.CategoryLowConsumptionWithSpikes, res.Category)
	assert.Equal(t, RuleLowWithSpikes, res.Rule)
	assert.Equal(t, 80, res.Confidence)
	assert.False(t, res.AnomalyStartPeriod.IsPresent())
	detailContains(t, res, "2 spikes")
}

func TestClassify_DefaultNarratesTrend(t *testing.T) {
	t.Run("stable", func(t *testing.T) {
		res := Classify(testingpkg.NewStableSeries(24))
		assert.Equal(t, domain.CategoryUndeterminedAnomaly, res.Category)
		assert.Equal(t, RuleDefaultUndetermined, res.Rule)
		assert.Equal(t, 95, res.Confidence)
		detailContains(t, res, "Linear trend")
		detailContains(t, res, "Coefficient of variation")
	})

	t.Run("gentle decline without enough reduction", func(t *testing.T) {
		series := testingpkg.NewSeriesBuilder(2022, 1).
			AddN(6, 500).
			Add(480).Add(460).Add(440).Add(420).Add(400).Add(380).
			Build()

		res := Classify(series)
		assert.Equal(t, domain.CategoryUndeterminedAnomaly, res.Category)
		assert.Equal(t, RuleDefaultUndetermined, res.Rule)
		detailContains(t, res, "decreasing")
	})
}

func TestWaterfall_Order(t *testing.T) {
	names := make([]string, len(waterfall))
	for i, r := range waterfall {
		names[i] = r.name
	}

	assert.Equal(t, []string{
		RuleAllExpectedZero,
		RuleMostlyExpectedZero,
		RulePowerChangeNear,
		RuleSustainedDecline,
		RuleIrregularOutliers,
		RuleLowWithSpikes,
		RuleDefaultUndetermined,
	}, names)
}
