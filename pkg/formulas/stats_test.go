package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-9)
}

func TestMeanStdDev_Population(t *testing.T) {
	// Population stddev of {2,4,4,4,5,5,7,9} is exactly 2
	mean, std := MeanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, std, 1e-9)
	assert.InDelta(t, 2.0, PopStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestMeanStdDev_Degenerate(t *testing.T) {
	mean, std := MeanStdDev(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)

	mean, std = MeanStdDev([]float64{500, 500, 500})
	assert.Equal(t, 500.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestCoefficientOfVariation(t *testing.T) {
	t.Run("too few points", func(t *testing.T) {
		assert.Nil(t, CoefficientOfVariation([]float64{1, 2}))
	})

	t.Run("zero mean", func(t *testing.T) {
		assert.Nil(t, CoefficientOfVariation([]float64{0, 0, 0}))
	})

	t.Run("regular", func(t *testing.T) {
		cv := CoefficientOfVariation([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		require.NotNil(t, cv)
		assert.InDelta(t, 40.0, *cv, 1e-9)
	})
}

func TestPercentChange(t *testing.T) {
	assert.Nil(t, PercentChange(10, 0))

	change := PercentChange(50, 500)
	require.NotNil(t, change)
	assert.InDelta(t, -90.0, *change, 1e-9)
}

func TestLinearTrendSlope(t *testing.T) {
	assert.Nil(t, LinearTrendSlope([]float64{1}))

	slope := LinearTrendSlope([]float64{10, 20, 30, 40})
	require.NotNil(t, slope)
	assert.InDelta(t, 10.0, *slope, 1e-6)

	slope = LinearTrendSlope([]float64{500, 400, 300})
	require.NotNil(t, slope)
	assert.InDelta(t, -100.0, *slope, 1e-6)
}
