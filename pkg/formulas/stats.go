// Package formulas holds the numeric building blocks shared by the analysis modules.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (divides by N, not N-1).
// Consumption baselines are always computed over the full window at hand, never a sample of it.
func PopStdDev(data []float64) float64 {
	_, std := MeanStdDev(data)
	return std
}

// MeanStdDev returns the mean and population standard deviation in one pass
func MeanStdDev(data []float64) (mean, std float64) {
	if len(data) == 0 {
		return 0, 0
	}
	mean, std = stat.PopMeanStdDev(data, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

// CoefficientOfVariation calculates stddev/mean*100 over the whole slice.
// Returns nil for fewer than 3 points or a zero mean.
func CoefficientOfVariation(data []float64) *float64 {
	if len(data) < 3 {
		return nil
	}

	mean, std := MeanStdDev(data)
	if mean == 0 {
		return nil
	}

	cv := std / mean * 100
	return &cv
}

// PercentChange calculates (current - reference) / reference * 100.
// Returns nil when the reference is zero.
func PercentChange(current, reference float64) *float64 {
	if reference == 0 {
		return nil
	}
	change := (current - reference) / reference * 100
	return &change
}
