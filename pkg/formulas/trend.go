package formulas

import (
	"github.com/markcheno/go-talib"
)

// LinearTrendSlope calculates the least-squares slope of the series against its index
// (units per period). Returns nil with fewer than 2 points.
func LinearTrendSlope(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	slope := talib.LinearRegSlope(values, len(values))
	if len(slope) == 0 || isNaN(slope[len(slope)-1]) {
		return nil
	}

	result := slope[len(slope)-1]
	return &result
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
