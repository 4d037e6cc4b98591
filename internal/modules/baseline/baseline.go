// Package baseline computes the statistical reference levels a consumption series
// is judged against: trailing z-scores, seasonal indices, short-term trend and
// dispersion, plus the enrichment pass that stores them on each record.
package baseline

import (
	"math"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/pkg/formulas"
	"github.com/aristath/meterwatch/pkg/optional"
)

const (
	// ZScoreWindow is the maximum number of trailing periods in a z-score window
	ZScoreWindow = 6
	// MinZScoreHistory is the minimum number of trailing periods for a z-score
	MinZScoreHistory = 2
	// WindowCap caps the initial baseline window (periods)
	WindowCap = 12
	// WindowFraction is the share of the series used as the initial baseline window
	WindowFraction = 0.3
)

// ZScore returns how many standard deviations values[i] lies from the mean of up to
// ZScoreWindow periods immediately before it. Returns 0 when the window is flat and
// empty when fewer than MinZScoreHistory periods precede i.
func ZScore(values []float64, i int) optional.Value[float64] {
	if i < MinZScoreHistory || i >= len(values) {
		return optional.None[float64]()
	}

	start := max(0, i-ZScoreWindow)
	window := values[start:i]
	if len(window) < MinZScoreHistory {
		return optional.None[float64]()
	}

	mean, std := formulas.MeanStdDev(window)
	if std == 0 {
		return optional.Some(0.0)
	}
	return optional.Some((values[i] - mean) / std)
}

// SeasonalIndex expresses value as a percentage of the historical average of its month
func SeasonalIndex(value float64, monthAverage optional.Value[float64]) optional.Value[float64] {
	return optional.Map(
		monthAverage.Filter(func(avg float64) bool { return avg != 0 }),
		func(avg float64) float64 { return value / avg * 100 },
	)
}

// Trend3M returns the 3-month slope (kWh/month) ending at i: (v[i] - v[i-2]) / 3
func Trend3M(values []float64, i int) optional.Value[float64] {
	if i < 2 || i >= len(values) {
		return optional.None[float64]()
	}
	return optional.Some((values[i] - values[i-2]) / 3)
}

// CoefficientOfVariation returns stddev/mean*100 over the whole series
func CoefficientOfVariation(values []float64) optional.Value[float64] {
	return optional.FromPtr(formulas.CoefficientOfVariation(values))
}

// MonthAverages returns the mean consumption of each calendar month across the series
func MonthAverages(series domain.Series) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range series {
		sums[r.Month] += r.Consumption()
		counts[r.Month]++
	}

	averages := make(map[int]float64, len(sums))
	for month, sum := range sums {
		averages[month] = sum / float64(counts[month])
	}
	return averages
}

// MonthAverage looks up the historical average of month
func MonthAverage(averages map[int]float64, month int) optional.Value[float64] {
	avg, ok := averages[month]
	if !ok {
		return optional.None[float64]()
	}
	return optional.Some(avg)
}

// VariationVsMonthAverage returns the percent deviation of value from its month average
func VariationVsMonthAverage(value float64, monthAverage optional.Value[float64]) optional.Value[float64] {
	return optional.FlatMap(monthAverage, func(avg float64) optional.Value[float64] {
		return optional.FromPtr(formulas.PercentChange(value, avg))
	})
}

// WindowLength returns the size of the initial baseline window: 30% of the series,
// capped at 12 periods
func WindowLength(n int) int {
	return min(WindowCap, int(math.Floor(float64(n)*WindowFraction)))
}

// InitialBaseline returns the mean consumption of the initial baseline window.
// Empty when the window has no periods or averages zero.
func InitialBaseline(series domain.Series) optional.Value[float64] {
	return WindowMean(series.Consumptions())
}

// WindowMean returns the mean of the initial baseline window of values
func WindowMean(values []float64) optional.Value[float64] {
	window := WindowLength(len(values))
	if window <= 0 {
		return optional.None[float64]()
	}

	mean := formulas.Mean(values[:window])
	if mean == 0 {
		return optional.None[float64]()
	}
	return optional.Some(mean)
}

// GlobalStats returns the mean and population stddev of the whole series
func GlobalStats(series domain.Series) (mean, std float64) {
	return formulas.MeanStdDev(series.Consumptions())
}

// Enrich runs the second statistical pass and returns a copy of series with the
// derived statistics populated. It only reads consumption, month and the anomalous
// flag, so enriching an already enriched series yields identical derived fields.
func Enrich(series domain.Series) domain.Series {
	out := series.Clone()
	values := out.Consumptions()
	monthAverages := MonthAverages(out)
	cv := CoefficientOfVariation(values)

	lastAnomaly := -1
	for i := range out {
		r := &out[i]
		if r.IsAnomalous {
			lastAnomaly = i
		}

		daysSince := optional.None[int]()
		if lastAnomaly >= 0 {
			elapsed := r.PeriodStart().Sub(out[lastAnomaly].PeriodStart())
			daysSince = optional.Some(int(elapsed.Hours() / 24))
		}

		r.Derived = domain.DerivedStats{
			ZScore:                 ZScore(values, i),
			SeasonalIndex:          SeasonalIndex(r.Consumption(), MonthAverage(monthAverages, r.Month)),
			Trend3M:                Trend3M(values, i),
			DaysSinceLastAnomaly:   daysSince,
			CoefficientOfVariation: cv,
		}
	}

	return out
}
