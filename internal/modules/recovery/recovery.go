// Package recovery finds descent blocks that later returned to near-baseline
// consumption. A recovered dip is a temporary event (holidays, a vacant month)
// rather than the onset of a sustained decline.
package recovery

import (
	"fmt"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/baseline"
	"github.com/aristath/meterwatch/internal/modules/candidates"
	"github.com/aristath/meterwatch/internal/modules/power"
	"github.com/aristath/meterwatch/pkg/formulas"
	"github.com/aristath/meterwatch/pkg/optional"
)

const (
	// DescentRatio - a period below this share of the baseline is part of a descent
	DescentRatio = 0.70
	// RecoveryRatio - a period at or above this share of the baseline is a recovery
	RecoveryRatio = 0.85
	// MinBlockLength is the minimum number of consecutive descent periods
	MinBlockLength = 2
)

// Detect scans series for descent blocks followed by a recovery. Periods are
// compared on 30-day normalized consumption so billing cycles of different
// lengths do not read as descents. It always returns a non-nil slice.
func Detect(series domain.Series) []domain.RecoveryEvent {
	events := []domain.RecoveryEvent{}

	values := series.NormalizedConsumptions()
	base, ok := baseline.WindowMean(values).Get()
	if !ok {
		return events
	}
	descent := base * DescentRatio
	recovered := base * RecoveryRatio

	n := len(series)
	i := baseline.WindowLength(n)
	for i < n {
		if values[i] >= descent {
			i++
			continue
		}

		start, end := i, i
		for end+1 < n &&
			values[end+1] < descent &&
			!power.Changed(series[end], series[end+1]) {
			end++
		}

		if end-start+1 >= MinBlockLength {
			if j, found := findRecovery(series, values, end+1, recovered); found {
				events = append(events, newEvent(series, start, end, j))
			}
		}
		i = end + 1
	}

	return events
}

// findRecovery returns the first index from `from` on whose normalized
// consumption reaches the recovery level, skipping periods with a power change
func findRecovery(series domain.Series, values []float64, from int, level float64) (int, bool) {
	for j := from; j < len(series); j++ {
		if j > 0 && power.Changed(series[j-1], series[j]) {
			continue
		}
		if values[j] >= level {
			return j, true
		}
	}
	return 0, false
}

func newEvent(series domain.Series, start, end, recoveryIdx int) domain.RecoveryEvent {
	average := formulas.Mean(series[start : end+1].Consumptions())

	var variations []float64
	for i := start; i <= end; i++ {
		if v, ok := candidates.Variation(series, i).Get(); ok {
			variations = append(variations, v)
		}
	}
	averageVariation := optional.None[float64]()
	if len(variations) > 0 {
		averageVariation = optional.Some(formulas.Mean(variations))
	}

	return domain.RecoveryEvent{
		DescentRange:            fmt.Sprintf("%s → %s", series[start].Period, series[end].Period),
		DescentStartIndex:       start,
		DescentEndIndex:         end,
		RecoveryPeriod:          series[recoveryIdx].Period,
		RecoveryIndex:           recoveryIdx,
		DescentAverage:          average,
		RecoveryConsumption:     series[recoveryIdx].Consumption(),
		DescentAverageVariation: averageVariation,
	}
}

// Covered reports whether any event spans index
func Covered(events []domain.RecoveryEvent, index int) bool {
	for _, e := range events {
		if e.Covers(index) {
			return true
		}
	}
	return false
}
