// Package power detects contracted/measured power discontinuities between
// consecutive billing periods. A drop in consumption that coincides with a
// contract change is a tariff event, not evidence of fraud.
package power

import (
	"math"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/pkg/optional"
)

const (
	// MinDelta is the smallest power difference (kW) that counts as a change
	MinDelta = 0.5
	// NearWindow is how many periods either side of a candidate are checked
	NearWindow = 2
)

// Delta returns cur - prev power when both periods declared one
func Delta(prev, cur domain.MonthlyRecord) optional.Value[float64] {
	return optional.ZipWith(prev.AveragePower, cur.AveragePower, func(p, c float64) float64 {
		return c - p
	})
}

// Changed reports whether the power moved by at least MinDelta between prev and cur.
// Pairs where either power is unknown never count as a change.
func Changed(prev, cur domain.MonthlyRecord) bool {
	return Delta(prev, cur).Filter(func(d float64) bool {
		return math.Abs(d) >= MinDelta
	}).IsPresent()
}

// ChangeAt returns the power change between series[i-1] and series[i], if any
func ChangeAt(series domain.Series, i int) optional.Value[domain.PowerChange] {
	if i < 1 || i >= len(series) {
		return optional.None[domain.PowerChange]()
	}
	prev, cur := series[i-1], series[i]
	if !Changed(prev, cur) {
		return optional.None[domain.PowerChange]()
	}
	p, _ := prev.AveragePower.Get()
	c, _ := cur.AveragePower.Get()
	return optional.Some(domain.PowerChange{
		Index:    i,
		Period:   cur.Period,
		Previous: p,
		Current:  c,
		Delta:    c - p,
	})
}

// CountChanges counts the consecutive pairs whose power changed
func CountChanges(series domain.Series) int {
	count := 0
	for i := 1; i < len(series); i++ {
		if Changed(series[i-1], series[i]) {
			count++
		}
	}
	return count
}

// Changes lists every power change in chronological order
func Changes(series domain.Series) []domain.PowerChange {
	var changes []domain.PowerChange
	for i := 1; i < len(series); i++ {
		if change, ok := ChangeAt(series, i).Get(); ok {
			changes = append(changes, change)
		}
	}
	return changes
}

// CheckNearAnomaly scans the pairs ending at idx-2 … idx+2 and returns the
// first power change found
func CheckNearAnomaly(series domain.Series, idx int) optional.Value[domain.PowerChange] {
	for j := idx - NearWindow; j <= idx+NearWindow; j++ {
		if change := ChangeAt(series, j); change.IsPresent() {
			return change
		}
	}
	return optional.None[domain.PowerChange]()
}
