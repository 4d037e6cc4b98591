// Package candidates searches a series for the period where an anomalous drop
// most plausibly began.
//
// Every period after the initial baseline window is tested against seven
// patterns of decreasing severity. A period may match several patterns and each
// match becomes its own candidate. Candidates are ordered by tier, then by
// recency, then by severity; the first one is the anomaly start.
package candidates

import (
	"math"
	"sort"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/baseline"
	"github.com/aristath/meterwatch/internal/modules/power"
	"github.com/aristath/meterwatch/pkg/formulas"
	"github.com/aristath/meterwatch/pkg/optional"
)

// Thresholds of the tier conditions
const (
	NearZeroMax                 = 15.0
	AbruptDropVariation         = -40.0
	BelowBaselineRatio          = 0.60
	ModerateDropRatio           = 0.70
	ModerateDropVariation       = -15.0
	SeasonalDeviationVariation  = -50.0
	OutlierZScore               = -2.5
	OutlierBaselineRatio        = 0.40
	SeasonalCollapseMonthChange = -70.0
)

// Candidate is one period matching one tier
type Candidate struct {
	Period              string
	Index               int
	Consumption         float64
	PreviousConsumption float64
	Variation           optional.Value[float64]
	Tier                Tier
	Severity            float64
}

// Input is what the finder needs besides the series itself
type Input struct {
	GlobalMean    float64
	GlobalStd     float64
	MonthAverages map[int]float64
}

// NewInput derives the global statistics and month averages of series
func NewInput(series domain.Series) Input {
	mean, std := baseline.GlobalStats(series)
	return Input{
		GlobalMean:    mean,
		GlobalStd:     std,
		MonthAverages: baseline.MonthAverages(series),
	}
}

// ScanStart returns the first index the finder evaluates
func ScanStart(n int) int {
	return max(2, baseline.WindowLength(n))
}

// Variation returns the month-over-month variation of series[i]: the recorded
// value when present, otherwise derived from the previous consumption
func Variation(series domain.Series, i int) optional.Value[float64] {
	if i < 0 || i >= len(series) {
		return optional.None[float64]()
	}
	if v := series[i].VariationPercent; v.IsPresent() {
		return v
	}
	if i == 0 {
		return optional.None[float64]()
	}
	return optional.FromPtr(formulas.PercentChange(series[i].Consumption(), series[i-1].Consumption()))
}

// Collect evaluates every tier on every scanned period and returns all matches
// in selection order
func Collect(series domain.Series, in Input) []Candidate {
	n := len(series)
	base := baseline.InitialBaseline(series)

	var found []Candidate
	for i := ScanStart(n); i < n; i++ {
		if power.Changed(series[i-1], series[i]) {
			continue
		}

		r := series[i]
		value := r.Consumption()
		variation := Variation(series, i)
		monthChange := baseline.VariationVsMonthAverage(value, baseline.MonthAverage(in.MonthAverages, r.Month))
		ratio := optional.Map(base, func(b float64) float64 { return value / b })

		add := func(tier Tier, severity float64) {
			found = append(found, Candidate{
				Period:              r.Period,
				Index:               i,
				Consumption:         value,
				PreviousConsumption: series[i-1].Consumption(),
				Variation:           variation,
				Tier:                tier,
				Severity:            severity,
			})
		}

		if value <= NearZeroMax {
			add(TierNearZero, 100-value)
		}

		if v, ok := variation.Get(); ok && v <= AbruptDropVariation {
			add(TierAbruptDrop, math.Abs(v))
		}

		if rt, ok := ratio.Get(); ok && rt <= BelowBaselineRatio {
			add(TierBelowBaseline, (1-rt)*100)
		}

		if rt, ok := ratio.Get(); ok && rt < ModerateDropRatio {
			if v, ok := variation.Get(); ok && v < ModerateDropVariation {
				add(TierModerateDrop, math.Abs(v))
			}
		}

		if mc, ok := monthChange.Get(); ok && mc <= SeasonalDeviationVariation {
			add(TierSeasonalDeviation, math.Abs(mc))
		}

		if in.GlobalStd > 0 {
			z := (value - in.GlobalMean) / in.GlobalStd
			if rt, ok := ratio.Get(); ok && z < OutlierZScore && rt < OutlierBaselineRatio {
				add(TierStatisticalOutlier, math.Abs(z)*10)
			}
		}

		if v, ok := variation.Get(); ok && v <= AbruptDropVariation {
			if mc, ok := monthChange.Get(); ok && mc < SeasonalCollapseMonthChange {
				add(TierSeasonalCollapse, math.Abs(mc))
			}
		}
	}

	Sort(found)
	return found
}

// Sort orders candidates by tier ascending, index descending, severity descending
func Sort(cands []Candidate) {
	sort.SliceStable(cands, func(a, b int) bool {
		ca, cb := cands[a], cands[b]
		if ca.Tier != cb.Tier {
			return ca.Tier.Before(cb.Tier)
		}
		if ca.Index != cb.Index {
			return ca.Index > cb.Index
		}
		return ca.Severity > cb.Severity
	})
}

// Find returns the best candidate of series, if any
func Find(series domain.Series, in Input) optional.Value[Candidate] {
	return First(Collect(series, in))
}

// First returns the head of an already ordered candidate list
func First(cands []Candidate) optional.Value[Candidate] {
	if len(cands) == 0 {
		return optional.None[Candidate]()
	}
	return optional.Some(cands[0])
}

// BestOutside returns the best candidate that no recovery event covers
func BestOutside(cands []Candidate, recoveries []domain.RecoveryEvent) optional.Value[Candidate] {
	for _, c := range cands {
		if !covered(c.Index, recoveries) {
			return optional.Some(c)
		}
	}
	return optional.None[Candidate]()
}

func covered(index int, recoveries []domain.RecoveryEvent) bool {
	for _, e := range recoveries {
		if e.Covers(index) {
			return true
		}
	}
	return false
}
