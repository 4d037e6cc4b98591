// Package classification turns a monthly consumption series into a single
// verdict. Classify runs an ordered list of rules over the evidence gathered by
// the baseline, power, candidates and recovery modules; the first rule that
// matches builds the result.
package classification

import (
	"fmt"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/baseline"
	"github.com/aristath/meterwatch/internal/modules/candidates"
	"github.com/aristath/meterwatch/pkg/optional"
)

// MinSeriesLength is the shortest series the waterfall evaluates
const MinSeriesLength = 3

// Rule names reported in ClassificationResult.Rule
const (
	RuleEmptySeries         = "empty_series"
	RuleInsufficientHistory = "insufficient_history"
	RuleAllExpectedZero     = "all_expected_zero"
	RuleMostlyExpectedZero  = "mostly_expected_zero"
	RulePowerChangeNear     = "power_change_near_candidate"
	RuleSustainedDecline    = "sustained_decline"
	RuleIrregularOutliers   = "irregular_outliers"
	RuleLowWithSpikes       = "low_consumption_with_spikes"
	RuleDefaultUndetermined = "default"
)

const dateLayout = "2006-01-02"

// Classify enriches series and returns its verdict. It never fails: degenerate
// input yields UndeterminedAnomaly with confidence 0.
func Classify(series domain.Series) domain.ClassificationResult {
	switch {
	case len(series) == 0:
		return domain.ClassificationResult{
			Category:   domain.CategoryUndeterminedAnomaly,
			Rule:       RuleEmptySeries,
			Detail:     []string{},
			Recoveries: []domain.RecoveryEvent{},
		}
	case len(series) < MinSeriesLength:
		return domain.ClassificationResult{
			Category: domain.CategoryUndeterminedAnomaly,
			Rule:     RuleInsufficientHistory,
			Detail: []string{
				fmt.Sprintf("Insufficient history: %d period(s), at least %d required", len(series), MinSeriesLength),
			},
			Recoveries: []domain.RecoveryEvent{},
		}
	}

	ev := gather(baseline.Enrich(series))
	for _, rl := range waterfall {
		if rl.matches(ev) {
			return finalize(rl.apply(ev), ev)
		}
	}
	return finalize(defaultRule.apply(ev), ev)
}

// finalize fills the counters shared by every branch
func finalize(res domain.ClassificationResult, ev *evidence) domain.ClassificationResult {
	res.AnomalousPeriods = ev.anomalous
	res.PowerChanges = ev.powerChanges
	res.ExpectedZeroPeriods = ev.expectedZero
	res.Recoveries = ev.recoveries
	if res.Detail == nil {
		res.Detail = []string{}
	}
	if len(ev.recoveries) > 0 {
		for _, e := range ev.recoveries {
			res.Detail = append(res.Detail, fmt.Sprintf(
				"Recovery: descent %s averaging %.1f kWh returned to %.1f kWh in %s",
				e.DescentRange, e.DescentAverage, e.RecoveryConsumption, e.RecoveryPeriod))
		}
	}
	return res
}

// withStart sets the anomaly-start fields from the record at idx
func withStart(res domain.ClassificationResult, ev *evidence, idx int) domain.ClassificationResult {
	r := ev.series[idx]
	res.AnomalyStartPeriod = optional.Some(r.Period)
	res.AnomalyStartDate = optional.Some(r.PeriodStart().Format(dateLayout))
	res.AnomalyStartConsumption = optional.Some(r.Consumption())
	if idx > 0 {
		res.PreviousConsumption = optional.Some(ev.series[idx-1].Consumption())
	}
	res.AnomalyVariation = candidates.Variation(ev.series, idx)
	return res
}

func describeCandidate(c candidates.Candidate) string {
	variation := "n/a"
	if v, ok := c.Variation.Get(); ok {
		variation = fmt.Sprintf("%+.1f%%", v)
	}
	return fmt.Sprintf("Anomaly start candidate %s (tier %s, %s): %.1f kWh vs %.1f kWh previous, variation %s, severity %.1f",
		c.Period, c.Tier, c.Tier.Describe(), c.Consumption, c.PreviousConsumption, variation, c.Severity)
}

func describePowerChange(change domain.PowerChange) string {
	return fmt.Sprintf("Power change in %s: %.2f kW → %.2f kW (%+.2f kW)",
		change.Period, change.Previous, change.Current, change.Delta)
}
