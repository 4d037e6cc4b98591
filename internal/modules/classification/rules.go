package classification

import (
	"fmt"
	"strings"

	"github.com/aristath/meterwatch/internal/domain"
)

// rule is one step of the waterfall
type rule struct {
	name    string
	matches func(ev *evidence) bool
	build   func(ev *evidence) domain.ClassificationResult
}

func (r rule) apply(ev *evidence) domain.ClassificationResult {
	res := r.build(ev)
	res.Rule = r.name
	return res
}

// waterfall is evaluated in order; the first matching rule decides
var waterfall = []rule{
	allExpectedZeroRule,
	mostlyExpectedZeroRule,
	powerChangeNearRule,
	sustainedDeclineRule,
	irregularOutliersRule,
	lowWithSpikesRule,
	defaultRule,
}

var allExpectedZeroRule = rule{
	name: RuleAllExpectedZero,
	matches: func(ev *evidence) bool {
		return ev.expectedZero == ev.n
	},
	build: func(ev *evidence) domain.ClassificationResult {
		return domain.ClassificationResult{
			Category:   domain.CategoryNoAnomalyZeroExpected,
			Confidence: 100,
			Detail: []string{
				fmt.Sprintf("All %d periods are expected zeros (≤ %.0f kWh in months 1, 7, 8 and 12)", ev.n, domain.ExpectedZeroThreshold),
			},
		}
	},
}

var mostlyExpectedZeroRule = rule{
	name: RuleMostlyExpectedZero,
	matches: func(ev *evidence) bool {
		return float64(ev.expectedZero)/float64(ev.n) > MostlyExpectedZeroShare
	},
	build: func(ev *evidence) domain.ClassificationResult {
		return domain.ClassificationResult{
			Category:   domain.CategoryNoAnomalyZeroExpected,
			Confidence: 95,
			Detail: []string{
				fmt.Sprintf("%d of %d periods (%.1f%%) are expected zeros, above the %.0f%% threshold",
					ev.expectedZero, ev.n, share(ev.expectedZero, ev.n), MostlyExpectedZeroShare*100),
			},
		}
	},
}

var powerChangeNearRule = rule{
	name: RulePowerChangeNear,
	matches: func(ev *evidence) bool {
		return ev.best.IsPresent() && ev.nearPower.IsPresent()
	},
	build: func(ev *evidence) domain.ClassificationResult {
		c, _ := ev.best.Get()
		change, _ := ev.nearPower.Get()
		res := withStart(domain.ClassificationResult{
			Category:   domain.CategoryPowerChangeExcluded,
			Confidence: 95,
		}, ev, c.Index)
		res.Detail = []string{
			describeCandidate(c),
			describePowerChange(change),
			"The drop coincides with a contracted power change and is excluded as a tariff event",
		}
		return res
	},
}

var sustainedDeclineRule = rule{
	name: RuleSustainedDecline,
	matches: func(ev *evidence) bool {
		return ev.decline.triggered && ev.decline.supported
	},
	build: func(ev *evidence) domain.ClassificationResult {
		d := ev.decline
		confidence := 90
		if d.global {
			confidence = 95
		}

		res := withStart(domain.ClassificationResult{
			Category:   domain.CategorySustainedDecline,
			Confidence: confidence,
		}, ev, d.start)

		var detail []string
		if c, ok := ev.bestOutside.Get(); ok {
			detail = append(detail, describeCandidate(c))
		}
		if d.negativeRun {
			detail = append(detail, fmt.Sprintf("%d consecutive negative variations from %s without two consecutive increases afterwards",
				d.negativeRunLen, ev.series[d.negativeRunStart].Period))
		}
		if d.global {
			detail = append(detail, fmt.Sprintf("Last third averages %.1f kWh vs %.1f kWh in the first third (%+.1f%%)",
				d.lastThirdAvg, d.firstThirdAvg, (d.lastThirdAvg-d.firstThirdAvg)/d.firstThirdAvg*100))
		}
		detail = append(detail,
			ev.describeBaseline(),
			fmt.Sprintf("From %s: longest low run %d periods, %.0f%% of periods low, %+.1f%% vs the global mean",
				ev.series[d.start].Period, d.lowRun, d.lowShare*100, d.reduction),
		)
		if len(ev.recoveries) == 0 {
			detail = append(detail, "No recovery to the baseline level was observed")
		}
		res.Detail = detail
		return res
	},
}

var irregularOutliersRule = rule{
	name: RuleIrregularOutliers,
	matches: func(ev *evidence) bool {
		return ev.best.IsPresent() && len(ev.outliers) >= MinOutliers
	},
	build: func(ev *evidence) domain.ClassificationResult {
		c, _ := ev.best.Get()
		periods := make([]string, len(ev.outliers))
		for i, idx := range ev.outliers {
			periods[i] = ev.series[idx].Period
		}

		detail := []string{
			describeCandidate(c),
			fmt.Sprintf("%d periods outside %.1f ± %.1f kWh (1.5 standard deviations): %s",
				len(ev.outliers), ev.globalMean, ev.globalStd*OutlierStdMultiplier, strings.Join(periods, ", ")),
		}

		if change, ok := ev.outlierPower.Get(); ok {
			res := withStart(domain.ClassificationResult{
				Category:   domain.CategoryPowerChangeExcluded,
				Confidence: 95,
			}, ev, c.Index)
			res.Detail = append(detail, describePowerChange(change))
			return res
		}

		res := withStart(domain.ClassificationResult{
			Category:   domain.CategoryUndeterminedAnomaly,
			Confidence: 70,
		}, ev, c.Index)
		res.Detail = append(detail, "Irregular behaviour without a sustained pattern")
		return res
	},
}

var lowWithSpikesRule = rule{
	name: RuleLowWithSpikes,
	matches: func(ev *evidence) bool {
		return ev.n >= MinSpikesSeries &&
			ev.globalMean > 0 &&
			float64(ev.lowPeriods)/float64(ev.n) >= SpikeLowShare &&
			ev.spikePeriods >= MinSpikes
	},
	build: func(ev *evidence) domain.ClassificationResult {
		return domain.ClassificationResult{
			Category:   domain.CategoryLowConsumptionWithSpikes,
			Confidence: 80,
			Detail: []string{
				fmt.Sprintf("%d of %d periods (%.1f%%) at or below %.1f kWh (40%% of the mean %.1f kWh)",
					ev.lowPeriods, ev.n, share(ev.lowPeriods, ev.n), ev.globalMean*SpikeLowRatio, ev.globalMean),
				fmt.Sprintf("%d spikes at or above %.1f kWh (140%% of the mean)", ev.spikePeriods, ev.globalMean*SpikeHighRatio),
			},
		}
	},
}

var defaultRule = rule{
	name:    RuleDefaultUndetermined,
	matches: func(*evidence) bool { return true },
	build: func(ev *evidence) domain.ClassificationResult {
		detail := []string{ev.describeBaseline(), ev.describeTrend()}
		if cv, ok := ev.variationCoef.Get(); ok {
			detail = append(detail, fmt.Sprintf("Coefficient of variation %.1f%%", cv))
		}
		detail = append(detail, "No conclusive anomaly pattern")
		return domain.ClassificationResult{
			Category:   domain.CategoryUndeterminedAnomaly,
			Confidence: 95,
			Detail:     detail,
		}
	},
}

func (ev *evidence) describeBaseline() string {
	if b, ok := ev.baseline.Get(); ok {
		return fmt.Sprintf("Global mean %.1f kWh (σ %.1f), initial baseline %.1f kWh", ev.globalMean, ev.globalStd, b)
	}
	return fmt.Sprintf("Global mean %.1f kWh (σ %.1f), no initial baseline", ev.globalMean, ev.globalStd)
}

func (ev *evidence) describeTrend() string {
	slope, ok := ev.trendSlope.Get()
	switch {
	case !ok:
		return "Linear trend unavailable"
	case slope > 0:
		return fmt.Sprintf("Linear trend %+.2f kWh/period: increasing", slope)
	case slope < 0:
		return fmt.Sprintf("Linear trend %+.2f kWh/period: decreasing", slope)
	default:
		return "Linear trend 0.00 kWh/period: flat"
	}
}

func share(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
