package classification

import (
	"math"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/baseline"
	"github.com/aristath/meterwatch/internal/modules/candidates"
	"github.com/aristath/meterwatch/internal/modules/power"
	"github.com/aristath/meterwatch/internal/modules/recovery"
	"github.com/aristath/meterwatch/pkg/formulas"
	"github.com/aristath/meterwatch/pkg/optional"
)

// Thresholds used by the waterfall
const (
	MostlyExpectedZeroShare = 0.60

	NegativeRunLength    = 3
	GlobalDeclineRatio   = 0.70
	LowVsMeanRatio       = 0.60
	LowZScore            = -1.0
	MinLowRun            = 2
	LowShareWithRun      = 0.50
	LowShareAlone        = 0.70
	ModerateReduction    = -15.0
	StrongReduction      = -30.0
	OutlierStdMultiplier = 1.5
	MinOutliers          = 2
	OutlierSkipPeriods   = 2

	SpikeLowRatio   = 0.40
	SpikeHighRatio  = 1.40
	SpikeLowShare   = 0.50
	MinSpikes       = 2
	MinSpikesSeries = 6
)

// decline holds the sustained-decline measurements. The supporting facts
// (low run, low share, reduction) are measured from start to the end.
type decline struct {
	triggered        bool
	negativeRun      bool
	negativeRunStart int
	negativeRunLen   int
	global           bool
	firstThirdAvg    float64
	lastThirdAvg     float64
	start            int
	lowRun           int
	lowShare         float64
	reduction        float64
	supported        bool
}

// evidence is everything the rules look at, computed once per series
type evidence struct {
	series        domain.Series
	values        []float64
	n             int
	globalMean    float64
	globalStd     float64
	baseline      optional.Value[float64]
	normalized    []float64
	normalizedRef optional.Value[float64]
	candidates    []candidates.Candidate
	best          optional.Value[candidates.Candidate]
	bestOutside   optional.Value[candidates.Candidate]
	nearPower     optional.Value[domain.PowerChange]
	recoveries    []domain.RecoveryEvent
	expectedZero  int
	anomalous     int
	powerChanges  int
	outliers      []int
	outlierPower  optional.Value[domain.PowerChange]
	decline       decline
	lowPeriods    int
	spikePeriods  int
	trendSlope    optional.Value[float64]
	variationCoef optional.Value[float64]
}

// gather computes the evidence of an enriched series
func gather(series domain.Series) *evidence {
	in := candidates.NewInput(series)
	cands := candidates.Collect(series, in)
	recoveries := recovery.Detect(series)

	ev := &evidence{
		series:        series,
		values:        series.Consumptions(),
		n:             len(series),
		globalMean:    in.GlobalMean,
		globalStd:     in.GlobalStd,
		baseline:      baseline.InitialBaseline(series),
		normalized:    series.NormalizedConsumptions(),
		candidates:    cands,
		best:          candidates.First(cands),
		bestOutside:   candidates.BestOutside(cands, recoveries),
		recoveries:    recoveries,
		powerChanges:  power.CountChanges(series),
		trendSlope:    optional.FromPtr(formulas.LinearTrendSlope(series.Consumptions())),
		variationCoef: baseline.CoefficientOfVariation(series.Consumptions()),
	}

	ev.normalizedRef = baseline.WindowMean(ev.normalized)

	for _, r := range series {
		if r.IsExpectedZero() {
			ev.expectedZero++
		}
		if r.IsAnomalous {
			ev.anomalous++
		}
	}

	if c, ok := ev.best.Get(); ok {
		ev.nearPower = ev.powerNear(c.Index)
	}

	ev.outliers = ev.findOutliers()
	ev.outlierPower = ev.powerNearOutliers()
	ev.decline = ev.measureDecline()

	if ev.globalMean > 0 {
		for _, v := range ev.values {
			if v <= ev.globalMean*SpikeLowRatio {
				ev.lowPeriods++
			}
			if v >= ev.globalMean*SpikeHighRatio {
				ev.spikePeriods++
			}
		}
	}

	return ev
}

// powerNear checks the ±2 window around idx and around the onset of the
// below-baseline block idx belongs to
func (ev *evidence) powerNear(idx int) optional.Value[domain.PowerChange] {
	if change := power.CheckNearAnomaly(ev.series, idx); change.IsPresent() {
		return change
	}
	onset := ev.blockOnset(idx)
	if onset == idx {
		return optional.None[domain.PowerChange]()
	}
	return power.CheckNearAnomaly(ev.series, onset)
}

// blockOnset walks back from idx while the previous period stays in the same
// descent (normalized consumption below 70% of the normalized baseline)
func (ev *evidence) blockOnset(idx int) int {
	b, ok := ev.normalizedRef.Get()
	if !ok || idx >= ev.n || ev.normalized[idx] >= b*recovery.DescentRatio {
		return idx
	}
	onset := idx
	for onset > 0 && ev.normalized[onset-1] < b*recovery.DescentRatio {
		onset--
	}
	return onset
}

// powerNearOutliers repeats the power guard around every outlier period
func (ev *evidence) powerNearOutliers() optional.Value[domain.PowerChange] {
	if ev.nearPower.IsPresent() {
		return ev.nearPower
	}
	for _, idx := range ev.outliers {
		if change := power.CheckNearAnomaly(ev.series, idx); change.IsPresent() {
			return change
		}
	}
	return optional.None[domain.PowerChange]()
}

func (ev *evidence) findOutliers() []int {
	var out []int
	if ev.globalStd == 0 {
		return out
	}
	limit := ev.globalStd * OutlierStdMultiplier
	for i := OutlierSkipPeriods; i < ev.n; i++ {
		if math.Abs(ev.values[i]-ev.globalMean) > limit {
			out = append(out, i)
		}
	}
	return out
}

func (ev *evidence) measureDecline() decline {
	var d decline
	d.negativeRunStart, d.negativeRunLen = ev.unrecoveredNegativeRun()
	d.negativeRun = d.negativeRunStart >= 0

	third := ev.n / 3
	if third >= 1 {
		d.firstThirdAvg = formulas.Mean(ev.values[:third])
		d.lastThirdAvg = formulas.Mean(ev.values[ev.n-third:])
		d.global = d.firstThirdAvg > 0 && d.lastThirdAvg <= d.firstThirdAvg*GlobalDeclineRatio
	}

	d.triggered = ev.bestOutside.IsPresent() || d.negativeRun || d.global
	if !d.triggered {
		return d
	}

	switch {
	case ev.bestOutside.IsPresent():
		c, _ := ev.bestOutside.Get()
		d.start = c.Index
	case d.negativeRun:
		d.start = d.negativeRunStart
	default:
		d.start = ev.n - third
	}

	post := ev.series[d.start:]
	lowCount, run := 0, 0
	for i := range post {
		if ev.isLow(d.start + i) {
			lowCount++
			run++
			d.lowRun = max(d.lowRun, run)
		} else {
			run = 0
		}
	}
	if len(post) > 0 {
		d.lowShare = float64(lowCount) / float64(len(post))
	}
	if ev.globalMean > 0 {
		d.reduction = (formulas.Mean(post.Consumptions()) - ev.globalMean) / ev.globalMean * 100
	}

	d.supported = (d.lowRun >= MinLowRun && d.lowShare >= LowShareWithRun && d.reduction <= ModerateReduction) ||
		(d.lowRun >= MinLowRun && d.reduction <= StrongReduction) ||
		(d.lowShare >= LowShareAlone && d.reduction <= ModerateReduction) ||
		d.global

	return d
}

// isLow reports a period at or below 60% of the global mean, or more than one
// standard deviation under its trailing window
func (ev *evidence) isLow(i int) bool {
	if ev.values[i] <= ev.globalMean*LowVsMeanRatio {
		return true
	}
	z, ok := ev.series[i].Derived.ZScore.Get()
	return ok && z < LowZScore
}

// unrecoveredNegativeRun returns the start and length of the first run of at
// least three negative variations that is never followed by two consecutive
// positive variations, or -1 when there is none
func (ev *evidence) unrecoveredNegativeRun() (int, int) {
	variations := make([]optional.Value[float64], ev.n)
	for i := range ev.series {
		variations[i] = candidates.Variation(ev.series, i)
	}
	negative := func(i int) bool {
		return variations[i].Filter(func(v float64) bool { return v < 0 }).IsPresent()
	}
	positive := func(i int) bool {
		return variations[i].Filter(func(v float64) bool { return v > 0 }).IsPresent()
	}

	for i := 1; i < ev.n; {
		if !negative(i) {
			i++
			continue
		}
		start := i
		for i < ev.n && negative(i) {
			i++
		}
		length := i - start
		if length < NegativeRunLength {
			continue
		}
		recovered := false
		for j := i; j+1 < ev.n; j++ {
			if positive(j) && positive(j+1) {
				recovered = true
				break
			}
		}
		if !recovered {
			return start, length
		}
	}
	return -1, 0
}
