package candidates

// Tier is the priority class of a candidate. Lower tiers carry stronger evidence
// and always win over higher ones, regardless of recency.
type Tier int

const (
	// TierNearZero - consumption at or below 15 kWh (1)
	TierNearZero Tier = iota + 1
	// TierAbruptDrop - month-over-month variation at or below -40% (2)
	TierAbruptDrop
	// TierBelowBaseline - consumption at or below 60% of the initial baseline (2.5)
	TierBelowBaseline
	// TierModerateDrop - below 70% of baseline while falling more than 15% (2.7)
	TierModerateDrop
	// TierSeasonalDeviation - at least 50% under the same-month average (2.8)
	TierSeasonalDeviation
	// TierStatisticalOutlier - global z-score under -2.5 and below 40% of baseline (3)
	TierStatisticalOutlier
	// TierSeasonalCollapse - abrupt drop that is also 70% under the month average (4)
	TierSeasonalCollapse
)

// AllTiers lists the tiers in priority order
var AllTiers = []Tier{
	TierNearZero,
	TierAbruptDrop,
	TierBelowBaseline,
	TierModerateDrop,
	TierSeasonalDeviation,
	TierStatisticalOutlier,
	TierSeasonalCollapse,
}

// String returns the tier's numeric label as used in reports ("1", "2.5", ...)
func (t Tier) String() string {
	switch t {
	case TierNearZero:
		return "1"
	case TierAbruptDrop:
		return "2"
	case TierBelowBaseline:
		return "2.5"
	case TierModerateDrop:
		return "2.7"
	case TierSeasonalDeviation:
		return "2.8"
	case TierStatisticalOutlier:
		return "3"
	case TierSeasonalCollapse:
		return "4"
	default:
		return "unknown"
	}
}

// Describe returns a short description of the pattern the tier matches
func (t Tier) Describe() string {
	switch t {
	case TierNearZero:
		return "near-zero consumption"
	case TierAbruptDrop:
		return "abrupt month-over-month drop"
	case TierBelowBaseline:
		return "consumption well below the initial baseline"
	case TierModerateDrop:
		return "moderate drop below the initial baseline"
	case TierSeasonalDeviation:
		return "deviation from the same-month average"
	case TierStatisticalOutlier:
		return "statistical outlier below the baseline"
	case TierSeasonalCollapse:
		return "abrupt drop confirmed by the same-month average"
	default:
		return "unknown pattern"
	}
}

// Before reports whether t has strictly higher priority than other
func (t Tier) Before(other Tier) bool {
	return t < other
}
