package domain

import "github.com/aristath/meterwatch/pkg/optional"

// Category is the verdict reached for an expediente
type Category string

const (
	// CategoryNoAnomalyZeroExpected - near-zero readings explained by seasonal shutdowns
	CategoryNoAnomalyZeroExpected Category = "NoAnomalyZeroExpected"
	// CategoryPowerChangeExcluded - the drop coincides with a contracted power change
	CategoryPowerChangeExcluded Category = "PowerChangeExcluded"
	// CategorySustainedDecline - a multi-period drop that never recovered
	CategorySustainedDecline Category = "SustainedDecline"
	// CategoryUndeterminedAnomaly - irregular behaviour without a conclusive pattern
	CategoryUndeterminedAnomaly Category = "UndeterminedAnomaly"
	// CategoryLowConsumptionWithSpikes - mostly low readings with isolated peaks
	CategoryLowConsumptionWithSpikes Category = "LowConsumptionWithSpikes"
)

// AllCategories lists every category in a stable order
var AllCategories = []Category{
	CategoryNoAnomalyZeroExpected,
	CategoryPowerChangeExcluded,
	CategorySustainedDecline,
	CategoryUndeterminedAnomaly,
	CategoryLowConsumptionWithSpikes,
}

// Description returns a one-line human description of the category
func (c Category) Description() string {
	switch c {
	case CategoryNoAnomalyZeroExpected:
		return "Near-zero consumption concentrated in seasonal shutdown months"
	case CategoryPowerChangeExcluded:
		return "Consumption change explained by a contracted power change"
	case CategorySustainedDecline:
		return "Sustained consumption decline without recovery"
	case CategoryUndeterminedAnomaly:
		return "Irregular consumption without a conclusive pattern"
	case CategoryLowConsumptionWithSpikes:
		return "Predominantly low consumption with isolated spikes"
	default:
		return "Unknown category"
	}
}

// IsValid reports whether c is one of the known categories
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// PowerChange is a contracted/measured power discontinuity between two consecutive periods
type PowerChange struct {
	Index    int     `json:"index" yaml:"index"` // index of the later period
	Period   string  `json:"period" yaml:"period"`
	Previous float64 `json:"previous" yaml:"previous"`
	Current  float64 `json:"current" yaml:"current"`
	Delta    float64 `json:"delta" yaml:"delta"` // signed, current - previous
}

// RecoveryEvent is a descent block that later returned to near-baseline consumption
type RecoveryEvent struct {
	DescentRange            string                  `json:"descent_range" yaml:"descent_range"`
	DescentStartIndex       int                     `json:"descent_start_index" yaml:"descent_start_index"`
	DescentEndIndex         int                     `json:"descent_end_index" yaml:"descent_end_index"`
	RecoveryPeriod          string                  `json:"recovery_period" yaml:"recovery_period"`
	RecoveryIndex           int                     `json:"recovery_index" yaml:"recovery_index"`
	DescentAverage          float64                 `json:"descent_average" yaml:"descent_average"`
	RecoveryConsumption     float64                 `json:"recovery_consumption" yaml:"recovery_consumption"`
	DescentAverageVariation optional.Value[float64] `json:"descent_average_variation" yaml:"descent_average_variation"`
}

// Covers reports whether index lies between the descent start and the recovery period
func (e RecoveryEvent) Covers(index int) bool {
	return index >= e.DescentStartIndex && index <= e.RecoveryIndex
}

// ClassificationResult is the verdict for one series. It is built once per
// classification and never modified afterwards.
type ClassificationResult struct {
	Category                Category                `json:"category" yaml:"category"`
	Rule                    string                  `json:"rule" yaml:"rule"`
	AnomalyStartPeriod      optional.Value[string]  `json:"anomaly_start_period" yaml:"anomaly_start_period"`
	AnomalyStartDate        optional.Value[string]  `json:"anomaly_start_date" yaml:"anomaly_start_date"`
	AnomalyStartConsumption optional.Value[float64] `json:"anomaly_start_consumption" yaml:"anomaly_start_consumption"`
	PreviousConsumption     optional.Value[float64] `json:"previous_consumption" yaml:"previous_consumption"`
	AnomalyVariation        optional.Value[float64] `json:"anomaly_variation" yaml:"anomaly_variation"`
	AnomalousPeriods        int                     `json:"anomalous_periods" yaml:"anomalous_periods"`
	PowerChanges            int                     `json:"power_changes" yaml:"power_changes"`
	ExpectedZeroPeriods     int                     `json:"expected_zero_periods" yaml:"expected_zero_periods"`
	Detail                  []string                `json:"detail" yaml:"detail"`
	Confidence              int                     `json:"confidence" yaml:"confidence"`
	Recoveries              []RecoveryEvent         `json:"recoveries" yaml:"recoveries"`
}
