// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"time"

	"github.com/aristath/meterwatch/pkg/optional"
)

// PeriodLayout is the "YYYY-MM" layout of a billing period key
const PeriodLayout = "2006-01"

// ExpectedZeroThreshold is the consumption (kWh) at or below which a period in a
// seasonal month counts as an expected shutdown rather than an anomaly
const ExpectedZeroThreshold = 5.0

// StandardBillingDays is the billing length normalized consumption is scaled to
const StandardBillingDays = 30

// seasonalMonths are the months in which seasonal premises (schools, holiday
// homes, agricultural pumps) routinely bill near-zero consumption
var seasonalMonths = map[int]bool{1: true, 7: true, 8: true, 12: true}

// IsSeasonalMonth reports whether month is one of the expected-shutdown months
func IsSeasonalMonth(month int) bool {
	return seasonalMonths[month]
}

// PeriodKey formats a year-month as "YYYY-MM"
func PeriodKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// DerivedStats are the per-period statistics filled in by the enrichment pass
// once the whole series is known
type DerivedStats struct {
	ZScore                 optional.Value[float64] `json:"z_score"`
	SeasonalIndex          optional.Value[float64] `json:"seasonal_index"`
	Trend3M                optional.Value[float64] `json:"trend_3m"`
	DaysSinceLastAnomaly   optional.Value[int]     `json:"days_since_last_anomaly"`
	CoefficientOfVariation optional.Value[float64] `json:"coefficient_of_variation"`
}

// MonthlyRecord is the monthly billing aggregate of one expediente.
// Records are produced upstream by aggregating the period's invoices.
type MonthlyRecord struct {
	Year                int                     `json:"year"`
	Month               int                     `json:"month"`
	Period              string                  `json:"period"`
	ActiveEnergy        float64                 `json:"active_energy"`        // kWh, the consumption analysed
	ReconstructedEnergy float64                 `json:"reconstructed_energy"` // kWh re-billed after inspection
	PeakDemand          float64                 `json:"peak_demand"`
	DailyAverage        float64                 `json:"daily_average"`
	AveragePower        optional.Value[float64] `json:"average_power"` // kW, absent if no invoice declared it
	BilledDays          int                     `json:"billed_days"`
	VariationPercent    optional.Value[float64] `json:"variation_percent"` // vs previous period, absent for the first
	FlaggedMetrics      []string                `json:"flagged_metrics"`
	IsAnomalous         bool                    `json:"is_anomalous"`
	InvoiceCount        int                     `json:"invoice_count"`
	Derived             DerivedStats            `json:"derived"`
}

// Consumption returns the active energy billed in the period
func (r MonthlyRecord) Consumption() float64 {
	return r.ActiveEnergy
}

// NormalizedConsumption returns the consumption scaled to a 30-day billing
// period, so short and long billing cycles compare on the same footing.
// Records without billed days are taken as billed over a standard period.
func (r MonthlyRecord) NormalizedConsumption() float64 {
	if r.BilledDays <= 0 {
		return r.ActiveEnergy
	}
	return r.ActiveEnergy / float64(r.BilledDays) * StandardBillingDays
}

// PeriodStart returns the first day of the record's month (UTC)
func (r MonthlyRecord) PeriodStart() time.Time {
	return time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC)
}

// IsExpectedZero reports a near-zero reading in a seasonal month
func (r MonthlyRecord) IsExpectedZero() bool {
	return IsSeasonalMonth(r.Month) && r.ActiveEnergy <= ExpectedZeroThreshold
}

// Series is the chronologically ordered list of monthly records of one expediente
type Series []MonthlyRecord

// Consumptions returns the consumption of every period in order
func (s Series) Consumptions() []float64 {
	values := make([]float64, len(s))
	for i, r := range s {
		values[i] = r.Consumption()
	}
	return values
}

// Clone returns a deep copy so callers can enrich without touching the input
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	for i, r := range s {
		if r.FlaggedMetrics != nil {
			r.FlaggedMetrics = append([]string(nil), r.FlaggedMetrics...)
		}
		out[i] = r
	}
	return out
}

// NormalizedConsumptions returns the 30-day normalized consumption of every period
func (s Series) NormalizedConsumptions() []float64 {
	values := make([]float64, len(s))
	for i, r := range s {
		values[i] = r.NormalizedConsumption()
	}
	return values
}

// Periods returns the period keys in order
func (s Series) Periods() []string {
	periods := make([]string, len(s))
	for i, r := range s {
		periods[i] = r.Period
	}
	return periods
}

// Normalize fills the fields an upstream aggregator may leave implicit:
// the period key, the daily average and the anomalous flag.
// It returns a new series.
func Normalize(records []MonthlyRecord) Series {
	out := Series(records).Clone()
	for i := range out {
		r := &out[i]
		if r.Period == "" {
			r.Period = PeriodKey(r.Year, r.Month)
		}
		if r.DailyAverage == 0 && r.BilledDays > 0 {
			r.DailyAverage = r.ActiveEnergy / float64(r.BilledDays)
		}
		if len(r.FlaggedMetrics) > 0 {
			r.IsAnomalous = true
		}
	}
	return out
}
