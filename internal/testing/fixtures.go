package testing

import (
	"math"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/pkg/optional"
)

// flaggedVariation mirrors the aggregator's rule: a metric moving more than 40%
// period-over-period is flagged
const flaggedVariation = 40.0

// SeriesBuilder builds consecutive monthly records the way the upstream
// aggregator would: period keys, 30 billed days, one invoice per period,
// variation vs the previous period and the 40% flag.
type SeriesBuilder struct {
	year    int
	month   int
	records []domain.MonthlyRecord
}

// NewSeriesBuilder starts a series at the given year and month
func NewSeriesBuilder(year, month int) *SeriesBuilder {
	return &SeriesBuilder{year: year, month: month}
}

// Add appends one period without a declared power
func (b *SeriesBuilder) Add(consumption float64) *SeriesBuilder {
	return b.add(consumption, optional.None[float64]())
}

// AddN appends n periods with the same consumption
func (b *SeriesBuilder) AddN(n int, consumption float64) *SeriesBuilder {
	for i := 0; i < n; i++ {
		b.Add(consumption)
	}
	return b
}

// AddWithPower appends one period declaring an average power (kW)
func (b *SeriesBuilder) AddWithPower(consumption, power float64) *SeriesBuilder {
	return b.add(consumption, optional.Some(power))
}

// AddNWithPower appends n periods with the same consumption and power
func (b *SeriesBuilder) AddNWithPower(n int, consumption, power float64) *SeriesBuilder {
	for i := 0; i < n; i++ {
		b.AddWithPower(consumption, power)
	}
	return b
}

func (b *SeriesBuilder) add(consumption float64, power optional.Value[float64]) *SeriesBuilder {
	year := b.year + (b.month-1+len(b.records))/12
	month := (b.month-1+len(b.records))%12 + 1

	b.records = append(b.records, domain.MonthlyRecord{
		Year:         year,
		Month:        month,
		Period:       domain.PeriodKey(year, month),
		ActiveEnergy: consumption,
		DailyAverage: consumption / 30,
		AveragePower: power,
		BilledDays:   30,
		InvoiceCount: 1,
	})
	return b
}

// Build computes variations and flags and returns the series
func (b *SeriesBuilder) Build() domain.Series {
	series := make(domain.Series, len(b.records))
	copy(series, b.records)

	for i := 1; i < len(series); i++ {
		prev := series[i-1].ActiveEnergy
		if prev == 0 {
			continue
		}
		variation := (series[i].ActiveEnergy - prev) / prev * 100
		series[i].VariationPercent = optional.Some(variation)
		if math.Abs(variation) > flaggedVariation {
			series[i].FlaggedMetrics = []string{"active_energy"}
			series[i].IsAnomalous = true
		}
	}

	return series
}

// SeasonalOnlySeries returns records for months 1, 7, 8 and 12 of each year,
// all at the given consumption
func SeasonalOnlySeries(startYear, years int, consumption float64) domain.Series {
	var series domain.Series
	for y := startYear; y < startYear+years; y++ {
		for _, m := range []int{1, 7, 8, 12} {
			series = append(series, domain.MonthlyRecord{
				Year:         y,
				Month:        m,
				Period:       domain.PeriodKey(y, m),
				ActiveEnergy: consumption,
				BilledDays:   30,
				InvoiceCount: 1,
			})
		}
	}
	return series
}

// NewSustainedDeclineSeries returns 12 months at 500 kWh followed by 6 months at 50 kWh
func NewSustainedDeclineSeries() domain.Series {
	return NewSeriesBuilder(2022, 1).AddN(12, 500).AddN(6, 50).Build()
}

// NewPowerChangeSeries returns 12 months at 500 kWh / 10 kW followed by 7 months
// at 150 kWh / 5 kW
func NewPowerChangeSeries() domain.Series {
	return NewSeriesBuilder(2022, 1).AddNWithPower(12, 500, 10).AddNWithPower(7, 150, 5).Build()
}

// NewRecoverySeries returns 12 months at 500 kWh, 3 months at 300 kWh and a
// recovery month at 450 kWh
func NewRecoverySeries() domain.Series {
	return NewSeriesBuilder(2022, 1).AddN(12, 500).AddN(3, 300).Add(450).Build()
}

// NewStableSeries returns n months of steady consumption with a mild wobble
func NewStableSeries(n int) domain.Series {
	b := NewSeriesBuilder(2022, 1)
	for i := 0; i < n; i++ {
		b.Add(480 + float64(i%3)*20)
	}
	return b.Build()
}
