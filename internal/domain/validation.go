package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSeries is returned when a series breaks the ordering/shape guarantees
// the classifier relies on
var ErrInvalidSeries = errors.New("invalid series")

// ValidateSeries checks the guarantees the aggregator is expected to give:
// valid months, consistent period keys, finite non-negative consumption and
// strictly increasing unique (year, month) order.
func ValidateSeries(s Series) error {
	for i, r := range s {
		if r.Month < 1 || r.Month > 12 {
			return fmt.Errorf("%w: record %d has month %d", ErrInvalidSeries, i, r.Month)
		}
		if r.Period != PeriodKey(r.Year, r.Month) {
			if _, err := time.Parse(PeriodLayout, r.Period); err != nil {
				return fmt.Errorf("%w: record %d has malformed period %q", ErrInvalidSeries, i, r.Period)
			}
			return fmt.Errorf("%w: record %d period %q does not match %04d-%02d", ErrInvalidSeries, i, r.Period, r.Year, r.Month)
		}
		if math.IsNaN(r.ActiveEnergy) || math.IsInf(r.ActiveEnergy, 0) || r.ActiveEnergy < 0 {
			return fmt.Errorf("%w: record %s has invalid consumption %v", ErrInvalidSeries, r.Period, r.ActiveEnergy)
		}
		if i > 0 {
			prev := s[i-1]
			if prev.Year*12+prev.Month >= r.Year*12+r.Month {
				return fmt.Errorf("%w: period %s does not follow %s", ErrInvalidSeries, r.Period, prev.Period)
			}
		}
	}
	return nil
}
