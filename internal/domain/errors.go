package domain

import (
	"errors"
	"fmt"
)

// Precondition errors raised by the generation pipeline. Callers match them with errors.Is.
var (
	ErrPeriodCount        = errors.New("calendar must contain exactly 12 periods")
	ErrPeriodOrder        = errors.New("periods must be in strictly chronological order")
	ErrQuarterTag         = errors.New("period quarter tag does not match its month")
	ErrRecordCount        = errors.New("account series must contain one record per period")
	ErrRecordAccount      = errors.New("record belongs to a different account")
	ErrNewAccountBaseline = errors.New("new account carries non-zero last-year or plan revenue")
	ErrUnknownTier        = errors.New("unknown account tier")
	ErrMissingFactor      = errors.New("correlation factor missing for owner")
)

// ValidatePeriods checks that periods form one full, ordered, correctly tagged year
func ValidatePeriods(periods []Period) error {
	if len(periods) != PeriodsPerYear {
		return fmt.Errorf("%w: got %d", ErrPeriodCount, len(periods))
	}
	for i, p := range periods {
		if p.Quarter != QuarterOf(p.Month) {
			return fmt.Errorf("%w: period %s tagged %s", ErrQuarterTag, p, p.Quarter)
		}
		if i > 0 && !p.Date.After(periods[i-1].Date) {
			return fmt.Errorf("%w: %s follows %s", ErrPeriodOrder, p, periods[i-1])
		}
	}
	return nil
}
