package calculation

import (
	"fmt"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/random"
	"github.com/shopspring/decimal"
)

// Adjuster runs the windfall/shortfall pipeline over one account's year.
type Adjuster struct {
	params           *domain.Parameters
	threshold        decimal.Decimal
	healthyThreshold decimal.Decimal
}

// NewAdjuster creates an adjuster for the given parameters
func NewAdjuster(params *domain.Parameters) *Adjuster {
	return &Adjuster{
		params:           params,
		threshold:        decimal.NewFromFloat(params.Adjustment.Threshold),
		healthyThreshold: decimal.NewFromFloat(params.Adjustment.HealthyThreshold),
	}
}

// Adjust walks the account's records in period order and fills the derived fields in place.
//
// Period t reads the finalized adjusted actuals of up to HealthyWindow predecessors, so the
// walk is strictly sequential. One Bernoulli draw is taken from rng per detected event.
func (a *Adjuster) Adjust(account domain.Account, records []domain.MonthlyRecord, rng random.Source) error {
	if err := a.checkSeries(account, records); err != nil {
		return fmt.Errorf("account %s: %w", account.ID, err)
	}
	tp, ok := a.params.TierParams(account.Tier)
	if !ok {
		return fmt.Errorf("account %s: %w %d", account.ID, domain.ErrUnknownTier, account.Tier)
	}

	window := newHealthWindow(a.params.Adjustment.HealthyWindow)
	rampStarted := false

	for t := range records {
		rec := &records[t]
		rec.ResetDerived()

		if t > 0 {
			a.step(account, tp, records[t-1].ActualRevenue, rec, window, &rampStarted, rng)
		}

		window.push(rec.AdjustedActual, rec.PlanRevenue)
	}
	return nil
}

// step classifies and adjusts one period t >= 1
func (a *Adjuster) step(account domain.Account, tp domain.TierParameters, prevActual decimal.Decimal, rec *domain.MonthlyRecord, window *healthWindow, rampStarted *bool, rng random.Source) {
	if !account.IsNew && prevActual.IsZero() {
		return
	}
	if account.IsNew && !*rampStarted && rec.ActualRevenue.IsPositive() {
		// first revenue of a new account starts its ramp; not an event
		*rampStarted = true
		return
	}

	healthy := window.healthy(a.healthyThreshold)
	rec.HealthyPrevWindow = healthy

	denominator := prevActual
	if denominator.IsZero() {
		denominator = decimal.NewFromInt(1)
	}
	change := rec.ActualRevenue.Sub(prevActual).Div(denominator)

	switch {
	case change.GreaterThanOrEqual(a.threshold):
		rec.Windfall = true
	case change.LessThanOrEqual(a.threshold.Neg()):
		rec.Shortfall = true
	default:
		return
	}

	rec.SalesDriven = random.Bernoulli(rng, tp.SalesDrivenProbability)
	if rec.SalesDriven || !rec.PlanRevenue.IsPositive() {
		return
	}

	switch {
	case rec.Windfall:
		// unearned upside is capped at plan
		rec.AdjustedActual = decimal.Min(rec.ActualRevenue, rec.PlanRevenue)
	case rec.Shortfall && healthy:
		// external dip after a healthy run is rescued to plan
		rec.AdjustedActual = decimal.Max(rec.ActualRevenue, rec.PlanRevenue)
	}
}

// checkSeries enforces the caller contract of Adjust
func (a *Adjuster) checkSeries(account domain.Account, records []domain.MonthlyRecord) error {
	if len(records) != domain.PeriodsPerYear {
		return fmt.Errorf("%w: got %d", domain.ErrRecordCount, len(records))
	}
	for i, rec := range records {
		if rec.AccountID != account.ID {
			return fmt.Errorf("%w: record %d has account %s", domain.ErrRecordAccount, i, rec.AccountID)
		}
		if i > 0 && !rec.Period.Date.After(records[i-1].Period.Date) {
			return fmt.Errorf("%w: %s follows %s", domain.ErrPeriodOrder, rec.Period, records[i-1].Period)
		}
		if account.IsNew && (!rec.LastYearRevenue.IsZero() || !rec.PlanRevenue.IsZero()) {
			return fmt.Errorf("%w: period %s", domain.ErrNewAccountBaseline, rec.Period)
		}
	}
	return nil
}

// healthWindow is a fixed-size ring of the most recent finalized (adjusted, plan) pairs
type healthWindow struct {
	adjusted []decimal.Decimal
	plan     []decimal.Decimal
	next     int
	count    int
}

func newHealthWindow(size int) *healthWindow {
	if size < 1 {
		size = 1
	}
	return &healthWindow{
		adjusted: make([]decimal.Decimal, size),
		plan:     make([]decimal.Decimal, size),
	}
}

func (w *healthWindow) push(adjusted, plan decimal.Decimal) {
	w.adjusted[w.next] = adjusted
	w.plan[w.next] = plan
	w.next = (w.next + 1) % len(w.adjusted)
	if w.count < len(w.adjusted) {
		w.count++
	}
}

// healthy reports whether the mean adjusted/plan ratio over periods with a plan meets threshold.
// A window without any planned period is not healthy.
func (w *healthWindow) healthy(threshold decimal.Decimal) bool {
	sum := decimal.Zero
	n := 0
	for i := 0; i < w.count; i++ {
		if !w.plan[i].IsPositive() {
			continue
		}
		sum = sum.Add(w.adjusted[i].Div(w.plan[i]))
		n++
	}
	if n == 0 {
		return false
	}
	return sum.Div(decimal.NewFromInt(int64(n))).GreaterThanOrEqual(threshold)
}
