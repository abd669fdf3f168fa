package calculation

import (
	"fmt"
	"math"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/random"
	"github.com/shopspring/decimal"
)

// Simulator produces the last-year / plan / actual series of one account
type Simulator struct {
	params *domain.Parameters
}

// NewSimulator creates a simulator for the given parameters
func NewSimulator(params *domain.Parameters) *Simulator {
	return &Simulator{params: params}
}

// Simulate returns one record per period, in period order, with derived fields at their zero values.
// Draws from rng in a fixed order: baseline, growth, then per period the ramp draw (new
// accounts only) and the noise draw.
func (s *Simulator) Simulate(account domain.Account, periods []domain.Period, factors *CorrelationFactors, rng random.Source) ([]domain.MonthlyRecord, error) {
	if err := domain.ValidatePeriods(periods); err != nil {
		return nil, fmt.Errorf("account %s: %w", account.ID, err)
	}
	tp, ok := s.params.TierParams(account.Tier)
	if !ok {
		return nil, fmt.Errorf("account %s: %w %d", account.ID, domain.ErrUnknownTier, account.Tier)
	}
	if len(s.params.Seasonality) != len(periods) {
		return nil, fmt.Errorf("account %s: seasonality has %d weights for %d periods", account.ID, len(s.params.Seasonality), len(periods))
	}

	tightness, err := factors.planTightness(account)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", account.ID, err)
	}
	multipliers, err := factors.actualMultipliers(account)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", account.ID, err)
	}

	baseline := random.Uniform(rng, tp.LastYearMonthly)
	growth := random.Uniform(rng, tp.Growth)

	records := make([]domain.MonthlyRecord, len(periods))

	for i, period := range periods {
		lastYear := s.params.Seasonality[i] * baseline * 12
		plan := 0.0
		if !account.IsNew {
			plan = lastYear * (1 + growth) * tightness
		} else {
			lastYear = 0
		}

		var actual float64
		if plan == 0 {
			// organic ramp for accounts without a plan
			ramp := float64(i+1) / float64(len(periods))
			base := baseline * random.Uniform(rng, s.params.NewAccount.RampDraw) * ramp
			actual = base * multipliers[period.Quarter] * random.Normal(rng, 1, s.params.NewAccount.NoiseSD)
		} else {
			actual = plan * multipliers[period.Quarter] * random.Normal(rng, 1, tp.ActualNoiseSD)
		}

		records[i] = domain.MonthlyRecord{
			Period:          period,
			AccountID:       account.ID,
			SalespersonID:   account.SalespersonID,
			Tier:            account.Tier,
			LastYearRevenue: nonNegative(lastYear),
			PlanRevenue:     nonNegative(plan),
			ActualRevenue:   nonNegative(actual),
		}
	}

	return records, nil
}

// nonNegative floors v at zero and converts it to a decimal amount
func nonNegative(v float64) decimal.Decimal {
	return decimal.NewFromFloat(math.Max(0, v))
}
