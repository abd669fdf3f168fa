package calculation

import (
	"fmt"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/random"
)

// CorrelationFactors are the run-scoped multipliers shared across periods and accounts.
// Every value is drawn once per owner before any period is simulated.
type CorrelationFactors struct {
	PlanTightness map[string]float64                    // per salesperson, biases plan
	Efficiency    map[string]float64                    // per salesperson, biases actual
	Stickiness    map[string]float64                    // per account, biases actual
	QuarterShock  map[string]map[domain.Quarter]float64 // per salesperson and quarter, biases actual
}

// DrawCorrelationFactors draws all multipliers for a run.
// Order: plan tightness per salesperson, efficiency per salesperson, stickiness per account,
// then Q1..Q4 shocks per salesperson.
func DrawCorrelationFactors(rng random.Source, fp domain.FactorParameters, salespeople []domain.Salesperson, accounts []domain.Account) *CorrelationFactors {
	f := &CorrelationFactors{
		PlanTightness: make(map[string]float64, len(salespeople)),
		Efficiency:    make(map[string]float64, len(salespeople)),
		Stickiness:    make(map[string]float64, len(accounts)),
		QuarterShock:  make(map[string]map[domain.Quarter]float64, len(salespeople)),
	}

	for _, sp := range salespeople {
		f.PlanTightness[sp.ID] = random.Clipped(rng, fp.PlanTightness)
	}
	for _, sp := range salespeople {
		f.Efficiency[sp.ID] = random.Clipped(rng, fp.Efficiency)
	}
	for _, acc := range accounts {
		f.Stickiness[acc.ID] = random.Clipped(rng, fp.Stickiness)
	}
	for _, sp := range salespeople {
		shocks := make(map[domain.Quarter]float64, len(domain.Quarters))
		for _, q := range domain.Quarters {
			shocks[q] = random.Clipped(rng, fp.QuarterShock)
		}
		f.QuarterShock[sp.ID] = shocks
	}

	return f
}

// planTightness returns the plan multiplier for the account's salesperson
func (f *CorrelationFactors) planTightness(account domain.Account) (float64, error) {
	v, ok := f.PlanTightness[account.SalespersonID]
	if !ok {
		return 0, fmt.Errorf("%w: plan tightness for salesperson %s", domain.ErrMissingFactor, account.SalespersonID)
	}
	return v, nil
}

// actualMultipliers returns efficiency x stickiness x quarter shock for each quarter of the account
func (f *CorrelationFactors) actualMultipliers(account domain.Account) (map[domain.Quarter]float64, error) {
	eff, ok := f.Efficiency[account.SalespersonID]
	if !ok {
		return nil, fmt.Errorf("%w: efficiency for salesperson %s", domain.ErrMissingFactor, account.SalespersonID)
	}
	stick, ok := f.Stickiness[account.ID]
	if !ok {
		return nil, fmt.Errorf("%w: stickiness for account %s", domain.ErrMissingFactor, account.ID)
	}
	shocks, ok := f.QuarterShock[account.SalespersonID]
	if !ok {
		return nil, fmt.Errorf("%w: quarter shocks for salesperson %s", domain.ErrMissingFactor, account.SalespersonID)
	}

	out := make(map[domain.Quarter]float64, len(domain.Quarters))
	for _, q := range domain.Quarters {
		shock, ok := shocks[q]
		if !ok {
			return nil, fmt.Errorf("%w: %s shock for salesperson %s", domain.ErrMissingFactor, q, account.SalespersonID)
		}
		out[q] = eff * stick * shock
	}
	return out, nil
}
