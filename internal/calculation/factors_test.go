package calculation

import (
	"testing"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawCorrelationFactors(t *testing.T) {
	params := domain.DefaultParameters()
	salespeople := []domain.Salesperson{{ID: "SP_A"}, {ID: "SP_B"}}
	accounts := []domain.Account{
		{ID: "ACC_1", SalespersonID: "SP_A"},
		{ID: "ACC_2", SalespersonID: "SP_A"},
		{ID: "ACC_3", SalespersonID: "SP_B"},
	}

	f := DrawCorrelationFactors(random.New(1337), params.Factors, salespeople, accounts)

	assert.Len(t, f.PlanTightness, 2)
	assert.Len(t, f.Efficiency, 2)
	assert.Len(t, f.Stickiness, 3)
	assert.Len(t, f.QuarterShock, 2)

	for _, sp := range salespeople {
		assert.GreaterOrEqual(t, f.PlanTightness[sp.ID], 1.0, "plan tightness never loosens the plan")
		assert.LessOrEqual(t, f.PlanTightness[sp.ID], 1.18)
		assert.GreaterOrEqual(t, f.Efficiency[sp.ID], 0.85)
		assert.LessOrEqual(t, f.Efficiency[sp.ID], 1.20)
		require.Len(t, f.QuarterShock[sp.ID], 4)
		for _, q := range domain.Quarters {
			assert.GreaterOrEqual(t, f.QuarterShock[sp.ID][q], 0.85)
			assert.LessOrEqual(t, f.QuarterShock[sp.ID][q], 1.20)
		}
	}
	for _, acc := range accounts {
		assert.GreaterOrEqual(t, f.Stickiness[acc.ID], 0.85)
		assert.LessOrEqual(t, f.Stickiness[acc.ID], 1.20)
	}
}

func TestDrawCorrelationFactors_DrawCount(t *testing.T) {
	params := domain.DefaultParameters()
	salespeople := []domain.Salesperson{{ID: "SP_A"}, {ID: "SP_B"}, {ID: "SP_C"}}
	accounts := []domain.Account{{ID: "ACC_1", SalespersonID: "SP_A"}}

	src := &countingSource{src: random.New(5)}
	DrawCorrelationFactors(src, params.Factors, salespeople, accounts)

	// 3 tightness + 3 efficiency + 1 stickiness + 3x4 shocks
	assert.Equal(t, 19, src.draws)
}

func TestCorrelationFactors_MissingOwner(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)

	f := unitFactors(acc)
	delete(f.Stickiness, acc.ID)
	_, err := f.actualMultipliers(acc)
	assert.ErrorIs(t, err, domain.ErrMissingFactor)

	f = unitFactors(acc)
	delete(f.PlanTightness, acc.SalespersonID)
	_, err = f.planTightness(acc)
	assert.ErrorIs(t, err, domain.ErrMissingFactor)

	f = unitFactors(acc)
	delete(f.QuarterShock[acc.SalespersonID], domain.Q3)
	_, err = f.actualMultipliers(acc)
	assert.ErrorIs(t, err, domain.ErrMissingFactor)
}

func TestCorrelationFactors_ActualMultipliers(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	f := unitFactors(acc)
	f.Efficiency[acc.SalespersonID] = 1.1
	f.Stickiness[acc.ID] = 0.9
	f.QuarterShock[acc.SalespersonID][domain.Q2] = 1.2

	m, err := f.actualMultipliers(acc)
	require.NoError(t, err)
	assert.InDelta(t, 0.99, m[domain.Q1], 1e-12)
	assert.InDelta(t, 1.188, m[domain.Q2], 1e-12)
}
