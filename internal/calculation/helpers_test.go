package calculation

import (
	"time"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/random"
	"github.com/shopspring/decimal"
)

func testPeriods(year int) []domain.Period {
	periods := make([]domain.Period, 0, domain.PeriodsPerYear)
	for m := time.January; m <= time.December; m++ {
		periods = append(periods, domain.NewPeriod(year, m))
	}
	return periods
}

func testSalesperson() domain.Salesperson {
	return domain.Salesperson{
		ID:        "SP_TST_001",
		City:      "Warsaw",
		Band:      domain.BandHigh,
		AreaID:    "PL_S",
		CountryID: "PL",
	}
}

func testAccount(tier domain.Tier, isNew bool) domain.Account {
	return domain.Account{
		ID:            "ACC_TEST_0001",
		Name:          "ACC_TEST_0001",
		Tier:          tier,
		City:          "Warsaw",
		SalespersonID: "SP_TST_001",
		IsNew:         isNew,
	}
}

// unitFactors returns factors of exactly 1.0 for the test salesperson and account
func unitFactors(accounts ...domain.Account) *CorrelationFactors {
	f := &CorrelationFactors{
		PlanTightness: map[string]float64{"SP_TST_001": 1},
		Efficiency:    map[string]float64{"SP_TST_001": 1},
		Stickiness:    map[string]float64{},
		QuarterShock: map[string]map[domain.Quarter]float64{
			"SP_TST_001": {domain.Q1: 1, domain.Q2: 1, domain.Q3: 1, domain.Q4: 1},
		},
	}
	for _, acc := range accounts {
		f.Stickiness[acc.ID] = 1
	}
	return f
}

// flatParameters returns parameters with no randomness left in the revenue model:
// baseline 1000, growth 5%, flat seasonality and zero noise.
func flatParameters() *domain.Parameters {
	params := domain.DefaultParameters()
	for i := range params.Tiers {
		params.Tiers[i].LastYearMonthly = domain.FloatRange{Min: 1000, Max: 1000}
		params.Tiers[i].Growth = domain.FloatRange{Min: 0.05, Max: 0.05}
		params.Tiers[i].ActualNoiseSD = 0
	}
	params.Seasonality = make([]float64, 12)
	for i := range params.Seasonality {
		params.Seasonality[i] = 1.0 / 12.0
	}
	params.NewAccount.RampDraw = domain.FloatRange{Min: 0.5, Max: 0.5}
	params.NewAccount.NoiseSD = 0
	return params
}

// withSalesDriven sets the attribution probability of every tier
func withSalesDriven(params *domain.Parameters, p float64) *domain.Parameters {
	for i := range params.Tiers {
		params.Tiers[i].SalesDrivenProbability = p
	}
	return params
}

// series builds one account's records from plan and actual amounts
func series(account domain.Account, plans, actuals []float64) []domain.MonthlyRecord {
	periods := testPeriods(2024)
	records := make([]domain.MonthlyRecord, len(actuals))
	for i := range actuals {
		records[i] = domain.MonthlyRecord{
			Period:        periods[i],
			AccountID:     account.ID,
			SalespersonID: account.SalespersonID,
			Tier:          account.Tier,
			PlanRevenue:   decimal.NewFromFloat(plans[i]),
			ActualRevenue: decimal.NewFromFloat(actuals[i]),
		}
		if !account.IsNew {
			records[i].LastYearRevenue = decimal.NewFromFloat(plans[i] / 1.05)
		}
	}
	return records
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// countingSource wraps a source and counts draws
type countingSource struct {
	src   random.Source
	draws int
}

func (c *countingSource) Float64() float64     { c.draws++; return c.src.Float64() }
func (c *countingSource) NormFloat64() float64 { c.draws++; return c.src.NormFloat64() }
func (c *countingSource) Intn(n int) int       { c.draws++; return c.src.Intn(n) }

// recordingLogger captures warnings for assertions
type recordingLogger struct {
	NopLogger
	warnings []string
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, format)
}
