package calculation

import (
	"fmt"
	"testing"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/random"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAmount(t *testing.T, want float64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	if !got.Equal(dec(want)) {
		assert.Fail(t, fmt.Sprintf("amount: want %v, got %s", want, got), msgAndArgs...)
	}
}

func externalAdjuster() *Adjuster {
	return NewAdjuster(withSalesDriven(domain.DefaultParameters(), 0))
}

func TestAdjuster_WindfallCappedAtPlan(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	actuals := repeat(1000, 12)
	actuals[4] = 1300
	records := series(acc, repeat(1050, 12), actuals)

	require.NoError(t, externalAdjuster().Adjust(acc, records, random.New(1)))

	w := records[4]
	assert.True(t, w.Windfall)
	assert.False(t, w.Shortfall)
	assert.False(t, w.SalesDriven)
	assertAmount(t, 1050, w.AdjustedActual)
	assertAmount(t, 1300, w.ActualRevenue, "raw actual is never modified")

	// the drop back from 1300 is measured against the raw actual and rescued after a healthy window
	s := records[5]
	assert.True(t, s.Shortfall)
	assert.True(t, s.HealthyPrevWindow)
	assertAmount(t, 1050, s.AdjustedActual)

	for _, i := range []int{0, 1, 2, 3, 6, 7, 8, 9, 10, 11} {
		assert.False(t, records[i].IsEvent(), "period %d", i)
		assert.False(t, records[i].SalesDriven, "period %d", i)
		assertAmount(t, 1000, records[i].AdjustedActual, "period %d", i)
	}
}

func TestAdjuster_SalesDrivenEventsKeepActual(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	actuals := repeat(1000, 12)
	actuals[4] = 1300
	records := series(acc, repeat(1050, 12), actuals)

	adj := NewAdjuster(withSalesDriven(domain.DefaultParameters(), 1))
	require.NoError(t, adj.Adjust(acc, records, random.New(1)))

	assert.True(t, records[4].Windfall)
	assert.True(t, records[4].SalesDriven)
	assertAmount(t, 1300, records[4].AdjustedActual)

	assert.True(t, records[5].Shortfall)
	assert.True(t, records[5].SalesDriven)
	assertAmount(t, 1000, records[5].AdjustedActual)

	assert.False(t, records[6].SalesDriven, "non-events are never sales-driven")
}

func TestAdjuster_HealthyShortfallRescued(t *testing.T) {
	acc := testAccount(domain.TierMid, false)
	actuals := append([]float64{970, 960, 950, 700}, repeat(1000, 8)...)
	records := series(acc, repeat(1000, 12), actuals)

	require.NoError(t, externalAdjuster().Adjust(acc, records, random.New(1)))

	rec := records[3]
	assert.True(t, rec.Shortfall)
	assert.True(t, rec.HealthyPrevWindow, "mean ratio 0.96 over the previous three periods")
	assertAmount(t, 1000, rec.AdjustedActual)

	// recovery from 700 is a windfall, already at plan
	assert.True(t, records[4].Windfall)
	assertAmount(t, 1000, records[4].AdjustedActual)
}

func TestAdjuster_UnhealthyShortfallKept(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	actuals := append([]float64{800, 800, 800, 600}, repeat(600, 8)...)
	records := series(acc, repeat(1000, 12), actuals)

	require.NoError(t, externalAdjuster().Adjust(acc, records, random.New(1)))

	assert.True(t, records[3].Shortfall)
	assert.False(t, records[3].HealthyPrevWindow)
	assertAmount(t, 600, records[3].AdjustedActual)
}

func TestAdjuster_WindowUsesAdjustedActuals(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	actuals := append([]float64{1000, 1000, 1000, 800}, repeat(700, 8)...)
	records := series(acc, repeat(1000, 12), actuals)

	require.NoError(t, externalAdjuster().Adjust(acc, records, random.New(1)))

	require.True(t, records[3].Shortfall)
	assertAmount(t, 1000, records[3].AdjustedActual)

	// raw actuals 1000, 1000, 800 would average 0.933; the rescued 1000 keeps the window healthy
	assert.True(t, records[4].Shortfall)
	assert.True(t, records[4].HealthyPrevWindow)
	assertAmount(t, 1000, records[4].AdjustedActual)

	assert.False(t, records[5].IsEvent())
	assertAmount(t, 700, records[5].AdjustedActual)
}

func TestAdjuster_ZeroPreviousActualSkipped(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	actuals := append([]float64{1000, 0}, repeat(500, 10)...)
	records := series(acc, repeat(1000, 12), actuals)

	require.NoError(t, externalAdjuster().Adjust(acc, records, random.New(1)))

	assert.True(t, records[1].Shortfall)
	assertAmount(t, 1000, records[1].AdjustedActual)

	assert.False(t, records[2].IsEvent())
	assert.False(t, records[2].HealthyPrevWindow)
	assertAmount(t, 500, records[2].AdjustedActual)
}

func TestAdjuster_NewAccountRamp(t *testing.T) {
	acc := testAccount(domain.TierSmall, true)
	actuals := append([]float64{0, 0, 500}, repeat(550, 9)...)
	records := series(acc, repeat(0, 12), actuals)

	src := &countingSource{src: random.New(1)}
	require.NoError(t, externalAdjuster().Adjust(acc, records, src))

	// first revenue starts the ramp and is not an event
	assert.False(t, records[2].IsEvent())
	assertAmount(t, 500, records[2].AdjustedActual)

	// +10% exactly meets the threshold; without a plan nothing is capped
	assert.True(t, records[3].Windfall)
	assert.False(t, records[3].HealthyPrevWindow)
	assertAmount(t, 550, records[3].AdjustedActual)

	for i := 4; i < 12; i++ {
		assert.False(t, records[i].IsEvent(), "period %d", i)
	}
	assert.Equal(t, 1, src.draws, "one attribution draw per event")
}

func TestAdjuster_FirstPeriodNeverEvaluated(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	records := series(acc, repeat(1000, 12), repeat(1000, 12))
	records[0].Windfall = true
	records[0].AdjustedActual = dec(42)

	require.NoError(t, externalAdjuster().Adjust(acc, records, random.New(1)))

	assert.False(t, records[0].IsEvent())
	assert.False(t, records[0].HealthyPrevWindow)
	assertAmount(t, 1000, records[0].AdjustedActual)
}

func TestAdjuster_Deterministic(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	actuals := append([]float64{1000, 1000, 1000, 800}, repeat(700, 8)...)
	records := series(acc, repeat(1000, 12), actuals)
	adj := NewAdjuster(domain.DefaultParameters())

	require.NoError(t, adj.Adjust(acc, records, random.New(7)))
	first := append([]domain.MonthlyRecord(nil), records...)

	require.NoError(t, adj.Adjust(acc, records, random.New(7)))
	assert.Equal(t, first, records)
}

// feedAdjusted replaces each actual with its adjusted value so the series can be adjusted again
func feedAdjusted(records []domain.MonthlyRecord) {
	for i := range records {
		records[i].ActualRevenue = records[i].AdjustedActual
	}
}

func TestAdjuster_FlatSeriesStableWhenFedBack(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	records := series(acc, repeat(1000, 12), repeat(1000, 12))
	adj := externalAdjuster()

	require.NoError(t, adj.Adjust(acc, records, random.New(1)))
	first := append([]domain.MonthlyRecord(nil), records...)

	feedAdjusted(records)
	src := &countingSource{src: random.New(1)}
	require.NoError(t, adj.Adjust(acc, records, src))

	assert.Equal(t, 0, src.draws)
	assert.Equal(t, first, records)
}

func TestAdjuster_RescuedSeriesRetriggersWhenFedBack(t *testing.T) {
	acc := testAccount(domain.TierSmall, false)
	actuals := append([]float64{1000, 1000, 1000, 800}, repeat(700, 8)...)
	records := series(acc, repeat(1000, 12), actuals)
	adj := externalAdjuster()

	require.NoError(t, adj.Adjust(acc, records, random.New(1)))

	// 800 is -20% and 700 is -12.5% against their raw predecessors, both rescued
	for i, want := range []float64{1000, 1000, 1000, 1000, 1000, 700} {
		assertAmount(t, want, records[i].AdjustedActual, "first pass period %d", i)
	}

	feedAdjusted(records)
	src := &countingSource{src: random.New(1)}
	require.NoError(t, adj.Adjust(acc, records, src))

	events := 0
	for i, rec := range records {
		if rec.IsEvent() {
			events++
			assert.Equal(t, 5, i, "only the drop from 1000 to 700 is an event")
		}
	}
	assert.Equal(t, 1, events)
	assert.Equal(t, 1, src.draws)

	rec := records[5]
	assert.True(t, rec.Shortfall)
	assert.True(t, rec.HealthyPrevWindow)
	assertAmount(t, 700, rec.ActualRevenue)
	assertAmount(t, 1000, rec.AdjustedActual)
	assertAmount(t, 700, records[6].AdjustedActual)
}

func TestAdjuster_ShortfallAbovePlanKeepsActual(t *testing.T) {
	acc := testAccount(domain.TierMid, false)
	actuals := append([]float64{1500, 1500, 1500, 1200}, repeat(1200, 8)...)
	records := series(acc, repeat(1000, 12), actuals)

	require.NoError(t, externalAdjuster().Adjust(acc, records, random.New(1)))

	rec := records[3]
	assert.True(t, rec.Shortfall)
	assert.True(t, rec.HealthyPrevWindow)
	assert.False(t, rec.SalesDriven)
	assertAmount(t, 1200, rec.AdjustedActual, "a rescue never lowers an actual already above plan")

	for i, rec := range records {
		if i != 3 {
			assert.False(t, rec.IsEvent(), "period %d", i)
			assert.True(t, rec.AdjustedActual.Equal(rec.ActualRevenue), "period %d", i)
		}
	}
}

func TestAdjuster_NoEventsNoDraws(t *testing.T) {
	acc := testAccount(domain.TierStrategic, false)
	actuals := []float64{1000, 1050, 1000, 1020, 980, 1000, 1010, 990, 1000, 1000, 1030, 1000}
	records := series(acc, repeat(1000, 12), actuals)

	src := &countingSource{src: random.New(1)}
	require.NoError(t, NewAdjuster(domain.DefaultParameters()).Adjust(acc, records, src))

	assert.Equal(t, 0, src.draws)
	for i, rec := range records {
		assert.False(t, rec.IsEvent(), "period %d", i)
		assert.True(t, rec.AdjustedActual.Equal(rec.ActualRevenue), "period %d", i)
	}
}

func TestAdjuster_Preconditions(t *testing.T) {
	adj := NewAdjuster(domain.DefaultParameters())
	acc := testAccount(domain.TierSmall, false)

	t.Run("record_count", func(t *testing.T) {
		records := series(acc, repeat(1000, 11), repeat(1000, 11))
		assert.ErrorIs(t, adj.Adjust(acc, records, random.New(1)), domain.ErrRecordCount)
	})

	t.Run("foreign_record", func(t *testing.T) {
		records := series(acc, repeat(1000, 12), repeat(1000, 12))
		records[6].AccountID = "ACC_OTHER"
		assert.ErrorIs(t, adj.Adjust(acc, records, random.New(1)), domain.ErrRecordAccount)
	})

	t.Run("period_order", func(t *testing.T) {
		records := series(acc, repeat(1000, 12), repeat(1000, 12))
		records[3].Period, records[4].Period = records[4].Period, records[3].Period
		assert.ErrorIs(t, adj.Adjust(acc, records, random.New(1)), domain.ErrPeriodOrder)
	})

	t.Run("new_account_with_plan", func(t *testing.T) {
		fresh := testAccount(domain.TierSmall, true)
		records := series(fresh, repeat(0, 12), repeat(100, 12))
		records[5].PlanRevenue = dec(100)
		assert.ErrorIs(t, adj.Adjust(fresh, records, random.New(1)), domain.ErrNewAccountBaseline)
	})

	t.Run("unknown_tier", func(t *testing.T) {
		bad := testAccount(domain.Tier(4), false)
		records := series(bad, repeat(1000, 12), repeat(1000, 12))
		assert.ErrorIs(t, adj.Adjust(bad, records, random.New(1)), domain.ErrUnknownTier)
	})
}

func TestHealthWindow(t *testing.T) {
	threshold := dec(0.95)

	w := newHealthWindow(3)
	assert.False(t, w.healthy(threshold), "empty window")

	w.push(dec(500), decimal.Zero)
	assert.False(t, w.healthy(threshold), "no planned period")

	w.push(dec(960), dec(1000))
	assert.True(t, w.healthy(threshold), "unplanned periods are ignored")

	w.push(dec(900), dec(1000))
	assert.False(t, w.healthy(threshold), "mean 0.93")

	// evicts the 960 period
	w.push(dec(1000), dec(1000))
	w.push(dec(1000), dec(1000))
	assert.True(t, w.healthy(threshold))
}
