package org

import (
	"strings"
	"testing"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	require.NoError(t, ValidateCatalog(c))
	assert.Len(t, c.Cities, 10)
	assert.Len(t, c.Areas, 2)

	area, err := areaOf(c, "Warsaw")
	require.NoError(t, err)
	assert.Equal(t, "PL_S", area.ID)
}

func TestValidateCatalog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *domain.Catalog)
		wantErr string
	}{
		{"no_country", func(c *domain.Catalog) { c.CountryID = "" }, "country id"},
		{"no_cities", func(c *domain.Catalog) { c.Cities = nil }, "no cities"},
		{"bad_band", func(c *domain.Catalog) { c.Cities[0].Band = "TOP" }, "unknown AOB band"},
		{"no_salesperson", func(c *domain.Catalog) { c.Cities[0].SalespersonID = "" }, "has no salesperson"},
		{"shared_salesperson", func(c *domain.Catalog) { c.Cities[1].SalespersonID = c.Cities[0].SalespersonID }, "more than one city"},
		{"orphan_city", func(c *domain.Catalog) { c.Areas[1].Cities = c.Areas[1].Cities[1:] }, "not assigned"},
		{"city_in_two_areas", func(c *domain.Catalog) { c.Areas[0].Cities = append(c.Areas[0].Cities, "Warsaw") }, "assigned to 2 areas"},
		{"bad_tenure", func(c *domain.Catalog) { c.TenureYears = domain.IntRange{Min: 5, Max: 1} }, "tenure range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCatalog()
			tt.mutate(c)
			err := ValidateCatalog(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildRoster(t *testing.T) {
	params := domain.DefaultParameters()
	roster, err := BuildRoster(random.New(params.Seed), params)
	require.NoError(t, err)

	require.Len(t, roster.Salespeople, 10)

	salespeople := roster.SalespeopleByID()
	counts := make(map[string]map[domain.Tier]int)
	ids := make(map[string]bool)
	for _, acc := range roster.Accounts {
		assert.False(t, ids[acc.ID], "duplicate account id %s", acc.ID)
		ids[acc.ID] = true
		assert.True(t, strings.HasPrefix(acc.ID, "ACC_T"), acc.ID)
		assert.Equal(t, acc.ID, acc.Name)

		sp, ok := salespeople[acc.SalespersonID]
		require.True(t, ok)
		assert.Equal(t, sp.City, acc.City)
		if acc.Tier == domain.TierStrategic {
			assert.Equal(t, domain.BandHigh, sp.Band, "tier 5 account %s outside a HIGH city", acc.ID)
		}

		if counts[acc.SalespersonID] == nil {
			counts[acc.SalespersonID] = make(map[domain.Tier]int)
		}
		counts[acc.SalespersonID][acc.Tier]++
	}

	for _, sp := range roster.Salespeople {
		assert.GreaterOrEqual(t, sp.TenureYears, 0)
		assert.Less(t, sp.TenureYears, 16)
		assert.NotEmpty(t, sp.AreaID)
		assert.Equal(t, "PL", sp.CountryID)

		for _, tp := range params.Tiers {
			n := counts[sp.ID][tp.Tier]
			if tp.HighBandOnly && sp.Band != domain.BandHigh {
				assert.Zero(t, n)
				continue
			}
			assert.GreaterOrEqual(t, n, tp.AccountCount.Min, "%s tier %d", sp.ID, tp.Tier)
			assert.Less(t, n, tp.AccountCount.Max, "%s tier %d", sp.ID, tp.Tier)
		}
	}
}

func TestBuildRoster_Deterministic(t *testing.T) {
	params := domain.DefaultParameters()

	a, err := BuildRoster(random.New(42), params)
	require.NoError(t, err)
	b, err := BuildRoster(random.New(42), params)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBuildRoster_NewAccountRate(t *testing.T) {
	params := domain.DefaultParameters()
	for i := range params.Tiers {
		params.Tiers[i].NewAccountRate = 1
	}
	params.Tiers[0].NewAccountRate = 0

	roster, err := BuildRoster(random.New(7), params)
	require.NoError(t, err)

	for _, acc := range roster.Accounts {
		assert.Equal(t, acc.Tier != domain.TierSmall, acc.IsNew, acc.ID)
	}
}

func TestBuildRoster_InvalidCatalog(t *testing.T) {
	params := domain.DefaultParameters()
	params.Catalog = DefaultCatalog()
	params.Catalog.Cities = nil

	_, err := BuildRoster(random.New(1), params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid catalog")
}
