// Package org draws the salesperson and account roster over a static org catalog.
package org

import (
	"fmt"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/random"
)

// DefaultCatalog returns the reference country/area/city structure
func DefaultCatalog() *domain.Catalog {
	return &domain.Catalog{
		CountryID:        "PL",
		CountryManagerID: "CM_PL_001",
		Areas: []domain.Area{
			{ID: "PL_N", Name: "North", ManagerID: "AM_N_001", Cities: []string{"Gdansk", "Szczecin", "Bydgoszcz", "Bialystok", "Poznan"}},
			{ID: "PL_S", Name: "South", ManagerID: "AM_S_001", Cities: []string{"Krakow", "Wroclaw", "Lodz", "Lublin", "Warsaw"}},
		},
		Cities: []domain.City{
			{Name: "Warsaw", Band: domain.BandHigh, SalespersonID: "SP_WAW_001"},
			{Name: "Krakow", Band: domain.BandHigh, SalespersonID: "SP_KRK_001"},
			{Name: "Wroclaw", Band: domain.BandHigh, SalespersonID: "SP_WRO_001"},
			{Name: "Lodz", Band: domain.BandMedium, SalespersonID: "SP_LOD_001"},
			{Name: "Poznan", Band: domain.BandMedium, SalespersonID: "SP_POZ_001"},
			{Name: "Gdansk", Band: domain.BandMedium, SalespersonID: "SP_GDA_001"},
			{Name: "Szczecin", Band: domain.BandLow, SalespersonID: "SP_SZC_001"},
			{Name: "Lublin", Band: domain.BandLow, SalespersonID: "SP_LBL_001"},
			{Name: "Bydgoszcz", Band: domain.BandLow, SalespersonID: "SP_BYD_001"},
			{Name: "Bialystok", Band: domain.BandLow, SalespersonID: "SP_BIA_001"},
		},
		TenureYears: domain.IntRange{Min: 0, Max: 16},
	}
}

// CatalogFor returns the configured catalog or the default one
func CatalogFor(params *domain.Parameters) *domain.Catalog {
	if params.Catalog != nil {
		return params.Catalog
	}
	return DefaultCatalog()
}

// ValidateCatalog checks that every city maps to exactly one area and a salesperson
func ValidateCatalog(c *domain.Catalog) error {
	if c.CountryID == "" {
		return fmt.Errorf("country id is required")
	}
	if len(c.Cities) == 0 {
		return fmt.Errorf("catalog has no cities")
	}
	if c.TenureYears.Max < c.TenureYears.Min {
		return fmt.Errorf("tenure range max %d is below min %d", c.TenureYears.Max, c.TenureYears.Min)
	}

	salespeople := make(map[string]bool)
	for _, city := range c.Cities {
		if city.SalespersonID == "" {
			return fmt.Errorf("city %s has no salesperson", city.Name)
		}
		if salespeople[city.SalespersonID] {
			return fmt.Errorf("salesperson %s covers more than one city", city.SalespersonID)
		}
		salespeople[city.SalespersonID] = true

		switch city.Band {
		case domain.BandHigh, domain.BandMedium, domain.BandLow:
		default:
			return fmt.Errorf("city %s has unknown AOB band %q", city.Name, city.Band)
		}

		if _, err := areaOf(c, city.Name); err != nil {
			return err
		}
	}
	return nil
}

func areaOf(c *domain.Catalog, city string) (domain.Area, error) {
	var found []domain.Area
	for _, a := range c.Areas {
		for _, name := range a.Cities {
			if name == city {
				found = append(found, a)
			}
		}
	}
	switch len(found) {
	case 0:
		return domain.Area{}, fmt.Errorf("city %s is not assigned to an area", city)
	case 1:
		return found[0], nil
	default:
		return domain.Area{}, fmt.Errorf("city %s is assigned to %d areas", city, len(found))
	}
}

// BuildRoster draws salesperson tenure, per-tier account counts and new-account flags.
//
// Draw order: tenure for every salesperson in catalog order, then account counts per
// salesperson (tiers ascending, HIGH-only tiers drawn only for HIGH cities), then one
// new-account draw per account in roster order.
func BuildRoster(rng random.Source, params *domain.Parameters) (*domain.Roster, error) {
	catalog := CatalogFor(params)
	if err := ValidateCatalog(catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	roster := &domain.Roster{}
	for _, city := range catalog.Cities {
		area, err := areaOf(catalog, city.Name)
		if err != nil {
			return nil, err
		}
		roster.Salespeople = append(roster.Salespeople, domain.Salesperson{
			ID:               city.SalespersonID,
			City:             city.Name,
			Band:             city.Band,
			AreaID:           area.ID,
			AreaName:         area.Name,
			AreaManagerID:    area.ManagerID,
			CountryID:        catalog.CountryID,
			CountryManagerID: catalog.CountryManagerID,
			TenureYears:      random.UniformInt(rng, catalog.TenureYears),
		})
	}

	for _, sp := range roster.Salespeople {
		for _, tp := range params.Tiers {
			n := 0
			if !tp.HighBandOnly || sp.Band == domain.BandHigh {
				n = random.UniformInt(rng, tp.AccountCount)
			}
			for i := 1; i <= n; i++ {
				id := fmt.Sprintf("ACC_T%d_%s_%04d", int(tp.Tier), sp.ID, i)
				roster.Accounts = append(roster.Accounts, domain.Account{
					ID:            id,
					Name:          id,
					Tier:          tp.Tier,
					City:          sp.City,
					SalespersonID: sp.ID,
				})
			}
		}
	}

	for i := range roster.Accounts {
		tp, _ := params.TierParams(roster.Accounts[i].Tier)
		roster.Accounts[i].IsNew = random.Bernoulli(rng, tp.NewAccountRate)
	}

	return roster, nil
}
