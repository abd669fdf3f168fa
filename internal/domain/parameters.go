package domain

// FloatRange is a closed [Min, Max] interval used for uniform draws
type FloatRange struct {
	Min float64 `yaml:"min" json:"min" toml:"min"`
	Max float64 `yaml:"max" json:"max" toml:"max"`
}

// IntRange is a half-open [Min, Max) interval used for integer draws
type IntRange struct {
	Min int `yaml:"min" json:"min" toml:"min"`
	Max int `yaml:"max" json:"max" toml:"max"`
}

// Distribution describes a normal distribution clipped to [Min, Max]
type Distribution struct {
	Mean   float64 `yaml:"mean" json:"mean" toml:"mean"`
	StdDev float64 `yaml:"std_dev" json:"stdDev" toml:"std_dev"`
	Min    float64 `yaml:"min" json:"min" toml:"min"`
	Max    float64 `yaml:"max" json:"max" toml:"max"`
}

// TierParameters groups every tier-specific generation and adjustment setting
type TierParameters struct {
	Tier                   Tier       `yaml:"tier" json:"tier" toml:"tier"`
	AccountCount           IntRange   `yaml:"account_count" json:"accountCount" toml:"account_count"`
	LastYearMonthly        FloatRange `yaml:"last_year_monthly" json:"lastYearMonthly" toml:"last_year_monthly"`
	Growth                 FloatRange `yaml:"growth" json:"growth" toml:"growth"`
	ActualNoiseSD          float64    `yaml:"actual_noise_sd" json:"actualNoiseSd" toml:"actual_noise_sd"`
	SalesDrivenProbability float64    `yaml:"sales_driven_probability" json:"salesDrivenProbability" toml:"sales_driven_probability"`
	NewAccountRate         float64    `yaml:"new_account_rate" json:"newAccountRate" toml:"new_account_rate"`
	// HighBandOnly restricts accounts of this tier to salespeople in HIGH band cities
	HighBandOnly bool `yaml:"high_band_only" json:"highBandOnly" toml:"high_band_only"`
}

// NewAccountParameters controls the organic ramp of accounts without a plan
type NewAccountParameters struct {
	RampDraw FloatRange `yaml:"ramp_draw" json:"rampDraw" toml:"ramp_draw"`
	NoiseSD  float64    `yaml:"noise_sd" json:"noiseSd" toml:"noise_sd"`
}

// AdjustmentRules configures windfall/shortfall detection and the healthy window gate
type AdjustmentRules struct {
	Threshold        float64 `yaml:"threshold" json:"threshold" toml:"threshold"`
	HealthyThreshold float64 `yaml:"healthy_threshold" json:"healthyThreshold" toml:"healthy_threshold"`
	HealthyWindow    int     `yaml:"healthy_window" json:"healthyWindow" toml:"healthy_window"`
}

// FactorParameters holds the distributions of the correlated multipliers
type FactorParameters struct {
	PlanTightness Distribution `yaml:"plan_tightness" json:"planTightness" toml:"plan_tightness"`
	Efficiency    Distribution `yaml:"efficiency" json:"efficiency" toml:"efficiency"`
	Stickiness    Distribution `yaml:"stickiness" json:"stickiness" toml:"stickiness"`
	QuarterShock  Distribution `yaml:"quarter_shock" json:"quarterShock" toml:"quarter_shock"`
}

// Area is a sales area and the cities it covers
type Area struct {
	ID        string   `yaml:"id" json:"id" toml:"id"`
	Name      string   `yaml:"name" json:"name" toml:"name"`
	ManagerID string   `yaml:"manager_id" json:"managerId" toml:"manager_id"`
	Cities    []string `yaml:"cities" json:"cities" toml:"cities"`
}

// City is a catalog city, its AOB band and the salesperson covering it
type City struct {
	Name          string `yaml:"name" json:"name" toml:"name"`
	Band          Band   `yaml:"band" json:"band" toml:"band"`
	SalespersonID string `yaml:"salesperson_id" json:"salespersonId" toml:"salesperson_id"`
}

// Catalog is the static org structure the roster is drawn over
type Catalog struct {
	CountryID        string `yaml:"country_id" json:"countryId" toml:"country_id"`
	CountryManagerID string `yaml:"country_manager_id" json:"countryManagerId" toml:"country_manager_id"`
	Areas            []Area `yaml:"areas" json:"areas" toml:"areas"`
	Cities           []City `yaml:"cities" json:"cities" toml:"cities"`
	// TenureYears is the half-open range salesperson tenure is drawn from
	TenureYears IntRange `yaml:"tenure_years" json:"tenureYears" toml:"tenure_years"`
}

// Parameters is the complete generator configuration
type Parameters struct {
	Year        int                  `yaml:"year" json:"year" toml:"year"`
	Seed        int64                `yaml:"seed" json:"seed" toml:"seed"`
	Tiers       []TierParameters     `yaml:"tiers" json:"tiers" toml:"tiers"`
	Seasonality []float64            `yaml:"seasonality" json:"seasonality" toml:"seasonality"`
	NewAccount  NewAccountParameters `yaml:"new_account" json:"newAccount" toml:"new_account"`
	Adjustment  AdjustmentRules      `yaml:"adjustment" json:"adjustment" toml:"adjustment"`
	Factors     FactorParameters     `yaml:"factors" json:"factors" toml:"factors"`
	Catalog     *Catalog             `yaml:"catalog,omitempty" json:"catalog,omitempty" toml:"catalog,omitempty"`
}

// TierParams returns the settings for tier t
func (p *Parameters) TierParams(t Tier) (TierParameters, bool) {
	for _, tp := range p.Tiers {
		if tp.Tier == t {
			return tp, true
		}
	}
	return TierParameters{}, false
}

// DefaultParameters returns the reference configuration for a 2024 run
func DefaultParameters() *Parameters {
	return &Parameters{
		Year: 2024,
		Seed: 1337,
		Tiers: []TierParameters{
			{
				Tier:                   TierSmall,
				AccountCount:           IntRange{Min: 40, Max: 70},
				LastYearMonthly:        FloatRange{Min: 3000, Max: 10000},
				Growth:                 FloatRange{Min: 0.02, Max: 0.08},
				ActualNoiseSD:          0.12,
				SalesDrivenProbability: 0.60,
				NewAccountRate:         0.08,
			},
			{
				Tier:                   TierMid,
				AccountCount:           IntRange{Min: 5, Max: 20},
				LastYearMonthly:        FloatRange{Min: 10000, Max: 40000},
				Growth:                 FloatRange{Min: 0.03, Max: 0.10},
				ActualNoiseSD:          0.10,
				SalesDrivenProbability: 0.75,
				NewAccountRate:         0.05,
			},
			{
				Tier:                   TierStrategic,
				AccountCount:           IntRange{Min: 3, Max: 10},
				LastYearMonthly:        FloatRange{Min: 40000, Max: 150000},
				Growth:                 FloatRange{Min: 0.04, Max: 0.12},
				ActualNoiseSD:          0.08,
				SalesDrivenProbability: 0.90,
				NewAccountRate:         0.02,
				HighBandOnly:           true,
			},
		},
		Seasonality: []float64{0.07, 0.07, 0.08, 0.08, 0.08, 0.09, 0.09, 0.09, 0.09, 0.09, 0.09, 0.08},
		NewAccount: NewAccountParameters{
			RampDraw: FloatRange{Min: 0.4, Max: 0.8},
			NoiseSD:  0.08,
		},
		Adjustment: AdjustmentRules{
			Threshold:        0.10,
			HealthyThreshold: 0.95,
			HealthyWindow:    3,
		},
		Factors: FactorParameters{
			PlanTightness: Distribution{Mean: 1.06, StdDev: 0.04, Min: 1.00, Max: 1.18},
			Efficiency:    Distribution{Mean: 1.00, StdDev: 0.06, Min: 0.85, Max: 1.20},
			Stickiness:    Distribution{Mean: 1.00, StdDev: 0.04, Min: 0.85, Max: 1.20},
			QuarterShock:  Distribution{Mean: 1.00, StdDev: 0.05, Min: 0.85, Max: 1.20},
		},
	}
}

// Clone returns a deep copy so callers can override fields per run
func (p *Parameters) Clone() *Parameters {
	c := *p
	c.Tiers = append([]TierParameters(nil), p.Tiers...)
	c.Seasonality = append([]float64(nil), p.Seasonality...)
	if p.Catalog != nil {
		cat := *p.Catalog
		cat.Areas = make([]Area, len(p.Catalog.Areas))
		for i, a := range p.Catalog.Areas {
			a.Cities = append([]string(nil), a.Cities...)
			cat.Areas[i] = a
		}
		cat.Cities = append([]City(nil), p.Catalog.Cities...)
		c.Catalog = &cat
	}
	return &c
}
