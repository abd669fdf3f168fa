package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/org"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv and the CLI
const (
	EnvSeed      = "KPISYNTH_SEED"
	EnvYear      = "KPISYNTH_YEAR"
	EnvOutputDir = "KPISYNTH_OUTPUT_DIR"
	EnvDBDSN     = "KPISYNTH_DB_DSN"
)

// seasonalityTolerance bounds how far the 12 weights may sum away from 1
const seasonalityTolerance = 0.01

// InputParser handles parsing of generator parameter files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads parameters from a YAML or TOML file.
// Keys absent from the file keep their default values; lists given in the file replace the default list.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Parameters, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var params *domain.Parameters
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		params, err = ip.ParseTOML(data)
	default:
		params, err = ip.ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := ip.ValidateParameters(params); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return params, nil
}

// ParseYAML decodes YAML parameters on top of the defaults without validating them
func (ip *InputParser) ParseYAML(data []byte) (*domain.Parameters, error) {
	params := domain.DefaultParameters()
	if err := yaml.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return params, nil
}

// ParseTOML decodes TOML parameters on top of the defaults without validating them
func (ip *InputParser) ParseTOML(data []byte) (*domain.Parameters, error) {
	params := domain.DefaultParameters()
	if err := toml.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return params, nil
}

// ValidateParameters validates a complete parameter set
func (ip *InputParser) ValidateParameters(p *domain.Parameters) error {
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("year %d out of range", p.Year)
	}
	if err := ip.validateTiers(p.Tiers); err != nil {
		return fmt.Errorf("tier validation failed: %w", err)
	}
	if err := validateSeasonality(p.Seasonality); err != nil {
		return fmt.Errorf("seasonality validation failed: %w", err)
	}
	if err := validateFloatRange("new_account.ramp_draw", p.NewAccount.RampDraw, 0); err != nil {
		return err
	}
	if p.NewAccount.NoiseSD < 0 {
		return fmt.Errorf("new_account.noise_sd cannot be negative")
	}
	if err := validateAdjustment(p.Adjustment); err != nil {
		return fmt.Errorf("adjustment validation failed: %w", err)
	}
	if err := validateFactors(p.Factors); err != nil {
		return fmt.Errorf("factor validation failed: %w", err)
	}
	if p.Catalog != nil {
		if err := org.ValidateCatalog(p.Catalog); err != nil {
			return fmt.Errorf("catalog validation failed: %w", err)
		}
	}
	return nil
}

// validateTiers requires exactly one entry for each supported tier
func (ip *InputParser) validateTiers(tiers []domain.TierParameters) error {
	seen := make(map[domain.Tier]bool, len(tiers))
	for _, tp := range tiers {
		if !tp.Tier.Valid() {
			return fmt.Errorf("%w %d", domain.ErrUnknownTier, tp.Tier)
		}
		if seen[tp.Tier] {
			return fmt.Errorf("tier %d configured more than once", tp.Tier)
		}
		seen[tp.Tier] = true

		if err := validateTier(tp); err != nil {
			return fmt.Errorf("tier %d: %w", tp.Tier, err)
		}
	}
	for _, t := range domain.Tiers {
		if !seen[t] {
			return fmt.Errorf("tier %d is missing", t)
		}
	}
	return nil
}

func validateTier(tp domain.TierParameters) error {
	if tp.AccountCount.Min < 0 || tp.AccountCount.Max < tp.AccountCount.Min {
		return fmt.Errorf("account_count [%d, %d) is not a valid range", tp.AccountCount.Min, tp.AccountCount.Max)
	}
	if err := validateFloatRange("last_year_monthly", tp.LastYearMonthly, 0); err != nil {
		return err
	}
	if tp.LastYearMonthly.Min <= 0 {
		return fmt.Errorf("last_year_monthly must be positive")
	}
	if err := validateFloatRange("growth", tp.Growth, -1); err != nil {
		return err
	}
	if tp.ActualNoiseSD < 0 {
		return fmt.Errorf("actual_noise_sd cannot be negative")
	}
	if err := validateProbability("sales_driven_probability", tp.SalesDrivenProbability); err != nil {
		return err
	}
	return validateProbability("new_account_rate", tp.NewAccountRate)
}

func validateSeasonality(weights []float64) error {
	if len(weights) != domain.PeriodsPerYear {
		return fmt.Errorf("expected %d weights, got %d", domain.PeriodsPerYear, len(weights))
	}
	sum := 0.0
	for i, w := range weights {
		if w < 0 {
			return fmt.Errorf("weight for month %d cannot be negative", i+1)
		}
		sum += w
	}
	if math.Abs(sum-1) > seasonalityTolerance {
		return fmt.Errorf("weights sum to %.4f, expected 1", sum)
	}
	return nil
}

func validateAdjustment(a domain.AdjustmentRules) error {
	if a.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	if a.HealthyThreshold < 0 {
		return fmt.Errorf("healthy_threshold cannot be negative")
	}
	if a.HealthyWindow < 1 {
		return fmt.Errorf("healthy_window must be at least 1")
	}
	return nil
}

func validateFactors(f domain.FactorParameters) error {
	factors := []struct {
		name string
		dist domain.Distribution
	}{
		{"plan_tightness", f.PlanTightness},
		{"efficiency", f.Efficiency},
		{"stickiness", f.Stickiness},
		{"quarter_shock", f.QuarterShock},
	}
	for _, fd := range factors {
		if fd.dist.StdDev < 0 {
			return fmt.Errorf("%s: std_dev cannot be negative", fd.name)
		}
		if fd.dist.Min <= 0 || fd.dist.Max < fd.dist.Min {
			return fmt.Errorf("%s: clip bounds [%g, %g] are invalid", fd.name, fd.dist.Min, fd.dist.Max)
		}
	}
	return nil
}

func validateFloatRange(name string, r domain.FloatRange, floor float64) error {
	if r.Min < floor {
		return fmt.Errorf("%s minimum %g is below %g", name, r.Min, floor)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%s maximum %g is below minimum %g", name, r.Max, r.Min)
	}
	return nil
}

func validateProbability(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%s must be between 0 and 1", name)
	}
	return nil
}

// LoadEnvFile loads variables from a dotenv file into the process environment.
// A missing file is not an error; variables already set are not overridden.
func LoadEnvFile(filename string) error {
	if err := godotenv.Load(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return nil
}

// ApplyEnv overrides seed and year from the environment
func ApplyEnv(p *domain.Parameters) error {
	if v, ok := os.LookupEnv(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSeed, v, err)
		}
		p.Seed = seed
	}
	if v, ok := os.LookupEnv(EnvYear); ok && v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvYear, v, err)
		}
		p.Year = year
	}
	return nil
}
