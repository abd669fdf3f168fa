package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodsPerYear is the number of monthly periods in a simulation year
const PeriodsPerYear = 12

// Tier is the ordinal account-size classification (1 small, 3 mid, 5 strategic)
type Tier int

const (
	TierSmall     Tier = 1
	TierMid       Tier = 3
	TierStrategic Tier = 5
)

// Tiers lists the supported tiers in ascending order
var Tiers = []Tier{TierSmall, TierMid, TierStrategic}

// Valid reports whether t is one of the supported tiers
func (t Tier) Valid() bool {
	return t == TierSmall || t == TierMid || t == TierStrategic
}

// Band is the AOB band of a city
type Band string

const (
	BandHigh   Band = "HIGH"
	BandMedium Band = "MED"
	BandLow    Band = "LOW"
)

// Quarter tags a period with its calendar quarter
type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
)

// Quarters lists the quarters in calendar order
var Quarters = []Quarter{Q1, Q2, Q3, Q4}

// QuarterOf returns the quarter a month belongs to
func QuarterOf(m time.Month) Quarter {
	return Quarters[(int(m)-1)/3]
}

// Period is one month of the simulated year
type Period struct {
	Date    time.Time  `yaml:"date" json:"date"`
	Year    int        `yaml:"year" json:"year"`
	Month   time.Month `yaml:"month" json:"month"`
	Quarter Quarter    `yaml:"quarter" json:"quarter"`
}

// NewPeriod creates the period for the given year and month
func NewPeriod(year int, month time.Month) Period {
	return Period{
		Date:    time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Year:    year,
		Month:   month,
		Quarter: QuarterOf(month),
	}
}

// Salesperson is a member of the sales org together with their reporting line
type Salesperson struct {
	ID               string `yaml:"salesperson_id" json:"salespersonId"`
	City             string `yaml:"city" json:"city"`
	Band             Band   `yaml:"aob_band" json:"aobBand"`
	AreaID           string `yaml:"area_id" json:"areaId"`
	AreaName         string `yaml:"area_name" json:"areaName"`
	AreaManagerID    string `yaml:"area_manager_id" json:"areaManagerId"`
	CountryID        string `yaml:"country_id" json:"countryId"`
	CountryManagerID string `yaml:"country_manager_id" json:"countryManagerId"`
	TenureYears      int    `yaml:"tenure_years" json:"tenureYears"`
}

// Account is a customer account owned by one salesperson. IsNew is fixed when the roster is drawn.
type Account struct {
	ID            string `yaml:"account_id" json:"accountId"`
	Name          string `yaml:"account_name" json:"accountName"`
	Tier          Tier   `yaml:"tier" json:"tier"`
	City          string `yaml:"city" json:"city"`
	SalespersonID string `yaml:"salesperson_id" json:"salespersonId"`
	IsNew         bool   `yaml:"is_new" json:"isNew"`
}

// Roster holds the salespeople and accounts a run simulates
type Roster struct {
	Salespeople []Salesperson `json:"salespeople"`
	Accounts    []Account     `json:"accounts"`
}

// SalespeopleByID indexes the roster's salespeople by ID
func (r *Roster) SalespeopleByID() map[string]Salesperson {
	byID := make(map[string]Salesperson, len(r.Salespeople))
	for _, sp := range r.Salespeople {
		byID[sp.ID] = sp
	}
	return byID
}

// MonthlyRecord is the fact row for one account in one period.
// The derived fields (flags and AdjustedActual) are filled by the adjustment pipeline.
type MonthlyRecord struct {
	Period        Period `json:"period"`
	AccountID     string `json:"accountId"`
	SalespersonID string `json:"salespersonId"`
	AreaID        string `json:"areaId"`
	CountryID     string `json:"countryId"`
	Tier          Tier   `json:"tier"`

	LastYearRevenue decimal.Decimal `json:"lastYearRevenue"`
	PlanRevenue     decimal.Decimal `json:"planRevenue"`
	ActualRevenue   decimal.Decimal `json:"actualRevenue"`

	Windfall          bool            `json:"windfall"`
	Shortfall         bool            `json:"shortfall"`
	SalesDriven       bool            `json:"salesDriven"`
	HealthyPrevWindow bool            `json:"healthyPrevWindow"`
	AdjustedActual    decimal.Decimal `json:"adjustedActual"`
}

// ResetDerived clears the derived fields so that adjusted actual equals actual
func (r *MonthlyRecord) ResetDerived() {
	r.Windfall = false
	r.Shortfall = false
	r.SalesDriven = false
	r.HealthyPrevWindow = false
	r.AdjustedActual = r.ActualRevenue
}

// IsEvent reports whether the record was classified as a windfall or shortfall
func (r MonthlyRecord) IsEvent() bool {
	return r.Windfall || r.Shortfall
}

// SkippedAccount records an account whose pipeline failed and was left out of the dataset
type SkippedAccount struct {
	AccountID string `json:"accountId"`
	Reason    string `json:"reason"`
}

// Dataset is the assembled output of one generation run
type Dataset struct {
	RunID       string           `json:"runId"`
	Seed        int64            `json:"seed"`
	Year        int              `json:"year"`
	Periods     []Period         `json:"periods"`
	Salespeople []Salesperson    `json:"salespeople"`
	Accounts    []Account        `json:"accounts"`
	Records     []MonthlyRecord  `json:"records"`
	Skipped     []SkippedAccount `json:"skipped,omitempty"`
}

// AccountRecords returns the records of one account in period order
func (d *Dataset) AccountRecords(accountID string) []MonthlyRecord {
	var out []MonthlyRecord
	for _, r := range d.Records {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out
}

// String returns a short human readable description of the period
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
