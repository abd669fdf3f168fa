package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	totalStyle   = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))
)

// SalespersonSummary aggregates one salesperson's year
type SalespersonSummary struct {
	SalespersonID string          `json:"salespersonId"`
	City          string          `json:"city"`
	Accounts      int             `json:"accounts"`
	NewAccounts   int             `json:"newAccounts"`
	Plan          decimal.Decimal `json:"plan"`
	Actual        decimal.Decimal `json:"actual"`
	Adjusted      decimal.Decimal `json:"adjusted"`
	Windfalls     int             `json:"windfalls"`
	Shortfalls    int             `json:"shortfalls"`
	SalesDriven   int             `json:"salesDriven"`
}

// Attainment is adjusted actual over plan, zero when nothing was planned
func (s SalespersonSummary) Attainment() decimal.Decimal {
	if !s.Plan.IsPositive() {
		return decimal.Zero
	}
	return s.Adjusted.Div(s.Plan)
}

// Summarize aggregates the dataset per salesperson, ordered by salesperson ID
func Summarize(ds *domain.Dataset) []SalespersonSummary {
	byID := make(map[string]*SalespersonSummary, len(ds.Salespeople))
	for _, sp := range ds.Salespeople {
		byID[sp.ID] = &SalespersonSummary{SalespersonID: sp.ID, City: sp.City}
	}
	get := func(id string) *SalespersonSummary {
		s, ok := byID[id]
		if !ok {
			s = &SalespersonSummary{SalespersonID: id}
			byID[id] = s
		}
		return s
	}

	for _, acc := range ds.Accounts {
		s := get(acc.SalespersonID)
		s.Accounts++
		if acc.IsNew {
			s.NewAccounts++
		}
	}
	for _, r := range ds.Records {
		s := get(r.SalespersonID)
		s.Plan = s.Plan.Add(r.PlanRevenue)
		s.Actual = s.Actual.Add(r.ActualRevenue)
		s.Adjusted = s.Adjusted.Add(r.AdjustedActual)
		if r.Windfall {
			s.Windfalls++
		}
		if r.Shortfall {
			s.Shortfalls++
		}
		if r.SalesDriven {
			s.SalesDriven++
		}
	}

	out := make([]SalespersonSummary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SalespersonID < out[j].SalespersonID })
	return out
}

// ConsoleFormatter renders a per-salesperson summary for the terminal
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(ds *domain.Dataset) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("SALES KPI DATASET %d (seed %d)", ds.Year, ds.Seed)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n", ds.RunID))
	sb.WriteString(fmt.Sprintf("Salespeople: %d  Accounts: %d  Records: %d\n\n", len(ds.Salespeople), len(ds.Accounts), len(ds.Records)))

	row := "%-12s %-10s %5s %4s %16s %16s %16s %8s %4s %4s %4s"
	sb.WriteString(headerStyle.Render(fmt.Sprintf(row, "Salesperson", "City", "Accts", "New", "Plan", "Actual", "Adjusted", "Attain", "W", "S", "SD")))
	sb.WriteString("\n")

	var total SalespersonSummary
	for _, s := range Summarize(ds) {
		sb.WriteString(fmt.Sprintf(row+"\n",
			s.SalespersonID, s.City,
			fmt.Sprint(s.Accounts), fmt.Sprint(s.NewAccounts),
			FormatCurrency(s.Plan), FormatCurrency(s.Actual), FormatCurrency(s.Adjusted),
			FormatPercentage(s.Attainment()),
			fmt.Sprint(s.Windfalls), fmt.Sprint(s.Shortfalls), fmt.Sprint(s.SalesDriven)))

		total.Accounts += s.Accounts
		total.NewAccounts += s.NewAccounts
		total.Plan = total.Plan.Add(s.Plan)
		total.Actual = total.Actual.Add(s.Actual)
		total.Adjusted = total.Adjusted.Add(s.Adjusted)
		total.Windfalls += s.Windfalls
		total.Shortfalls += s.Shortfalls
		total.SalesDriven += s.SalesDriven
	}

	sb.WriteString(totalStyle.Render(fmt.Sprintf(row,
		"TOTAL", "",
		fmt.Sprint(total.Accounts), fmt.Sprint(total.NewAccounts),
		FormatCurrency(total.Plan), FormatCurrency(total.Actual), FormatCurrency(total.Adjusted),
		FormatPercentage(total.Attainment()),
		fmt.Sprint(total.Windfalls), fmt.Sprint(total.Shortfalls), fmt.Sprint(total.SalesDriven))))
	sb.WriteString("\n")

	if len(ds.Skipped) > 0 {
		sb.WriteString("\n")
		sb.WriteString(warningStyle.Render(fmt.Sprintf("Skipped accounts: %d", len(ds.Skipped))))
		sb.WriteString("\n")
		for _, s := range ds.Skipped {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", s.AccountID, s.Reason))
		}
	}

	return []byte(sb.String()), nil
}

// FormatCurrency formats an amount with two decimals
func FormatCurrency(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatPercentage formats a ratio as a percentage with one decimal
func FormatPercentage(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}
