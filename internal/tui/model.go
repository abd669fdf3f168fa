package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/output"
)

// Model represents the entire browser state
type Model struct {
	// Navigation
	currentScene  Scene
	previousScene Scene

	// Terminal dimensions
	width  int
	height int

	// Generation inputs
	params  *domain.Parameters
	periods []domain.Period
	workers int

	// Loaded data
	dataset         *domain.Dataset
	totals          map[string]accountTotals
	selectedAccount string

	accounts table.Model
	records  table.Model

	keys keyMap
	help help.Model

	err     error
	loading bool
}

type accountTotals struct {
	Plan       decimal.Decimal
	Adjusted   decimal.Decimal
	Windfalls  int
	Shortfalls int
}

// NewModel creates a browser that generates a dataset for params over periods.
// params is copied so that seed stepping never touches the caller's value.
func NewModel(params *domain.Parameters, periods []domain.Period, workers int) Model {
	return Model{
		currentScene: SceneAccounts,
		params:       params.Clone(),
		periods:      periods,
		workers:      workers,
		accounts:     newTable(accountColumns()),
		records:      newTable(recordColumns()),
		keys:         defaultKeyMap(),
		help:         help.New(),
		width:        120,
		height:       30,
		loading:      true,
	}
}

// Init starts generation of the first dataset
func (m Model) Init() tea.Cmd {
	return generateCmd(m.params.Clone(), m.periods, m.workers)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = TableHeaderStyle
	styles.Selected = TableSelectedStyle
	t.SetStyles(styles)
	return t
}

func accountColumns() []table.Column {
	return []table.Column{
		{Title: "Account", Width: 14},
		{Title: "Name", Width: 22},
		{Title: "Tier", Width: 4},
		{Title: "City", Width: 12},
		{Title: "Salesperson", Width: 12},
		{Title: "New", Width: 3},
		{Title: "Plan", Width: 14},
		{Title: "Adjusted", Width: 14},
		{Title: "Attain", Width: 7},
		{Title: "W/S", Width: 5},
	}
}

func recordColumns() []table.Column {
	return []table.Column{
		{Title: "Period", Width: 7},
		{Title: "Qtr", Width: 3},
		{Title: "Last year", Width: 12},
		{Title: "Plan", Width: 12},
		{Title: "Actual", Width: 12},
		{Title: "Adjusted", Width: 12},
		{Title: "Flags", Width: 12},
	}
}

// setDataset loads ds into the account table and resets navigation
func (m *Model) setDataset(ds *domain.Dataset) {
	m.dataset = ds
	m.totals = make(map[string]accountTotals, len(ds.Accounts))
	for _, r := range ds.Records {
		t := m.totals[r.AccountID]
		t.Plan = t.Plan.Add(r.PlanRevenue)
		t.Adjusted = t.Adjusted.Add(r.AdjustedActual)
		if r.Windfall {
			t.Windfalls++
		}
		if r.Shortfall {
			t.Shortfalls++
		}
		m.totals[r.AccountID] = t
	}

	rows := make([]table.Row, 0, len(ds.Accounts))
	for _, acc := range ds.Accounts {
		t := m.totals[acc.ID]
		isNew := ""
		if acc.IsNew {
			isNew = "Y"
		}
		rows = append(rows, table.Row{
			acc.ID,
			acc.Name,
			fmt.Sprint(int(acc.Tier)),
			acc.City,
			acc.SalespersonID,
			isNew,
			output.FormatCurrency(t.Plan),
			output.FormatCurrency(t.Adjusted),
			output.FormatPercentage(attainment(t.Plan, t.Adjusted)),
			fmt.Sprintf("%d/%d", t.Windfalls, t.Shortfalls),
		})
	}
	m.accounts.SetRows(rows)
	m.accounts.SetCursor(0)
	m.records.SetRows(nil)
	m.selectedAccount = ""
	m.currentScene = SceneAccounts
	m.accounts.Focus()
	m.records.Blur()
}

// openAccount switches to the monthly records of one account
func (m *Model) openAccount(id string) {
	recs := m.dataset.AccountRecords(id)
	rows := make([]table.Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, table.Row{
			r.Period.String(),
			string(r.Period.Quarter),
			r.LastYearRevenue.StringFixed(2),
			r.PlanRevenue.StringFixed(2),
			r.ActualRevenue.StringFixed(2),
			r.AdjustedActual.StringFixed(2),
			recordFlags(r),
		})
	}
	m.records.SetRows(rows)
	m.records.SetCursor(0)
	m.selectedAccount = id
	m.previousScene = m.currentScene
	m.currentScene = SceneRecords
	m.accounts.Blur()
	m.records.Focus()
}

// recordFlags abbreviates the classification of a record: W windfall, S shortfall,
// SD sales-driven, H healthy trailing window
func recordFlags(r domain.MonthlyRecord) string {
	var flags []string
	if r.Windfall {
		flags = append(flags, "W")
	}
	if r.Shortfall {
		flags = append(flags, "S")
	}
	if r.SalesDriven {
		flags = append(flags, "SD")
	}
	if r.HealthyPrevWindow {
		flags = append(flags, "H")
	}
	return strings.Join(flags, " ")
}

func attainment(plan, adjusted decimal.Decimal) decimal.Decimal {
	if !plan.IsPositive() {
		return decimal.Zero
	}
	return adjusted.Div(plan)
}

// resizeTables fits the tables to the terminal height
func (m *Model) resizeTables() {
	h := m.height - 12
	if h < 5 {
		h = 5
	}
	m.accounts.SetHeight(h)
	if h > domain.PeriodsPerYear+1 {
		h = domain.PeriodsPerYear + 1
	}
	m.records.SetHeight(h)
	m.help.Width = m.width
}
