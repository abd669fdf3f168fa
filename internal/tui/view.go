package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/kpisynth/internal/output"
	"github.com/rgehrsitz/kpisynth/internal/tui/components"
)

// View renders the current state of the browser
func (m Model) View() string {
	if m.loading {
		return m.renderLoading()
	}

	if m.err != nil {
		return m.renderError()
	}

	var content string
	switch m.currentScene {
	case SceneAccounts:
		content = m.renderAccounts()
	case SceneRecords:
		content = m.renderRecords()
	case SceneHelp:
		content = m.help.FullHelpView(m.keys.FullHelp())
	default:
		content = "Unknown scene"
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTitleBar(),
		content,
		StatusBarStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())),
	)
}

func (m Model) renderTitleBar() string {
	title := TitleStyle.Render(fmt.Sprintf("KPISYNTH - Sales KPI %d (seed %d)", m.dataset.Year, m.dataset.Seed))
	breadcrumb := m.currentScene.String()
	if m.currentScene == SceneRecords {
		breadcrumb = fmt.Sprintf("%s / %s", breadcrumb, m.selectedAccount)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, SubtitleStyle.Render(breadcrumb), "")
}

func (m Model) renderLoading() string {
	return InfoStyle.Render(fmt.Sprintf("Generating dataset for seed %d...", m.params.Seed))
}

func (m Model) renderError() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		ErrorStyle.Render("Generation failed"),
		m.err.Error(),
		"",
		SubtitleStyle.Render("n/p try another seed, q quit"),
	)
}

func (m Model) renderAccounts() string {
	var plan, adjusted decimal.Decimal
	windfalls, shortfalls := 0, 0
	for _, t := range m.totals {
		plan = plan.Add(t.Plan)
		adjusted = adjusted.Add(t.Adjusted)
		windfalls += t.Windfalls
		shortfalls += t.Shortfalls
	}

	adjustedCard := components.NewKPICard("Adjusted", output.FormatCurrency(adjusted))
	if plan.IsPositive() {
		variance := adjusted.Sub(plan).Div(plan)
		change := output.FormatPercentage(variance)
		if !variance.IsNegative() {
			change = "+" + change
		}
		adjustedCard.WithVariance(!variance.IsNegative(), change)
	}

	cards := []*components.KPICard{
		components.NewKPICard("Plan", output.FormatCurrency(plan)),
		adjustedCard,
		components.NewKPICard("Windfalls", fmt.Sprint(windfalls)),
		components.NewKPICard("Shortfalls", fmt.Sprint(shortfalls)),
	}

	parts := []string{components.KPIGrid(cards, 4), m.accounts.View()}
	if n := len(m.dataset.Skipped); n > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d account(s) skipped", n)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderRecords() string {
	var header string
	for _, acc := range m.dataset.Accounts {
		if acc.ID != m.selectedAccount {
			continue
		}
		kind := "established"
		if acc.IsNew {
			kind = "new"
		}
		header = fmt.Sprintf("%s  %s  tier %d  %s  %s  (%s)", acc.ID, acc.Name, int(acc.Tier), acc.SalespersonID, acc.City, kind)
		break
	}

	t := m.totals[m.selectedAccount]
	summary := components.NewKPICard("Attainment", output.FormatPercentage(attainment(t.Plan, t.Adjusted))).RenderCompact()

	legend := strings.Join([]string{
		WindfallStyle.Render("W windfall"),
		ShortfallStyle.Render("S shortfall"),
		"SD sales-driven",
		"H healthy window",
	}, "  ")

	return lipgloss.JoinVertical(lipgloss.Left, header, summary, "", m.records.View(), SubtitleStyle.Render(legend))
}
