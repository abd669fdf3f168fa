package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBorder   = lipgloss.Color("#383838")
	colorMuted    = lipgloss.Color("#626262")
	colorPositive = lipgloss.Color("#04B575")
	colorNegative = lipgloss.Color("#F25D94")

	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle = lipgloss.NewStyle().Bold(true)
)

// KPICard displays one dataset figure with an optional variance against plan
type KPICard struct {
	Label    string
	Value    string
	Variance *Variance
	Width    int
}

// Variance is the signed difference of a figure against its reference
type Variance struct {
	Favorable bool
	Change    string // e.g. "+4.2%"
}

// NewKPICard creates a card with the default width
func NewKPICard(label, value string) *KPICard {
	return &KPICard{
		Label: label,
		Value: value,
		Width: 24,
	}
}

// WithVariance attaches a variance line to the card
func (c *KPICard) WithVariance(favorable bool, change string) *KPICard {
	c.Variance = &Variance{Favorable: favorable, Change: change}
	return c
}

// WithWidth sets the card width
func (c *KPICard) WithWidth(width int) *KPICard {
	c.Width = width
	return c
}

func (c *KPICard) varianceLine() string {
	if c.Variance == nil {
		return ""
	}
	arrow, color := "▼", colorNegative
	if c.Variance.Favorable {
		arrow, color = "▲", colorPositive
	}
	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%s %s", arrow, c.Variance.Change))
}

// Render returns the bordered card
func (c *KPICard) Render() string {
	content := labelStyle.Render(c.Label) + "\n" + valueStyle.Render(c.Value)
	if v := c.varianceLine(); v != "" {
		content += "\n" + v
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(c.Width).
		Render(content)
}

// RenderCompact returns a single-line version without border
func (c *KPICard) RenderCompact() string {
	out := labelStyle.Render(c.Label+":") + " " + valueStyle.Render(c.Value)
	if v := c.varianceLine(); v != "" {
		out += " " + v
	}
	return out
}

// KPIGrid renders cards left to right, wrapping after the given number of columns
func KPIGrid(cards []*KPICard, columns int) string {
	if len(cards) == 0 {
		return ""
	}
	if columns < 1 {
		columns = 1
	}

	var rows, current []string
	for i, card := range cards {
		current = append(current, card.Render())
		if (i+1)%columns == 0 || i == len(cards)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, current...))
			current = nil
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
