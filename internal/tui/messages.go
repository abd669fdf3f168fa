package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/kpisynth/internal/calculation"
	"github.com/rgehrsitz/kpisynth/internal/domain"
)

// Scene represents the screens of the browser
type Scene int

const (
	SceneAccounts Scene = iota
	SceneRecords
	SceneHelp
)

func (s Scene) String() string {
	switch s {
	case SceneAccounts:
		return "Accounts"
	case SceneRecords:
		return "Monthly records"
	case SceneHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// DatasetLoadedMsg carries a freshly generated dataset
type DatasetLoadedMsg struct {
	Dataset *domain.Dataset
}

// ErrorMsg reports a failed generation
type ErrorMsg struct {
	Err error
}

// generateCmd runs the engine off the update loop
func generateCmd(params *domain.Parameters, periods []domain.Period, workers int) tea.Cmd {
	return func() tea.Msg {
		engine := calculation.NewEngine(params)
		engine.Workers = workers
		ds, err := engine.Generate(context.Background(), periods)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return DatasetLoadedMsg{Dataset: ds}
	}
}
