package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTables()
		return m, nil

	case DatasetLoadedMsg:
		m.loading = false
		m.err = nil
		m.setDataset(msg.Dataset)
		return m, nil

	case ErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

// handleKeyPress processes global key bindings before delegating to the focused table
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case m.loading:
		return m, nil

	case key.Matches(msg, m.keys.NextSeed):
		return m.regenerate(m.params.Seed + 1)

	case key.Matches(msg, m.keys.PrevSeed):
		return m.regenerate(m.params.Seed - 1)

	case key.Matches(msg, m.keys.Help):
		if m.currentScene == SceneHelp {
			m.currentScene = m.previousScene
		} else {
			m.previousScene = m.currentScene
			m.currentScene = SceneHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		switch m.currentScene {
		case SceneHelp:
			m.currentScene = m.previousScene
		case SceneRecords:
			m.currentScene = SceneAccounts
			m.records.Blur()
			m.accounts.Focus()
		}
		return m, nil
	}

	if m.dataset == nil {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentScene {
	case SceneAccounts:
		if key.Matches(msg, m.keys.Select) {
			if row := m.accounts.SelectedRow(); len(row) > 0 {
				m.openAccount(row[0])
			}
			return m, nil
		}
		m.accounts, cmd = m.accounts.Update(msg)
	case SceneRecords:
		m.records, cmd = m.records.Update(msg)
	}
	return m, cmd
}

func (m Model) regenerate(seed int64) (tea.Model, tea.Cmd) {
	m.params.Seed = seed
	m.loading = true
	m.err = nil
	return m, generateCmd(m.params.Clone(), m.periods, m.workers)
}
