package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// headerRow is the screen line of the table header: title, search, header.
const headerRow = 2

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title, search, header border and footer
		m.table.SetHeight(max(msg.Height-7, 3))
		m.table.SetColumns(m.getColumns())
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == headerRow {
			m.handleHeaderClick(msg.X)
			return m, nil
		}
		if msg.Button == tea.MouseButtonWheelUp {
			m.table.MoveUp(1)
		} else if msg.Button == tea.MouseButtonWheelDown {
			m.table.MoveDown(1)
		}
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			switch {
			case key.Matches(msg, keys.ForceQuit):
				m.quitting = true
				return m, tea.Quit
			case key.Matches(msg, keys.EndSearch):
				m.input.Blur()
				m.table.Focus()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.filterEntries()
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Cancel):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Choose):
			i := m.table.Cursor()
			if i < 0 || i >= len(m.filtered) {
				return m, nil
			}
			p := m.filtered[i].Process
			m.chosen = &p
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Search):
			m.table.Blur()
			return m, m.input.Focus()
		case key.Matches(msg, keys.Sort):
			m.cycleSort()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}
