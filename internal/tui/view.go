package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

func (m Picker) View() string {
	if m.quitting {
		return ""
	}

	title := titleStyle.Render("portproc")
	if m.command != "" {
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, " run ", commandStyle.Render(m.command), " on:")
	}

	status := "Mode: Navigation (Press / to search)"
	if m.input.Focused() {
		status = "Mode: Searching (Press Esc/Enter to stop)"
	}
	var help []string
	for _, b := range []key.Binding{keys.Choose, keys.Search, keys.Sort, keys.Cancel} {
		help = append(help, b.Help().Key+" "+b.Help().Desc)
	}
	footer := fmt.Sprintf("%s  %d/%d  %s", status, len(m.filtered), len(m.entries), strings.Join(help, " • "))

	fs := footerStyle
	if m.width > 0 {
		fs = fs.Width(m.width)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.input.View(),
		m.table.View(),
		fs.Render(footer),
	)
}
