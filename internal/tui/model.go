package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pranshuparmar/portproc/pkg/model"
)

var (
	// ErrCancelled is returned when the picker is closed without a choice.
	ErrCancelled = errors.New("selection cancelled")
	// ErrNothingToPick is returned when there are no processes to show.
	ErrNothingToPick = errors.New("no processes to choose from")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")). // White
			Background(lipgloss.Color("#7D56F4")). // Purple
			Padding(0, 1)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
				Bold(true).
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("#585858")). // Dark Gray
				Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#585858")). // Dark Gray
			Padding(0, 1)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffdf87")). // Amber
			Bold(true)
)

type keyMap struct {
	Choose    key.Binding
	Cancel    key.Binding
	ForceQuit key.Binding
	Search    key.Binding
	EndSearch key.Binding
	Sort      key.Binding
}

var keys = keyMap{
	Choose:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	Cancel:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "cancel")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	EndSearch: key.NewBinding(key.WithKeys("esc", "enter")),
	Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
}

// Entry is one row of the picker: a port and one process holding it.
type Entry struct {
	Socket  model.Socket
	Process model.Process
}

// Picker is a bubbletea model that lets the user choose a single process
// to run a command against.
type Picker struct {
	table    table.Model
	input    textinput.Model
	listed   []Entry // enumeration order
	entries  []Entry
	filtered []Entry
	command  string
	width    int
	height   int

	sortCol  string
	sortDesc bool

	chosen   *model.Process
	quitting bool
}

// NewPicker lists every (port, process) pair of infos. command is the
// command line shown in the title.
func NewPicker(infos []model.PortInfo, command string) Picker {
	var entries []Entry
	for _, info := range infos {
		for _, p := range info.Processes {
			entries = append(entries, Entry{Socket: info.Socket, Process: p})
		}
	}

	t := table.New(
		table.WithColumns(baseColumns()),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = tableHeaderStyle
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffaf")). // Light Yellow
		Background(lipgloss.Color("#5f00d7")). // Purple
		Bold(false)
	t.SetStyles(s)

	ti := textinput.New()
	ti.Placeholder = "Search port, PID, user, command..."
	ti.CharLimit = 156
	ti.Width = 50
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.Blur()

	m := Picker{
		table:   t,
		input:   ti,
		listed:  entries,
		entries: slices.Clone(entries),
		command: command,
	}
	m.filterEntries()
	return m
}

// Chosen returns the selected process, if any.
func (m Picker) Chosen() (model.Process, bool) {
	if m.chosen == nil {
		return model.Process{}, false
	}
	return *m.chosen, true
}

func (m Picker) Init() tea.Cmd {
	return nil
}

// Pick runs the picker on the terminal, drawing to stderr so stdout stays
// free for the command that follows.
func Pick(ctx context.Context, infos []model.PortInfo, command string) (model.Process, error) {
	m := NewPicker(infos, command)
	if len(m.entries) == 0 {
		return model.Process{}, ErrNothingToPick
	}

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	final, err := p.Run()
	if err != nil {
		return model.Process{}, fmt.Errorf("error running picker: %w", err)
	}
	pm, ok := final.(Picker)
	if !ok {
		return model.Process{}, ErrCancelled
	}
	proc, ok := pm.Chosen()
	if !ok {
		return model.Process{}, ErrCancelled
	}
	return proc, nil
}
