package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"github.com/pranshuparmar/portproc/internal/output"
)

var sortKeys = []string{"port", "pid", "user", "name"}

func baseColumns() []table.Column {
	return []table.Column{
		{Title: "Port", Width: 7},
		{Title: "Proto", Width: 5},
		{Title: "Address", Width: 24},
		{Title: "PID", Width: 8},
		{Title: "User", Width: 12},
		{Title: "Name", Width: 16},
		{Title: "Command", Width: 40},
	}
}

// columnKey maps a column index to its sort key, "" when it is not sortable.
func columnKey(idx int) string {
	switch idx {
	case 0:
		return "port"
	case 3:
		return "pid"
	case 4:
		return "user"
	case 5:
		return "name"
	}
	return ""
}

func (m *Picker) getColumns() []table.Column {
	cols := baseColumns()
	for i := range cols {
		if k := columnKey(i); k != "" && k == m.sortCol {
			if m.sortDesc {
				cols[i].Title += " ↓"
			} else {
				cols[i].Title += " ↑"
			}
		}
	}
	if m.width > 0 {
		used := 0
		for _, c := range cols[:len(cols)-1] {
			used += c.Width + 2
		}
		cols[len(cols)-1].Width = max(m.width-used-2, 10)
	}
	return cols
}

func (m *Picker) sortEntries() {
	if m.sortCol == "" {
		return
	}
	slices.SortStableFunc(m.entries, func(a, b Entry) int {
		var c int
		switch m.sortCol {
		case "port":
			c = cmp.Compare(a.Socket.Port, b.Socket.Port)
		case "pid":
			c = cmp.Compare(a.Process.PID, b.Process.PID)
		case "user":
			c = strings.Compare(strings.ToLower(a.Process.Owner.Username), strings.ToLower(b.Process.Owner.Username))
		case "name":
			c = strings.Compare(strings.ToLower(a.Process.Name), strings.ToLower(b.Process.Name))
		}
		if m.sortDesc {
			return -c
		}
		return c
	})
}

// cycleSort moves to the next sort column; after the last one the list is
// shown in enumeration order again.
func (m *Picker) cycleSort() {
	next := sortKeys[0]
	if i := slices.Index(sortKeys, m.sortCol); i >= 0 {
		next = ""
		if i+1 < len(sortKeys) {
			next = sortKeys[i+1]
		}
	}
	m.setSort(next, false)
}

func (m *Picker) setSort(col string, desc bool) {
	m.sortCol = col
	m.sortDesc = desc
	m.entries = slices.Clone(m.listed)
	m.sortEntries()
	m.table.SetColumns(m.getColumns())
	m.filterEntries()
}

func address(e Entry) string {
	if !e.Socket.Address.IsValid() {
		return "*"
	}
	return e.Socket.Address.String()
}

func (m *Picker) filterEntries() {
	filter := strings.ToLower(strings.TrimSpace(m.input.Value()))
	var rows []table.Row

	m.filtered = nil
	for _, e := range m.entries {
		cmdline := output.CommandLine(e.Process)
		port := fmt.Sprintf("%d", e.Socket.Port)
		pid := fmt.Sprintf("%d", e.Process.PID)

		match := filter == "" ||
			strings.Contains(port, filter) ||
			strings.Contains(pid, filter) ||
			strings.Contains(strings.ToLower(e.Process.Owner.Username), filter) ||
			strings.Contains(strings.ToLower(e.Process.Name), filter) ||
			strings.Contains(strings.ToLower(cmdline), filter)
		if !match {
			continue
		}

		m.filtered = append(m.filtered, e)
		rows = append(rows, table.Row{
			port,
			string(e.Socket.Protocol),
			address(e),
			pid,
			e.Process.Owner.Username,
			e.Process.Name,
			cmdline,
		})
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}
