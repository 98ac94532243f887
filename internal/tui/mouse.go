package tui

import "github.com/charmbracelet/bubbles/table"

// returns the column index at x cells, or -1 if not found.
func getColumnAtX(x int, cols []table.Column) int {
	currentX := 0
	for i, col := range cols {
		colWidth := col.Width + 2
		if x >= currentX && x < currentX+colWidth {
			return i
		}
		currentX += colWidth
	}
	return -1
}

func (m *Picker) handleHeaderClick(x int) {
	newCol := columnKey(getColumnAtX(x, m.table.Columns()))
	if newCol == "" {
		return
	}
	if m.sortCol == newCol {
		m.setSort(newCol, !m.sortDesc)
		return
	}
	m.setSort(newCol, false)
}
