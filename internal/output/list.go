package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"github.com/pranshuparmar/portproc/pkg/model"
)

const columnGap = "  "

// ListOptions controls how a process list is printed.
type ListOptions struct {
	// Table prints a header and a COMMAND column next to the pid. Without
	// it only pids are printed, one per line.
	Table bool
	Color bool
	// Width truncates table rows to this many cells. Zero means no limit.
	Width int
}

// CommandLine is the shell-escaped argv of p, or its name when the command
// line is not readable (kernel threads, other users' processes on darwin).
func CommandLine(p model.Process) string {
	if len(p.Command) == 0 {
		return p.Name
	}
	return shellescape.QuoteCommand(p.Command)
}

func RenderList(w io.Writer, procs []model.Process, opts ListOptions) error {
	if !opts.Table {
		for _, p := range procs {
			if _, err := fmt.Fprintln(w, p.PID); err != nil {
				return err
			}
		}
		return nil
	}

	r := lipgloss.NewRenderer(w)
	if opts.Color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	pidWidth := len("PID")
	for _, p := range procs {
		pidWidth = max(pidWidth, len(strconv.Itoa(int(p.PID))))
	}
	pidCol := r.NewStyle().Width(pidWidth).Align(lipgloss.Right)
	cmdWidth := 0
	if opts.Width > 0 {
		cmdWidth = max(opts.Width-pidWidth-len(columnGap), 1)
	}

	var b strings.Builder
	header := pidCol.Render("PID") + columnGap + "COMMAND"
	if opts.Color {
		header = r.NewStyle().Bold(true).Render(header)
	}
	b.WriteString(header + "\n")

	for _, p := range procs {
		cmd := CommandLine(p)
		if cmdWidth > 0 {
			cmd = truncate.StringWithTail(cmd, uint(cmdWidth), "…")
		}
		b.WriteString(pidCol.Render(strconv.Itoa(int(p.PID))) + columnGap + cmd + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
