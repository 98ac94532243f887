// Package command runs a user supplied command once per selected process.
package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/pranshuparmar/portproc/pkg/model"
)

// Placeholder is the argument replaced by the target pid.
const Placeholder = "{}"

var (
	// ErrBulkCommandBlocked is returned by Gate when a command would run on
	// more than one process without an explicit override.
	ErrBulkCommandBlocked = errors.New("command would run on multiple processes")
	// ErrSpawn wraps failures to start the command at all.
	ErrSpawn = errors.New("failed to start command")
	// ErrEmptyCommand is returned for a template without a program.
	ErrEmptyCommand = errors.New("empty command")
)

// Gate refuses to let a command fan out to several processes unless force
// is set. Zero or one process always passes.
func Gate(processes []model.Process, force bool) error {
	if len(processes) > 1 && !force {
		return fmt.Errorf("%d processes selected: %w", len(processes), ErrBulkCommandBlocked)
	}
	return nil
}

// expand returns the template with the placeholder appended when no
// argument is exactly Placeholder.
func expand(template []string) []string {
	if slices.Contains(template, Placeholder) {
		return template
	}
	return append(slices.Clone(template), Placeholder)
}

// BuildArgv substitutes pid for every argument equal to Placeholder, or
// appends it when there is none. Partial matches such as "--pid={}" are
// left alone.
func BuildArgv(template []string, pid int32) []string {
	p := strconv.Itoa(int(pid))
	argv := slices.Clone(expand(template))
	for i, arg := range argv {
		if arg == Placeholder {
			argv[i] = p
		}
	}
	return argv
}

// Describe renders the command for pid the way a user would type it in a
// shell. The pid itself is never quoted.
func Describe(template []string, pid int32) string {
	return render(template, strconv.Itoa(int(pid)))
}

// Format renders the template itself, with the placeholder shown where the
// pid will go.
func Format(template []string) string {
	return render(template, Placeholder)
}

func render(template []string, pid string) string {
	args := expand(template)
	parts := make([]string, len(args))
	for i, arg := range args {
		if arg == Placeholder {
			parts[i] = pid
			continue
		}
		parts[i] = shellescape.Quote(arg)
	}
	return strings.Join(parts, " ")
}

// Outcome is the result of running the command against one process.
type Outcome struct {
	PID      int32
	Argv     []string
	ExitCode int
	Err      error
}

func (o Outcome) OK() bool {
	return o.Err == nil && o.ExitCode == 0
}

// Runner starts argv and waits for it, returning its exit code.
type Runner interface {
	Run(ctx context.Context, argv []string) (int, error)
}

// Run executes template once per process, sequentially and in order. A
// failure on one process is recorded in its Outcome and does not stop the
// others.
func Run(ctx context.Context, template []string, processes []model.Process, runner Runner) []Outcome {
	outcomes := make([]Outcome, 0, len(processes))
	for _, p := range processes {
		argv := BuildArgv(template, p.PID)
		code, err := runner.Run(ctx, argv)
		outcomes = append(outcomes, Outcome{PID: p.PID, Argv: argv, ExitCode: code, Err: err})
	}
	return outcomes
}
