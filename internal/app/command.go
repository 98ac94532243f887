package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/pranshuparmar/portproc/internal/command"
	"github.com/pranshuparmar/portproc/pkg/model"
)

// runCommand runs the command once per process. Individual failures are
// reported on stderr but do not fail the run.
func runCommand(ctx context.Context, o Options, e env, procs []model.Process, logger *log.Logger) error {
	if err := command.Gate(procs, o.Force); err != nil {
		if errors.Is(err, command.ErrBulkCommandBlocked) {
			fmt.Fprintln(e.stderr, blockedMessage)
			return &exitError{code: 1, err: err}
		}
		return err
	}
	if len(procs) == 0 {
		logger.Debug("no processes to run the command on")
		return nil
	}

	for _, out := range command.Run(ctx, o.Command, procs, e.runner) {
		switch {
		case out.Err != nil:
			logger.Error("could not run command", "pid", out.PID, "command", command.Describe(o.Command, out.PID), "err", out.Err)
		case out.ExitCode != 0:
			fmt.Fprintf(e.stderr, "%s: Failed with exit code %d\n", command.Describe(o.Command, out.PID), out.ExitCode)
		default:
			logger.Debug("command finished", "pid", out.PID)
		}
	}
	return nil
}
