package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/pranshuparmar/portproc/internal/command"
	"github.com/pranshuparmar/portproc/internal/output"
	"github.com/pranshuparmar/portproc/internal/pipeline"
	"github.com/pranshuparmar/portproc/internal/ports"
	procpkg "github.com/pranshuparmar/portproc/internal/proc"
	"github.com/pranshuparmar/portproc/internal/tui"
	"github.com/pranshuparmar/portproc/pkg/model"
)

const (
	noMatchMessage = "No processes found listening on that port."
	blockedMessage = "This would run the provided command on multiple processes. " +
		"If you are absolutely sure you want to do this, use the --force option."
	nothingToPickMessage = "No processes found."
	ownerUnknownMessage  = "The owner of that port could not be determined (try running as root)."
)

func execute(ctx context.Context, o Options, e env) error {
	logger := newLogger(e.stderr, o.Verbose)
	logger.Debug("starting", "version", versionString(), "options", o)

	cfg := o.EnumerateConfig()
	ctx = procpkg.WithProcRoot(ctx, cfg.ProcRoot)

	collector := &pipeline.Collector{Enumerate: e.enumerate, Resolver: e.resolver, Log: logger}
	snap := collector.Collect(ctx, cfg)
	logWarnings(logger, snap.Warnings)

	infos := snap.Ports
	if o.HasPort {
		infos = ports.SelectByPort(infos, o.Port)
		if len(infos) == 0 {
			fmt.Fprintln(e.stderr, noMatchMessage)
			return &exitError{code: 1, err: fmt.Errorf("port %d: %w", o.Port, ports.ErrNoMatchingPort)}
		}
	}
	procs := ports.Dedupe(infos, o.DedupeMode())
	logger.Debug("selected processes", "ports", len(infos), "processes", len(procs))

	if o.JSON {
		out, err := output.ToJSON(output.JSONReport{Ports: infos, Processes: procs, Warnings: snap.Warnings})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(e.stdout, out)
		return err
	}

	if o.HasPort && len(procs) == 0 {
		fmt.Fprintln(e.stderr, ownerUnknownMessage)
		return &exitError{code: 1, err: fmt.Errorf("port %d: %w", o.Port, ports.ErrOwnerUnknown)}
	}

	if o.Interactive {
		title := ""
		if len(o.Command) > 0 {
			title = command.Format(o.Command)
		}
		chosen, err := e.pick(ctx, infos, title)
		switch {
		case errors.Is(err, tui.ErrNothingToPick):
			fmt.Fprintln(e.stderr, nothingToPickMessage)
			return &exitError{code: 1, err: err}
		case errors.Is(err, tui.ErrCancelled):
			return &exitError{code: 1, err: err}
		case err != nil:
			return err
		}
		logger.Debug("picked process", "pid", chosen.PID, "name", chosen.Name)
		if len(o.Command) == 0 {
			_, err := fmt.Fprintln(e.stdout, chosen.PID)
			return err
		}
		procs = []model.Process{chosen}
	}

	if len(o.Command) > 0 {
		return runCommand(ctx, o, e, procs, logger)
	}

	return output.RenderList(e.stdout, procs, output.ListOptions{
		Table: o.All || e.isTTY,
		Color: resolveColor(o.Color, e.isTTY, e.getenv),
		Width: e.width,
	})
}
