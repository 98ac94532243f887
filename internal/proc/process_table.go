package proc

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// SystemProcessTable returns the live process table of the host.
func SystemProcessTable() ProcessTable {
	return gopsutilTable{}
}

type gopsutilTable struct{}

func (gopsutilTable) Lookup(ctx context.Context, pid int32) (RawProcess, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return RawProcess{}, fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
		}
		return RawProcess{}, fmt.Errorf("pid %d: %w", pid, err)
	}

	name, err := p.NameWithContext(ctx)
	if err != nil {
		return RawProcess{}, gone(ctx, pid, fmt.Errorf("pid %d name: %w", pid, err))
	}

	uids, err := p.UidsWithContext(ctx)
	if err != nil {
		return RawProcess{}, gone(ctx, pid, fmt.Errorf("pid %d uids: %w", pid, err))
	}
	if len(uids) == 0 {
		return RawProcess{}, fmt.Errorf("pid %d: no uid reported", pid)
	}

	// argv is often unreadable for other users' processes; an empty command
	// is acceptable.
	cmd, err := p.CmdlineSliceWithContext(ctx)
	if err != nil {
		cmd = nil
	}

	return RawProcess{
		PID:     pid,
		Name:    name,
		Command: cmd,
		UID:     uids[0], // real uid
	}, nil
}

// gone turns a read failure into ErrProcessNotFound when the process has
// exited in the meantime.
func gone(ctx context.Context, pid int32, err error) error {
	if exists, perr := process.PidExistsWithContext(ctx, pid); perr == nil && !exists {
		return fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
	}
	return err
}
