package proc

import (
	"context"
	"errors"
	"fmt"

	"github.com/pranshuparmar/portproc/pkg/model"
)

var (
	// ErrProcessNotFound means the pid was not in the process table at lookup
	// time, usually because the process exited after its socket was listed.
	ErrProcessNotFound = errors.New("process not found")
	// ErrUserNotFound means the owning uid has no entry in the user database.
	ErrUserNotFound = errors.New("user not found")
)

// RawProcess is what the process table knows about a pid before its owner
// is resolved.
type RawProcess struct {
	PID     int32
	Name    string
	Command []string
	UID     uint32
}

// ProcessTable looks up live processes. Every call reads the current state
// of the system.
type ProcessTable interface {
	Lookup(ctx context.Context, pid int32) (RawProcess, error)
}

type UserDatabase interface {
	LookupUID(uid uint32) (model.Owner, error)
}

// Resolver turns pids into process records.
type Resolver struct {
	table      ProcessTable
	users      UserDatabase
	currentUID uint32
}

// NewResolver returns a resolver comparing owners against currentUID, the
// real uid of the invoking process captured once at startup.
func NewResolver(table ProcessTable, users UserDatabase, currentUID uint32) *Resolver {
	return &Resolver{table: table, users: users, currentUID: currentUID}
}

// Resolve returns one record per pid, in input order. Pids that cannot be
// resolved are left out and described by the returned warnings.
func (r *Resolver) Resolve(ctx context.Context, pids []int32) ([]model.Process, []model.Warning) {
	var (
		processes []model.Process
		warnings  []model.Warning
	)
	for _, pid := range pids {
		p, err := r.resolve(ctx, pid)
		if err != nil {
			warnings = append(warnings, model.Warning{Kind: warningKind(err), PID: pid, Detail: err.Error()})
			continue
		}
		processes = append(processes, p)
	}
	return processes, warnings
}

func (r *Resolver) resolve(ctx context.Context, pid int32) (model.Process, error) {
	raw, err := r.table.Lookup(ctx, pid)
	if err != nil {
		return model.Process{}, err
	}
	owner, err := r.users.LookupUID(raw.UID)
	if err != nil {
		return model.Process{}, fmt.Errorf("owner of pid %d: %w", pid, err)
	}
	return model.Process{
		PID:           raw.PID,
		Name:          raw.Name,
		Command:       raw.Command,
		Owner:         owner,
		IsCurrentUser: owner.UID == r.currentUID,
	}, nil
}

func warningKind(err error) model.WarningKind {
	switch {
	case errors.Is(err, ErrProcessNotFound):
		return model.WarnProcessGone
	case errors.Is(err, ErrUserNotFound):
		return model.WarnUserUnknown
	default:
		return model.WarnUnreadable
	}
}
