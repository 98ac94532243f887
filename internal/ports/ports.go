// Package ports joins enumerated sockets with their owning processes and
// narrows the result down to the processes a command should act on.
package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/pranshuparmar/portproc/pkg/model"
)

// ErrNoMatchingPort is returned when a port filter leaves nothing to act on.
var ErrNoMatchingPort = errors.New("no processes found listening on that port")

// ErrOwnerUnknown is returned when a port is open but none of its owners
// could be read, usually because they belong to another user.
var ErrOwnerUnknown = errors.New("the owner of that port could not be determined")

// Resolver turns socket owner pids into process records.
type Resolver interface {
	Resolve(ctx context.Context, pids []int32) ([]model.Process, []model.Warning)
}

// Aggregate resolves the owners of every socket. Sockets keep their order;
// owners that cannot be resolved are dropped and reported once each. A socket
// with no visible owner at all gets an unreadable warning of its own.
func Aggregate(ctx context.Context, sockets []model.Socket, r Resolver) ([]model.PortInfo, []model.Warning) {
	infos := make([]model.PortInfo, 0, len(sockets))
	var warnings []model.Warning
	for _, s := range sockets {
		if len(s.PIDs) == 0 {
			infos = append(infos, model.PortInfo{Socket: s})
			warnings = append(warnings, model.Warning{
				Kind:   model.WarnUnreadable,
				Detail: fmt.Sprintf("port %d/%s: owner unknown", s.Port, s.Protocol),
			})
			continue
		}
		procs, w := r.Resolve(ctx, s.PIDs)
		infos = append(infos, model.PortInfo{Socket: s, Processes: procs})
		warnings = append(warnings, w...)
	}
	warnings = lo.UniqBy(warnings, func(w model.Warning) string {
		return fmt.Sprintf("%s/%d/%s", w.Kind, w.PID, w.Detail)
	})
	return infos, warnings
}

// SelectByPort keeps the entries whose local port is port.
func SelectByPort(infos []model.PortInfo, port uint16) []model.PortInfo {
	return lo.Filter(infos, func(p model.PortInfo, _ int) bool {
		return p.Socket.Port == port
	})
}

// FilterMine keeps the entries with at least one process owned by the
// invoking user.
func FilterMine(infos []model.PortInfo) []model.PortInfo {
	return lo.Filter(infos, func(p model.PortInfo, _ int) bool {
		return lo.SomeBy(p.Processes, func(proc model.Process) bool {
			return proc.IsCurrentUser
		})
	})
}

type DedupeMode int

const (
	// FirstOwner takes only the first resolved process of each socket.
	FirstOwner DedupeMode = iota
	// AllOwners takes every resolved process of each socket.
	AllOwners
)

// Dedupe flattens infos into distinct processes keyed by pid, in the order
// they are first seen.
func Dedupe(infos []model.PortInfo, mode DedupeMode) []model.Process {
	procs := lo.FlatMap(infos, func(p model.PortInfo, _ int) []model.Process {
		if mode == FirstOwner && len(p.Processes) > 1 {
			return p.Processes[:1]
		}
		return p.Processes
	})
	return lo.UniqBy(procs, func(p model.Process) int32 { return p.PID })
}
