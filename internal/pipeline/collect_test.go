package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	procpkg "github.com/pranshuparmar/portproc/internal/proc"
	"github.com/pranshuparmar/portproc/pkg/model"
)

type staticResolver map[int32]model.Process

func (s staticResolver) Resolve(_ context.Context, pids []int32) ([]model.Process, []model.Warning) {
	var (
		out      []model.Process
		warnings []model.Warning
	)
	for _, pid := range pids {
		if p, ok := s[pid]; ok {
			out = append(out, p)
			continue
		}
		warnings = append(warnings, model.Warning{Kind: model.WarnProcessGone, PID: pid, Detail: "process not found"})
	}
	return out, warnings
}

func newTestCollector(sockets []model.Socket, warnings []model.Warning, seen *procpkg.EnumerateConfig) *Collector {
	return &Collector{
		Enumerate: func(_ context.Context, cfg procpkg.EnumerateConfig) procpkg.EnumerateResult {
			*seen = cfg
			return procpkg.EnumerateResult{Sockets: sockets, Warnings: warnings}
		},
		Resolver: staticResolver{
			100: {PID: 100, Name: "nginx", Command: []string{"nginx"}},
			200: {PID: 200, Name: "node", Command: []string{"node", "server.js"}, IsCurrentUser: true},
		},
		Log: log.New(io.Discard),
	}
}

func TestCollect(t *testing.T) {
	sockets := []model.Socket{
		{Port: 5000, Protocol: model.TCP, State: model.StateListen, PIDs: []int32{100}},
		{Port: 3000, Protocol: model.TCP, State: model.StateListen, PIDs: []int32{200, 300}},
	}
	enumWarn := []model.Warning{{Kind: model.WarnEnumeration, Detail: "udp6: permission denied"}}

	var seen procpkg.EnumerateConfig
	c := newTestCollector(sockets, enumWarn, &seen)
	cfg := procpkg.EnumerateConfig{IPv4: true, TCP: true, Backend: procpkg.BackendProcfs}

	snap := c.Collect(context.Background(), cfg)
	if seen != cfg {
		t.Fatalf("enumerate got %+v, want %+v", seen, cfg)
	}
	if len(snap.Ports) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(snap.Ports))
	}
	if len(snap.Warnings) != 2 {
		t.Fatalf("expected enumeration and resolution warnings, got %v", snap.Warnings)
	}
	if snap.Warnings[0].Kind != model.WarnEnumeration || snap.Warnings[1].PID != 300 {
		t.Fatalf("unexpected warnings: %v", snap.Warnings)
	}
}

func TestCollectMine(t *testing.T) {
	sockets := []model.Socket{
		{Port: 5000, Protocol: model.TCP, State: model.StateListen, PIDs: []int32{100}},
		{Port: 3000, Protocol: model.TCP, State: model.StateListen, PIDs: []int32{200}},
	}
	var seen procpkg.EnumerateConfig
	c := newTestCollector(sockets, nil, &seen)

	snap := c.Collect(context.Background(), procpkg.EnumerateConfig{IPv4: true, TCP: true, Mine: true})
	if len(snap.Ports) != 1 || snap.Ports[0].Socket.Port != 3000 {
		t.Fatalf("expected only the current user's port, got %+v", snap.Ports)
	}
}
