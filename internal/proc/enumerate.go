package proc

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/common"

	"github.com/pranshuparmar/portproc/pkg/model"
)

type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendGopsutil Backend = "gopsutil"
	BackendProcfs   Backend = "procfs"
)

// DefaultProcRoot is where the procfs backend looks for kernel tables.
const DefaultProcRoot = "/proc"

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendGopsutil, BackendProcfs:
		return b, nil
	default:
		return "", fmt.Errorf("unknown backend %q (auto|gopsutil|procfs)", s)
	}
}

// WithProcRoot points gopsutil calls made with the returned context at
// another procfs mount, like HOST_PROC does for the whole process.
func WithProcRoot(ctx context.Context, root string) context.Context {
	if root == "" {
		return ctx
	}
	return context.WithValue(ctx, common.EnvKey, common.EnvMap{common.HostProcEnvKey: root})
}

// EnumerateConfig selects which socket tables are read.
// Mine is honoured by the pipeline once ownership is resolved.
type EnumerateConfig struct {
	IPv4 bool
	IPv6 bool
	TCP  bool
	UDP  bool
	Mine bool

	Backend  Backend
	ProcRoot string
}

// table is one kernel socket table: a protocol in one address family.
type table struct {
	kind  string // gopsutil connection kind
	file  string // file name under <proc>/net
	proto model.Protocol
	ipv6  bool
}

var allTables = []table{
	{kind: "tcp4", file: "tcp", proto: model.TCP},
	{kind: "tcp6", file: "tcp6", proto: model.TCP, ipv6: true},
	{kind: "udp4", file: "udp", proto: model.UDP},
	{kind: "udp6", file: "udp6", proto: model.UDP, ipv6: true},
}

func (c EnumerateConfig) tables() []table {
	var out []table
	for _, t := range allTables {
		if t.ipv6 && !c.IPv6 || !t.ipv6 && !c.IPv4 {
			continue
		}
		if t.proto == model.TCP && !c.TCP || t.proto == model.UDP && !c.UDP {
			continue
		}
		out = append(out, t)
	}
	return out
}

type EnumerateResult struct {
	Sockets  []model.Socket
	Warnings []model.Warning
}

type socketSource interface {
	sockets(ctx context.Context, t table) ([]model.Socket, error)
}

// newSource picks the socket source for goos. On linux auto means procfs:
// gopsutil folds sockets sharing a local endpoint into one row with a single
// pid there, which hides SO_REUSEPORT siblings and shared UDP binds.
func newSource(cfg EnumerateConfig, goos string) (socketSource, error) {
	backend := cfg.Backend
	if backend == "" || backend == BackendAuto {
		backend = BackendGopsutil
		if goos == "linux" {
			backend = BackendProcfs
		}
	}

	switch backend {
	case BackendGopsutil:
		return gopsutilSource{}, nil
	case BackendProcfs:
		if goos != "linux" {
			return nil, fmt.Errorf("procfs backend is only available on linux, not %s", goos)
		}
		root := cfg.ProcRoot
		if root == "" {
			root = DefaultProcRoot
		}
		return newProcfsSource(root), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Enumerate reads the requested socket tables and keeps open ports only:
// listening TCP sockets and every UDP socket. A table that cannot be read
// does not fail the call; it is reported as a warning next to whatever the
// other tables returned.
func Enumerate(ctx context.Context, cfg EnumerateConfig) EnumerateResult {
	src, err := newSource(cfg, runtime.GOOS)
	if err != nil {
		return EnumerateResult{Warnings: []model.Warning{{Kind: model.WarnEnumeration, Detail: err.Error()}}}
	}
	return enumerate(ctx, src, cfg.tables())
}

func enumerate(ctx context.Context, src socketSource, tables []table) EnumerateResult {
	var res EnumerateResult
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			res.Warnings = append(res.Warnings, model.Warning{Kind: model.WarnEnumeration, Detail: err.Error()})
			break
		}
		sockets, err := src.sockets(ctx, t)
		if err != nil {
			res.Warnings = append(res.Warnings, model.Warning{
				Kind:   model.WarnEnumeration,
				Detail: fmt.Sprintf("%s: %v", t.kind, err),
			})
			continue
		}
		for _, s := range sockets {
			if s.Open() {
				res.Sockets = append(res.Sockets, s)
			}
		}
	}
	return res
}
