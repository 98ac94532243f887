package app

import (
	"fmt"
	"strings"

	"github.com/pranshuparmar/portproc/internal/ports"
	procpkg "github.com/pranshuparmar/portproc/internal/proc"
)

// Options holds the parsed command line.
type Options struct {
	Port    uint16
	HasPort bool

	All   bool
	Force bool

	IPv4 bool
	IPv6 bool
	TCP  bool
	UDP  bool
	Mine bool

	AllOwners bool
	Backend   string
	ProcRoot  string

	JSON        bool
	Interactive bool
	Color       string
	Verbose     bool

	// Command is everything after "--".
	Command []string
}

// Validate reports combinations of flags that make no sense together.
func (o Options) Validate() error {
	hasCommand := len(o.Command) > 0
	switch {
	case o.All && hasCommand:
		return usageErrorf("--all cannot be used together with a command")
	case o.Force && !hasCommand:
		return usageErrorf("--force requires a command after --")
	case o.JSON && hasCommand:
		return usageErrorf("--json cannot be used together with a command")
	case o.JSON && o.Interactive:
		return usageErrorf("--json and --interactive are mutually exclusive")
	}

	switch strings.ToLower(o.Color) {
	case "", "auto", "always", "never":
	default:
		return usageErrorf("invalid --color %q (auto|always|never)", o.Color)
	}

	if _, err := procpkg.ParseBackend(o.Backend); err != nil {
		return usageErrorf("%v", err)
	}
	return nil
}

// EnumerateConfig turns the flags into an enumeration request. With no
// family (or no protocol) flag both are selected.
func (o Options) EnumerateConfig() procpkg.EnumerateConfig {
	cfg := procpkg.EnumerateConfig{
		IPv4:     o.IPv4,
		IPv6:     o.IPv6,
		TCP:      o.TCP,
		UDP:      o.UDP,
		Mine:     o.Mine,
		ProcRoot: o.ProcRoot,
	}
	if !cfg.IPv4 && !cfg.IPv6 {
		cfg.IPv4, cfg.IPv6 = true, true
	}
	if !cfg.TCP && !cfg.UDP {
		cfg.TCP, cfg.UDP = true, true
	}
	cfg.Backend, _ = procpkg.ParseBackend(o.Backend)
	return cfg
}

func (o Options) DedupeMode() ports.DedupeMode {
	if o.AllOwners {
		return ports.AllOwners
	}
	return ports.FirstOwner
}

// resolveColor decides whether to style output. auto follows stdout being a
// terminal and NO_COLOR (https://no-color.org) being unset.
func resolveColor(mode string, isTTY bool, getenv func(string) string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTTY && getenv("NO_COLOR") == ""
	}
}

func (o Options) String() string {
	return fmt.Sprintf("port=%d(%v) all=%v force=%v json=%v interactive=%v command=%q",
		o.Port, o.HasPort, o.All, o.Force, o.JSON, o.Interactive, o.Command)
}
