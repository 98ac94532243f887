package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/pranshuparmar/portproc/internal/ports"
	procpkg "github.com/pranshuparmar/portproc/internal/proc"
	"github.com/pranshuparmar/portproc/pkg/model"
)

// EnumerateFunc lists the open sockets selected by cfg.
type EnumerateFunc func(ctx context.Context, cfg procpkg.EnumerateConfig) procpkg.EnumerateResult

// Collector builds a snapshot of open ports and the processes owning them.
type Collector struct {
	Enumerate EnumerateFunc
	Resolver  ports.Resolver
	Log       *log.Logger
}

// NewCollector wires the system socket tables and process resolver.
func NewCollector(resolver ports.Resolver, logger *log.Logger) *Collector {
	return &Collector{
		Enumerate: procpkg.Enumerate,
		Resolver:  resolver,
		Log:       logger,
	}
}

func (c *Collector) Collect(ctx context.Context, cfg procpkg.EnumerateConfig) model.Snapshot {
	logger := c.Log
	if logger == nil {
		logger = log.Default()
	}

	res := c.Enumerate(ctx, cfg)
	logger.Debug("enumerated sockets", "count", len(res.Sockets), "backend", cfg.Backend)

	infos, warnings := ports.Aggregate(ctx, res.Sockets, c.Resolver)
	if cfg.Mine {
		before := len(infos)
		infos = ports.FilterMine(infos)
		logger.Debug("kept ports owned by current user", "kept", len(infos), "total", before)
	}

	return model.Snapshot{
		Ports:    infos,
		Warnings: append(res.Warnings, warnings...),
	}
}
