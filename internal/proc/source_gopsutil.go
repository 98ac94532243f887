package proc

import (
	"context"
	"fmt"
	"net/netip"

	gnet "github.com/shirou/gopsutil/v4/net"

	"github.com/pranshuparmar/portproc/pkg/model"
)

// gopsutilSource reads sockets through gopsutil. It is the auto choice on
// darwin and freebsd. HOST_PROC in the environment (or a common.EnvMap on
// the context) points it at another procfs mount.
type gopsutilSource struct{}

func (gopsutilSource) sockets(ctx context.Context, t table) ([]model.Socket, error) {
	conns, err := gnet.ConnectionsWithoutUidsWithContext(ctx, t.kind)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return mergeConnections(t.proto, conns), nil
}

type endpoint struct {
	addr  netip.Addr
	port  uint16
	state string
}

// mergeConnections folds gopsutil's per-(pid, fd) entries into one socket
// per local endpoint, collecting every reporting pid as an owner. On darwin
// and freebsd a socket inherited across fork is listed once per holder.
func mergeConnections(proto model.Protocol, conns []gnet.ConnectionStat) []model.Socket {
	var out []model.Socket
	index := make(map[endpoint]int)
	for _, c := range conns {
		addr, err := netip.ParseAddr(c.Laddr.IP)
		if err != nil {
			addr = netip.Addr{}
		}
		key := endpoint{addr: addr, port: uint16(c.Laddr.Port), state: c.Status}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, model.Socket{
				Address:  addr,
				Port:     key.port,
				Protocol: proto,
				State:    c.Status,
			})
		}
		out[i].AddPID(c.Pid)
	}
	return out
}
