package proc

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pranshuparmar/portproc/pkg/model"
)

// tcpStates maps the st column of /proc/net/tcp{,6} (include/net/tcp_states.h).
var tcpStates = map[string]string{
	"01": "ESTABLISHED",
	"02": "SYN_SENT",
	"03": "SYN_RECV",
	"04": "FIN_WAIT1",
	"05": "FIN_WAIT2",
	"06": "TIME_WAIT",
	"07": "CLOSE",
	"08": "CLOSE_WAIT",
	"09": "LAST_ACK",
	"0A": model.StateListen,
	"0B": "CLOSING",
}

// procfsSource reads /proc/net/{tcp,tcp6,udp,udp6} and attributes each
// socket inode to the processes holding it through /proc/<pid>/fd.
type procfsSource struct {
	root   string
	owners map[string][]int32 // inode -> pids, built on first use
}

func newProcfsSource(root string) *procfsSource {
	return &procfsSource{root: root}
}

func (s *procfsSource) sockets(ctx context.Context, t table) ([]model.Socket, error) {
	if s.owners == nil {
		owners, err := socketOwners(ctx, s.root)
		if err != nil {
			return nil, err
		}
		s.owners = owners
	}

	path := filepath.Join(s.root, "net", t.file)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sockets, err := parseSocketTable(f, t, s.owners)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sockets, nil
}

func parseSocketTable(r io.Reader, t table, owners map[string][]int32) ([]model.Socket, error) {
	var sockets []model.Socket

	scanner := bufio.NewScanner(r)
	scanner.Scan() // skip header

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}

		local := fields[1]
		stateHex := strings.ToUpper(fields[3])
		inode := fields[9]

		state, ok := tcpStates[stateHex]
		if !ok {
			state = "UNKNOWN"
		}

		addr, port, err := parseAddr(local, t.ipv6)
		if err != nil {
			continue
		}

		s := model.Socket{
			Address:  addr,
			Port:     port,
			Protocol: t.proto,
			State:    state,
		}
		for _, pid := range owners[inode] {
			s.AddPID(pid)
		}
		sockets = append(sockets, s)
	}
	return sockets, scanner.Err()
}

// parseAddr decodes the kernel's hex "ADDR:PORT" notation. Addresses are
// stored as 32-bit words in host (little-endian) order, so each 4-byte group
// is reversed.
func parseAddr(raw string, ipv6 bool) (netip.Addr, uint16, error) {
	ipHex, portHex, ok := strings.Cut(raw, ":")
	if !ok {
		return netip.Addr{}, 0, fmt.Errorf("malformed address %q", raw)
	}
	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return netip.Addr{}, 0, fmt.Errorf("malformed port %q: %w", portHex, err)
	}

	b, err := hex.DecodeString(ipHex)
	if err != nil {
		return netip.Addr{}, 0, fmt.Errorf("malformed address %q: %w", ipHex, err)
	}

	want := 4
	if ipv6 {
		want = 16
	}
	if len(b) != want {
		return netip.Addr{}, 0, fmt.Errorf("address %q has %d bytes, want %d", ipHex, len(b), want)
	}
	for i := 0; i < len(b); i += 4 {
		b[i], b[i+1], b[i+2], b[i+3] = b[i+3], b[i+2], b[i+1], b[i]
	}

	if ipv6 {
		return netip.AddrFrom16([16]byte(b)), uint16(port), nil
	}
	return netip.AddrFrom4([4]byte(b)), uint16(port), nil
}

// socketOwners walks <root>/<pid>/fd and returns the pids holding each
// socket inode. Processes whose fd directory cannot be read (exited, or
// owned by someone else) are skipped.
func socketOwners(ctx context.Context, root string) (map[string][]int32, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	owners := make(map[string][]int32)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.ParseInt(entry.Name(), 10, 32)
		if err != nil {
			continue
		}

		fdPath := filepath.Join(root, entry.Name(), "fd")
		fds, err := os.ReadDir(fdPath)
		if err != nil {
			continue
		}

		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdPath, fd.Name()))
			if err != nil {
				continue
			}
			if !strings.HasPrefix(link, "socket:[") {
				continue
			}
			inode := strings.TrimSuffix(strings.TrimPrefix(link, "socket:["), "]")
			pids := owners[inode]
			if len(pids) > 0 && pids[len(pids)-1] == int32(pid) {
				continue
			}
			owners[inode] = append(pids, int32(pid))
		}
	}
	return owners, nil
}
