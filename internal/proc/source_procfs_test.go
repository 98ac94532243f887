package proc

import (
	"context"
	"net/netip"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/pranshuparmar/portproc/pkg/model"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		ipv6     bool
		wantAddr string
		wantPort uint16
		wantErr  bool
	}{
		{"loopback v4", "0100007F:1388", false, "127.0.0.1", 5000, false},
		{"wildcard v4", "00000000:0050", false, "0.0.0.0", 80, false},
		{"resolver stub", "3500007F:0035", false, "127.0.0.53", 53, false},
		{"loopback v6", "00000000000000000000000001000000:1F90", true, "::1", 8080, false},
		{"wildcard v6", "00000000000000000000000000000000:0016", true, "::", 22, false},
		{"v4 mapped", "0000000000000000FFFF00000100007F:0050", true, "::ffff:127.0.0.1", 80, false},
		{"lowercase hex", "0100007f:1f90", false, "127.0.0.1", 8080, false},
		{"missing port", "0100007F", false, "", 0, true},
		{"bad hex", "ZZ00007F:0050", false, "", 0, true},
		{"v6 length on v4 table", "00000000000000000000000001000000:1F90", false, "", 0, true},
		{"port overflow", "0100007F:10000", false, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, port, err := parseAddr(tt.raw, tt.ipv6)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseAddr(%q) expected error, got %s:%d", tt.raw, addr, port)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAddr(%q) unexpected error: %v", tt.raw, err)
			}
			if addr != netip.MustParseAddr(tt.wantAddr) || port != tt.wantPort {
				t.Fatalf("parseAddr(%q) = %s:%d, want %s:%d", tt.raw, addr, port, tt.wantAddr, tt.wantPort)
			}
		})
	}
}

func TestParseSocketTableFixture(t *testing.T) {
	f, err := os.Open("testdata/tcp.txt")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	owners := map[string][]int32{
		"12345": {100},
		"23456": {1, 250},
	}
	sockets, err := parseSocketTable(f, allTables[0], owners)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sockets) != 4 {
		t.Fatalf("expected 4 sockets, got %d: %+v", len(sockets), sockets)
	}

	first := sockets[0]
	if first.Address != netip.MustParseAddr("127.0.0.1") || first.Port != 5000 || first.State != model.StateListen {
		t.Fatalf("unexpected first socket: %+v", first)
	}
	if !slices.Equal(first.PIDs, []int32{100}) {
		t.Fatalf("expected owner 100, got %v", first.PIDs)
	}
	if !slices.Equal(sockets[1].PIDs, []int32{1, 250}) {
		t.Fatalf("expected shared owners [1 250], got %v", sockets[1].PIDs)
	}
	if sockets[2].State != "ESTABLISHED" || len(sockets[2].PIDs) != 0 {
		t.Fatalf("unexpected established socket: %+v", sockets[2])
	}
	if sockets[3].State != "TIME_WAIT" {
		t.Fatalf("unexpected time-wait socket: %+v", sockets[3])
	}
	for _, s := range sockets {
		if s.Protocol != model.TCP {
			t.Fatalf("expected TCP protocol, got %s", s.Protocol)
		}
	}
}

func TestSocketOwners(t *testing.T) {
	root := t.TempDir()
	links := map[string]string{
		"100/fd/3": "socket:[12345]",
		"100/fd/4": "socket:[12345]",
		"200/fd/7": "socket:[12345]",
		"200/fd/8": "socket:[67890]",
		"300/fd/0": "/dev/null",
		"self/fd/1": "socket:[99999]",
	}
	for rel, target := range links {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(target, path); err != nil {
			t.Fatal(err)
		}
	}
	// a pid directory without a readable fd directory is skipped
	if err := os.MkdirAll(filepath.Join(root, "400"), 0o755); err != nil {
		t.Fatal(err)
	}

	owners, err := socketOwners(context.Background(), root)
	if err != nil {
		t.Fatalf("socketOwners: %v", err)
	}
	if !slices.Equal(owners["12345"], []int32{100, 200}) {
		t.Fatalf("expected inode 12345 owned by [100 200], got %v", owners["12345"])
	}
	if !slices.Equal(owners["67890"], []int32{200}) {
		t.Fatalf("expected inode 67890 owned by [200], got %v", owners["67890"])
	}
	if _, ok := owners["99999"]; ok {
		t.Fatalf("non-numeric directories must be ignored")
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 inodes, got %v", owners)
	}
}

func TestProcfsSourceEnumerate(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "net"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"tcp", "tcp6", "udp"} {
		data, err := os.ReadFile(filepath.Join("testdata", name+".txt"))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(root, "net", name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for rel, target := range map[string]string{
		"100/fd/3": "socket:[12345]",
		"42/fd/5":  "socket:[67890]",
	} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(target, path); err != nil {
			t.Fatal(err)
		}
	}

	cfg := EnumerateConfig{IPv4: true, IPv6: true, TCP: true, UDP: true}
	res := enumerate(context.Background(), newProcfsSource(root), cfg.tables())

	// udp6 is missing from the fake root
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != model.WarnEnumeration {
		t.Fatalf("expected one enumeration warning, got %v", res.Warnings)
	}

	// tcp: 2 listeners, tcp6: 2 listeners, udp: 2 endpoints
	if len(res.Sockets) != 6 {
		t.Fatalf("expected 6 open sockets, got %d: %+v", len(res.Sockets), res.Sockets)
	}
	for _, s := range res.Sockets {
		if s.Protocol == model.TCP && s.State != model.StateListen {
			t.Fatalf("non-listening TCP socket leaked: %+v", s)
		}
	}
	if !slices.Equal(res.Sockets[0].PIDs, []int32{100}) {
		t.Fatalf("expected port 5000 owned by 100, got %+v", res.Sockets[0])
	}
	udp := res.Sockets[4]
	if udp.Protocol != model.UDP || udp.Port != 53 || !slices.Equal(udp.PIDs, []int32{42}) {
		t.Fatalf("unexpected udp socket: %+v", udp)
	}
}

// fakeProcRoot lays out a /proc look-alike with the given net tables (copied
// from testdata) and fd symlinks.
func fakeProcRoot(t *testing.T, tables map[string]string, links map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "net"), 0o755); err != nil {
		t.Fatal(err)
	}
	for name, fixture := range tables {
		data, err := os.ReadFile(filepath.Join("testdata", fixture))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(root, "net", name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for rel, target := range links {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(target, path); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestProcfsSourceSharedEndpoint(t *testing.T) {
	// two sockets bound to 0.0.0.0:5353, one per process
	root := fakeProcRoot(t,
		map[string]string{"udp": "udp_shared.txt"},
		map[string]string{
			"10/fd/4": "socket:[78901]",
			"20/fd/4": "socket:[78902]",
		})

	cfg := EnumerateConfig{IPv4: true, UDP: true}
	res := enumerate(context.Background(), newProcfsSource(root), cfg.tables())
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	if len(res.Sockets) != 2 {
		t.Fatalf("expected both sockets on the shared endpoint, got %+v", res.Sockets)
	}
	for i, want := range []int32{10, 20} {
		s := res.Sockets[i]
		if s.Port != 5353 || s.Address != netip.IPv4Unspecified() || !slices.Equal(s.PIDs, []int32{want}) {
			t.Fatalf("socket %d: expected 0.0.0.0:5353 owned by %d, got %+v", i, want, s)
		}
	}
}

func TestEnumerateAutoUsesProcfsOnLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("procfs is linux only")
	}
	root := fakeProcRoot(t,
		map[string]string{"udp": "udp_shared.txt"},
		map[string]string{
			"10/fd/4": "socket:[78901]",
			"20/fd/4": "socket:[78902]",
		})

	res := Enumerate(context.Background(), EnumerateConfig{IPv4: true, UDP: true, Backend: BackendAuto, ProcRoot: root})
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	var owners []int32
	for _, s := range res.Sockets {
		owners = append(owners, s.PIDs...)
	}
	if !slices.Equal(owners, []int32{10, 20}) {
		t.Fatalf("expected the fake root to be read with owners [10 20], got %+v", res.Sockets)
	}
}
