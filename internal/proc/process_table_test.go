//go:build linux || darwin || freebsd

package proc

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
)

func TestSystemProcessTableSelf(t *testing.T) {
	raw, err := SystemProcessTable().Lookup(context.Background(), int32(os.Getpid()))
	if err != nil {
		t.Fatalf("Lookup(self): %v", err)
	}
	if raw.PID != int32(os.Getpid()) || raw.Name == "" {
		t.Fatalf("unexpected record %+v", raw)
	}
	if raw.UID != CurrentUID() {
		t.Fatalf("uid = %d, want %d", raw.UID, CurrentUID())
	}
	if len(raw.Command) == 0 {
		t.Fatalf("expected our own command line to be readable, got %+v", raw)
	}
}

func TestSystemProcessTableExitedPid(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot start true: %v", err)
	}

	_, err := SystemProcessTable().Lookup(context.Background(), int32(cmd.Process.Pid))
	if !errors.Is(err, ErrProcessNotFound) {
		t.Fatalf("expected ErrProcessNotFound for an exited pid, got %v", err)
	}
}
