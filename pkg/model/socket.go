package model

import (
	"net/netip"
	"slices"
)

type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// StateListen is the kernel state name of a TCP socket accepting connections.
const StateListen = "LISTEN"

// Socket is the local endpoint of one kernel socket and the processes holding it.
type Socket struct {
	Address  netip.Addr `json:"address"`
	Port     uint16     `json:"port"`
	Protocol Protocol   `json:"protocol"`
	State    string     `json:"state,omitempty"` // LISTEN, ESTABLISHED, ... (UDP: NONE or CLOSE)
	PIDs     []int32    `json:"pids"`
}

func (s Socket) HasPID(pid int32) bool {
	return slices.Contains(s.PIDs, pid)
}

// AddPID records pid as an owner unless it is unknown (0) or already present.
func (s *Socket) AddPID(pid int32) {
	if pid <= 0 || s.HasPID(pid) {
		return
	}
	s.PIDs = append(s.PIDs, pid)
}

// Open reports whether the socket counts as an open port: a listening TCP
// socket or any UDP endpoint.
func (s Socket) Open() bool {
	switch s.Protocol {
	case UDP:
		return true
	case TCP:
		return s.State == StateListen
	}
	return false
}
