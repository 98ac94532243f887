package model

import "fmt"

// PortInfo is one socket together with the processes resolved from its owners.
type PortInfo struct {
	Socket    Socket    `json:"socket"`
	Processes []Process `json:"processes"`
}

type WarningKind string

const (
	WarnEnumeration WarningKind = "enumeration"
	WarnProcessGone WarningKind = "process-gone"
	WarnUserUnknown WarningKind = "user-unknown"
	WarnUnreadable  WarningKind = "unreadable"
)

// Warning describes data that was left out of a snapshot.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	PID    int32       `json:"pid,omitempty"`
	Detail string      `json:"detail"`
}

func (w Warning) String() string {
	if w.PID > 0 {
		return fmt.Sprintf("%s: pid %d: %s", w.Kind, w.PID, w.Detail)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}

// Snapshot is the outcome of one enumeration and resolution pass.
type Snapshot struct {
	Ports    []PortInfo `json:"ports"`
	Warnings []Warning  `json:"warnings"`
}
