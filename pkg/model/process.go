package model

type Owner struct {
	UID      uint32 `json:"uid"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	HomeDir  string `json:"home,omitempty"`
}

type Process struct {
	PID           int32    `json:"pid"`
	Name          string   `json:"name"`
	Command       []string `json:"command"`
	Owner         Owner    `json:"owner"`
	IsCurrentUser bool     `json:"is_current_user"`
}
