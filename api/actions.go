package api

import "time"

const (
	ActionStatusRunning = "running"
	ActionStatusSuccess = "success"
	ActionStatusError   = "error"
)

// Action is an asynchronous operation started by the API on a resource.
type Action struct {
	ID       int64      `json:"id" yaml:"id"`
	Command  string     `json:"command" yaml:"command"`
	Status   string     `json:"status" yaml:"status"`
	Progress int        `json:"progress" yaml:"progress"`
	Started  time.Time  `json:"started" yaml:"started"`
	Finished *time.Time `json:"finished,omitempty" yaml:"finished,omitempty"`
}

type actionResponse struct {
	Action Action `json:"action"`
}
