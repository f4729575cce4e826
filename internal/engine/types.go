package engine

import "time"

// State is the lifecycle state of the desired engine instance as last
// observed by the manager.
type State string

const (
	StateNotRunning      State = "not_running"
	StateStarting        State = "starting"
	StateRunningNotReady State = "running_not_ready"
	StateReady           State = "ready"
	StateStopping        State = "stopping"
)

// InstanceInfo describes one running engine process. It is rebuilt on every
// discovery call.
type InstanceInfo struct {
	// Instance is the -instance value, or "" for the unlabeled default.
	Instance       string
	ExecutablePath string
	CommandLine    string
	Service        bool
}

// OwnedInstance is an engine instance this process started. Only owned
// instances are stopped on shutdown.
type OwnedInstance struct {
	Instance string `json:"instance"`
	Path     string `json:"path"`
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State            State
	CLIPath          string
	EnginePath       string
	BaseDir          string
	Instance         string
	PreviousInstance string
	Owned            []OwnedInstance
	LastError        string
	AutostartUntil   time.Time
	AutostartReason  string
}

func instanceLabel(id string) string {
	if id == "" {
		return "default"
	}
	return id
}
