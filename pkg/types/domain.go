package types

// OwnedInstance is an engine instance started by findd.
type OwnedInstance struct {
	// Instance id; empty for the unlabeled default instance.
	// example: findd
	Instance string `json:"instance" example:"findd"`
	// Normalized engine executable path.
	// example: c:\tools\everything\everything.exe
	Path string `json:"path" example:"c:\\tools\\everything\\everything.exe"`
}

// RunningInstance describes a discovered engine process.
type RunningInstance struct {
	// example: findd
	Instance string `json:"instance"`
	// example: C:\Program Files\Everything\Everything.exe
	ExecutablePath string `json:"executable_path,omitempty"`
	CommandLine    string `json:"command_line,omitempty"`
	// True when the process runs in service mode (-svc / -start-service).
	Service bool `json:"service"`
}

// HistoryEntry is one recorded voice search.
type HistoryEntry struct {
	// example: 3f1c2a9e-7d1b-4bb4-9a57-3a0c3c6c1f10
	ID string `json:"id"`
	// Unix seconds.
	At         int64  `json:"at"`
	Utterance  string `json:"utterance"`
	Name       string `json:"name,omitempty"`
	TargetType string `json:"target_type,omitempty"`
	Drive      string `json:"drive,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
	Results    int    `json:"results"`
	Best       string `json:"best,omitempty"`
	// Terminal outcome, e.g. found, not_found, unrecognized.
	// example: found
	Outcome string `json:"outcome" example:"found"`
}
