package types

// SearchRequest is the payload for POST /search.
type SearchRequest struct {
	// Transcribed utterance, starting with the trigger word.
	// example: найди папку 00 развитие на диске д
	Utterance string `json:"utterance" example:"найди папку 00 развитие на диске д"`
	// Open the best match with the OS handler.
	// example: true
	Open bool `json:"open,omitempty" example:"true"`
}

// Status message levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// StatusMessage is one user-facing progress message emitted during a search.
type StatusMessage struct {
	// example: Searching...
	Text string `json:"text"`
	// info or warning.
	// example: info
	Level string `json:"level"`
	// True while work is still in progress.
	Busy bool `json:"busy"`
}

// SearchResponse is returned by POST /search.
type SearchResponse struct {
	// False when the utterance is not a search command.
	Handled bool `json:"handled"`
	// Candidate paths in engine order.
	Paths []string `json:"paths"`
	// Best-ranked path, if any.
	// example: D:\00_Развитие
	Best     string          `json:"best,omitempty"`
	Statuses []StatusMessage `json:"statuses"`
}

// EnsureRequest is the payload for POST /engine/ensure.
type EnsureRequest struct {
	// Readiness window; 0 uses the configured default.
	// example: 8
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" example:"8"`
	// Restart conflicting instances when a custom base dir is configured.
	Force bool `json:"force,omitempty"`
}

// BlockAutostartRequest is the payload for POST /engine/block-autostart.
type BlockAutostartRequest struct {
	// example: 30
	Seconds float64 `json:"seconds" example:"30"`
	// example: user closed the engine
	Reason string `json:"reason,omitempty"`
}

// ShutdownRequest is the payload for POST /engine/shutdown.
type ShutdownRequest struct {
	// Stop the own instance id instead of only the instances findd started.
	Own bool `json:"own,omitempty"`
	// Also stop an engine running from the bundled _internal path.
	ForceInternal bool `json:"force_internal,omitempty"`
}

// EngineActionResponse reports the result of an engine control call.
type EngineActionResponse struct {
	OK bool `json:"ok"`
	// example: engine not ready: IPC: server not running
	Error string `json:"error,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// EngineStatus summarizes the engine runtime state for /status.
type EngineStatus struct {
	// example: ready
	State            string          `json:"state" example:"ready"`
	CLIPath          string          `json:"cli_path"`
	EnginePath       string          `json:"engine_path"`
	BaseDir          string          `json:"base_dir,omitempty"`
	Instance         string          `json:"instance"`
	PreviousInstance string          `json:"previous_instance,omitempty"`
	Owned            []OwnedInstance `json:"owned"`
	// Last readiness failure reason.
	// example: IPC: server not running
	LastError string `json:"last_error,omitempty"`
	// Unix seconds until which autostart is suppressed; 0 when inactive.
	AutostartBlockedUntil int64  `json:"autostart_blocked_until,omitempty"`
	AutostartReason       string `json:"autostart_reason,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Engine      EngineStatus `json:"engine"`
	CLIFound    bool         `json:"cli_found"`
	EngineFound bool         `json:"engine_found"`
	// Uptime in seconds.
	Uptime int64 `json:"uptime"`
}

// InstancesResponse is returned by GET /instances.
type InstancesResponse struct {
	Instances []RunningInstance `json:"instances"`
}

// HistoryResponse is returned by GET /history.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// EngineEvent is one recorded engine lifecycle event.
type EngineEvent struct {
	// example: engine_start
	Name     string         `json:"name" example:"engine_start"`
	Instance string         `json:"instance,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// EventsResponse is returned by GET /events.
type EventsResponse struct {
	Events []EngineEvent `json:"events"`
}
