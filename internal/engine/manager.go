package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"findd/internal/common/fsutil"
)

// Manager owns the runtime state of the external indexing engine: resolved
// executable paths, the desired instance id, the ownership record and the
// autostart block. The mutex only guards field access; it is never held
// across a process call.
type Manager struct {
	mu    sync.RWMutex
	state State

	cliPath        string
	enginePath     string
	explicitCLI    bool
	explicitEngine bool
	pathsResolved  bool
	baseDir        string
	internalOnly   bool
	appDir         string

	instance         string
	previousInstance string
	defaultInstance  string

	started   []OwnedInstance
	stateFile string
	lastErr   string

	autostartUntil  time.Time
	autostartReason string
	autostartLogged bool

	// once-per-transition log flags for UpdatePaths
	internalLogged        bool
	internalMissingLogged bool
	fallbackLogged        bool

	runner    Runner
	discovery *Discovery
	log       zerolog.Logger
	publisher EventPublisher

	ensureGroup singleflight.Group

	ensureTimeout time.Duration
	probeTimeout  time.Duration
	stopTimeout   time.Duration
	stopWait      time.Duration
	pollInterval  time.Duration
}

// New builds a Manager that resolves paths from baseDir and drives instance.
func New(baseDir, instance string) *Manager {
	return NewWithConfig(ManagerConfig{BaseDir: baseDir, Instance: instance})
}

// Discovery exposes the process discovery helper used by the manager.
func (m *Manager) Discovery() *Discovery { return m.discovery }

// Runner returns the process runner shared with the search layer.
func (m *Manager) Runner() Runner { return m.runner }

// CLIPath returns the query CLI path, resolving it on first use.
func (m *Manager) CLIPath() string {
	cli, _ := m.paths()
	return cli
}

// EnginePath returns the engine executable path, resolving it on first use.
func (m *Manager) EnginePath() string {
	_, eng := m.paths()
	return eng
}

// CLIAvailable reports whether the query CLI exists on disk.
func (m *Manager) CLIAvailable() bool { return fsutil.IsFile(m.CLIPath()) }

func (m *Manager) Instance() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instance
}

// SetInstance changes the desired instance id and remembers the previous one
// so a forced restart can stop it.
func (m *Manager) SetInstance(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == m.instance {
		return
	}
	m.previousInstance = m.instance
	m.instance = id
}

func (m *Manager) BaseDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseDir
}

// LastError returns the most recent readiness failure reason.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(reason string) {
	m.mu.Lock()
	m.lastErr = reason
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	inst := m.instance
	m.mu.Unlock()
	if prev == s {
		return
	}
	engineState.Reset()
	engineState.WithLabelValues(string(s)).Set(1)
	m.publish(Event{Name: "state_change", Instance: inst, Fields: map[string]any{"from": string(prev), "to": string(s)}})
}

// IsReady probes the desired instance and records the failure reason.
func (m *Manager) IsReady(ctx context.Context) bool {
	ready, reason := m.ProbeReady(ctx, m.Instance())
	m.setLastError(reason)
	if ready {
		m.setState(StateReady)
	}
	return ready
}
