package engine

import (
	"time"

	"github.com/rs/zerolog"

	"findd/internal/common/fsutil"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultEnsureTimeout   = 4 * time.Second
	defaultProbeTimeout    = 2 * time.Second
	defaultStopTimeout     = 4 * time.Second
	defaultStopWait        = 5 * time.Second
	defaultPollInterval    = 200 * time.Millisecond
	defaultDiscoverTimeout = 3 * time.Second
	defaultTasklistTimeout = 5 * time.Second
	defaultInstanceName    = "findd"
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// CLIPath and EnginePath pin the executables. When empty they are
	// resolved from BaseDir and the application directory on first use.
	CLIPath      string
	EnginePath   string
	BaseDir      string
	InternalOnly bool
	// AppDir is the directory holding the bundled _internal tree; defaults
	// to the directory of the running executable.
	AppDir string

	Instance        string
	DefaultInstance string
	// StateFile persists the ownership record across restarts when set.
	StateFile string

	EnsureTimeout   time.Duration
	ProbeTimeout    time.Duration
	StopTimeout     time.Duration
	StopWait        time.Duration
	PollInterval    time.Duration
	DiscoverTimeout time.Duration

	Runner    Runner
	Logger    *zerolog.Logger
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:           StateNotRunning,
		cliPath:         cfg.CLIPath,
		enginePath:      cfg.EnginePath,
		explicitCLI:     cfg.CLIPath != "",
		explicitEngine:  cfg.EnginePath != "",
		baseDir:         NormalizeBaseDir(cfg.BaseDir),
		internalOnly:    cfg.InternalOnly,
		appDir:          cfg.AppDir,
		instance:        cfg.Instance,
		defaultInstance: cfg.DefaultInstance,
		stateFile:       cfg.StateFile,
		runner:          cfg.Runner,
		publisher:       cfg.Publisher,
	}
	// Apply defaults if unset
	if m.appDir == "" {
		m.appDir = fsutil.AppBaseDir()
	}
	if m.defaultInstance == "" {
		m.defaultInstance = defaultInstanceName
	}
	if m.runner == nil {
		m.runner = ExecRunner{}
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "engine").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	m.ensureTimeout = orDefault(cfg.EnsureTimeout, defaultEnsureTimeout)
	m.probeTimeout = orDefault(cfg.ProbeTimeout, defaultProbeTimeout)
	m.stopTimeout = orDefault(cfg.StopTimeout, defaultStopTimeout)
	m.stopWait = orDefault(cfg.StopWait, defaultStopWait)
	m.pollInterval = orDefault(cfg.PollInterval, defaultPollInterval)
	m.discovery = newDiscovery(m.runner, m.log, orDefault(cfg.DiscoverTimeout, defaultDiscoverTimeout))
	m.pathsResolved = m.explicitCLI && m.explicitEngine
	m.loadOwnership()
	return m
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
