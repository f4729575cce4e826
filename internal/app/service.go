// Package app wires the engine manager, the search pipeline and the history
// store into the service the HTTP API and the CLI drive.
package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"findd/internal/config"
	"findd/internal/engine"
	"findd/internal/history"
	"findd/internal/llm"
	"findd/internal/opener"
	"findd/internal/orchestrator"
	"findd/pkg/types"
)

// historyDisabledError is returned by History when no store is configured.
type historyDisabledError struct{}

func (historyDisabledError) Error() string   { return "search history is disabled" }
func (historyDisabledError) StatusCode() int { return http.StatusNotFound }

// Service implements the findd operations on top of one engine manager.
type Service struct {
	engine  *engine.Manager
	handler *orchestrator.Handler
	client  llm.Client
	history *history.Store
	events  *engine.MemoryPublisher
	open    orchestrator.OpenFunc
	log     zerolog.Logger

	ensureTimeout time.Duration
	started       time.Time

	// one voice command at a time
	cmdMu sync.Mutex
}

// Options carries the collaborators of a Service. Engine and Handler are
// required; the rest may be nil.
type Options struct {
	Engine        *engine.Manager
	Handler       *orchestrator.Handler
	Client        llm.Client
	History       *history.Store
	Events        *engine.MemoryPublisher
	Open          orchestrator.OpenFunc
	EnsureTimeout time.Duration
	Logger        *zerolog.Logger
}

func NewService(o Options) *Service {
	s := &Service{
		engine:        o.Engine,
		handler:       o.Handler,
		client:        o.Client,
		history:       o.History,
		events:        o.Events,
		open:          o.Open,
		ensureTimeout: o.EnsureTimeout,
		started:       time.Now(),
		log:           zerolog.Nop(),
	}
	if o.Logger != nil {
		s.log = *o.Logger
	}
	if s.open == nil {
		s.open = opener.Open
	}
	return s
}

// Engine exposes the underlying manager for CLI subcommands.
func (s *Service) Engine() *engine.Manager { return s.engine }

// Search runs one voice command. The best match is opened only when
// req.Open is set.
func (s *Service) Search(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	log := s.log.With().Str("command_id", uuid.NewString()).Logger()
	var statuses []types.StatusMessage
	status := func(m types.StatusMessage) {
		log.Debug().Str("level", m.Level).Bool("busy", m.Busy).Msg(m.Text)
		statuses = append(statuses, m)
	}
	var open orchestrator.OpenFunc
	if req.Open {
		open = s.open
	}
	res := s.handler.Execute(ctx, req.Utterance, s.client, status, open, nil)
	log.Info().Str("outcome", res.Outcome).Int("results", len(res.Paths)).Msg("voice command finished")
	return types.SearchResponse{
		Handled:  res.Handled,
		Paths:    res.Paths,
		Best:     res.Best,
		Statuses: statuses,
	}, nil
}

func (s *Service) Status() types.StatusResponse {
	sanity := s.engine.SanityCheck()
	return types.StatusResponse{
		Engine:      s.engine.Status(),
		CLIFound:    sanity.CLIFound,
		EngineFound: sanity.EngineFound,
		Uptime:      int64(time.Since(s.started).Seconds()),
	}
}

// Instances lists the engine processes discovery can see right now.
func (s *Service) Instances(ctx context.Context) []types.RunningInstance {
	infos := s.engine.Discovery().ListRunningInstances(ctx)
	out := make([]types.RunningInstance, 0, len(infos))
	for _, info := range infos {
		out = append(out, types.RunningInstance{
			Instance:       info.Instance,
			ExecutablePath: info.ExecutablePath,
			CommandLine:    info.CommandLine,
			Service:        info.Service,
		})
	}
	return out
}

// Ensure makes the engine answer queries. A missing query CLI is reported
// without touching the engine.
func (s *Service) Ensure(ctx context.Context, req types.EnsureRequest) error {
	if !s.engine.CLIAvailable() {
		return engine.ErrCLINotFound(s.engine.CLIPath())
	}
	timeout := s.ensureTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds * float64(time.Second))
	}
	return s.engine.EnsureRunning(ctx, timeout, req.Force)
}

func (s *Service) BlockAutostart(req types.BlockAutostartRequest) {
	s.engine.BlockAutostart(time.Duration(req.Seconds*float64(time.Second)), req.Reason)
}

// Shutdown stops the own instance id when req.Own is set, otherwise only
// the instances this process started.
func (s *Service) Shutdown(ctx context.Context, req types.ShutdownRequest) bool {
	if req.Own {
		return s.engine.ShutdownOwnInstance(ctx)
	}
	return s.engine.ShutdownStartedInstances(ctx, req.ForceInternal)
}

func (s *Service) History(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if s.history == nil {
		return nil, historyDisabledError{}
	}
	return s.history.List(ctx, limit)
}

// Events returns the recent engine lifecycle events, oldest first.
func (s *Service) Events() []types.EngineEvent {
	if s.events == nil {
		return nil
	}
	evs := s.events.Events()
	out := make([]types.EngineEvent, 0, len(evs))
	for _, e := range evs {
		out = append(out, types.EngineEvent{Name: e.Name, Instance: e.Instance, Fields: e.Fields})
	}
	return out
}

// Ready probes the desired instance once.
func (s *Service) Ready(ctx context.Context) bool { return s.engine.IsReady(ctx) }

// ApplyConfig re-applies the engine settings that may change at runtime.
func (s *Service) ApplyConfig(cfg config.Config) {
	s.engine.UpdatePaths(cfg.Engine.BaseDir)
	s.engine.SetInstance(cfg.Engine.Instance)
	s.log.Info().
		Str("base_dir", cfg.Engine.BaseDir).
		Str("instance", cfg.Engine.Instance).
		Msg("engine settings reloaded")
}

// Close releases the history store.
func (s *Service) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}
