package app

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"findd/internal/common/fsutil"
	"findd/internal/config"
	"findd/internal/engine"
	"findd/internal/history"
	"findd/internal/llm"
	"findd/internal/orchestrator"
	"findd/internal/search"
)

// recentEvents bounds the in-memory engine event log.
const recentEvents = 200

// BuildOptions overrides parts of the default wiring. Tests swap the
// process runner and the language model client.
type BuildOptions struct {
	Runner engine.Runner
	Client llm.Client
	Open   orchestrator.OpenFunc
}

// Build assembles a Service from cfg. The caller owns Close.
func Build(cfg config.Config, log zerolog.Logger, opts BuildOptions) (*Service, error) {
	stateFile := cfg.Engine.StateFile
	if stateFile != "" {
		p, err := fsutil.ExpandHome(stateFile)
		if err != nil {
			return nil, fmt.Errorf("engine.state_file: %w", err)
		}
		stateFile = filepath.Clean(p)
	}
	events := engine.NewMemoryPublisher(recentEvents)
	mgr := engine.NewWithConfig(engine.ManagerConfig{
		CLIPath:         cfg.Engine.CLIPath,
		EnginePath:      cfg.Engine.EnginePath,
		BaseDir:         cfg.Engine.BaseDir,
		InternalOnly:    cfg.Engine.InternalOnly,
		Instance:        cfg.Engine.Instance,
		DefaultInstance: cfg.Engine.DefaultInstance,
		StateFile:       stateFile,
		EnsureTimeout:   cfg.Engine.EnsureTimeout(),
		ProbeTimeout:    cfg.Engine.ProbeTimeout(),
		Runner:          opts.Runner,
		Logger:          &log,
		Publisher:       events,
	})

	searchLog := log.With().Str("component", "search").Logger()
	executor := search.NewExecutor(mgr.Runner(), searchLog, search.WithLimit(cfg.Search.Limit))
	ranker := search.NewRanker(searchLog)

	llmLog := log.With().Str("component", "llm").Logger()
	normalizer := llm.NewNormalizer(cfg.LLM.Models, llmLog)
	client := opts.Client
	if client == nil {
		if key := cfg.LLM.ResolveAPIKey(); key != "" {
			client = llm.NewGeminiClient(llm.GeminiConfig{
				Endpoint:      cfg.LLM.Endpoint,
				APIKey:        key,
				Temperature:   cfg.LLM.Temperature,
				Timeout:       cfg.LLM.Timeout(),
				RatePerSecond: cfg.LLM.RatePerSecond,
				Burst:         cfg.LLM.Burst,
			})
		} else {
			llmLog.Warn().Str("env", cfg.LLM.APIKeyEnv).Msg("no API key configured, voice searches will not be recognized")
		}
	}

	var store *history.Store
	var recorder orchestrator.Recorder
	if !cfg.History.Disabled {
		st, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		store, recorder = st, st
	}

	orchLog := log.With().Str("component", "orchestrator").Logger()
	handler := orchestrator.New(orchestrator.Config{
		Engine:          mgr,
		Searcher:        executor,
		Selector:        ranker,
		Normalizer:      normalizer,
		Recorder:        recorder,
		TriggerPrefixes: cfg.Search.TriggerPrefixes,
		ReadyTimeout:    cfg.Search.ReadyTimeout(),
		Logger:          &orchLog,
	})

	return NewService(Options{
		Engine:        mgr,
		Handler:       handler,
		Client:        client,
		History:       store,
		Events:        events,
		Open:          opts.Open,
		EnsureTimeout: cfg.Engine.EnsureTimeout(),
		Logger:        &log,
	}), nil
}
