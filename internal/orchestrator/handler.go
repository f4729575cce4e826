// Package orchestrator runs one voice search command end to end: trigger
// check, normalization, intent overrides, engine readiness, search, ranking
// and opening the winner.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"findd/internal/common/fsutil"
	"findd/internal/engine"
	"findd/internal/llm"
	"findd/internal/search"
	"findd/pkg/types"
)

// DefaultReadyTimeout bounds EnsureRunning for one command.
const DefaultReadyTimeout = 8 * time.Second

// Outcomes reported to metrics and history.
const (
	OutcomeNotSearch         = "not_search"
	OutcomeCancelled         = "cancelled"
	OutcomeUnrecognized      = "unrecognized"
	OutcomeUnsupportedType   = "unsupported_type"
	OutcomeNoPattern         = "no_pattern"
	OutcomeCLIMissing        = "cli_missing"
	OutcomeEngineUnavailable = "engine_unavailable"
	OutcomeNotFound          = "not_found"
	OutcomeFound             = "found"
	OutcomeError             = "error"
)

// Engine is the lifecycle surface the handler needs.
type Engine interface {
	CLIPath() string
	CLIAvailable() bool
	Instance() string
	LastError() string
	EnsureRunning(ctx context.Context, timeout time.Duration, forceRestart bool) error
}

// Searcher runs the CLI passes for a query.
type Searcher interface {
	Run(ctx context.Context, cliPath, instance, pattern string, q search.Query) []string
}

// Selector picks the path to open.
type Selector interface {
	SelectBest(paths []string, targetName, drive string) (string, bool)
}

// Normalizer turns an utterance into a query.
type Normalizer interface {
	Normalize(ctx context.Context, client llm.Client, text string) (search.Query, bool)
}

// Recorder stores handled commands.
type Recorder interface {
	Record(ctx context.Context, e types.HistoryEntry) (types.HistoryEntry, error)
}

// Callbacks supplied per command. Any of them may be nil.
type (
	StatusFunc func(msg types.StatusMessage)
	OpenFunc   func(path string) error
	CancelFunc func() bool
)

// Config wires a Handler.
type Config struct {
	Engine     Engine
	Searcher   Searcher
	Selector   Selector
	Normalizer Normalizer
	// Recorder is optional.
	Recorder        Recorder
	TriggerPrefixes []string
	ReadyTimeout    time.Duration
	Logger          *zerolog.Logger
}

// Handler executes voice search commands. It is safe for concurrent use
// when its collaborators are.
type Handler struct {
	engine       Engine
	searcher     Searcher
	selector     Selector
	normalizer   Normalizer
	recorder     Recorder
	trigger      search.Trigger
	readyTimeout time.Duration
	log          zerolog.Logger
}

func New(cfg Config) *Handler {
	h := &Handler{
		engine:       cfg.Engine,
		searcher:     cfg.Searcher,
		selector:     cfg.Selector,
		normalizer:   cfg.Normalizer,
		recorder:     cfg.Recorder,
		readyTimeout: cfg.ReadyTimeout,
		log:          zerolog.Nop(),
	}
	if cfg.Logger != nil {
		h.log = *cfg.Logger
	}
	prefixes := cfg.TriggerPrefixes
	if len(prefixes) == 0 {
		prefixes = []string{"найд"}
	}
	h.trigger = search.NewTrigger(prefixes)
	if h.readyTimeout <= 0 {
		h.readyTimeout = DefaultReadyTimeout
	}
	return h
}

// LooksLikeSearch is the cheap trigger check run before any model call.
func (h *Handler) LooksLikeSearch(text string) bool { return h.trigger.Match(text) }

// Result is the full outcome of one command.
type Result struct {
	Handled bool
	Paths   []string
	Best    string
	Outcome string
}

// run carries the per-command state.
type run struct {
	h      *Handler
	ctx    context.Context
	status StatusFunc
	cancel CancelFunc
	entry  types.HistoryEntry
}

func (r *run) say(text, level string, busy bool) {
	if r.status != nil {
		r.status(types.StatusMessage{Text: text, Level: level, Busy: busy})
	}
}

func (r *run) cancelled() bool {
	if r.ctx.Err() != nil {
		return true
	}
	return r.cancel != nil && r.cancel()
}

// finish records the outcome and returns a handled Result.
func (r *run) finish(outcome string, paths []string) Result {
	searchCommands.WithLabelValues(outcome).Inc()
	r.entry.Outcome = outcome
	r.entry.Results = len(paths)
	if r.h.recorder != nil {
		// a cancelled ctx must not lose the history row
		ctx := context.WithoutCancel(r.ctx)
		if _, err := r.h.recorder.Record(ctx, r.entry); err != nil {
			r.h.log.Warn().Err(err).Msg("could not record search history")
		}
	}
	return Result{Handled: true, Paths: paths, Best: r.entry.Best, Outcome: outcome}
}

func (r *run) abort() Result {
	r.h.log.Info().Msg("search cancelled by user")
	return r.finish(OutcomeCancelled, nil)
}

// Handle runs one command. handled is false only when the utterance is not
// a search command; every other path ends with a status message. open is
// called at most once, with the selected path.
func (h *Handler) Handle(ctx context.Context, utterance string, client llm.Client, status StatusFunc, open OpenFunc, cancel CancelFunc) (bool, []string) {
	res := h.Execute(ctx, utterance, client, status, open, cancel)
	return res.Handled, res.Paths
}

// Execute is Handle with the selected path and outcome exposed.
func (h *Handler) Execute(ctx context.Context, utterance string, client llm.Client, status StatusFunc, open OpenFunc, cancel CancelFunc) (res Result) {
	if !h.LooksLikeSearch(utterance) {
		searchCommands.WithLabelValues(OutcomeNotSearch).Inc()
		return Result{Outcome: OutcomeNotSearch}
	}
	r := &run{h: h, ctx: ctx, status: status, cancel: cancel,
		entry: types.HistoryEntry{Utterance: utterance}}
	defer func() {
		if p := recover(); p != nil {
			h.log.Error().Interface("panic", p).Msg("search command panicked")
			r.say("Ошибка поиска", types.LevelWarning, false)
			res = r.finish(OutcomeError, nil)
		}
	}()

	if r.cancelled() {
		return r.abort()
	}
	r.say("Обрабатываю голосовой поиск...", types.LevelInfo, true)

	q, ok := h.normalizer.Normalize(ctx, client, utterance)
	intentText := search.NormalizeIntentText(utterance)
	intent := search.DetectIntent(intentText)
	if r.cancelled() {
		return r.abort()
	}
	if !ok {
		r.say("Не смог распознать запрос поиска", types.LevelWarning, false)
		return r.finish(OutcomeUnrecognized, nil)
	}

	if intent.AllDrives {
		q.Drive = ""
	}
	category, hasCategory := search.DetectFileCategory(intentText)
	if !hasCategory {
		category, hasCategory = search.DetectFileCategory(search.StripPunctuation(q.Name))
	}
	switch {
	case intent.Folder:
		q.TargetType = search.TargetFolder
	case hasCategory || intent.File:
		q.TargetType = search.TargetFile
	}
	r.entry.Name, r.entry.TargetType, r.entry.Drive = q.Name, string(q.TargetType), q.Drive

	if !q.TargetType.Searchable() {
		h.log.Info().Str("target_type", string(q.TargetType)).Msg("search skipped: unsupported target type")
		r.say("Не понял, искать папку или файл", types.LevelWarning, false)
		return r.finish(OutcomeUnsupportedType, nil)
	}
	if hasCategory {
		if q.TargetType == search.TargetFile {
			q.Extensions = category.Extensions
		} else {
			h.log.Info().Str("category", category.Name).Msg("folder requested, ignoring extension filter")
		}
	}

	pattern := ""
	if q.Name != "" {
		pattern = search.BuildPattern(q.Name)
	}
	r.entry.Pattern = pattern
	if pattern == "" && q.Extensions == "" {
		r.say("Не получилось построить запрос поиска", types.LevelWarning, false)
		return r.finish(OutcomeNoPattern, nil)
	}

	if !h.engine.CLIAvailable() {
		h.log.Warn().Str("path", fsutil.FormatPathForLog(h.engine.CLIPath())).Msg("query CLI not found")
		r.say("Поисковик Everything не найден", types.LevelWarning, false)
		return r.finish(OutcomeCLIMissing, nil)
	}
	if r.cancelled() {
		return r.abort()
	}

	if err := h.engine.EnsureRunning(ctx, h.readyTimeout, false); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return r.abort()
		}
		reason := h.engine.LastError()
		if reason == "" {
			reason = err.Error()
		}
		h.log.Warn().Str("reason", reason).Msg("engine unavailable, search impossible")
		r.say(unavailableText(err), types.LevelWarning, false)
		return r.finish(OutcomeEngineUnavailable, nil)
	}

	paths := h.searcher.Run(ctx, h.engine.CLIPath(), h.engine.Instance(), pattern, q)
	searchResults.Observe(float64(len(paths)))
	if len(paths) == 0 {
		h.log.Info().Str("name", q.Name).Str("pattern", pattern).Msg("nothing found")
		r.say("Не найдено: "+q.Name, types.LevelWarning, false)
		return r.finish(OutcomeNotFound, nil)
	}

	best, ok := h.selector.SelectBest(paths, q.Name, q.Drive)
	if !ok {
		h.log.Info().Msg("no suitable result selected")
		r.say("Не найдено: "+q.Name, types.LevelWarning, false)
		return r.finish(OutcomeNotFound, nil)
	}
	r.entry.Best = best
	r.say(foundText(q), types.LevelInfo, false)

	if open != nil {
		if r.cancelled() {
			h.log.Info().Msg("opening cancelled by user")
			return r.finish(OutcomeCancelled, paths)
		}
		if err := open(best); err != nil {
			h.log.Warn().Err(err).Str("path", fsutil.FormatPathForLog(best)).Msg("could not open result")
			r.say("Не удалось открыть: "+best, types.LevelWarning, false)
		}
	}
	return r.finish(OutcomeFound, paths)
}

func foundText(q search.Query) string {
	kind := "папку"
	if q.TargetType == search.TargetFile {
		kind = "файл"
	}
	msg := fmt.Sprintf("Нашёл %s: %s", kind, q.Name)
	if q.Drive != "" {
		msg += " на диске " + strings.ToUpper(q.Drive)
	}
	return msg
}

func unavailableText(err error) string {
	switch {
	case engine.IsAutostartBlocked(err):
		return "Запуск Everything временно отключён"
	case engine.IsEngineNotFound(err):
		return "Everything не найден"
	default:
		return "Поисковик Everything недоступен"
	}
}
