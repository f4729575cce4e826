package search

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"findd/internal/engine"
)

// DefaultLimit caps the results of each search pass.
const DefaultLimit = 30

const (
	defaultPassTimeout = 10 * time.Second
	sortOrder          = "name-ascending"
)

// Executor runs the regex pass and the plain-text pass against the query
// CLI and merges their output.
type Executor struct {
	runner  engine.Runner
	log     zerolog.Logger
	limit   int
	timeout time.Duration
	tempDir string
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithLimit sets the per-pass result cap.
func WithLimit(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithPassTimeout bounds a single CLI run.
func WithPassTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithTempDir sets where export files are written.
func WithTempDir(dir string) ExecutorOption {
	return func(e *Executor) { e.tempDir = dir }
}

func NewExecutor(r engine.Runner, log zerolog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{runner: r, log: log, limit: DefaultLimit, timeout: defaultPassTimeout, tempDir: os.TempDir()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Commands returns the CLI invocations for q without export files. The
// regex pass is present only when pattern is non-empty. The plain pass
// searches for the name with the extension filter appended, or for the
// filter alone when the name is empty; it is omitted when both are empty.
func (e *Executor) Commands(instance, pattern string, q Query) []engine.CLICommand {
	typ := typeFilter(q.TargetType)
	var cmds []engine.CLICommand
	if pattern != "" {
		cmds = append(cmds, engine.CLICommand{
			Kind:       engine.KindSearch,
			Instance:   instance,
			Drive:      q.Drive,
			Regex:      pattern,
			Limit:      e.limit,
			Sort:       sortOrder,
			Extensions: q.Extensions,
			Type:       typ,
		})
	}
	text := q.Name
	if q.Extensions != "" {
		if text != "" {
			text += " "
		}
		text += "ext:" + q.Extensions
	}
	if text != "" {
		cmds = append(cmds, engine.CLICommand{
			Kind:     engine.KindSearch,
			Instance: instance,
			Drive:    q.Drive,
			Text:     text,
			Limit:    e.limit,
			Sort:     sortOrder,
			Type:     typ,
		})
	}
	return cmds
}

// Run executes every pass and returns the de-duplicated paths in the order
// they were first seen. Failures of a single pass are logged and skipped.
func (e *Executor) Run(ctx context.Context, cliPath, instance, pattern string, q Query) []string {
	var paths []string
	seen := make(map[string]struct{})
	for _, cmd := range e.Commands(instance, pattern, q) {
		if ctx.Err() != nil {
			break
		}
		for _, p := range e.runPass(ctx, cliPath, cmd) {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	e.log.Info().Int("count", len(paths)).Str("name", q.Name).Msg("search finished")
	return paths
}

func (e *Executor) runPass(ctx context.Context, cliPath string, cmd engine.CLICommand) []string {
	cmd.ExportFile = e.exportPath()
	cmd.UTF8BOM = true
	defer os.Remove(cmd.ExportFile)

	args := cmd.Args()
	e.log.Debug().Str("args", engine.FormatArgsForLog(args)).Msg("running query CLI")
	c, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	res, err := e.runner.Run(c, cliPath, args...)
	if err != nil {
		e.log.Warn().Err(err).Msg("query CLI failed")
		return nil
	}
	if res.ExitCode != 0 {
		e.log.Debug().Int("exit_code", res.ExitCode).Msg("query CLI returned non-zero")
	}
	if text, err := readExportFile(cmd.ExportFile); err == nil {
		if lines := splitLines(text); len(lines) > 0 {
			return lines
		}
	}
	return splitLines(decodeOutput(res.Stdout))
}

func (e *Executor) exportPath() string {
	return filepath.Join(e.tempDir, "findd-"+uuid.NewString()+".txt")
}

func typeFilter(t TargetType) engine.TypeFilter {
	switch t {
	case TargetFolder:
		return engine.TypeFolders
	case TargetFile:
		return engine.TypeFiles
	default:
		return engine.TypeAny
	}
}
