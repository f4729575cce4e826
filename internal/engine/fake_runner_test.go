package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeHost simulates the process table, the query CLI and engine starts.
type fakeHost struct {
	mu sync.Mutex

	cli string
	// procs holds engine command lines.
	procs []string
	// ready marks instance ids whose IPC channel answers.
	ready map[string]bool

	exitFails    bool
	psFails      bool
	readyOnStart bool

	starts    [][]string
	startDirs []string
	exits     []string
}

func newFakeHost(cli string) *fakeHost {
	return &fakeHost{cli: cli, ready: map[string]bool{}, readyOnStart: true}
}

func (h *fakeHost) addProc(cmdline string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.procs = append(h.procs, cmdline)
	if ready {
		h.ready[ParseInstanceFlag(cmdline)] = true
	}
}

func splitInstance(args []string) (string, []string) {
	if len(args) >= 2 && args[0] == "-instance" {
		return args[1], args[2:]
	}
	return "", args
}

func (h *fakeHost) Run(_ context.Context, name string, args ...string) (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch name {
	case "tasklist":
		image := strings.TrimPrefix(args[len(args)-1], "IMAGENAME eq ")
		for _, p := range h.procs {
			if strings.Contains(strings.ToLower(p), strings.ToLower(image)) {
				return Result{Stdout: []byte(image + "   4242 Console   1   40,000 K\r\n")}, nil
			}
		}
		return Result{Stdout: []byte("INFO: No tasks are running which match the specified criteria.\r\n")}, nil
	case "powershell":
		if h.psFails {
			return Result{}, errors.New("powershell: not found")
		}
		return Result{Stdout: []byte(strings.Join(h.procs, "\r\n"))}, nil
	case "wmic":
		var b strings.Builder
		for _, p := range h.procs {
			b.WriteString("\r\r\nCommandLine=" + p + "\r\r\n")
		}
		return Result{Stdout: []byte(b.String())}, nil
	case h.cli:
	default:
		return Result{}, errors.New("unexpected program " + name)
	}

	inst, rest := splitInstance(args)
	if len(rest) == 1 && rest[0] == "-exit" {
		h.exits = append(h.exits, inst)
		if h.exitFails {
			return Result{ExitCode: 1}, nil
		}
		kept := h.procs[:0]
		found := false
		for _, p := range h.procs {
			if ParseInstanceFlag(p) == inst {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		h.procs = kept
		if !found {
			return Result{ExitCode: 1}, nil
		}
		delete(h.ready, inst)
		return Result{}, nil
	}
	if h.ready[inst] {
		return Result{Stdout: []byte(`C:\pagefile.sys` + "\r\n")}, nil
	}
	return Result{Stderr: []byte("Everything IPC server not running\r\n"), ExitCode: 8}, nil
}

func (h *fakeHost) Start(dir, name string, args ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts = append(h.starts, args)
	h.startDirs = append(h.startDirs, dir)
	inst, _ := splitInstance(args)
	cmd := `"` + name + `"`
	if inst != "" {
		cmd += " -instance " + inst
	}
	h.procs = append(h.procs, cmd+" -startup")
	if h.readyOnStart {
		h.ready[inst] = true
	}
	return nil
}

func (h *fakeHost) startCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.starts)
}

// touch creates an empty file, including parent directories.
func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

type testEnv struct {
	dir    string
	cli    string
	engine string
	host   *fakeHost
	pub    *MemoryPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		cli:    touch(t, filepath.Join(dir, "Everything", "es.exe")),
		engine: touch(t, filepath.Join(dir, "Everything", "Everything.exe")),
		pub:    NewMemoryPublisher(0),
	}
	env.host = newFakeHost(env.cli)
	return env
}

func (e *testEnv) config() ManagerConfig {
	return ManagerConfig{
		CLIPath:      e.cli,
		EnginePath:   e.engine,
		AppDir:       e.dir,
		Instance:     "findd",
		Runner:       e.host,
		Publisher:    e.pub,
		PollInterval: 5 * time.Millisecond,
		StopWait:     100 * time.Millisecond,
	}
}

func (e *testEnv) manager(mut ...func(*ManagerConfig)) *Manager {
	cfg := e.config()
	for _, f := range mut {
		f(&cfg)
	}
	return NewWithConfig(cfg)
}

func (e *testEnv) hasEvent(name string) bool {
	for _, ev := range e.pub.Events() {
		if ev.Name == name {
			return true
		}
	}
	return false
}
