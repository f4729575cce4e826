package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"findd/internal/config"
	"findd/internal/engine"
	"findd/internal/llm"
	"findd/pkg/types"
)

// cliRunner plays a query CLI whose engine always answers: probes succeed
// and every search exports the configured lines.
type cliRunner struct {
	mu       sync.Mutex
	results  string
	searches int
	exits    []string
}

func (r *cliRunner) Run(_ context.Context, _ string, args ...string) (engine.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range args {
		switch a {
		case "-exit":
			inst := ""
			if len(args) > 2 && args[0] == "-instance" {
				inst = args[1]
			}
			r.exits = append(r.exits, inst)
			return engine.Result{}, nil
		case "-export-txt":
			r.searches++
			if r.results != "" && i+1 < len(args) {
				if err := os.WriteFile(args[i+1], []byte(r.results), 0o644); err != nil {
					return engine.Result{}, err
				}
			}
			return engine.Result{}, nil
		}
	}
	if n := len(args); n >= 3 && args[n-3] == "-n" && args[n-1] == "*" {
		return engine.Result{Stdout: []byte(`C:\pagefile.sys` + "\r\n")}, nil
	}
	return engine.Result{ExitCode: 1}, nil
}

func (r *cliRunner) Start(string, string, ...string) error { return nil }

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Engine.CLIPath = touch(t, filepath.Join(dir, "Everything", "es.exe"))
	cfg.Engine.EnginePath = touch(t, filepath.Join(dir, "Everything", "Everything.exe"))
	cfg.Engine.Instance = "findd"
	cfg.History.Path = filepath.Join(dir, "history.db")
	return cfg
}

func build(t *testing.T, cfg config.Config, r *cliRunner, client llm.Client, opened *[]string) *Service {
	t.Helper()
	svc, err := Build(cfg, zerolog.Nop(), BuildOptions{
		Runner: r,
		Client: client,
		Open: func(p string) error {
			*opened = append(*opened, p)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func folderReply(name string) llm.Client {
	return llm.ClientFunc(func(context.Context, string, string) (string, error) {
		return `{"trigger":"найди","target_type":"folder","name":"` + name + `","drive":""}`, nil
	})
}

func TestSearch_FindsOpensAndRecords(t *testing.T) {
	cfg := testConfig(t)
	r := &cliRunner{results: "\xEF\xBB\xBFC:\\Docs\\Отчеты 2023\r\nC:\\Docs\\отчеты\r\n"}
	var opened []string
	svc := build(t, cfg, r, folderReply("отчеты"), &opened)

	resp, err := svc.Search(context.Background(), types.SearchRequest{Utterance: "найди папку отчеты", Open: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !resp.Handled || resp.Best != `C:\Docs\отчеты` {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(opened) != 1 || opened[0] != resp.Best {
		t.Fatalf("opened = %v", opened)
	}
	if len(resp.Statuses) < 2 || !strings.HasPrefix(resp.Statuses[len(resp.Statuses)-1].Text, "Нашёл папку") {
		t.Fatalf("statuses = %+v", resp.Statuses)
	}

	entries, err := svc.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != "found" || entries[0].Best != resp.Best {
		t.Fatalf("history = %+v", entries)
	}
}

func TestSearch_NoOpenWithoutFlag(t *testing.T) {
	cfg := testConfig(t)
	r := &cliRunner{results: "C:\\Docs\\отчеты\r\n"}
	var opened []string
	svc := build(t, cfg, r, folderReply("отчеты"), &opened)
	resp, _ := svc.Search(context.Background(), types.SearchRequest{Utterance: "найди папку отчеты"})
	if resp.Best == "" || len(opened) != 0 {
		t.Fatalf("best=%q opened=%v", resp.Best, opened)
	}
}

func TestSearch_NotACommand(t *testing.T) {
	cfg := testConfig(t)
	r := &cliRunner{}
	var opened []string
	called := false
	client := llm.ClientFunc(func(context.Context, string, string) (string, error) {
		called = true
		return "", errors.New("unexpected")
	})
	svc := build(t, cfg, r, client, &opened)
	resp, err := svc.Search(context.Background(), types.SearchRequest{Utterance: "какая погода"})
	if err != nil || resp.Handled || called || r.searches != 0 {
		t.Fatalf("resp=%+v err=%v called=%v searches=%d", resp, err, called, r.searches)
	}
}

func TestEnsure_CLIMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine.CLIPath = filepath.Join(t.TempDir(), "missing", "es.exe")
	var opened []string
	svc := build(t, cfg, &cliRunner{}, nil, &opened)
	err := svc.Ensure(context.Background(), types.EnsureRequest{})
	if !engine.IsCLINotFound(err) {
		t.Fatalf("expected CLI not found, got %v", err)
	}
}

func TestEnsure_ReadyAndEvents(t *testing.T) {
	cfg := testConfig(t)
	var opened []string
	svc := build(t, cfg, &cliRunner{}, nil, &opened)
	if err := svc.Ensure(context.Background(), types.EnsureRequest{TimeoutSeconds: 1}); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !svc.Ready(context.Background()) {
		t.Fatalf("expected ready")
	}
	st := svc.Status()
	if st.Engine.State != string(engine.StateReady) || !st.CLIFound || !st.EngineFound {
		t.Fatalf("status = %+v", st)
	}
	found := false
	for _, e := range svc.Events() {
		if e.Name == "ensure_ready" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ensure_ready not published: %+v", svc.Events())
	}
}

func TestBlockAutostart_ShowsInStatus(t *testing.T) {
	cfg := testConfig(t)
	var opened []string
	svc := build(t, cfg, &cliRunner{}, nil, &opened)
	svc.BlockAutostart(types.BlockAutostartRequest{Seconds: 60, Reason: "closed by user"})
	st := svc.Status()
	if st.Engine.AutostartBlockedUntil == 0 || st.Engine.AutostartReason != "closed by user" {
		t.Fatalf("status = %+v", st.Engine)
	}
}

func TestShutdown_OwnStopsConfiguredInstance(t *testing.T) {
	cfg := testConfig(t)
	r := &cliRunner{}
	var opened []string
	svc := build(t, cfg, r, nil, &opened)
	if !svc.Shutdown(context.Background(), types.ShutdownRequest{Own: true}) {
		t.Fatalf("expected own instance to stop")
	}
	if len(r.exits) != 1 || r.exits[0] != "findd" {
		t.Fatalf("exits = %v", r.exits)
	}
	if svc.Shutdown(context.Background(), types.ShutdownRequest{}) {
		t.Fatalf("nothing was started, nothing should stop")
	}
}

func TestHistoryDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Disabled = true
	var opened []string
	svc := build(t, cfg, &cliRunner{}, nil, &opened)
	_, err := svc.History(context.Background(), 5)
	var he interface{ StatusCode() int }
	if !errors.As(err, &he) || he.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestApplyConfig_ChangesInstance(t *testing.T) {
	cfg := testConfig(t)
	var opened []string
	svc := build(t, cfg, &cliRunner{}, nil, &opened)
	cfg.Engine.Instance = "other"
	svc.ApplyConfig(cfg)
	st := svc.Status()
	if st.Engine.Instance != "other" || st.Engine.PreviousInstance != "findd" {
		t.Fatalf("status = %+v", st.Engine)
	}
}
