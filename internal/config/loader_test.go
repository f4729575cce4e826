package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nengine:\n  base_dir: /opt/everything\n  instance: voice\n  ensure_timeout_seconds: 6\nsearch:\n  limit: 12\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Engine.BaseDir != "/opt/everything" || cfg.Engine.Instance != "voice" || cfg.Search.Limit != 12 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Engine.EnsureTimeout() != 6*time.Second {
		t.Fatalf("ensure timeout = %v", cfg.Engine.EnsureTimeout())
	}
	// untouched sections keep defaults
	if cfg.Engine.DefaultInstance != DefaultInstanceName || len(cfg.LLM.Models) != 2 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","engine":{"cli_path":"/x/es.exe"},"llm":{"models":["m1"],"temperature":0.3}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.Engine.CLIPath != "/x/es.exe" || len(cfg.LLM.Models) != 1 || cfg.LLM.Models[0] != "m1" || cfg.LLM.Temperature != 0.3 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nlog_level=\"debug\"\n[search]\ntrigger_prefixes=[\"найд\",\"find\"]\nready_timeout_seconds=3\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.LogLevel != "debug" || len(cfg.Search.TriggerPrefixes) != 2 || cfg.Search.ReadyTimeout() != 3*time.Second {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Search.Limit != DefaultLimit || cfg.Search.ReadyTimeout() != 8*time.Second || cfg.Engine.ProbeTimeout() != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
