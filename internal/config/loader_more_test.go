package config

import (
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.yaml", "addr: :8080\n: broken\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{ "addr": ":8080", "log_level": }`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.toml", "addr=:8080\nlog_level\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "search:\n  limit: 5000\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error for oversized limit")
	}
	p = writeTempFile(t, d, "lvl.yaml", "log_level: chatty\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error for unknown log level")
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("FINDD_TEST_KEY", " secret ")
	c := LLMConfig{APIKeyEnv: "FINDD_TEST_KEY"}
	if got := c.ResolveAPIKey(); got != "secret" {
		t.Fatalf("env key = %q", got)
	}
	c.APIKey = "inline"
	if got := c.ResolveAPIKey(); got != "inline" {
		t.Fatalf("inline key = %q", got)
	}
}
