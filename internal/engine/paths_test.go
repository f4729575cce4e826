package engine

import (
	"path/filepath"
	"testing"
)

func TestNormalizeBaseDir(t *testing.T) {
	dir := t.TempDir()
	file := touch(t, filepath.Join(dir, "Everything.exe"))
	if got := NormalizeBaseDir(`  "` + dir + `" `); got != dir {
		t.Fatalf("quoted dir: %q", got)
	}
	if got := NormalizeBaseDir(file); got != dir {
		t.Fatalf("file maps to parent: %q", got)
	}
	if got := NormalizeBaseDir(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("missing dir: %q", got)
	}
}

func TestResolverOrder(t *testing.T) {
	app := t.TempDir()
	base := t.TempDir()
	internalCLI := touch(t, filepath.Join(app, "_internal", "Everything", "es.exe"))
	baseCLI := touch(t, filepath.Join(base, "Everything", "es.exe"))
	r := Resolver{AppDir: app}

	if got := r.CLIPath(base, false); got != baseCLI {
		t.Fatalf("base dir should win: %q", got)
	}
	if got := r.CLIPath("", false); got != internalCLI {
		t.Fatalf("bundled CLI expected: %q", got)
	}
	if got := r.CLIPath("", true); got != internalCLI {
		t.Fatalf("internal-only: %q", got)
	}
	if got := r.CLIPath(filepath.Join(base, "Everything"), true); got != baseCLI {
		t.Fatalf("internal-only with base dir: %q", got)
	}
	if got := (Resolver{AppDir: t.TempDir()}).CLIPath("", true); got != "" {
		t.Fatalf("internal-only miss should be empty: %q", got)
	}
	if got := (Resolver{AppDir: t.TempDir()}).CLIPath("", false); got != DefaultCLIPath {
		t.Fatalf("placeholder expected: %q", got)
	}
}

func TestResolverLookPath(t *testing.T) {
	onPath := touch(t, filepath.Join(t.TempDir(), "es"))
	r := Resolver{AppDir: t.TempDir(), LookPath: func(name string) (string, error) {
		if name == "es" {
			return onPath, nil
		}
		return "", errNotFound
	}}
	if got := r.CLIPath("", false); got != onPath {
		t.Fatalf("PATH lookup: %q", got)
	}
}

type lookErr string

func (e lookErr) Error() string { return string(e) }

const errNotFound = lookErr("not found")

func TestUpdatePathsPrefersBundledPair(t *testing.T) {
	app := t.TempDir()
	cli := touch(t, filepath.Join(app, "_internal", "Everything", "es.exe"))
	eng := touch(t, filepath.Join(app, "_internal", "Everything", "Everything64.exe"))
	base := t.TempDir()
	touch(t, filepath.Join(base, "es.exe"))
	touch(t, filepath.Join(base, "Everything.exe"))

	m := NewWithConfig(ManagerConfig{AppDir: app, BaseDir: base, Runner: newFakeHost("")})
	if m.CLIPath() != cli || m.EnginePath() != eng {
		t.Fatalf("bundled pair expected, got %q %q", m.CLIPath(), m.EnginePath())
	}
	if !m.isInternalPath(eng) || m.isInternalPath(filepath.Join(base, "Everything.exe")) {
		t.Fatalf("internal path detection wrong")
	}
}

func TestUpdatePathsFallsBackToBaseDir(t *testing.T) {
	app := t.TempDir()
	base := t.TempDir()
	cli := touch(t, filepath.Join(base, "es.exe"))
	eng := touch(t, filepath.Join(base, "Everything.exe"))
	m := NewWithConfig(ManagerConfig{AppDir: app, Runner: newFakeHost("")})
	m.UpdatePaths(base)
	if m.CLIPath() != cli || m.EnginePath() != eng || m.BaseDir() != base {
		t.Fatalf("got %q %q %q", m.CLIPath(), m.EnginePath(), m.BaseDir())
	}

	m.UpdatePaths(t.TempDir())
	if m.CLIPath() != "" && m.CLIPath() == cli {
		t.Fatalf("stale CLI path kept after base dir change")
	}
}

func TestUpdatePathsInternalOnly(t *testing.T) {
	app := t.TempDir()
	touch(t, filepath.Join(app, "Everything", "es.exe"))
	touch(t, filepath.Join(app, "Everything", "Everything.exe"))

	m := NewWithConfig(ManagerConfig{AppDir: app, InternalOnly: true, Runner: newFakeHost("")})
	if m.CLIPath() != "" || m.EnginePath() != "" {
		t.Fatalf("internal-only must ignore %s, got %q %q", filepath.Join(app, "Everything"), m.CLIPath(), m.EnginePath())
	}

	base := t.TempDir()
	cli := touch(t, filepath.Join(base, "es.exe"))
	eng := touch(t, filepath.Join(base, "Everything.exe"))
	m.UpdatePaths(base)
	if m.CLIPath() != cli || m.EnginePath() != eng {
		t.Fatalf("base dir executables expected, got %q %q", m.CLIPath(), m.EnginePath())
	}

	nested := t.TempDir()
	touch(t, filepath.Join(nested, "Everything", "es.exe"))
	touch(t, filepath.Join(nested, "Everything", "Everything.exe"))
	m.UpdatePaths(nested)
	if m.CLIPath() != "" || m.EnginePath() != "" {
		t.Fatalf("internal-only must not descend into base/Everything, got %q %q", m.CLIPath(), m.EnginePath())
	}
}

func TestUpdatePathsKeepsExplicitPaths(t *testing.T) {
	env := newTestEnv(t)
	m := env.manager()
	m.UpdatePaths(t.TempDir())
	if m.CLIPath() != env.cli || m.EnginePath() != env.engine {
		t.Fatalf("explicit paths replaced")
	}
}

func TestSanityAndStatus(t *testing.T) {
	env := newTestEnv(t)
	m := env.manager()
	rep := m.SanityCheck()
	if !rep.CLIFound || !rep.EngineFound || rep.Error != "" {
		t.Fatalf("report %+v", rep)
	}
	m.SetInstance("next")
	st := m.Status()
	if st.Instance != "next" || st.PreviousInstance != "findd" || st.CLIPath != env.cli {
		t.Fatalf("status %+v", st)
	}

	missing := env.manager(func(c *ManagerConfig) { c.EnginePath = filepath.Join(env.dir, "x", "Everything.exe") })
	if rep := missing.SanityCheck(); rep.EngineFound || rep.Error == "" {
		t.Fatalf("missing engine not reported: %+v", rep)
	}
}
