package engine

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"findd/internal/common/fsutil"
)

// Executable names probed by the resolver.
var (
	cliNames    = []string{"es.exe", "es"}
	engineNames = []string{"Everything.exe", "Everything64.exe", "everything.exe", "everything64.exe"}
)

// DefaultCLIPath is returned as a placeholder when no CLI is found.
const DefaultCLIPath = `C:\Program Files\Everything\ES-1.1.0.30.x64\es.exe`

var defaultEnginePaths = []string{
	`C:\Program Files\Everything\Everything.exe`,
	`C:\Program Files\Everything\Everything64.exe`,
	`C:\Program Files (x86)\Everything\Everything.exe`,
	`C:\Program Files (x86)\Everything\Everything64.exe`,
}

// internalSubdir is where a bundled engine is shipped next to the binary.
var internalSubdir = filepath.Join("_internal", "Everything")

// NormalizeBaseDir trims whitespace and quotes, maps a file to its parent
// directory and returns "" unless the result is an existing directory.
func NormalizeBaseDir(dir string) string {
	cleaned := strings.Trim(strings.TrimSpace(dir), `"`)
	if cleaned == "" {
		return ""
	}
	if fsutil.IsFile(cleaned) {
		cleaned = filepath.Dir(cleaned)
	}
	if !fsutil.IsDir(cleaned) {
		return ""
	}
	return cleaned
}

// Resolver locates the engine executables on disk.
type Resolver struct {
	// AppDir holds the bundled _internal tree.
	AppDir string
	// WorkDir is probed after the application directory when it differs.
	WorkDir string
	// LookPath searches PATH; nil disables the PATH step.
	LookPath func(string) (string, error)
}

// DefaultResolver probes relative to the running executable.
func DefaultResolver() Resolver {
	wd, _ := os.Getwd()
	return Resolver{AppDir: fsutil.AppBaseDir(), WorkDir: wd, LookPath: exec.LookPath}
}

// ResolveCLIPath locates the query CLI with the default resolver.
func ResolveCLIPath(baseDir string, internalOnly bool) string {
	return DefaultResolver().CLIPath(baseDir, internalOnly)
}

// ResolveEnginePath locates the engine executable with the default resolver.
func ResolveEnginePath(baseDir string, internalOnly bool) string {
	return DefaultResolver().EnginePath(baseDir, internalOnly)
}

// CLIPath returns the first existing query CLI. Outside internal-only mode a
// missing CLI yields DefaultCLIPath so callers can report where it was
// expected; in internal-only mode it yields "".
func (r Resolver) CLIPath(baseDir string, internalOnly bool) string {
	if p := r.find(baseDir, internalOnly, cliNames); p != "" {
		return p
	}
	if internalOnly {
		return ""
	}
	return DefaultCLIPath
}

// EnginePath returns the first existing engine executable, or "".
func (r Resolver) EnginePath(baseDir string, internalOnly bool) string {
	if p := r.find(baseDir, internalOnly, engineNames); p != "" {
		return p
	}
	if internalOnly {
		return ""
	}
	for _, p := range defaultEnginePaths {
		if fsutil.IsFile(p) {
			return filepath.Clean(p)
		}
	}
	return ""
}

func (r Resolver) find(baseDir string, internalOnly bool, names []string) string {
	baseDir = NormalizeBaseDir(baseDir)
	var dirs []string
	if internalOnly {
		if baseDir != "" {
			dirs = append(dirs, baseDir)
		} else if r.AppDir != "" {
			dirs = append(dirs, filepath.Join(r.AppDir, internalSubdir))
		}
		return firstExisting(dirs, names)
	}
	if baseDir != "" {
		dirs = append(dirs, baseDir, filepath.Join(baseDir, "Everything"))
	}
	if r.AppDir != "" {
		dirs = append(dirs,
			filepath.Join(r.AppDir, internalSubdir),
			filepath.Join(r.AppDir, "_internal"),
			filepath.Join(r.AppDir, "Everything"),
			r.AppDir,
		)
	}
	if r.WorkDir != "" && filepath.Clean(r.WorkDir) != filepath.Clean(r.AppDir) {
		dirs = append(dirs, filepath.Join(r.WorkDir, "Everything"), r.WorkDir)
	}
	if p := firstExisting(dirs, names); p != "" {
		return p
	}
	if r.LookPath != nil {
		for _, n := range names {
			if p, err := r.LookPath(n); err == nil && p != "" {
				return filepath.Clean(p)
			}
		}
	}
	return ""
}

// firstExisting walks dirs in order, trying every name in each directory.
func firstExisting(dirs, names []string) string {
	for _, d := range dirs {
		for _, n := range names {
			p := filepath.Join(d, n)
			if fsutil.IsFile(p) {
				return filepath.Clean(p)
			}
		}
	}
	return ""
}

func (m *Manager) resolver() Resolver {
	r := DefaultResolver()
	m.mu.RLock()
	r.AppDir = m.appDir
	m.mu.RUnlock()
	return r
}

// paths returns the CLI and engine paths, resolving them on first use.
func (m *Manager) paths() (string, string) {
	m.mu.RLock()
	resolved := m.pathsResolved
	cli, eng := m.cliPath, m.enginePath
	base := m.baseDir
	m.mu.RUnlock()
	if resolved {
		return cli, eng
	}
	m.UpdatePaths(base)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cliPath, m.enginePath
}

// UpdatePaths re-resolves the executables for baseDir. A bundled
// _internal/Everything pair wins when both executables exist; otherwise the
// base dir (or the application directory) is searched and paths that do not
// exist are cleared. In internal-only mode nothing outside baseDir and the
// bundled tree is considered. Explicitly configured paths are never replaced.
func (m *Manager) UpdatePaths(baseDir string) {
	base := NormalizeBaseDir(baseDir)
	r := m.resolver()
	internalDir := NormalizeBaseDir(filepath.Join(r.AppDir, internalSubdir))
	var internalCLI, internalEngine string
	if internalDir != "" {
		internalCLI = r.CLIPath(internalDir, true)
		internalEngine = r.EnginePath(internalDir, true)
	}

	m.mu.Lock()
	m.baseDir = base
	m.pathsResolved = true
	if internalCLI != "" && internalEngine != "" {
		m.setPathsLocked(internalCLI, internalEngine)
		logInternal := !m.internalLogged
		m.internalLogged = true
		m.internalMissingLogged = false
		m.fallbackLogged = false
		m.mu.Unlock()
		if logInternal {
			m.log.Info().Str("dir", fsutil.FormatPathForLog(internalDir)).Msg("using bundled _internal/Everything")
		}
		return
	}
	m.internalLogged = false
	logMissing := !m.internalMissingLogged
	m.internalMissingLogged = true
	internalOnly := m.internalOnly
	m.mu.Unlock()
	if logMissing {
		m.log.Info().Bool("internal_only", internalOnly).Msg("bundled _internal/Everything not found, falling back to base directory")
	}

	var cli, eng string
	if internalOnly {
		// only the base dir itself or the bundled tree
		cli = r.CLIPath(base, true)
		eng = r.EnginePath(base, true)
	} else {
		fallback := base
		if fallback == "" {
			fallback = r.AppDir
		}
		cli = r.CLIPath(fallback, false)
		eng = r.EnginePath(fallback, false)
	}
	if !fsutil.IsFile(cli) {
		cli = ""
	}
	if !fsutil.IsFile(eng) {
		eng = ""
	}

	m.mu.Lock()
	m.setPathsLocked(cli, eng)
	cli, eng = m.cliPath, m.enginePath
	logFallback := false
	if cli != "" && eng != "" {
		logFallback = !m.fallbackLogged
		m.fallbackLogged = true
	} else {
		m.fallbackLogged = false
	}
	m.mu.Unlock()
	if logFallback {
		m.log.Info().Str("dir", fsutil.FormatPathForLog(filepath.Dir(cli))).Msg("using engine from directory")
	}
}

func (m *Manager) setPathsLocked(cli, eng string) {
	if !m.explicitCLI {
		m.cliPath = cli
	}
	if !m.explicitEngine {
		m.enginePath = eng
	}
}

// isInternalPath reports whether path lies under the bundled _internal tree.
func (m *Manager) isInternalPath(path string) bool {
	m.mu.RLock()
	app := m.appDir
	m.mu.RUnlock()
	if app == "" || path == "" {
		return false
	}
	return fsutil.HasPathPrefix(path, filepath.Join(app, "_internal"))
}
