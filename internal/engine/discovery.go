package engine

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Process image names the engine runs under.
var engineImageNames = []string{"Everything.exe", "Everything64.exe"}

const (
	sourcePowerShell = "powershell"
	sourceWMIC       = "wmic"
)

var (
	quotedInstanceRe = regexp.MustCompile(`(?i)(?:^|\s)-instance\s+"([^"]+)"`)
	bareInstanceRe   = regexp.MustCompile(`(?i)(?:^|\s)-instance\s+([^\s"]+)`)
	exePathRe        = regexp.MustCompile(`^\s*"([^"]+)"|^\s*(\S+)`)
	serviceDashRe    = regexp.MustCompile(`(?:^|\s)-(?:svc|start-service)\b`)
	serviceSlashRe   = regexp.MustCompile(`(?:^|\s)/svc\b`)
)

// Discovery enumerates running engine processes through the OS process
// table. Results are never cached; every call re-queries.
type Discovery struct {
	runner  Runner
	log     zerolog.Logger
	timeout time.Duration

	mu     sync.Mutex
	source string
	count  int
}

func newDiscovery(r Runner, log zerolog.Logger, timeout time.Duration) *Discovery {
	return &Discovery{runner: r, log: log, timeout: timeout}
}

// IsEngineRunningAnywhere reports whether any engine process exists,
// regardless of instance.
func (d *Discovery) IsEngineRunningAnywhere(ctx context.Context) bool {
	for _, name := range engineImageNames {
		if d.isImageRunning(ctx, name) {
			return true
		}
	}
	return false
}

func (d *Discovery) isImageRunning(ctx context.Context, image string) bool {
	c, cancel := context.WithTimeout(ctx, defaultTasklistTimeout)
	defer cancel()
	res, err := d.runner.Run(c, "tasklist", "/FI", "IMAGENAME eq "+image)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(res.Stdout)), strings.ToLower(image))
}

// IsInstanceRunning reports whether a process with the given -instance value
// is running. The unlabeled id "" matches any engine process.
func (d *Discovery) IsInstanceRunning(ctx context.Context, id string) bool {
	if id == "" {
		return d.IsEngineRunningAnywhere(ctx)
	}
	for _, info := range d.ListRunningInstances(ctx) {
		if info.Instance == id {
			return true
		}
	}
	return false
}

// IsServiceRunning reports whether any engine process runs in service mode.
func (d *Discovery) IsServiceRunning(ctx context.Context) bool {
	for _, line := range d.CommandLines(ctx) {
		if IsServiceCommandLine(line) {
			return true
		}
	}
	return false
}

// ListRunningInstances returns one entry per engine command line. An empty
// result means nothing could be verified, not necessarily that nothing runs.
func (d *Discovery) ListRunningInstances(ctx context.Context) []InstanceInfo {
	lines := d.CommandLines(ctx)
	infos := make([]InstanceInfo, 0, len(lines))
	for _, line := range lines {
		infos = append(infos, InstanceInfo{
			Instance:       ParseInstanceFlag(line),
			ExecutablePath: ParseExecutablePath(line),
			CommandLine:    line,
			Service:        IsServiceCommandLine(line),
		})
	}
	return infos
}

// ListRunningInstanceIds returns the distinct instance ids in discovery
// order; unlabeled processes contribute "" once.
func (d *Discovery) ListRunningInstanceIds(ctx context.Context) []string {
	return uniqueInstanceIDs(d.ListRunningInstances(ctx))
}

func uniqueInstanceIDs(infos []InstanceInfo) []string {
	var ids []string
	seen := make(map[string]bool, len(infos))
	for _, info := range infos {
		if seen[info.Instance] {
			continue
		}
		seen[info.Instance] = true
		ids = append(ids, info.Instance)
	}
	return ids
}

// CommandLines queries engine command lines, preferring PowerShell CIM and
// falling back to WMIC.
func (d *Discovery) CommandLines(ctx context.Context) []string {
	if lines := d.query(ctx, "powershell", "-NoProfile", "-Command",
		`Get-CimInstance Win32_Process -Filter "Name='Everything.exe' OR Name='Everything64.exe'" | Where-Object { $_.CommandLine } | Select-Object -ExpandProperty CommandLine`); len(lines) > 0 {
		d.noteSource(sourcePowerShell, len(lines))
		return lines
	}
	if out := d.query(ctx, "wmic", "process", "where",
		"name='Everything.exe' or name='Everything64.exe'", "get", "CommandLine", "/VALUE"); len(out) > 0 {
		if lines := parseWMICValues(out); len(lines) > 0 {
			d.noteSource(sourceWMIC, len(lines))
			return lines
		}
	}
	d.mu.Lock()
	hadSource := d.source != ""
	d.source, d.count = "", 0
	d.mu.Unlock()
	if hadSource {
		d.log.Warn().Msg("engine command lines unavailable from both powershell and wmic")
	}
	return nil
}

func (d *Discovery) query(ctx context.Context, name string, args ...string) []string {
	c, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	res, err := d.runner.Run(c, name, args...)
	if err != nil {
		return nil
	}
	return nonEmptyLines(string(res.Stdout))
}

// noteSource logs once per change of (source, count).
func (d *Discovery) noteSource(source string, count int) {
	d.mu.Lock()
	changed := d.source != source || d.count != count
	d.source, d.count = source, count
	d.mu.Unlock()
	if changed {
		d.log.Info().Str("source", source).Int("count", count).Msg("engine command lines discovered")
	}
}

func parseWMICValues(lines []string) []string {
	var out []string
	for _, line := range lines {
		k, v, ok := strings.Cut(line, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "CommandLine") {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ParseInstanceFlag extracts the -instance value from a command line, or "".
func ParseInstanceFlag(cmdline string) string {
	if m := quotedInstanceRe.FindStringSubmatch(cmdline); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareInstanceRe.FindStringSubmatch(cmdline); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ParseExecutablePath returns the quoted or first bare token of a command line.
func ParseExecutablePath(cmdline string) string {
	m := exePathRe.FindStringSubmatch(cmdline)
	if m == nil {
		return ""
	}
	p := m[1]
	if p == "" {
		p = m[2]
	}
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

// IsServiceCommandLine reports whether cmdline starts the engine in service mode.
func IsServiceCommandLine(cmdline string) bool {
	lowered := strings.ToLower(cmdline)
	return serviceDashRe.MatchString(lowered) || serviceSlashRe.MatchString(lowered)
}
