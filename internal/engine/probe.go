package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"findd/internal/common/fsutil"
)

// Probe failure reasons.
const (
	ReasonCLINotFound     = "query CLI not found"
	ReasonCLIExecFailed   = "could not run query CLI"
	ReasonIPCNotRunning   = "IPC: server not running"
	ReasonIPCUnavailable  = "IPC: server unavailable"
	ReasonIPCConnectError = "IPC: connection failed"
)

// ClassifyProbe maps the output of a probe query to (ready, reason).
// IPC error phrases win over the exit code because the CLI prints them and
// may still exit zero.
func ClassifyProbe(res Result) (bool, string) {
	output := string(res.Stdout) + "\n" + string(res.Stderr)
	lowered := strings.ToLower(output)
	hasIPC := strings.Contains(lowered, "ipc")
	switch {
	case hasIPC && strings.Contains(lowered, "not running"):
		return false, ReasonIPCNotRunning
	case hasIPC && strings.Contains(lowered, "server") && strings.Contains(lowered, "not"):
		return false, ReasonIPCUnavailable
	case hasIPC && strings.Contains(lowered, "failed"):
		return false, ReasonIPCConnectError
	}
	if res.ExitCode == 0 {
		return true, ""
	}
	if strings.TrimSpace(string(res.Stdout)) != "" {
		return true, ""
	}
	if lines := nonEmptyLines(output); len(lines) > 0 {
		return false, lines[0]
	}
	return false, "exit code " + strconv.Itoa(res.ExitCode)
}

// ProbeReady asks the query CLI for a single result from instance. It
// returns true only when the IPC channel answered.
func (m *Manager) ProbeReady(ctx context.Context, instance string) (bool, string) {
	cli := m.CLIPath()
	if !fsutil.IsFile(cli) {
		engineProbes.WithLabelValues("error").Inc()
		return false, ReasonCLINotFound
	}
	c, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	res, err := m.runner.Run(c, cli, ProbeCommand(instance).Args()...)
	if err != nil {
		engineProbes.WithLabelValues("error").Inc()
		return false, ReasonCLIExecFailed
	}
	ready, reason := ClassifyProbe(res)
	if ready {
		engineProbes.WithLabelValues("ready").Inc()
	} else {
		engineProbes.WithLabelValues("not_ready").Inc()
	}
	return ready, reason
}

// WaitUntilReady polls the desired instance until it answers or timeout
// elapses. The last failure reason is kept in LastError and logged once on
// timeout.
func (m *Manager) WaitUntilReady(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if m.IsReady(ctx) {
			return true
		}
		if !time.Now().Before(deadline) || ctx.Err() != nil {
			break
		}
		wait := m.pollInterval
		if left := time.Until(deadline); left < wait {
			wait = left
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
	if reason := m.LastError(); reason != "" {
		m.log.Warn().Str("reason", reason).Dur("timeout", timeout).Msg("query CLI could not reach the engine in time")
	} else {
		m.log.Warn().Dur("timeout", timeout).Msg("query CLI could not reach the engine in time")
	}
	return false
}

// FindAnyReadyRunningInstance probes every discovered instance id (or the
// unlabeled default when discovery is empty) and returns the first one that
// answers.
func (m *Manager) FindAnyReadyRunningInstance(ctx context.Context) (string, bool) {
	ids := m.discovery.ListRunningInstanceIds(ctx)
	if len(ids) == 0 {
		ids = []string{""}
	}
	lastErr := ""
	for _, id := range ids {
		ready, reason := m.ProbeReady(ctx, id)
		if ready {
			return id, true
		}
		if reason != "" {
			lastErr = reason
		}
	}
	if lastErr != "" {
		m.setLastError(lastErr)
	}
	return "", false
}

// IPCHints turns a readiness failure reason into operator advice.
func IPCHints(reason string) []string {
	lowered := strings.ToLower(reason)
	var hints []string
	if strings.Contains(lowered, "unable to send ipc message") {
		hints = append(hints, "the engine may be running as administrator; disable 'Run as administrator' and restart it")
	}
	if strings.Contains(lowered, "ipc") && strings.Contains(lowered, "window not found") {
		hints = append(hints, "the engine may not be running, may be elevated, or may run as a service without UI; start it normally")
	}
	return hints
}

func (m *Manager) logIPCHints() {
	for _, h := range IPCHints(m.LastError()) {
		m.log.Info().Str("hint", h).Msg("engine IPC hint")
	}
}
