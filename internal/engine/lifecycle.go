package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"findd/internal/common/fsutil"
)

// EnsureRunning makes the engine answer IPC queries, starting or
// restarting it when needed. Each failure mode gets at most one remedy per
// call. With forceRestart and a custom base directory, conflicting
// instances are stopped first so the engine from that directory serves
// queries. Concurrent callers share a single lifecycle pass.
func (m *Manager) EnsureRunning(ctx context.Context, timeout time.Duration, forceRestart bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = m.ensureTimeout
	}
	key := "ensure"
	if forceRestart {
		key = "ensure-restart"
	}
	// the shared pass outlives any single caller; each caller stops waiting
	// on its own ctx
	ch := m.ensureGroup.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.flightTimeout(timeout))
		defer cancel()
		return nil, m.ensureRunning(fctx, timeout, forceRestart)
	})
	select {
	case r := <-ch:
		engineEnsure.WithLabelValues(ensureOutcome(r.Err)).Inc()
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// flightTimeout bounds one shared lifecycle pass: a stop of conflicting
// instances, a start and up to two readiness waits.
func (m *Manager) flightTimeout(timeout time.Duration) time.Duration {
	return 2*timeout + m.stopTimeout + m.stopWait
}

func ensureOutcome(err error) string {
	switch {
	case err == nil:
		return "ready"
	case IsAutostartBlocked(err):
		return "blocked"
	case IsEngineNotFound(err):
		return "engine_not_found"
	case IsStopFailed(err):
		return "stop_failed"
	case IsNotReady(err):
		return "not_ready"
	default:
		return "error"
	}
}

func (m *Manager) ensureRunning(ctx context.Context, timeout time.Duration, forceRestart bool) error {
	_, enginePath := m.paths()
	baseDir := m.BaseDir()
	inst := m.Instance()
	m.publish(Event{Name: "ensure_start", Instance: inst, Fields: map[string]any{"force": forceRestart}})

	if forceRestart && baseDir != "" {
		return m.restartFromBaseDir(ctx, timeout, enginePath)
	}

	ready, reason := m.ProbeReady(ctx, inst)
	m.setLastError(reason)
	if ready {
		m.setState(StateReady)
		m.publish(Event{Name: "ensure_ready", Instance: inst})
		return nil
	}
	if blocked, why := m.autostartBlocked(); blocked {
		err := ErrAutostartBlocked(why)
		m.setLastError(err.Error())
		return err
	}
	if !fsutil.IsFile(enginePath) {
		m.log.Error().Str("path", fsutil.FormatPathForLog(enginePath)).Msg("engine executable not found, search unavailable")
		return ErrEngineNotFound(enginePath)
	}

	if inst != "" {
		if !m.discovery.IsInstanceRunning(ctx, inst) {
			if err := m.startEngine(enginePath, "", true); err != nil {
				return err
			}
			return m.waitOrFail(ctx, timeout)
		}
		m.MarkStartedInstance(inst, enginePath)
		m.setState(StateRunningNotReady)
		if m.WaitUntilReady(ctx, timeout) {
			return nil
		}
		m.log.Info().Str("instance", inst).Msg("instance is running but IPC is unavailable, starting UI front end")
		if err := m.startEngine(enginePath, "fallback", true); err != nil {
			return err
		}
		return m.waitOrFail(ctx, timeout)
	}

	if m.discovery.IsEngineRunningAnywhere(ctx) {
		if baseDir != "" {
			// only the install under baseDir may serve queries
			m.log.Warn().Str("base_dir", fsutil.FormatPathForLog(baseDir)).Msg("engine running from another location is not answering, not adopting it")
			m.setState(StateRunningNotReady)
			m.logIPCHints()
			return ErrNotReady(m.LastError())
		}
		if id, ok := m.FindAnyReadyRunningInstance(ctx); ok {
			if id != inst {
				m.log.Info().Str("instance", instanceLabel(id)).Msg("adopting running engine instance")
			}
			m.mu.Lock()
			m.instance = id
			m.lastErr = ""
			m.mu.Unlock()
			m.setState(StateReady)
			m.publish(Event{Name: "ensure_adopted", Instance: id})
			return nil
		}
		if m.discovery.IsServiceRunning(ctx) {
			m.log.Info().Msg("engine runs as a service without UI, starting UI front end")
		} else {
			m.log.Info().Msg("engine is running but IPC is unavailable, starting UI front end")
		}
		if err := m.startEngine(enginePath, "fallback", false); err != nil {
			return err
		}
		return m.waitOrFail(ctx, timeout)
	}

	if err := m.startEngine(enginePath, "", true); err != nil {
		return err
	}
	return m.waitOrFail(ctx, timeout)
}

// restartFromBaseDir replaces whatever engine is running with the one from
// the configured base directory.
func (m *Manager) restartFromBaseDir(ctx context.Context, timeout time.Duration, enginePath string) error {
	if !fsutil.IsFile(enginePath) {
		m.log.Error().Str("path", fsutil.FormatPathForLog(enginePath)).Msg("engine executable not found, search unavailable")
		return ErrEngineNotFound(enginePath)
	}
	if m.discovery.IsEngineRunningAnywhere(ctx) {
		m.log.Info().Msg("restarting engine on request")
		m.setState(StateStopping)
		m.stopConflictingInstances(ctx)
		stopped := m.tryStopExistingInstances(ctx)
		if !stopped {
			stopped = m.tryStopDetectedInstances(ctx)
		}
		if !stopped && m.discovery.IsEngineRunningAnywhere(ctx) {
			reason := m.LastError()
			if reason == "" {
				reason = "engine did not exit"
				m.setLastError(reason)
			}
			m.log.Warn().Str("reason", reason).Msg("engine is running and could not be stopped, not starting a duplicate")
			m.setState(StateRunningNotReady)
			m.logIPCHints()
			return ErrStopFailed(reason)
		}
		m.setState(StateNotRunning)
	}
	if err := m.startEngine(enginePath, "", true); err != nil {
		return err
	}
	return m.waitOrFail(ctx, timeout)
}

func (m *Manager) waitOrFail(ctx context.Context, timeout time.Duration) error {
	if m.WaitUntilReady(ctx, timeout) {
		m.publish(Event{Name: "ensure_ready", Instance: m.Instance()})
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.setState(StateRunningNotReady)
	m.logIPCHints()
	m.publish(Event{Name: "ensure_timeout", Instance: m.Instance(), Fields: map[string]any{"reason": m.LastError()}})
	return ErrNotReady(m.LastError())
}

// startEngine launches the engine detached with -startup, bound to the
// desired instance. mark records the start in the ownership list.
func (m *Manager) startEngine(enginePath, reason string, mark bool) error {
	inst := m.Instance()
	var args []string
	if inst != "" {
		args = append(args, "-instance", inst)
	}
	args = append(args, "-startup")
	if m.isInternalPath(enginePath) {
		m.log.Info().Msg("starting engine from bundled _internal/Everything")
	}
	m.setState(StateStarting)
	if err := m.runner.Start(filepath.Dir(enginePath), enginePath, args...); err != nil {
		m.log.Error().Err(err).Str("path", fsutil.FormatPathForLog(enginePath)).Msg("could not start engine")
		m.setState(StateNotRunning)
		return fmt.Errorf("start engine: %w", err)
	}
	if mark {
		m.MarkStartedInstance(inst, enginePath)
	}
	mode := "normal"
	if reason != "" {
		mode = reason
	}
	engineStarts.WithLabelValues(mode).Inc()
	m.log.Info().
		Str("instance", instanceLabel(inst)).
		Str("mode", mode).
		Str("path", fsutil.FormatPathForLog(enginePath)).
		Str("args", FormatArgsForLog(args)).
		Msg("engine started")
	m.publish(Event{Name: "engine_start", Instance: inst, Fields: map[string]any{"mode": mode}})
	return nil
}
