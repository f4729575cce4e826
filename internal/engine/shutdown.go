package engine

import (
	"context"
	"time"

	"findd/internal/common/fsutil"
)

// StopInstance asks the engine instance id ("" for the unlabeled default)
// to exit through the query CLI. Success means the CLI exited with code 0;
// the process is never killed.
func (m *Manager) StopInstance(ctx context.Context, id string) bool {
	cli := m.CLIPath()
	if !fsutil.IsFile(cli) {
		return false
	}
	c, cancel := context.WithTimeout(ctx, m.stopTimeout)
	defer cancel()
	res, err := m.runner.Run(c, cli, ExitCommand(id).Args()...)
	if err != nil || res.ExitCode != 0 {
		engineStops.WithLabelValues("failed").Inc()
		return false
	}
	engineStops.WithLabelValues("stopped").Inc()
	m.log.Info().Str("instance", instanceLabel(id)).Msg("engine instance stopped")
	m.publish(Event{Name: "engine_stop", Instance: id})
	return true
}

// waitForExit polls until no engine process remains or stopWait elapses.
func (m *Manager) waitForExit(ctx context.Context) bool {
	deadline := time.Now().Add(m.stopWait)
	for {
		if !m.discovery.IsEngineRunningAnywhere(ctx) {
			return true
		}
		if !time.Now().Before(deadline) || ctx.Err() != nil {
			return false
		}
		t := time.NewTimer(m.pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
}

// tryStopExistingInstances stops the desired id, the previous id and the
// unlabeled default, then waits for the processes to go away.
func (m *Manager) tryStopExistingInstances(ctx context.Context) bool {
	if !m.CLIAvailable() {
		return false
	}
	m.mu.RLock()
	candidates := []string{m.instance}
	if m.previousInstance != "" && m.previousInstance != m.instance {
		candidates = append(candidates, m.previousInstance)
	}
	m.mu.RUnlock()
	if candidates[0] != "" {
		candidates = append(candidates, "")
	}
	stoppedAny := false
	for _, id := range candidates {
		if m.StopInstance(ctx, id) {
			stoppedAny = true
		}
	}
	if !stoppedAny {
		return false
	}
	return m.waitForExit(ctx)
}

// tryStopDetectedInstances stops every instance id discovery reports.
func (m *Manager) tryStopDetectedInstances(ctx context.Context) bool {
	ids := m.discovery.ListRunningInstanceIds(ctx)
	if len(ids) == 0 {
		return false
	}
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = instanceLabel(id)
	}
	m.log.Info().Strs("instances", labels).Msg("stopping detected engine instances")
	stoppedAny := false
	for _, id := range ids {
		if m.StopInstance(ctx, id) {
			stoppedAny = true
		}
	}
	if !stoppedAny {
		return false
	}
	return m.waitForExit(ctx)
}

// stopConflictingInstances stops running instances that differ from the
// desired (instance, engine path) pair.
func (m *Manager) stopConflictingInstances(ctx context.Context) bool {
	infos := m.discovery.ListRunningInstances(ctx)
	if len(infos) == 0 {
		return false
	}
	inst := m.Instance()
	desiredPath := fsutil.NormalizePath(m.EnginePath())
	stoppedAny := false
	for _, info := range infos {
		if isDesiredInstance(info, inst, desiredPath) {
			continue
		}
		m.log.Info().
			Str("instance", instanceLabel(info.Instance)).
			Str("path", fsutil.FormatPathForLog(info.ExecutablePath)).
			Msg("stopping conflicting engine instance")
		if m.StopInstance(ctx, info.Instance) {
			stoppedAny = true
		}
	}
	return stoppedAny
}

func isDesiredInstance(info InstanceInfo, inst, desiredPath string) bool {
	if info.Instance != inst {
		return false
	}
	infoPath := fsutil.NormalizePath(info.ExecutablePath)
	if desiredPath != "" && infoPath != "" && desiredPath != infoPath {
		return false
	}
	return true
}

// isOwnedRunning reports whether an owned (instance, path) pair appears in infos.
func isOwnedRunning(infos []InstanceInfo, owned OwnedInstance) bool {
	want := fsutil.NormalizePath(owned.Path)
	for _, info := range infos {
		if info.Instance != owned.Instance {
			continue
		}
		if want != "" {
			got := fsutil.NormalizePath(info.ExecutablePath)
			if got == "" || got != want {
				continue
			}
		}
		return true
	}
	return false
}

// ShutdownStartedInstances stops engine instances this process started and
// that are still observed running. When discovery returns nothing, named
// owned instances are stopped by id and an unlabeled one only if it was
// started from the bundled _internal tree. forceInternal additionally stops
// any engine running from the configured (bundled) engine path.
func (m *Manager) ShutdownStartedInstances(ctx context.Context, forceInternal bool) bool {
	if !m.CLIAvailable() {
		return false
	}
	owned := m.OwnedInstances()
	if len(owned) == 0 && !forceInternal {
		return false
	}
	m.setState(StateStopping)
	defer m.setState(StateNotRunning)

	closedAny := false
	infos := m.discovery.ListRunningInstances(ctx)
	for _, o := range owned {
		label := instanceLabel(o.Instance)
		pathLabel := fsutil.FormatPathForLog(o.Path)
		if len(infos) > 0 {
			if !isOwnedRunning(infos, o) {
				continue
			}
			m.log.Info().Str("instance", label).Str("path", pathLabel).Msg("stopping engine started by findd")
			if m.StopInstance(ctx, o.Instance) {
				m.forgetOwned(o)
				closedAny = true
			}
			continue
		}
		if o.Instance != "" {
			m.log.Info().Str("instance", label).Str("path", pathLabel).Msg("stopping owned engine instance by id")
			if m.StopInstance(ctx, o.Instance) {
				m.forgetOwned(o)
				closedAny = true
			}
		} else if o.Path != "" && m.isInternalPath(o.Path) {
			m.log.Info().Msg("stopping default engine instance from _internal/Everything")
			if m.StopInstance(ctx, "") {
				m.forgetOwned(o)
				closedAny = true
			}
		}
	}

	if forceInternal {
		enginePath := m.EnginePath()
		internal := fsutil.NormalizePath(enginePath)
		if internal != "" {
			matched := false
			for _, info := range infos {
				p := fsutil.NormalizePath(info.ExecutablePath)
				if p == "" || p != internal {
					continue
				}
				matched = true
				m.log.Info().
					Str("instance", instanceLabel(info.Instance)).
					Str("path", fsutil.FormatPathForLog(info.ExecutablePath)).
					Msg("stopping engine running from _internal")
				if m.StopInstance(ctx, info.Instance) {
					closedAny = true
				}
			}
			if !matched && !closedAny && m.isInternalPath(enginePath) && m.discovery.IsEngineRunningAnywhere(ctx) {
				m.log.Info().Msg("engine path unknown, stopping default instance from _internal/Everything")
				if m.StopInstance(ctx, "") {
					closedAny = true
				}
			}
		}
	}
	return closedAny
}

// ShutdownOwnInstance stops the configured instance, or the default
// instance name when none is configured.
func (m *Manager) ShutdownOwnInstance(ctx context.Context) bool {
	if !m.CLIAvailable() {
		return false
	}
	m.mu.RLock()
	inst := m.instance
	if inst == "" {
		inst = m.defaultInstance
	}
	m.mu.RUnlock()
	if inst == "" {
		return false
	}
	m.log.Info().Str("instance", inst).Msg("stopping own engine instance")
	return m.StopInstance(ctx, inst)
}
