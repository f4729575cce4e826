package engine

import (
	"time"

	"findd/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		State:            m.state,
		CLIPath:          m.cliPath,
		EnginePath:       m.enginePath,
		BaseDir:          m.baseDir,
		Instance:         m.instance,
		PreviousInstance: m.previousInstance,
		Owned:            append([]OwnedInstance(nil), m.started...),
		LastError:        m.lastErr,
	}
	if time.Now().Before(m.autostartUntil) {
		s.AutostartUntil = m.autostartUntil
		s.AutostartReason = m.autostartReason
	}
	return s
}

// Status builds the engine section of the /status response.
func (m *Manager) Status() types.EngineStatus {
	m.paths()
	s := m.Snapshot()
	resp := types.EngineStatus{
		State:            string(s.State),
		CLIPath:          s.CLIPath,
		EnginePath:       s.EnginePath,
		BaseDir:          s.BaseDir,
		Instance:         s.Instance,
		PreviousInstance: s.PreviousInstance,
		LastError:        s.LastError,
		AutostartReason:  s.AutostartReason,
	}
	if !s.AutostartUntil.IsZero() {
		resp.AutostartBlockedUntil = s.AutostartUntil.Unix()
	}
	resp.Owned = make([]types.OwnedInstance, 0, len(s.Owned))
	for _, o := range s.Owned {
		resp.Owned = append(resp.Owned, types.OwnedInstance{Instance: o.Instance, Path: o.Path})
	}
	return resp
}
