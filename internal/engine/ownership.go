package engine

import (
	"encoding/json"
	"os"
	"path/filepath"

	"findd/internal/common/fsutil"
)

// MarkStartedInstance records (instance, path) as owned by this process.
// An empty path means the current engine path. Duplicate pairs are ignored.
func (m *Manager) MarkStartedInstance(instance, path string) {
	if path == "" {
		path = m.EnginePath()
	}
	entry := OwnedInstance{Instance: instance, Path: fsutil.NormalizePath(path)}
	m.mu.Lock()
	for _, o := range m.started {
		if o == entry {
			m.mu.Unlock()
			return
		}
	}
	m.started = append(m.started, entry)
	m.mu.Unlock()
	m.saveOwnership()
}

// OwnedInstances returns a copy of the ownership record.
func (m *Manager) OwnedInstances() []OwnedInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]OwnedInstance, len(m.started))
	copy(out, m.started)
	return out
}

func (m *Manager) forgetOwned(entry OwnedInstance) {
	m.mu.Lock()
	kept := m.started[:0]
	for _, o := range m.started {
		if o != entry {
			kept = append(kept, o)
		}
	}
	m.started = kept
	m.mu.Unlock()
	m.saveOwnership()
}

type ownershipRecord struct {
	Started []OwnedInstance `json:"started"`
}

// loadOwnership restores the ownership record written by a previous run.
func (m *Manager) loadOwnership() {
	if m.stateFile == "" {
		return
	}
	f, err := os.Open(m.stateFile)
	if err != nil {
		return
	}
	defer f.Close()
	var rec ownershipRecord
	if err := json.NewDecoder(f).Decode(&rec); err != nil {
		m.log.Warn().Err(err).Str("path", m.stateFile).Msg("ignoring unreadable ownership record")
		return
	}
	m.mu.Lock()
	m.started = rec.Started
	m.mu.Unlock()
}

func (m *Manager) saveOwnership() {
	if m.stateFile == "" {
		return
	}
	// Snapshot under lock
	m.mu.RLock()
	rec := ownershipRecord{Started: append([]OwnedInstance(nil), m.started...)}
	m.mu.RUnlock()
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(m.stateFile), 0o755); err != nil {
		m.log.Warn().Err(err).Msg("could not create ownership record directory")
		return
	}
	if err := os.WriteFile(m.stateFile, b, 0o644); err != nil {
		m.log.Warn().Err(err).Str("path", m.stateFile).Msg("could not persist ownership record")
	}
}
