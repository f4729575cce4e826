package engine

import "time"

// BlockAutostart suppresses engine starts for d. EnsureRunning fails fast
// with ErrAutostartBlocked while the block is active; it clears itself once
// the deadline passes. Non-positive durations are ignored.
func (m *Manager) BlockAutostart(d time.Duration, reason string) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.autostartUntil = time.Now().Add(d)
	m.autostartReason = reason
	m.autostartLogged = false
	m.mu.Unlock()
	m.publish(Event{Name: "autostart_blocked", Instance: m.Instance(), Fields: map[string]any{"seconds": d.Seconds(), "reason": reason}})
}

// autostartBlocked reports whether the block is active, logging once per block.
func (m *Manager) autostartBlocked() (bool, string) {
	m.mu.Lock()
	if m.autostartUntil.IsZero() {
		m.mu.Unlock()
		return false, ""
	}
	if !time.Now().Before(m.autostartUntil) {
		m.autostartUntil = time.Time{}
		m.autostartReason = ""
		m.autostartLogged = false
		m.mu.Unlock()
		return false, ""
	}
	reason := m.autostartReason
	logIt := !m.autostartLogged
	m.autostartLogged = true
	m.mu.Unlock()
	if logIt {
		m.log.Info().Str("reason", reason).Msg("engine autostart temporarily blocked")
	}
	return true, reason
}
