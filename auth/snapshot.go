package auth

// Snapshot is the read-only projection of the current session consumed by the
// rest of the application. Authenticated re-checks the expiry at read time, so
// a session that silently lapsed between renewals never reports true even
// though its identifiers are still visible.
type Snapshot struct {
	TenantID      string
	AccessToken   string
	Authenticated bool
	Loading       bool
}

// Snapshot returns the current session state as a frozen value.
func (m *Manager) Snapshot() Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()

	snap := Snapshot{Loading: m.loading}
	if m.current == nil {
		return snap
	}
	snap.TenantID = m.current.TenantID
	snap.AccessToken = m.current.AccessToken
	snap.Authenticated = !m.current.Expired(m.nowTime())
	return snap
}
