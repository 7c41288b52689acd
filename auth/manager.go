// Package auth owns the session lifecycle for one console tab: acquiring a
// session at login, restoring and validating a persisted one at start, silently
// renewing the access token before it expires, and tearing everything down at
// logout or when renewal fails.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/safvlabs/go-console-client/renewal"
	"github.com/safvlabs/go-console-client/session"
)

// Manager is the session lifecycle controller. It is the only writer of the
// session store; everything else reads frozen Snapshots or requests mutations
// through Login, Logout and Refresh.
type Manager struct {
	store     session.Store
	transport Transport
	scheduler *renewal.Scheduler
	nowTime   func() time.Time
	log       zerolog.Logger

	lock       sync.Mutex
	current    *session.Session
	loading    bool
	refreshing bool // single-flight guard for the refresh exchange
	epoch      uint64
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogger sets the manager logger.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager initializes a Manager with required dependencies. The manager
// starts in the loading state until Start has run.
func NewManager(store session.Store, transport Transport, scheduler *renewal.Scheduler, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] session store is required")
	}
	if transport == nil {
		return nil, errors.New("[NewManager] credential transport is required")
	}
	if scheduler == nil {
		return nil, errors.New("[NewManager] renewal scheduler is required")
	}

	m := &Manager{
		store:     store,
		transport: transport,
		scheduler: scheduler,
		nowTime:   time.Now,
		log:       zerolog.Nop(),
		loading:   true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Start restores the persisted session, arms renewal when one is present, and
// clears the loading flag. The store already rejects expired or malformed
// records, so whatever it returns is trusted here.
func (m *Manager) Start() {
	m.lock.Lock()
	defer m.lock.Unlock()
	defer func() { m.loading = false }()

	loaded := m.store.Load()
	if loaded == nil {
		m.current = nil
		m.log.Info().Msg("no persisted session, starting unauthenticated")
		return
	}

	m.current = loaded
	m.armLocked(loaded)
	m.log.Info().
		Str("tenant_id", loaded.TenantID).
		Time("expires_at", loaded.ExpiresAt).
		Msg("restored persisted session")
}

// Login exchanges credentials for a token pair and installs the resulting
// session. On failure nothing changes and the error is returned for display.
func (m *Manager) Login(ctx context.Context, tenantID, email, password string) error {
	grant, err := m.transport.ExchangeCredentials(ctx, tenantID, email, password)
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] exchange credentials")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.epoch++ // a refresh still in flight for a previous session must not apply
	s := &session.Session{
		TenantID:     tenantID,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    m.nowTime().Add(grant.ExpiresIn),
	}
	m.current = s
	if err := m.store.Save(s); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist session, continuing in memory")
	}
	m.armLocked(s)
	m.log.Info().Str("tenant_id", tenantID).Time("expires_at", s.ExpiresAt).Msg("logged in")
	return nil
}

// Logout tears the session down locally and then revokes the refresh token
// server-side on a best-effort basis. It is idempotent and never fails: with
// no active session it still clears the slot and disarms renewal.
func (m *Manager) Logout(ctx context.Context) {
	m.lock.Lock()
	departed := m.teardownLocked()
	m.lock.Unlock()

	if departed == nil {
		return
	}
	if err := m.transport.InvalidateRefreshToken(ctx, departed.TenantID, departed.RefreshToken); err != nil {
		m.log.Warn().Err(err).Str("tenant_id", departed.TenantID).
			Msg("refresh token invalidation failed, session already torn down locally")
	}
	m.log.Info().Str("tenant_id", departed.TenantID).Msg("logged out")
}

// Refresh renews the access token with the current refresh token. A call with
// no session, or while another refresh is in flight, is a no-op. A failed
// exchange means the refresh token is no longer usable, so the manager forces
// a logout instead of surfacing the error.
func (m *Manager) Refresh(ctx context.Context) {
	m.lock.Lock()
	if m.current == nil || m.refreshing {
		m.lock.Unlock()
		return
	}
	m.refreshing = true
	before := *m.current
	epoch := m.epoch
	m.lock.Unlock()

	grant, err := m.transport.ExchangeRefreshToken(ctx, before.TenantID, before.RefreshToken)

	m.lock.Lock()
	m.refreshing = false
	if m.epoch != epoch || m.current == nil {
		// Logged out, replaced or closed while the exchange was in flight.
		m.lock.Unlock()
		m.log.Debug().Msg("discarding refresh result for superseded session")
		return
	}
	if err != nil {
		// Teardown must happen in the same critical section as the epoch
		// check: a login landing between the check and the teardown would
		// otherwise lose its fresh session to the failure of a refresh that
		// never belonged to it.
		departed := m.teardownLocked()
		m.lock.Unlock()
		m.log.Warn().Err(err).Str("tenant_id", before.TenantID).Msg("token refresh failed, forcing logout")
		if departed != nil {
			if ierr := m.transport.InvalidateRefreshToken(ctx, departed.TenantID, departed.RefreshToken); ierr != nil {
				m.log.Warn().Err(ierr).Str("tenant_id", departed.TenantID).
					Msg("refresh token invalidation failed, session already torn down locally")
			}
		}
		return
	}

	refreshToken := grant.RefreshToken
	if refreshToken == "" {
		refreshToken = before.RefreshToken
	}
	next := &session.Session{
		TenantID:     before.TenantID,
		AccessToken:  grant.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    m.nowTime().Add(grant.ExpiresIn),
	}
	m.current = next
	if err := m.store.Save(next); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist refreshed session")
	}
	m.armLocked(next)
	m.lock.Unlock()
	m.log.Debug().Str("tenant_id", next.TenantID).Time("expires_at", next.ExpiresAt).Msg("session refreshed")
}

// Close disarms renewal and discards any in-flight exchange result. The
// persisted slot is left intact so a later Start can restore the session.
func (m *Manager) Close() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.epoch++
	m.scheduler.Disarm()
}

// teardownLocked drops the current session, invalidates any in-flight
// exchange via the epoch, disarms renewal and clears the slot. Returns the
// departed session for best-effort server-side revocation by the caller.
func (m *Manager) teardownLocked() *session.Session {
	departed := m.current
	m.current = nil
	m.epoch++
	m.scheduler.Disarm()
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear session slot")
	}
	return departed
}

func (m *Manager) armLocked(s *session.Session) {
	m.scheduler.Arm(s.ExpiresAt, func() {
		m.Refresh(context.Background())
	})
}
