// Package session defines the authenticated session entity and the durable
// stores it can be persisted to. A session is wholly present or wholly absent;
// a record missing any field, or whose expiry has passed, is never surfaced.
package session

import "time"

// Session is the authenticated state for one tenant: the bearer token pair and
// the absolute instant the access token stops being valid.
type Session struct {
	TenantID     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is no longer valid at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// complete reports whether every field is populated. Partial sessions are not a
// valid state and are treated as absent by the stores.
func (s *Session) complete() bool {
	return s.TenantID != "" && s.AccessToken != "" && s.RefreshToken != "" && !s.ExpiresAt.IsZero()
}

// persistedSession is the durable slot layout: a single JSON object with the
// expiry serialized as Unix milliseconds, byte-compatible with the browser
// client's sessionStorage record.
type persistedSession struct {
	TenantID     string `json:"tenantId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

func toPersisted(s *Session) persistedSession {
	return persistedSession{
		TenantID:     s.TenantID,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt.UnixMilli(),
	}
}

func (p persistedSession) toSession() *Session {
	return &Session{
		TenantID:     p.TenantID,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    time.UnixMilli(p.ExpiresAt),
	}
}
