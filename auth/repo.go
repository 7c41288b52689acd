package auth

import (
	"context"
	"time"
)

// TokenGrant is a token issuance returned by the credential transport.
// RefreshToken is empty when the server keeps the existing refresh token
// (the refresh exchange only rotates the access token).
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Transport performs the three credential exchanges against the console API.
// Implementations classify failures as InvalidCredentialsErr,
// SessionExpiredErr or TransportUnavailableErr.
type Transport interface {
	// ExchangeCredentials trades an email/password pair for a token pair.
	ExchangeCredentials(ctx context.Context, tenantID, email, password string) (*TokenGrant, error)

	// ExchangeRefreshToken trades a refresh token for a new access token.
	ExchangeRefreshToken(ctx context.Context, tenantID, refreshToken string) (*TokenGrant, error)

	// InvalidateRefreshToken revokes a refresh token server-side. Best effort:
	// callers must not let a failure block local teardown.
	InvalidateRefreshToken(ctx context.Context, tenantID, refreshToken string) error
}
