package config

import "time"

type AuthConfig interface {
	GetRefreshSkew() time.Duration
	GetRequestTimeout() time.Duration
	GetSessionSlotName() string
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetRefreshSkew is the safety margin subtracted from the access token expiry
// so renewal fires before the token actually lapses.
func (Auth) GetRefreshSkew() time.Duration {
	return 30 * time.Second
}

func (Auth) GetRequestTimeout() time.Duration {
	return 15 * time.Second
}

// GetSessionSlotName is the well-known file name of the durable session slot.
func (Auth) GetSessionSlotName() string {
	return "safv.auth.state"
}
