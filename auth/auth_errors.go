package auth

import "errors"

var (
	// InvalidCredentialsErr means the login exchange was rejected; the message
	// is user-correctable and surfaced verbatim to the login form.
	InvalidCredentialsErr = errors.New("invalid credentials")

	// SessionExpiredErr means a refresh exchange was rejected. Never shown to
	// the user directly; the manager resolves it into a forced logout.
	SessionExpiredErr = errors.New("session expired")

	// TransportUnavailableErr means the network or backend failed before a
	// structured answer was produced.
	TransportUnavailableErr = errors.New("transport unavailable")
)
