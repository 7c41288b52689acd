package transportfakes

import (
	"context"
	"sync"

	"github.com/safvlabs/go-console-client/auth"
)

var _ auth.Transport = (*FakeTransport)(nil)

// FakeTransport is a scripted credential transport for tests. Each exchange
// returns the configured grant or error and counts its calls. RefreshGate,
// when set, blocks the refresh exchange until the gate is closed so tests can
// hold an exchange in flight.
type FakeTransport struct {
	lock sync.Mutex

	LoginGrant    *auth.TokenGrant
	LoginErr      error
	RefreshGrant  *auth.TokenGrant
	RefreshErr    error
	InvalidateErr error

	// RefreshGate blocks gated refresh exchanges until closed; RefreshStarted,
	// when non-nil, receives a signal as each gated exchange enters.
	RefreshGate    chan struct{}
	RefreshStarted chan struct{}

	loginCalls      int
	refreshCalls    int
	invalidateCalls int
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func (ft *FakeTransport) ExchangeCredentials(_ context.Context, _, _, _ string) (*auth.TokenGrant, error) {
	ft.lock.Lock()
	defer ft.lock.Unlock()

	ft.loginCalls++
	if ft.LoginErr != nil {
		return nil, ft.LoginErr
	}
	grant := *ft.LoginGrant
	return &grant, nil
}

func (ft *FakeTransport) ExchangeRefreshToken(_ context.Context, _, _ string) (*auth.TokenGrant, error) {
	ft.lock.Lock()
	ft.refreshCalls++
	gate := ft.RefreshGate
	started := ft.RefreshStarted
	grantCfg := ft.RefreshGrant
	errCfg := ft.RefreshErr
	ft.lock.Unlock()

	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		<-gate
		// Re-read the script: tests may change it while the call is gated.
		ft.lock.Lock()
		grantCfg = ft.RefreshGrant
		errCfg = ft.RefreshErr
		ft.lock.Unlock()
	}
	if errCfg != nil {
		return nil, errCfg
	}
	grant := *grantCfg
	return &grant, nil
}

func (ft *FakeTransport) InvalidateRefreshToken(_ context.Context, _, _ string) error {
	ft.lock.Lock()
	defer ft.lock.Unlock()

	ft.invalidateCalls++
	return ft.InvalidateErr
}

func (ft *FakeTransport) LoginCalls() int {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	return ft.loginCalls
}

func (ft *FakeTransport) RefreshCalls() int {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	return ft.refreshCalls
}

func (ft *FakeTransport) InvalidateCalls() int {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	return ft.invalidateCalls
}
