package session

import (
	"sync"
	"time"
)

var _ Store = (*MemStore)(nil)

// MemStore keeps the session in memory with the same validate-on-load contract
// as FileStore. Used by tests and by embedders that manage their own storage.
type MemStore struct {
	nowTime func() time.Time

	lock    sync.RWMutex
	current *Session
}

// MemStoreOption defines a function type to modify the MemStore instance.
type MemStoreOption func(*MemStore)

// WithMemStoreNowTime sets the now time function (primarily for testing)
func WithMemStoreNowTime(nowFunc func() time.Time) MemStoreOption {
	return func(ms *MemStore) {
		ms.nowTime = nowFunc
	}
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(options ...MemStoreOption) *MemStore {
	ms := &MemStore{nowTime: time.Now}
	for _, opt := range options {
		opt(ms)
	}
	return ms
}

func (ms *MemStore) Load() *Session {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	if ms.current == nil {
		return nil
	}
	if !ms.current.complete() || ms.current.Expired(ms.nowTime()) {
		ms.current = nil
		return nil
	}
	copied := *ms.current
	return &copied
}

func (ms *MemStore) Save(s *Session) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	copied := *s
	ms.current = &copied
	return nil
}

func (ms *MemStore) Clear() error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	ms.current = nil
	return nil
}
