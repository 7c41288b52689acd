package session_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safvlabs/go-console-client/session"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func newTestFileStore(t *testing.T) (*session.FileStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "safv.auth.state")
	store := session.NewFileStore(path, session.WithFileStoreNowTime(func() time.Time { return testNow }))
	return store, path
}

func validSession() *session.Session {
	return &session.Session{
		TenantID:     "tenant-1",
		AccessToken:  "A1",
		RefreshToken: "R1",
		ExpiresAt:    testNow.Add(time.Hour),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, _ := newTestFileStore(t)
	saved := validSession()

	require.NoError(t, store.Save(saved))

	loaded := store.Load()
	require.NotNil(t, loaded)
	require.Equal(t, saved.TenantID, loaded.TenantID)
	require.Equal(t, saved.AccessToken, loaded.AccessToken)
	require.Equal(t, saved.RefreshToken, loaded.RefreshToken)
	require.Equal(t, saved.ExpiresAt.UnixMilli(), loaded.ExpiresAt.UnixMilli())
}

func TestFileStoreEmptySlotLoadsAbsent(t *testing.T) {
	store, _ := newTestFileStore(t)
	require.Nil(t, store.Load())
}

func TestFileStoreExpiredSessionPurgedPermanently(t *testing.T) {
	store, path := newTestFileStore(t)
	expired := validSession()
	expired.ExpiresAt = testNow.Add(-time.Second)

	require.NoError(t, store.Save(expired))

	require.Nil(t, store.Load())
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "rejected slot must be removed")
	require.Nil(t, store.Load(), "purge must be permanent")
}

func TestFileStoreSessionExpiringExactlyNowIsAbsent(t *testing.T) {
	store, _ := newTestFileStore(t)
	boundary := validSession()
	boundary.ExpiresAt = testNow

	require.NoError(t, store.Save(boundary))
	require.Nil(t, store.Load())
}

func TestFileStoreMalformedSlotPurged(t *testing.T) {
	store, path := newTestFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	require.Nil(t, store.Load())
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileStorePartialRecordTreatedAsAbsent(t *testing.T) {
	store, path := newTestFileStore(t)
	record := `{"tenantId":"tenant-1","accessToken":"A1","expiresAt":` +
		`1700003600000}` // refreshToken missing
	require.NoError(t, os.WriteFile(path, []byte(record), 0o600))

	require.Nil(t, store.Load())
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store, _ := newTestFileStore(t)
	first := validSession()
	require.NoError(t, store.Save(first))

	second := validSession()
	second.AccessToken = "A2"
	require.NoError(t, store.Save(second))

	loaded := store.Load()
	require.NotNil(t, loaded)
	require.Equal(t, "A2", loaded.AccessToken)
}

func TestFileStoreClearIdempotent(t *testing.T) {
	store, _ := newTestFileStore(t)
	require.NoError(t, store.Save(validSession()))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	require.Nil(t, store.Load())
}
