package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var _ Store = (*FileStore)(nil)

// FileStore persists the session as a single JSON file. It is the file-system
// equivalent of the browser client's per-tab sessionStorage slot.
type FileStore struct {
	path    string
	nowTime func() time.Time
	log     zerolog.Logger
}

// FileStoreOption defines a function type to modify the FileStore instance.
type FileStoreOption func(*FileStore)

// WithFileStoreNowTime sets the now time function (primarily for testing)
func WithFileStoreNowTime(nowFunc func() time.Time) FileStoreOption {
	return func(fs *FileStore) {
		fs.nowTime = nowFunc
	}
}

// WithFileStoreLogger sets the logger used for purge and I/O warnings.
func WithFileStoreLogger(log zerolog.Logger) FileStoreOption {
	return func(fs *FileStore) {
		fs.log = log
	}
}

// NewFileStore creates a FileStore backed by the file at path.
func NewFileStore(path string, options ...FileStoreOption) *FileStore {
	fs := &FileStore{
		path:    path,
		nowTime: time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(fs)
	}
	return fs
}

// Load reads and validates the slot. Empty, unreadable, malformed, incomplete
// or expired records are treated as absence, and anything rejected is removed
// so a later Load cannot resurrect it.
func (fs *FileStore) Load() *Session {
	raw, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fs.log.Warn().Err(err).Str("path", fs.path).Msg("session slot unreadable, treating as absent")
			fs.purge()
		}
		return nil
	}

	var record persistedSession
	if err := json.Unmarshal(raw, &record); err != nil {
		fs.log.Warn().Err(err).Msg("session slot malformed, purging")
		fs.purge()
		return nil
	}

	s := record.toSession()
	if !s.complete() || s.Expired(fs.nowTime()) {
		fs.purge()
		return nil
	}
	return s
}

// Save overwrites the slot atomically via a temp file rename in the slot's
// directory.
func (fs *FileStore) Save(s *Session) error {
	raw, err := json.Marshal(toPersisted(s))
	if err != nil {
		return errors.Wrap(err, "[FileStore.Save] marshal session")
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".*")
	if err != nil {
		return errors.Wrap(err, "[FileStore.Save] create temp slot")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileStore.Save] write temp slot")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileStore.Save] chmod temp slot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileStore.Save] close temp slot")
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileStore.Save] replace slot")
	}
	return nil
}

// Clear removes the slot. Safe to call when nothing is persisted.
func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] remove slot")
	}
	return nil
}

func (fs *FileStore) purge() {
	if err := fs.Clear(); err != nil {
		fs.log.Warn().Err(err).Msg("failed to purge rejected session slot")
	}
}
