package session

// Store is the durable per-tab slot for the current session.
type Store interface {
	// Load returns the persisted session, or nil if the slot is empty,
	// malformed, or already expired. A rejected record is purged so it cannot
	// be reloaded later. Load never fails; corruption degrades to absence.
	Load() *Session

	// Save overwrites the slot with the given session.
	Save(s *Session) error

	// Clear removes the slot. Clearing an empty slot is a no-op.
	Clear() error
}
