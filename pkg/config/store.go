package config

import "sync/atomic"

// Store publishes Settings as immutable snapshots. Writers replace the whole
// value; readers take one snapshot per operation.
type Store struct {
	cur atomic.Pointer[Settings]
}

// NewStore creates a store holding s.
func NewStore(s Settings) *Store {
	st := &Store{}
	st.Swap(s)
	return st
}

// Load returns the current snapshot.
func (st *Store) Load() Settings {
	if p := st.cur.Load(); p != nil {
		return *p
	}
	return Settings{}
}

// Swap atomically replaces the settings.
func (st *Store) Swap(s Settings) {
	st.cur.Store(&s)
}
