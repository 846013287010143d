package memory

import (
	"sync"
	"time"
)

// StateStore holds short-lived OAuth state nonces mapped to the user that
// initiated the connect flow. Entries expire after a fixed TTL; expired
// entries are swept lazily on access.
type StateStore struct {
	ttl     time.Duration
	entries map[string]stateEntry
	mu      sync.Mutex
	now     func() time.Time
}

type stateEntry struct {
	userID    string
	expiresAt time.Time
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		ttl:     ttl,
		entries: make(map[string]stateEntry),
		now:     time.Now,
	}
}

func (s *StateStore) Put(state, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.entries[state] = stateEntry{userID: userID, expiresAt: s.now().Add(s.ttl)}
}

// Take resolves and consumes a state nonce. A nonce is single-use.
func (s *StateStore) Take(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	entry, ok := s.entries[state]
	if !ok {
		return "", false
	}
	delete(s.entries, state)
	return entry.userID, true
}

func (s *StateStore) sweepLocked() {
	now := s.now()
	for state, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, state)
		}
	}
}
