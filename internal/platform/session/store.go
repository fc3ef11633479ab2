// Package session implements server-side browser sessions. A session record
// holds only the authenticated user's id; every request re-resolves the user
// from the database, so edits to a personnel record are never served from a
// stale session copy.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists the session-id -> user-id association.
type Store interface {
	Create(userID uuid.UUID, ttl time.Duration) (string, error)
	Get(sessionID string) (uuid.UUID, bool)
	Delete(sessionID string)
}

type entry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Sessions do not survive a restart,
// which matches the ephemeral contract: an unknown session id simply means
// anonymous.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(userID uuid.UUID, ttl time.Duration) (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	id := hex.EncodeToString(raw[:])

	s.mu.Lock()
	s.sessions[id] = entry{userID: userID, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()

	return id, nil
}

func (s *MemoryStore) Get(sessionID string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return uuid.Nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, sessionID)
		return uuid.Nil, false
	}
	return e.userID, true
}

func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}
