// internal/sessionstore/memory.go
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tezloan-workers/internal/models"
)

// MemoryStore is the redis-free store used by the journey simulator and
// tests. Sessions are stored as deep copies so callers never share
// mutable state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		locks:    make(map[string]*sync.Mutex),
	}
}

// sessionLock serializes writers per session id; the map itself cannot
// replace values atomically the way redis SET does.
func (s *MemoryStore) sessionLock(sessionID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (s *MemoryStore) Save(_ context.Context, session *models.Session) error {
	lock := s.sessionLock(session.ID)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	s.mu.Lock()
	s.sessions[session.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}
