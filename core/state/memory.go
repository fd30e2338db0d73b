package state

import (
	"context"
	"sync"
)

type sessionKey struct {
	userID    int64
	namespace string
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[sessionKey]Record
}

// NewMemory constructs an in-memory Store for tests and development.
func NewMemory() Store {
	return &memoryStore{sessions: make(map[sessionKey]Record)}
}

// Get returns a copy of the stored record.
func (m *memoryStore) Get(_ context.Context, userID int64, namespace string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.sessions[sessionKey{userID, namespace}]
	if !ok {
		return Record{}, false, nil
	}
	return clone(rec), true, nil
}

// Set replaces the user's record in the namespace.
func (m *memoryStore) Set(_ context.Context, userID int64, namespace string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionKey{userID, namespace}] = clone(rec)
	return nil
}

// Clear removes the user's record in the namespace.
func (m *memoryStore) Clear(_ context.Context, userID int64, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionKey{userID, namespace})
	return nil
}

func clone(rec Record) Record {
	if rec.Data != nil {
		rec.Data = append([]byte(nil), rec.Data...)
	}
	return rec
}
