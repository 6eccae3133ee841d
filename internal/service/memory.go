package service

import (
	"sync"
	"time"

	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

// memoryStore is the in-process fallback for session state. It serves every
// read while the process runs; Postgres only mirrors it for durability.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*domain.Session)}
}

func (m *memoryStore) get(key string) (*domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[key]
	return sess, ok
}

func (m *memoryStore) getOrCreate(key string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[key]; ok {
		return sess
	}
	now := time.Now()
	sess := &domain.Session{
		Key:          key,
		CreatedAt:    now,
		LastActiveAt: now,
		Active:       true,
	}
	m.sessions[key] = sess
	return sess
}

// put replaces a session wholesale, used when hydrating from storage.
func (m *memoryStore) put(sess *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.Key] = sess
}

func (m *memoryStore) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

func (m *memoryStore) counts() (sessions, messages int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sess := range m.sessions {
		sessions++
		messages += int64(len(sess.Messages))
	}
	return sessions, messages
}

func (m *memoryStore) keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	return keys
}
