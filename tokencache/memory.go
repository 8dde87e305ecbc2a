package tokencache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	key        CacheKey
	token      Token
	insertedAt time.Time
}

// Memory is an in-process token cache. Keys are bounded by active sessions times
// templates, so no eviction is performed beyond explicit deletes.
type Memory struct {
	mu      sync.Mutex
	entries map[CacheKey]entry
	now     func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[CacheKey]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key CacheKey) (Token, bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return Token{}, false, nil
	}
	return e.token, true, nil
}

func (m *Memory) Set(_ context.Context, key CacheKey, token Token) error {
	m.mu.Lock()
	m.entries[key] = entry{key: key, token: token, insertedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key CacheKey) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if k.SessionID == sessionID {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// InsertedAt reports when key was last written.
func (m *Memory) InsertedAt(key CacheKey) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e.insertedAt, ok
}
