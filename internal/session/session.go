// Package session stores per-session values that expire a fixed time after
// they were written. Expiry is decided on read, so the TTL can differ per
// caller.
package session

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 120 * time.Second

type Store interface {
	SetWithTimestamp(ctx context.Context, session, key, value string) error
	// GetIfNotExpired returns the value unless more than ttl has passed since
	// it was set; expired values are purged.
	GetIfNotExpired(ctx context.Context, session, key string, ttl time.Duration) (string, bool, error)
}

type entry struct {
	value string
	setAt time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry

	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		Now:     time.Now,
	}
}

func storeKey(session, key string) string {
	return "session:" + session + ":" + key
}

func (m *MemoryStore) SetWithTimestamp(ctx context.Context, session, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[storeKey(session, key)] = entry{value: value, setAt: m.Now()}
	return nil
}

func (m *MemoryStore) GetIfNotExpired(ctx context.Context, session, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := storeKey(session, key)
	e, ok := m.entries[k]
	if !ok {
		return "", false, nil
	}
	if m.Now().Sub(e.setAt) > ttl {
		delete(m.entries, k)
		return "", false, nil
	}
	return e.value, true, nil
}
