package denylist

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Denylist used when no Redis is configured.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *Memory) Add(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(jti, ttl)
	return nil
}

func (m *Memory) Spend(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.entries[jti]; ok && exp.After(m.now()) {
		return false, nil
	}
	m.put(jti, ttl)
	return true, nil
}

// put must be called with mu held.
func (m *Memory) put(jti string, ttl time.Duration) {
	now := m.now()
	m.entries[jti] = now.Add(ttl)

	// drop expired entries while we hold the lock
	for k, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, k)
		}
	}
}

func (m *Memory) Contains(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[jti]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}
