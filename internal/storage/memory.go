package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryCache is a process-local Cache, the equivalent of browser session storage
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]string
	now  func() time.Time
}

// NewMemoryCache creates an empty memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]string), now: time.Now}
}

// Get implements Cache
func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) (Entry, bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	stamp, hasStamp := m.data[TimeKey(key)]
	m.mu.RUnlock()

	if !ok || !hasStamp {
		return Entry{}, false, nil
	}
	storedAt, valid := parseStamp(stamp)
	if !valid {
		return Entry{}, false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return Entry{}, false, fmt.Errorf("failed to unmarshal cached value %q: %w", key, err)
	}
	return Entry{StoredAt: storedAt}, true, nil
}

// Put implements Cache
func (m *MemoryCache) Put(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(data)
	m.data[TimeKey(key)] = formatStamp(m.now())
	return nil
}

// Delete implements Cache
func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.data, TimeKey(key))
	}
	return nil
}

// Exists implements Cache
func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

// Clear implements Cache
func (m *MemoryCache) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

// Len returns the number of raw keys held
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
