package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/serroba/quotagate/internal/ratelimit"
)

type memoryEntry struct {
	value   []byte
	version ratelimit.Version
}

// MemoryKV is an in-memory implementation of ratelimit.Store.
// It only coordinates contexts within a single process.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   ratelimit.Version
}

// NewMemoryKV creates a new in-memory shared state store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, ratelimit.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ratelimit.NoVersion, nil
	}

	return append([]byte(nil), entry.value...), entry.version, nil
}

func (m *MemoryKV) CompareAndSet(_ context.Context, key string, value []byte, expected ratelimit.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current := m.entries[key].version; current != expected {
		return fmt.Errorf("%w: key %q at version %d, expected %d", ratelimit.ErrVersionConflict, key, current, expected)
	}

	m.put(key, value)

	return nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(key, value)

	return nil
}

// Ping always succeeds.
func (m *MemoryKV) Ping(_ context.Context) error {
	return nil
}

// put stores value under a fresh version. Versions come from one counter
// so a deleted-and-recreated key never reuses an old token.
func (m *MemoryKV) put(key string, value []byte) {
	m.clock++
	m.entries[key] = memoryEntry{
		value:   append([]byte(nil), value...),
		version: m.clock,
	}
}

// Compile-time check.
var _ ratelimit.Store = (*MemoryKV)(nil)
