package keystore

import (
	"sync"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
)

// MemoryStore keeps the record in memory. Load and Save copy the record.
type MemoryStore struct {
	mu     sync.RWMutex
	stored *StoredKeys
	saves  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*StoredKeys, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stored == nil {
		return nil, kerrors.ErrKeyNotFound
	}
	out := *m.stored
	return &out, nil
}

func (m *MemoryStore) Save(stored *StoredKeys) error {
	if err := stored.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	in := *stored
	m.stored = &in
	m.saves++
	return nil
}

func (m *MemoryStore) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stored != nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = nil
	return nil
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
