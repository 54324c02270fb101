package storage

import (
	"bytes"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryDB is a map-backed DB. Contents are gone once it is dropped.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *MemoryDB {
	return &MemoryDB{data: make(map[string][]byte)}
}

func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[string(key)]; ok {
		return bytes.Clone(v), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryDB) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *MemoryDB) PutIfAbsent(key, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := string(key)
	if _, exists := m.data[k]; exists {
		return false, nil
	}
	m.data[k] = bytes.Clone(value)
	return true, nil
}

func (m *MemoryDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemoryDB) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

// ForEach walks a snapshot taken under the read lock, so fn may write.
func (m *MemoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	type entry struct {
		key   string
		value []byte
	}

	m.mu.RLock()
	var snap []entry
	for k, v := range m.data {
		if strings.HasPrefix(k, string(prefix)) {
			snap = append(snap, entry{k, bytes.Clone(v)})
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(snap, func(a, b entry) int { return strings.Compare(a.key, b.key) })
	for _, e := range snap {
		if err := fn([]byte(e.key), e.value); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryDB) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Keys returns every stored key in order.
func (m *MemoryDB) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.data))
}

func (m *MemoryDB) Close() error { return nil }
