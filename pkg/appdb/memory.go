package appdb

import (
	"sort"
	"sync"

	"github.com/newtron-network/replsync/pkg/replication"
)

// MemoryDB is an in-process stand-in for the P4RT_TABLE namespace with the
// same Keys/Get/Apply contract as Client. Offline runs and tests use it.
type MemoryDB struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{hashes: make(map[string]map[string]string)}
}

// Set writes a raw hash, bypassing the translator. Used to model entries
// written by other P4RT tables or by a misbehaving writer.
func (m *MemoryDB) Set(key string, fields map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[key] = copyFields(fields)
}

// Keys returns all keys in sorted order.
func (m *MemoryDB) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.hashes))
	for k := range m.hashes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get returns the fields of key sorted by field name; a missing key has none.
func (m *MemoryDB) Get(key string) ([]replication.FieldValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedFields(m.hashes[key]), nil
}

// Apply applies updates atomically with respect to readers.
func (m *MemoryDB) Apply(updates []replication.KeyOpFieldsValues) error {
	if err := checkOps(updates); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		if u.Op == replication.OpDel {
			delete(m.hashes, u.Key)
			continue
		}
		m.hashes[u.Key] = u.FieldMap()
	}
	return nil
}

// copyFields returns a shallow copy of the map (avoids aliasing caller's map).
func copyFields(fields map[string]string) map[string]string {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return cp
}
