package replication

import (
	"sort"
	"sync"

	"github.com/newtron-network/replsync/pkg/util"
)

// EntryCache holds the control plane's view of multicast groups, keyed by
// group id. It is kept in step with the updates sent to APPL_DB and is the
// secondary side of Verify.
type EntryCache struct {
	mu      sync.RWMutex
	entries map[uint32]MulticastGroupEntry
}

// NewEntryCache creates an empty cache.
func NewEntryCache() *EntryCache {
	return &EntryCache{entries: make(map[uint32]MulticastGroupEntry)}
}

// NewEntryCacheFrom creates a cache holding entries; a repeated group id
// keeps the last entry.
func NewEntryCacheFrom(entries []MulticastGroupEntry) *EntryCache {
	c := NewEntryCache()
	for _, e := range entries {
		c.entries[e.GroupID] = e.Normalize()
	}
	return c
}

// Apply records one update. Insert and Modify replace the group, Delete
// removes it.
func (c *EntryCache) Apply(updateType UpdateType, entry MulticastGroupEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(updateType, entry)
}

// ApplyAll records updates of one type under a single lock. It stops at the
// first unsupported update type.
func (c *EntryCache) ApplyAll(updateType UpdateType, entries []MulticastGroupEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		if err := c.applyLocked(updateType, e); err != nil {
			return err
		}
	}
	return nil
}

func (c *EntryCache) applyLocked(updateType UpdateType, entry MulticastGroupEntry) error {
	switch updateType {
	case Insert, Modify:
		c.entries[entry.GroupID] = entry.Normalize()
	case Delete:
		delete(c.entries, entry.GroupID)
	default:
		return util.NewUnsupportedOperationError("update type " + updateType.String())
	}
	return nil
}

// Get returns the cached group.
func (c *EntryCache) Get(groupID uint32) (MulticastGroupEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[groupID]
	return e, ok
}

// Len returns the number of cached groups.
func (c *EntryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a snapshot of all groups sorted by group id.
func (c *EntryCache) Entries() []MulticastGroupEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]MulticastGroupEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}
