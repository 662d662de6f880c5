package replication

import (
	"fmt"
	"strings"

	"github.com/newtron-network/replsync/pkg/util"
)

// Store is the read side of APPL_DB used by the reader. Other P4RT tables
// share the key space; the reader filters by prefix.
type Store interface {
	// Keys returns every key currently present.
	Keys() ([]string, error)
	// Get returns the field/value pairs of key.
	Get(key string) ([]FieldValue, error)
}

// EntryKeys returns the store keys that belong to the multicast table.
func EntryKeys(store Store) ([]string, error) {
	keys, err := store.Keys()
	if err != nil {
		return nil, fmt.Errorf("listing APPL_DB keys: %w", err)
	}
	var out []string
	for _, key := range keys {
		if strings.HasPrefix(key, TablePrefix()) {
			out = append(out, key)
		}
	}
	return out, nil
}

// ReadAll rebuilds one entry per multicast table key. A malformed key or
// field fails the whole read rather than returning a partial view of group
// membership. The result has no particular order.
func ReadAll(store Store) ([]MulticastGroupEntry, error) {
	keys, err := EntryKeys(store)
	if err != nil {
		return nil, err
	}

	entries := make([]MulticastGroupEntry, 0, len(keys))
	for _, key := range keys {
		util.WithTable(TableName).Debugf("Read packet replication engine entry %s from APPL_DB", key)
		entry, err := ReadEntry(store, key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadEntry decodes the group stored at key. Unlike ReadAll it does not
// filter: a key outside the multicast table is an encoding error.
func ReadEntry(store Store, key string) (MulticastGroupEntry, error) {
	hexID, err := StripPrefix(key)
	if err != nil {
		return MulticastGroupEntry{}, err
	}
	groupID, err := ParseGroupID(hexID)
	if err != nil {
		return MulticastGroupEntry{}, fmt.Errorf("key '%s': %w", key, err)
	}

	fields, err := store.Get(key)
	if err != nil {
		return MulticastGroupEntry{}, fmt.Errorf("reading APPL_DB key %s: %w", key, err)
	}

	entry := MulticastGroupEntry{GroupID: groupID, Replicas: make([]Replica, 0, len(fields))}
	for _, fv := range fields {
		// The value is the placeholder and carries nothing.
		r, err := DecodeReplica(fv.Field)
		if err != nil {
			return MulticastGroupEntry{}, fmt.Errorf("key '%s': %w", key, err)
		}
		entry.Replicas = append(entry.Replicas, r)
	}
	return entry, nil
}
