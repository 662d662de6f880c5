package replication

import (
	"fmt"
	"sort"
)

// Default labels used by Diff for the two sides.
const (
	AppDBLabel = "APP DB"
	CacheLabel = "Packet replication cache"
)

// Comparator names the two sides of a comparison in its messages.
type Comparator struct {
	Primary   string
	Secondary string
}

// Diff compares APPL_DB entries (primary) against cached entries (secondary)
// with the default labels.
func Diff(primary, secondary []MulticastGroupEntry) []string {
	return Comparator{Primary: AppDBLabel, Secondary: CacheLabel}.Diff(primary, secondary)
}

// Diff returns one message per atomic difference. Discrepancies are data, not
// errors; the result is empty when the sides agree.
//
// Output order is primary group ids ascending (a missing group, or that
// group's replica differences), then groups only the secondary has, ascending.
// Within a group, replicas missing from the secondary precede replicas
// missing from the primary, each sorted.
func (c Comparator) Diff(primary, secondary []MulticastGroupEntry) []string {
	byIDPrimary := indexByGroupID(primary)
	byIDSecondary := indexByGroupID(secondary)

	failures := make([]string, 0)
	for _, id := range sortedGroupIDs(byIDPrimary) {
		other, ok := byIDSecondary[id]
		if !ok {
			failures = append(failures, c.missingGroup(c.Secondary, id))
			continue
		}
		failures = append(failures, c.compareReplicas(id, byIDPrimary[id], other)...)
	}

	// Groups present on both sides were compared above.
	for _, id := range sortedGroupIDs(byIDSecondary) {
		if _, ok := byIDPrimary[id]; !ok {
			failures = append(failures, c.missingGroup(c.Primary, id))
		}
	}
	return failures
}

func (c Comparator) compareReplicas(id uint32, primary, secondary MulticastGroupEntry) []string {
	primarySet := replicaSet(primary)
	secondarySet := replicaSet(secondary)

	var failures []string
	for _, pi := range setDifference(primarySet, secondarySet) {
		failures = append(failures, c.missingReplica(c.Secondary, pi, id))
	}
	for _, pi := range setDifference(secondarySet, primarySet) {
		failures = append(failures, c.missingReplica(c.Primary, pi, id))
	}
	return failures
}

func (c Comparator) missingGroup(side string, id uint32) string {
	return fmt.Sprintf("%s is missing multicast group ID %d", side, id)
}

func (c Comparator) missingReplica(side, portInstance string, id uint32) string {
	return fmt.Sprintf("%s is missing replica %s for group ID %d", side, portInstance, id)
}

// indexByGroupID maps group id to entry; a repeated id keeps the last entry.
func indexByGroupID(entries []MulticastGroupEntry) map[uint32]MulticastGroupEntry {
	m := make(map[uint32]MulticastGroupEntry, len(entries))
	for _, e := range entries {
		m[e.GroupID] = e
	}
	return m
}

func sortedGroupIDs(m map[uint32]MulticastGroupEntry) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// replicaSet returns the canonical "port_instance" strings of an entry.
func replicaSet(e MulticastGroupEntry) map[string]bool {
	set := make(map[string]bool, len(e.Replicas))
	for _, r := range e.Replicas {
		set[r.String()] = true
	}
	return set
}

// setDifference returns the sorted members of a that are not in b.
func setDifference(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
