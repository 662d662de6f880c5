// Package replication translates packet replication engine (multicast group)
// entries between the IR model used by the P4RT control plane and the
// key/field/value records of the APPL_DB REPLICATION_IP_MULTICAST_TABLE, and
// compares two collections of entries for drift.
//
// Encoding:
//
//	key:    REPLICATION_IP_MULTICAST_TABLE:<hex group id>     e.g. ...:a
//	fields: <port>:0x<hex instance> = "replica"               e.g. Ethernet4:0x1
//
// The group id in the key carries no 0x marker; the instance in the field name
// always does. Existing APPL_DB contents depend on that asymmetry.
package replication

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/newtron-network/replsync/pkg/util"
)

// Replica is one (port, instance) destination of a multicast group. Neither
// half is unique on its own within a group; the pair is.
type Replica struct {
	Port     string `json:"port" yaml:"port"`
	Instance uint32 `json:"instance" yaml:"instance"`
}

// String returns the diagnostic form "port_instance" with a decimal instance.
// This is not the APPL_DB field encoding (see EncodeReplica).
func (r Replica) String() string {
	return r.Port + "_" + strconv.FormatUint(uint64(r.Instance), 10)
}

// MulticastGroupEntry is the IR form of a packet replication engine
// multicast group. Replicas have set semantics.
type MulticastGroupEntry struct {
	GroupID  uint32    `json:"group_id" yaml:"group_id"`
	Replicas []Replica `json:"replicas,omitempty" yaml:"replicas,omitempty"`
}

// Normalize returns a copy with duplicate replicas collapsed and replicas
// sorted by port, then instance.
func (e MulticastGroupEntry) Normalize() MulticastGroupEntry {
	out := MulticastGroupEntry{GroupID: e.GroupID, Replicas: dedupReplicas(e.Replicas)}
	sort.Slice(out.Replicas, func(i, j int) bool {
		a, b := out.Replicas[i], out.Replicas[j]
		if a.Port != b.Port {
			return a.Port < b.Port
		}
		return a.Instance < b.Instance
	})
	return out
}

// Equal reports whether two entries have the same group id and replica set.
func (e MulticastGroupEntry) Equal(other MulticastGroupEntry) bool {
	if e.GroupID != other.GroupID {
		return false
	}
	a, b := e.Normalize().Replicas, other.Normalize().Replicas
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Validate reports structural problems: duplicate (port, instance) pairs and
// empty port names.
func (e MulticastGroupEntry) Validate() error {
	v := &util.ValidationBuilder{}
	seen := make(map[Replica]bool, len(e.Replicas))
	for _, r := range e.Replicas {
		v.Add(r.Port != "", fmt.Sprintf("group %d: replica with empty port", e.GroupID))
		if seen[r] {
			v.AddErrorf("group %d: duplicate replica %s", e.GroupID, r)
		}
		seen[r] = true
	}
	return v.Build()
}

// dedupReplicas drops repeated (port, instance) pairs, keeping the first
// occurrence so the caller's order is otherwise preserved.
func dedupReplicas(replicas []Replica) []Replica {
	out := make([]Replica, 0, len(replicas))
	seen := make(map[Replica]bool, len(replicas))
	for _, r := range replicas {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// UpdateType is the P4Runtime update kind that produced an entry.
type UpdateType int

const (
	Unspecified UpdateType = iota
	Insert
	Modify
	Delete
)

func (t UpdateType) String() string {
	switch t {
	case Insert:
		return "INSERT"
	case Modify:
		return "MODIFY"
	case Delete:
		return "DELETE"
	case Unspecified:
		return "UNSPECIFIED"
	}
	return fmt.Sprintf("UpdateType(%d)", int(t))
}

// ParseUpdateType accepts insert, modify or delete in any case.
func ParseUpdateType(s string) (UpdateType, error) {
	switch s {
	case "insert", "INSERT", "Insert":
		return Insert, nil
	case "modify", "MODIFY", "Modify":
		return Modify, nil
	case "delete", "DELETE", "Delete":
		return Delete, nil
	}
	return Unspecified, util.NewUnsupportedOperationError(s)
}
