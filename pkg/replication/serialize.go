package replication

import (
	"fmt"
	"strings"

	"github.com/newtron-network/replsync/pkg/util"
)

// CreateUpdate converts one entry into an APPL_DB mutation.
//
// Insert and Modify both produce a SET carrying every replica: modify is a
// full replacement, and reconciling partial differences is left to the
// orchagent side that consumes the table. Delete produces a DEL with no
// fields.
func CreateUpdate(updateType UpdateType, entry MulticastGroupEntry) (KeyOpFieldsValues, error) {
	util.WithGroup(entry.GroupID).Debugf("%s packet replication entry: %v", updateType, entry.Replicas)

	switch updateType {
	case Insert, Modify:
		return createSet(entry), nil
	case Delete:
		return KeyOpFieldsValues{Key: BuildKey(entry.GroupID), Op: OpDel}, nil
	}
	return KeyOpFieldsValues{}, util.NewUnsupportedOperationError(fmt.Sprintf("update type %s", updateType))
}

func createSet(entry MulticastGroupEntry) KeyOpFieldsValues {
	kfv := KeyOpFieldsValues{Key: BuildKey(entry.GroupID), Op: OpSet}
	// Port and instance are not unique on their own, so the field name
	// combines them.
	for _, r := range dedupReplicas(entry.Replicas) {
		kfv.Fields = append(kfv.Fields, FieldValue{
			Field: EncodeReplica(r.Port, r.Instance),
			Value: ReplicaPlaceholder,
		})
	}
	return kfv
}

// Batch accumulates APPL_DB mutations in call order so several entries can be
// applied together. A Batch has a single owner.
type Batch struct {
	Updates []KeyOpFieldsValues `json:"updates"`
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{Updates: make([]KeyOpFieldsValues, 0)}
}

// Add serializes entry and appends the mutation. It returns the APPL_DB key
// for correlation. On error the batch is unchanged.
func (b *Batch) Add(updateType UpdateType, entry MulticastGroupEntry) (string, error) {
	kfv, err := CreateUpdate(updateType, entry)
	if err != nil {
		return "", err
	}
	b.Updates = append(b.Updates, kfv)
	return kfv.Key, nil
}

// AddAll adds every entry with the same update type and stops at the first
// error, leaving earlier entries in the batch.
func (b *Batch) AddAll(updateType UpdateType, entries []MulticastGroupEntry) error {
	for _, e := range entries {
		if _, err := b.Add(updateType, e); err != nil {
			return fmt.Errorf("group %d: %w", e.GroupID, err)
		}
	}
	return nil
}

// Merge appends all updates from other.
func (b *Batch) Merge(other *Batch) {
	b.Updates = append(b.Updates, other.Updates...)
}

// Len returns the number of updates.
func (b *Batch) Len() int {
	return len(b.Updates)
}

// IsEmpty returns true if there are no updates.
func (b *Batch) IsEmpty() bool {
	return len(b.Updates) == 0
}

// String returns a human-readable representation of the updates.
func (b *Batch) String() string {
	if b.IsEmpty() {
		return "No changes"
	}

	var sb strings.Builder
	for _, u := range b.Updates {
		sb.WriteString(fmt.Sprintf("  [%s] %s", u.Op, u.Key))
		if len(u.Fields) > 0 {
			names := make([]string, len(u.Fields))
			for i, fv := range u.Fields {
				names[i] = fv.Field
			}
			sb.WriteString(" → " + strings.Join(names, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
