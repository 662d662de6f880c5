package replication

import (
	"errors"
	"sync"
	"testing"

	"github.com/newtron-network/replsync/pkg/util"
)

func TestEntryCache_Apply(t *testing.T) {
	c := NewEntryCache()
	if err := c.Apply(Insert, group10()); err != nil {
		t.Fatalf("Apply(Insert): %v", err)
	}
	if err := c.Apply(Modify, MulticastGroupEntry{GroupID: 10, Replicas: []Replica{{"Ethernet8", 2}}}); err != nil {
		t.Fatalf("Apply(Modify): %v", err)
	}
	got, ok := c.Get(10)
	if !ok {
		t.Fatal("group 10 missing after modify")
	}
	if len(got.Replicas) != 1 || got.Replicas[0] != (Replica{"Ethernet8", 2}) {
		t.Errorf("Modify did not replace replicas: %+v", got)
	}

	if err := c.Apply(Delete, MulticastGroupEntry{GroupID: 10}); err != nil {
		t.Fatalf("Apply(Delete): %v", err)
	}
	if _, ok := c.Get(10); ok {
		t.Error("group 10 present after delete")
	}

	err := c.Apply(Unspecified, group10())
	if !errors.Is(err, util.ErrUnsupportedOperation) {
		t.Errorf("Apply(Unspecified) error = %v, want ErrUnsupportedOperation", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after rejected update", c.Len())
	}
}

func TestEntryCache_EntriesSorted(t *testing.T) {
	c := NewEntryCacheFrom([]MulticastGroupEntry{{GroupID: 9}, {GroupID: 2}, {GroupID: 5}})
	var ids []uint32
	for _, e := range c.Entries() {
		ids = append(ids, e.GroupID)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 5 || ids[2] != 9 {
		t.Errorf("Entries() ids = %v", ids)
	}
}

func TestEntryCache_ApplyAll(t *testing.T) {
	c := NewEntryCache()
	if err := c.ApplyAll(Insert, []MulticastGroupEntry{{GroupID: 1}, {GroupID: 2}}); err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if err := c.ApplyAll(Delete, []MulticastGroupEntry{{GroupID: 1}}); err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestEntryCache_Concurrent(t *testing.T) {
	c := NewEntryCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			c.Apply(Insert, MulticastGroupEntry{GroupID: id, Replicas: []Replica{{"Ethernet0", id}}})
			c.Entries()
		}(uint32(i))
	}
	wg.Wait()
	if c.Len() != 16 {
		t.Errorf("Len() = %d, want 16", c.Len())
	}
}

func TestVerify(t *testing.T) {
	s := newFakeStore()
	c := NewEntryCache()

	b := NewBatch()
	b.Add(Insert, group10())
	s.apply(b)
	c.Apply(Insert, group10())

	failures, err := Verify(s, c)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("Verify() = %v, want in sync", failures)
	}

	// Cache moves ahead of APPL_DB.
	c.Apply(Insert, MulticastGroupEntry{GroupID: 7})
	failures, err = Verify(s, c)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(failures) != 1 || failures[0] != "APP DB is missing multicast group ID 7" {
		t.Errorf("Verify() = %v", failures)
	}

	s.data["REPLICATION_IP_MULTICAST_TABLE:nothex"] = nil
	if _, err := Verify(s, c); !errors.Is(err, util.ErrInvalidEncoding) {
		t.Errorf("Verify() error = %v, want ErrInvalidEncoding", err)
	}
}
