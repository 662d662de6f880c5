package replication

import (
	"fmt"

	"github.com/newtron-network/replsync/pkg/util"
)

// Verify re-reads the multicast table from store and compares it against
// cache. A read failure is returned as an error; drift is returned as
// discrepancy messages.
func Verify(store Store, cache *EntryCache) ([]string, error) {
	appDB, err := ReadAll(store)
	if err != nil {
		return nil, fmt.Errorf("verifying packet replication entries: %w", err)
	}
	failures := Diff(appDB, cache.Entries())
	if len(failures) > 0 {
		util.WithTable(TableName).Warnf("%d packet replication discrepancies between APPL_DB and cache", len(failures))
	}
	return failures, nil
}
