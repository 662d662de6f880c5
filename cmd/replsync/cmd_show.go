package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/replsync/pkg/cli"
	"github.com/newtron-network/replsync/pkg/replication"
)

var showCmd = &cobra.Command{
	Use:   "show [group-id...]",
	Short: "Show replication groups in APPL_DB",
	Long: `Show the multicast replication groups currently in APPL_DB.

Group ids may be decimal or 0x-prefixed hex.

Examples:
  replsync show
  replsync show 10 0xff
  replsync show --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseGroupIDs(args)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return runShow(app.out, s.db, ids, app.jsonOutput)
		})
	},
}

// runShow prints the groups in store, restricted to ids when given.
func runShow(w io.Writer, store replication.Store, ids []uint32, asJSON bool) error {
	entries, err := replication.ReadAll(store)
	if err != nil {
		return err
	}
	entries = selectGroups(entries, ids)
	sortEntries(entries)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No replication groups")
		return nil
	}
	t := cli.NewTableTo(w, "GROUP", "KEY", "REPLICAS")
	for _, e := range entries {
		t.Row(fmt.Sprintf("%d", e.GroupID), replication.BuildKey(e.GroupID), formatReplicas(e.Replicas))
	}
	t.Flush()
	return nil
}

func formatReplicas(replicas []replication.Replica) string {
	if len(replicas) == 0 {
		return "-"
	}
	names := make([]string, len(replicas))
	for i, r := range replicas {
		names[i] = r.String()
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// parseGroupIDs accepts decimal or 0x-prefixed hex ids.
func parseGroupIDs(args []string) ([]uint32, error) {
	ids := make([]uint32, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid group id %q", a)
		}
		ids = append(ids, uint32(id))
	}
	return ids, nil
}

func selectGroups(entries []replication.MulticastGroupEntry, ids []uint32) []replication.MulticastGroupEntry {
	if len(ids) == 0 {
		return entries
	}
	want := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]replication.MulticastGroupEntry, 0, len(ids))
	for _, e := range entries {
		if want[e.GroupID] {
			out = append(out, e)
		}
	}
	return out
}

func sortEntries(entries []replication.MulticastGroupEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].GroupID < entries[j].GroupID })
}
