package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/replsync/pkg/audit"
	"github.com/newtron-network/replsync/pkg/groupfile"
	"github.com/newtron-network/replsync/pkg/replication"
	"github.com/newtron-network/replsync/pkg/util"
)

var dumpOutput string

var dumpCmd = &cobra.Command{
	Use:   "dump [-o <file>]",
	Short: "Write APPL_DB replication groups to a snapshot file",
	Long: `Read every replication group from APPL_DB and write it as a snapshot
file usable by 'apply', 'verify', and --offline. Without -o the snapshot goes
to stdout.

Examples:
  replsync dump
  replsync --ssh leaf1 dump -o leaf1.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			start := time.Now()
			event := audit.NewEvent(s.target, audit.OpDump)
			n, err := runDump(app.out, s.db, dumpOutput)
			if err != nil {
				event.WithError(err)
			} else {
				event.WithSuccess()
			}
			if lerr := app.audit.Log(event.WithDuration(time.Since(start))); lerr != nil {
				util.Warnf("audit: %v", lerr)
			}
			if err == nil && dumpOutput != "" {
				fmt.Fprintf(app.out, "Wrote %d groups to %s\n", n, dumpOutput)
			}
			return err
		})
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "Output file (default stdout)")
}

// runDump reads store and writes the snapshot to path, or to w when path is
// empty. It returns the number of groups written.
func runDump(w io.Writer, store replication.Store, path string) (int, error) {
	entries, err := replication.ReadAll(store)
	if err != nil {
		return 0, err
	}
	if path != "" {
		return len(entries), groupfile.Write(path, entries)
	}
	data, err := groupfile.Marshal(entries)
	if err != nil {
		return 0, err
	}
	_, err = w.Write(data)
	return len(entries), err
}
