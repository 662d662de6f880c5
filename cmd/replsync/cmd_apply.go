package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/replsync/pkg/appdb"
	"github.com/newtron-network/replsync/pkg/audit"
	"github.com/newtron-network/replsync/pkg/groupfile"
	"github.com/newtron-network/replsync/pkg/replication"
	"github.com/newtron-network/replsync/pkg/util"
)

var (
	applyFile  string
	applyOp    string
	applyCache string
)

var applyCmd = &cobra.Command{
	Use:   "apply -f <file> [--op insert|modify|delete] [-x]",
	Short: "Write replication groups to APPL_DB",
	Long: `Translate the groups in a snapshot file into APPL_DB mutations.

Insert and modify both replace the whole entry; delete removes it. All
mutations are written in one transaction.

With --cache, the same updates are applied to a cache snapshot file so a
later 'replsync verify -f <cache>' reflects what was programmed.

Examples:
  replsync apply -f groups.yaml
  replsync apply -f groups.yaml --op modify -x
  replsync apply -f stale.yaml --op delete -x --cache cache.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if applyFile == "" {
			return fmt.Errorf("group file required: use -f <file>")
		}
		updateType, err := replication.ParseUpdateType(applyOp)
		if err != nil {
			return err
		}
		entries, err := groupfile.Load(applyFile)
		if err != nil {
			return err
		}

		return withSession(func(s *session) error {
			start := time.Now()
			event := audit.NewEvent(s.target, audit.OpApply).WithExecuteMode(app.executeMode)

			b, err := runApply(app.out, s.db, updateType, entries, app.executeMode)
			event.WithBatch(updateType, entries, b)
			if err == nil && app.executeMode {
				err = s.persist()
			}
			if err == nil && app.executeMode && applyCache != "" {
				err = updateCacheFile(applyCache, updateType, entries)
			}

			if err != nil {
				event.WithError(err)
			} else {
				event.WithSuccess()
			}
			if lerr := app.audit.Log(event.WithDuration(time.Since(start))); lerr != nil {
				util.Warnf("audit: %v", lerr)
			}
			return err
		})
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "Group snapshot file (YAML or JSON)")
	applyCmd.Flags().StringVar(&applyOp, "op", "insert", "Update type: insert, modify, or delete")
	applyCmd.Flags().StringVar(&applyCache, "cache", "", "Cache snapshot file to update alongside APPL_DB")
}

// runApply serializes entries into a batch and prints the preview. With
// execute set the batch is written to db.
func runApply(w io.Writer, db appdb.DB, updateType replication.UpdateType, entries []replication.MulticastGroupEntry, execute bool) (*replication.Batch, error) {
	b := replication.NewBatch()
	if err := b.AddAll(updateType, entries); err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "%s %d replication group(s):\n", bold(updateType.String()), len(entries))
	fmt.Fprint(w, b.String())
	if b.IsEmpty() {
		fmt.Fprintln(w)
	}

	if !execute {
		fmt.Fprintln(w, "\n"+yellow("DRY-RUN: No changes applied. Use -x to execute."))
		return b, nil
	}

	if err := db.Apply(b.Updates); err != nil {
		return b, fmt.Errorf("execution failed: %w", err)
	}
	fmt.Fprintln(w, "\n"+green("Changes applied successfully."))
	return b, nil
}

// updateCacheFile mirrors an apply into the cache snapshot at path. A missing
// file starts an empty cache.
func updateCacheFile(path string, updateType replication.UpdateType, entries []replication.MulticastGroupEntry) error {
	cached := []replication.MulticastGroupEntry{}
	if _, err := os.Stat(path); err == nil {
		if cached, err = groupfile.Load(path); err != nil {
			return err
		}
	}
	cache := replication.NewEntryCacheFrom(cached)
	if err := cache.ApplyAll(updateType, entries); err != nil {
		return err
	}
	if err := groupfile.Write(path, cache.Entries()); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	util.Infof("cache %s now holds %d groups", path, cache.Len())
	return nil
}
