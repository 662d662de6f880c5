package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/replsync/pkg/audit"
	"github.com/newtron-network/replsync/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View the audit trail of apply, verify, and dump runs.

The log location comes from --audit-log or the audit_log setting.

Examples:
  replsync audit list --last 24h
  replsync audit list --op apply --failures
  replsync audit list --group 10`,
}

var (
	auditTarget   string
	auditOp       string
	auditGroup    string
	auditLast     string
	auditLimit    int
	auditFailures bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.auditPath == "" {
			return fmt.Errorf("no audit log configured: use --audit-log or 'replsync settings set audit_log <path>'")
		}
		filter, err := auditFilter()
		if err != nil {
			return err
		}
		events, err := app.audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}
		if app.jsonOutput {
			return json.NewEncoder(app.out).Encode(events)
		}
		printEvents(app.out, events)
		return nil
	},
}

func auditFilter() (audit.Filter, error) {
	filter := audit.Filter{
		Target:      auditTarget,
		Operation:   auditOp,
		Limit:       auditLimit,
		FailureOnly: auditFailures,
	}
	if auditGroup != "" {
		id, err := strconv.ParseUint(auditGroup, 0, 32)
		if err != nil {
			return filter, fmt.Errorf("invalid group id %q", auditGroup)
		}
		gid := uint32(id)
		filter.GroupID = &gid
	}
	if auditLast != "" {
		d, err := time.ParseDuration(auditLast)
		if err != nil {
			return filter, fmt.Errorf("invalid duration: %s", auditLast)
		}
		filter.StartTime = time.Now().Add(-d)
	}
	return filter, nil
}

func printEvents(w io.Writer, events []*audit.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No audit events found")
		return
	}
	t := cli.NewTableTo(w, "TIMESTAMP", "USER", "TARGET", "OPERATION", "UPDATES", "STATUS")
	for _, e := range events {
		status := green("ok")
		switch {
		case !e.Success:
			status = red("failed")
		case e.Operation == audit.OpApply && e.DryRun:
			status = yellow("dry-run")
		}
		op := e.Operation
		if e.UpdateType != "" {
			op += " " + e.UpdateType
		}
		t.Row(
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.User,
			e.Target,
			op,
			strconv.Itoa(len(e.Updates)),
			status,
		)
	}
	t.Flush()
}

func init() {
	auditListCmd.Flags().StringVar(&auditTarget, "target", "", "Filter by Redis address or SSH host")
	auditListCmd.Flags().StringVar(&auditOp, "op", "", "Filter by operation (apply, verify, dump)")
	auditListCmd.Flags().StringVar(&auditGroup, "group", "", "Filter by group id")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed operations")

	auditCmd.AddCommand(auditListCmd)
}
