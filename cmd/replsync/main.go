// Replsync - packet replication table tool for SONiC APPL_DB
//
// Reads and writes the REPLICATION_IP_MULTICAST_TABLE entries that the P4RT
// application publishes for orchagent, and checks them against a cached
// snapshot of what the controller programmed.
//
// Write commands preview by default; -x executes.
//
// Examples:
//
//	replsync show                                  # Groups in APPL_DB
//	replsync apply -f groups.yaml --op insert      # Preview the mutations
//	replsync apply -f groups.yaml --op modify -x   # Write them
//	replsync verify -f cache.yaml                  # Report discrepancies
//	replsync --ssh leaf1 dump -o leaf1.yaml        # Snapshot over SSH
//	replsync --offline lab.yaml apply -f g.yaml -x # Work on a local snapshot
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/replsync/pkg/audit"
	"github.com/newtron-network/replsync/pkg/settings"
	"github.com/newtron-network/replsync/pkg/util"
	"github.com/newtron-network/replsync/pkg/version"
)

// App holds global flag values and state shared by all commands.
type App struct {
	redisAddr   string
	redisDB     int
	sshHost     string
	offlinePath string
	auditPath   string

	verbose     bool
	jsonOutput  bool
	executeMode bool

	settings *settings.Settings
	audit    audit.Logger
	out      io.Writer
}

var app = &App{
	settings: &settings.Settings{},
	audit:    audit.NopLogger{},
	out:      os.Stdout,
}

// errDiscrepancies makes verify exit non-zero after printing its report.
var errDiscrepancies = errors.New("APPL_DB does not match the cache")

func main() {
	err := rootCmd.Execute()
	app.audit.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "replsync",
	Short:             "SONiC packet replication table tool",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Replsync manages the multicast replication groups in SONiC APPL_DB
(P4RT_TABLE:REPLICATION_IP_MULTICAST_TABLE) and verifies them against a
cached snapshot.

Write commands preview changes by default; use -x to execute.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if isMetaCommand(cmd) {
			return nil
		}

		s, err := settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			s = &settings.Settings{}
		}
		app.settings = s
		if app.redisAddr == "" {
			app.redisAddr = s.GetRedisAddr()
		}
		if !cmd.Flags().Changed("db") {
			app.redisDB = s.RedisDB
		}
		if app.sshHost == "" {
			app.sshHost = s.SSHHost
		}
		if app.auditPath == "" {
			app.auditPath = s.AuditLog
		}

		if app.auditPath != "" {
			l, err := audit.NewFileLogger(app.auditPath, audit.RotationConfig{
				MaxSize:    10 * 1024 * 1024,
				MaxBackups: 10,
			})
			if err != nil {
				util.Warnf("Could not initialize audit logging: %v", err)
			} else {
				app.audit = l
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.redisAddr, "redis", "r", "", "APPL_DB Redis address (default from settings, else 127.0.0.1:6379)")
	rootCmd.PersistentFlags().IntVar(&app.redisDB, "db", 0, "Redis database number")
	rootCmd.PersistentFlags().StringVar(&app.sshHost, "ssh", "", "Reach Redis through an SSH tunnel to this switch")
	rootCmd.PersistentFlags().StringVar(&app.offlinePath, "offline", "", "Operate on a local snapshot file instead of Redis")
	rootCmd.PersistentFlags().StringVar(&app.auditPath, "audit-log", "", "Audit log file (default from settings)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")

	addWriteFlags(applyCmd)
	for _, cmd := range []*cobra.Command{showCmd, verifyCmd, auditListCmd} {
		addOutputFlags(cmd)
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "table", Title: "Replication Table:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)
	for _, cmd := range []*cobra.Command{showCmd, applyCmd, verifyCmd, dumpCmd} {
		cmd.GroupID = "table"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

func addWriteFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&app.executeMode, "execute", "x", false, "Execute changes (default is dry-run)")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&app.jsonOutput, "json", false, "JSON output")
}

// isMetaCommand reports commands that need neither settings nor a database.
func isMetaCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "version", "help":
			return true
		}
	}
	return false
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Fprintln(app.out, "replsync dev build (stamp a version with -ldflags, see pkg/version)")
			return
		}
		fmt.Fprintf(app.out, "replsync %s\n", version.Info())
	},
}
