package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/newtron-network/replsync/pkg/cli"
	"github.com/newtron-network/replsync/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.replsync/settings.json.

Settings provide defaults for the connection flags:
  - redis_addr, redis_db, namespace: APPL_DB location
  - ssh_host, ssh_port, ssh_user, ssh_password: tunnel to the switch
  - audit_log: JSON-lines audit file

Examples:
  replsync settings show
  replsync settings set redis_addr 10.0.0.5:6379
  replsync settings set ssh_host leaf1
  replsync settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		fmt.Fprintf(app.out, "Settings file: %s\n\n", settings.DefaultSettingsPath())
		showSettings(app.out, s)
		return nil
	},
}

func showSettings(w io.Writer, s *settings.Settings) {
	t := cli.NewTableTo(w, "SETTING", "VALUE")
	row := func(name, value, fallback string) {
		switch {
		case value != "":
		case fallback != "":
			value = fallback + " " + cli.Dim("(default)")
		default:
			value = "(not set)"
		}
		t.Row(name, value)
	}
	password := ""
	if s.SSHPassword != "" {
		password = "********"
	}
	row("redis_addr", s.RedisAddr, settings.DefaultRedisAddr)
	row("redis_db", strconv.Itoa(s.RedisDB), "")
	row("namespace", s.Namespace, settings.DefaultNamespace)
	row("ssh_host", s.SSHHost, "")
	row("ssh_port", intOrEmpty(s.SSHPort), strconv.Itoa(settings.DefaultSSHPort))
	row("ssh_user", s.SSHUser, "")
	row("ssh_password", password, "")
	row("audit_log", s.AuditLog, "")
	t.Flush()
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}
		if err := s.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintf(app.out, "%s set to: %s\n", args[0], args[1])
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all settings to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintln(app.out, "Settings cleared")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsClearCmd)
}
