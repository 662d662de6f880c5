// Package settings persists connection defaults for replsync so the APPL_DB
// address and SSH credentials need not be repeated on every run.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Fallbacks used when a setting is unset.
const (
	DefaultRedisAddr = "127.0.0.1:6379"
	DefaultSSHPort   = 22
	DefaultNamespace = "P4RT_TABLE"
)

// Settings holds persistent user preferences.
type Settings struct {
	RedisAddr string `json:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty"`
	Namespace string `json:"namespace,omitempty"`

	// SSHHost, when set, reaches Redis through a tunnel to the switch.
	SSHHost     string `json:"ssh_host,omitempty"`
	SSHPort     int    `json:"ssh_port,omitempty"`
	SSHUser     string `json:"ssh_user,omitempty"`
	SSHPassword string `json:"ssh_password,omitempty"`

	// AuditLog is the JSON-lines audit file; empty disables auditing.
	AuditLog string `json:"audit_log,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "replsync_settings.json"
	}
	return filepath.Join(home, ".replsync", "settings.json")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from path. A missing file yields empty settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to path. The file may hold an SSH password, so it
// is private to the user.
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// GetRedisAddr returns the Redis address (with fallback).
func (s *Settings) GetRedisAddr() string {
	if s.RedisAddr != "" {
		return s.RedisAddr
	}
	return DefaultRedisAddr
}

// GetNamespace returns the APPL_DB table namespace (with fallback).
func (s *Settings) GetNamespace() string {
	if s.Namespace != "" {
		return s.Namespace
	}
	return DefaultNamespace
}

// GetSSHPort returns the SSH port (with fallback).
func (s *Settings) GetSSHPort() int {
	if s.SSHPort != 0 {
		return s.SSHPort
	}
	return DefaultSSHPort
}

// UseTunnel reports whether Redis is reached over SSH.
func (s *Settings) UseTunnel() bool {
	return s.SSHHost != ""
}

// Keys lists the names accepted by Set.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(s *Settings, v string) error{
	"redis_addr":   func(s *Settings, v string) error { s.RedisAddr = v; return nil },
	"redis_db":     func(s *Settings, v string) error { return setInt(&s.RedisDB, v) },
	"namespace":    func(s *Settings, v string) error { s.Namespace = v; return nil },
	"ssh_host":     func(s *Settings, v string) error { s.SSHHost = v; return nil },
	"ssh_port":     func(s *Settings, v string) error { return setInt(&s.SSHPort, v) },
	"ssh_user":     func(s *Settings, v string) error { s.SSHUser = v; return nil },
	"ssh_password": func(s *Settings, v string) error { s.SSHPassword = v; return nil },
	"audit_log":    func(s *Settings, v string) error { s.AuditLog = v; return nil },
}

// Set assigns the setting named key from its string form.
func (s *Settings) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %v)", key, Keys())
	}
	if err := set(s, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("must not be negative: %d", n)
	}
	*dst = n
	return nil
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
