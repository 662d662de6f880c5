package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/newtron-network/replsync/pkg/util"
)

// Logger is an audit backend.
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// RotationConfig bounds the size of the live log file.
type RotationConfig struct {
	MaxSize    int64 // bytes; 0 disables rotation
	MaxBackups int   // rotated files kept; 0 keeps all
}

// FileLogger appends events to a JSON-lines file.
type FileLogger struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	encoder  *json.Encoder
	rotation RotationConfig
}

// NewFileLogger opens (or creates) the log at path.
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	l := &FileLogger{path: path, rotation: rotation}
	if err := l.open(); err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return l, nil
}

func (l *FileLogger) open() error {
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.encoder = json.NewEncoder(file)
	return nil
}

// Log appends event, rotating first when the file is full.
func (l *FileLogger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("audit log %s is closed", l.path)
	}
	if l.rotation.MaxSize > 0 {
		if info, err := l.file.Stat(); err == nil && info.Size() >= l.rotation.MaxSize {
			if err := l.rotate(); err != nil {
				return fmt.Errorf("rotating audit log: %w", err)
			}
		}
	}
	return l.encoder.Encode(event)
}

// Query returns the events in the live file that match filter, oldest first.
// Malformed lines are skipped with a warning.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []*Event{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	events := make([]*Event, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			util.Warnf("audit: skipping malformed entry at line %d: %v", line, err)
			continue
		}
		if filter.matches(&event) {
			events = append(events, &event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return filter.page(events), nil
}

// Close closes the log file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (f Filter) matches(e *Event) bool {
	switch {
	case f.Target != "" && e.Target != f.Target:
		return false
	case f.User != "" && e.User != f.User:
		return false
	case f.Operation != "" && e.Operation != f.Operation:
		return false
	case f.GroupID != nil && !e.touches(*f.GroupID):
		return false
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.SuccessOnly && !e.Success:
		return false
	case f.FailureOnly && e.Success:
		return false
	}
	return true
}

func (f Filter) page(events []*Event) []*Event {
	if f.Offset > 0 {
		if f.Offset >= len(events) {
			return []*Event{}
		}
		events = events[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(events) {
		events = events[:f.Limit]
	}
	return events
}

// rotate renames the live file with a timestamp suffix and reopens it.
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	rotated := l.path + "." + time.Now().Format("20060102-150405.000000000")
	if err := os.Rename(l.path, rotated); err != nil {
		return err
	}
	if err := l.open(); err != nil {
		return err
	}
	if l.rotation.MaxBackups > 0 {
		l.pruneBackups()
	}
	return nil
}

// pruneBackups removes the oldest rotated files beyond MaxBackups. The
// timestamp suffix sorts chronologically.
func (l *FileLogger) pruneBackups() {
	backups, err := filepath.Glob(l.path + ".*")
	if err != nil || len(backups) <= l.rotation.MaxBackups {
		return
	}
	sort.Strings(backups)
	for _, path := range backups[:len(backups)-l.rotation.MaxBackups] {
		if err := os.Remove(path); err != nil {
			util.Warnf("audit: removing %s: %v", path, err)
		}
	}
}

// NopLogger discards events. It stands in when no audit log is configured.
type NopLogger struct{}

func (NopLogger) Log(*Event) error { return nil }

func (NopLogger) Query(Filter) ([]*Event, error) { return []*Event{}, nil }

func (NopLogger) Close() error { return nil }
