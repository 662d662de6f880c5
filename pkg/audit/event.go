// Package audit records every apply and verify run against APPL_DB as a
// JSON-lines trail that can be queried later.
package audit

import (
	"os/user"
	"time"

	"github.com/google/uuid"

	"github.com/newtron-network/replsync/pkg/replication"
)

// Operation names recorded in events.
const (
	OpApply  = "apply"
	OpVerify = "verify"
	OpDump   = "dump"
)

// Event is one audited run.
type Event struct {
	ID            string                          `json:"id"`
	Timestamp     time.Time                       `json:"timestamp"`
	User          string                          `json:"user"`
	Target        string                          `json:"target"` // Redis address
	Operation     string                          `json:"operation"`
	UpdateType    string                          `json:"update_type,omitempty"`
	GroupIDs      []uint32                        `json:"group_ids,omitempty"`
	Updates       []replication.KeyOpFieldsValues `json:"updates,omitempty"`
	Discrepancies []string                        `json:"discrepancies,omitempty"`
	Success       bool                            `json:"success"`
	Error         string                          `json:"error,omitempty"`
	ExecuteMode   bool                            `json:"execute_mode"`
	DryRun        bool                            `json:"dry_run"`
	Duration      time.Duration                   `json:"duration"`
}

// Filter selects events in Query. Zero fields match everything.
type Filter struct {
	Target      string
	User        string
	Operation   string
	GroupID     *uint32
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent starts an event for the current OS user.
func NewEvent(target, operation string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      currentUser(),
		Target:    target,
		Operation: operation,
	}
}

// WithBatch records the mutations of an apply and the groups they touch.
func (e *Event) WithBatch(updateType replication.UpdateType, entries []replication.MulticastGroupEntry, b *replication.Batch) *Event {
	e.UpdateType = updateType.String()
	e.GroupIDs = make([]uint32, 0, len(entries))
	for _, entry := range entries {
		e.GroupIDs = append(e.GroupIDs, entry.GroupID)
	}
	if b != nil {
		e.Updates = b.Updates
	}
	return e
}

// WithDiscrepancies records the messages of a verify.
func (e *Event) WithDiscrepancies(msgs []string) *Event {
	e.Discrepancies = msgs
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	e.Error = ""
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the run time.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithExecuteMode marks whether -x was given.
func (e *Event) WithExecuteMode(execute bool) *Event {
	e.ExecuteMode = execute
	e.DryRun = !execute
	return e
}

func (e *Event) touches(id uint32) bool {
	for _, g := range e.GroupIDs {
		if g == id {
			return true
		}
	}
	return false
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}
