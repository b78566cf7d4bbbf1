package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned for operations referencing an unknown task id.
var ErrNotFound = errors.New("task not found")

// TaskType selects which callback event a due task dispatches to.
// All types share the same state machine.
type TaskType string

const (
	TypeReminder  TaskType = "reminder"
	TypeTimer     TaskType = "timer"
	TypeAlarm     TaskType = "alarm"
	TypeScheduled TaskType = "scheduled_task"
)

func (t TaskType) Valid() bool {
	switch t {
	case TypeReminder, TypeTimer, TypeAlarm, TypeScheduled:
		return true
	}
	return false
}

// Status is the task lifecycle state.
//
// Transitions: pending -> active -> {completed|failed},
// and pending/active -> cancelled. Terminal states never re-enter.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Recurrence causes a completed task to spawn a successor pending task.
type Recurrence string

const (
	RecurNone    Recurrence = ""
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurNone, RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// Next returns the successor occurrence for a task scheduled at `at`.
// Monthly is a fixed 30-day delta; repeated cycles drift against calendar
// months. ok is false when there is no recurrence.
func (r Recurrence) Next(at time.Time) (next time.Time, ok bool) {
	switch r {
	case RecurDaily:
		return at.Add(24 * time.Hour), true
	case RecurWeekly:
		return at.Add(7 * 24 * time.Hour), true
	case RecurMonthly:
		return at.Add(30 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

// MetadataVersion is the current metadata schema version.
const MetadataVersion = 1

// Metadata is a versioned key-value attachment. It is serialized as JSON and
// parsed with encoding/json only; stored metadata is never evaluated.
type Metadata struct {
	Version int               `json:"v"`
	Values  map[string]string `json:"values,omitempty"`
}

// NewMetadata returns metadata at the current schema version.
func NewMetadata(values map[string]string) *Metadata {
	return &Metadata{Version: MetadataVersion, Values: values}
}

// Task is one scheduled unit of work.
type Task struct {
	ID          int64
	Type        TaskType
	Title       string
	Description string
	ScheduledAt time.Time
	CreatedAt   time.Time
	Status      Status
	OwnerID     string
	Recurrence  Recurrence
	Metadata    *Metadata
}

// DefaultOwner is used when no owner is supplied.
const DefaultOwner = "default"

// Clone returns a deep copy, so callers can hand tasks across goroutines.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Metadata != nil {
		m := *t.Metadata
		if t.Metadata.Values != nil {
			m.Values = make(map[string]string, len(t.Metadata.Values))
			for k, v := range t.Metadata.Values {
				m.Values[k] = v
			}
		}
		cp.Metadata = &m
	}
	return &cp
}
