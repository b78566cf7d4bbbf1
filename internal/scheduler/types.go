package scheduler

import (
	"time"
)

// Config controls the scheduler service.
//
// Poll accepts a duration or a cron expression (see ParsePollSpec).
// TimerHorizon bounds which tasks get a precise deferred timer; zero means
// "one poll interval". DispatchTimeout caps a single handler invocation;
// zero disables the cap.
type Config struct {
	Poll            string
	ErrorBackoff    time.Duration
	TimerHorizon    time.Duration
	DispatchTimeout time.Duration
}

const defaultErrorBackoff = 60 * time.Second

// ReminderResult is the structured outcome of a natural-language scheduling
// request. Failures are carried in the result (with a localized UserMessage),
// never raised.
type ReminderResult struct {
	Success     bool
	TaskID      int64
	Message     string
	ScheduledAt time.Time
	Confidence  float64
	Reasoning   string
	UserMessage string
	Err         string
}

// Snapshot is a point-in-time view for diagnostics.
type Snapshot struct {
	Running        bool
	Poll           string
	DeferredTimers int
	LastScan       time.Time
	ScanErrors     uint64
	Executed       uint64
}
