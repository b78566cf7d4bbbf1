package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

// Config configures the task store.
//
// Driver values:
//   - "sqlite" (or empty): SQLite database file at Path
//   - "memory": in-process store, lost on exit
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the scheduler.
//
// Every mutation is a single-row atomic unit; MarkActive and MarkCancelled
// are the conditional transitions the scheduler relies on to claim and to
// cancel a task exactly once.
type Store interface {
	// Save assigns the next id and writes the task durably before returning.
	Save(ctx context.Context, t *Task) (int64, error)
	// Get returns the task by id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Task, error)
	// Pending returns pending tasks with ScheduledAt <= dueBefore, ascending.
	Pending(ctx context.Context, dueBefore time.Time) ([]*Task, error)
	// Upcoming returns pending+active tasks with ScheduledAt >= now,
	// ascending, capped at limit.
	Upcoming(ctx context.Context, limit int) ([]*Task, error)
	// MarkActive atomically transitions pending -> active. It reports whether
	// this call made the transition.
	MarkActive(ctx context.Context, id int64) (bool, error)
	// MarkCancelled atomically transitions pending/active -> cancelled.
	// It returns false without error when the task is already terminal.
	MarkCancelled(ctx context.Context, id int64) (bool, error)
	// UpdateStatus sets the status unconditionally. Idempotent; unknown id
	// yields ErrNotFound.
	UpdateStatus(ctx context.Context, id int64, st Status) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory":
		return newMemory(log), nil
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
