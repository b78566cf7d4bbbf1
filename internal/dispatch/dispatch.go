// Package dispatch routes due tasks to registered callback handlers.
//
// Each task type maps to one event name with at most one handler. A missing
// handler is not an error: the dispatch degrades to a log entry, so the
// scheduler works headless.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/shaizee-khan/shadow-ai-main/internal/storage"
	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

// Event names the callback slot a task type dispatches to.
type Event string

const (
	EventReminder      Event = "on_reminder"
	EventTimer         Event = "on_timer"
	EventAlarm         Event = "on_alarm"
	EventScheduledTask Event = "on_scheduled_task"
)

// EventFor maps a task type to its dispatch event.
func EventFor(t storage.TaskType) Event {
	switch t {
	case storage.TypeReminder:
		return EventReminder
	case storage.TypeTimer:
		return EventTimer
	case storage.TypeAlarm:
		return EventAlarm
	default:
		return EventScheduledTask
	}
}

// Handler receives a due task. Handlers may be invoked more than once for the
// same task in the rare restart-during-dispatch case and should tolerate it.
type Handler func(ctx context.Context, task *storage.Task) error

type Dispatcher struct {
	log logx.Logger

	mu       sync.RWMutex
	handlers map[Event]Handler
}

func New(log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{log: log, handlers: map[Event]Handler{}}
}

// Register installs the handler for an event, replacing any previous one.
// A nil handler clears the slot.
func (d *Dispatcher) Register(ev Event, h Handler) {
	d.mu.Lock()
	if h == nil {
		delete(d.handlers, ev)
	} else {
		d.handlers[ev] = h
	}
	d.mu.Unlock()
	d.log.Debug("callback registered", logx.String("event", string(ev)), logx.Bool("cleared", h == nil))
}

// Dispatch invokes the handler for the task's event and reports its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, task *storage.Task) error {
	ev := EventFor(task.Type)
	d.mu.RLock()
	h := d.handlers[ev]
	d.mu.RUnlock()

	if h == nil {
		d.log.Info("no handler registered; logging task instead",
			logx.String("event", string(ev)),
			logx.Int64("id", task.ID),
			logx.String("title", task.Title))
		return nil
	}
	if err := h(ctx, task); err != nil {
		return fmt.Errorf("dispatch %s: %w", ev, err)
	}
	return nil
}
