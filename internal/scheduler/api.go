package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/internal/dispatch"
	"github.com/shaizee-khan/shadow-ai-main/internal/parse"
	"github.com/shaizee-khan/shadow-ai-main/internal/storage"
	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

// ScheduleTask persists a new pending task. A scheduled time at or before now
// makes the task eligible on the very next tick.
func (s *Service) ScheduleTask(ctx context.Context, title, description string, at time.Time, typ storage.TaskType, rec storage.Recurrence) (int64, error) {
	if strings.TrimSpace(title) == "" {
		return 0, errors.New("title is required")
	}
	if typ == "" {
		typ = storage.TypeScheduled
	}
	if !typ.Valid() {
		return 0, fmt.Errorf("unknown task type %q", typ)
	}
	if !rec.Valid() {
		return 0, fmt.Errorf("unknown recurrence %q", rec)
	}

	t := &storage.Task{
		Type:        typ,
		Title:       title,
		Description: description,
		ScheduledAt: at,
		CreatedAt:   time.Now(),
		Status:      storage.StatusPending,
		OwnerID:     storage.DefaultOwner,
		Recurrence:  rec,
	}
	id, err := s.store.Save(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("schedule task: %w", err)
	}

	s.log.Info("task scheduled",
		logx.Int64("id", id),
		logx.String("type", string(typ)),
		logx.String("title", title),
		logx.Time("at", at))

	if !at.After(time.Now()) {
		s.kick()
	} else {
		s.maybeDefer(t)
	}
	return id, nil
}

// SetReminder schedules a reminder a relative delay from now.
func (s *Service) SetReminder(ctx context.Context, title, description string, delay time.Duration, rec storage.Recurrence) (int64, error) {
	return s.ScheduleTask(ctx, title, description, time.Now().Add(delay), storage.TypeReminder, rec)
}

// SetTimer schedules a one-shot timer for the given duration.
func (s *Service) SetTimer(ctx context.Context, d time.Duration, title string) (int64, error) {
	if strings.TrimSpace(title) == "" {
		title = "Timer"
	}
	desc := fmt.Sprintf("Timer for %s", d)
	return s.ScheduleTask(ctx, title, desc, time.Now().Add(d), storage.TypeTimer, storage.RecurNone)
}

// SetAlarm schedules an alarm at a clock time like "14:30" or "2:30 PM"
// (today, or tomorrow if already past). An unparseable clock falls back to
// one hour out rather than failing.
func (s *Service) SetAlarm(ctx context.Context, clock, title string, rec storage.Recurrence) (int64, error) {
	if strings.TrimSpace(title) == "" {
		title = "Alarm"
	}
	at, ok := parse.ParseClock(clock, time.Now())
	if !ok {
		s.log.Warn("unparseable alarm time; defaulting to one hour", logx.String("clock", clock))
		at = time.Now().Add(time.Hour)
	}
	return s.ScheduleTask(ctx, title, "Alarm for "+clock, at, storage.TypeAlarm, rec)
}

// SetReminderFromNaturalLanguage parses free text in the given language and
// schedules the resulting reminder. The outcome is always a structured
// result; failures carry a localized UserMessage.
func (s *Service) SetReminderFromNaturalLanguage(ctx context.Context, text, language string) ReminderResult {
	if s.parser == nil {
		return ReminderResult{
			Success:     false,
			Err:         "reminder parser not available",
			UserMessage: failureMessage(language),
		}
	}

	parsed := s.parser.Parse(ctx, text, language)
	id, err := s.ScheduleTask(ctx, parsed.Message, "Reminder: "+parsed.Message,
		parsed.ScheduledAt, storage.TypeReminder, storage.RecurNone)
	if err != nil {
		s.log.Error("natural language reminder failed",
			logx.String("lang", language), logx.Err(err))
		return ReminderResult{
			Success:     false,
			Err:         err.Error(),
			UserMessage: failureMessage(language),
		}
	}

	return ReminderResult{
		Success:     true,
		TaskID:      id,
		Message:     parsed.Message,
		ScheduledAt: parsed.ScheduledAt,
		Confidence:  parsed.Confidence,
		Reasoning:   parsed.Reasoning,
		UserMessage: successMessage(language, parsed.Message),
	}
}

// Cancel transitions a task to Cancelled and drops any deferred timer. It
// returns false when the task is already terminal. The store is updated
// before the timer is touched, so a concurrent poll cycle cannot re-discover
// the task mid-cancel.
func (s *Service) Cancel(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.MarkCancelled(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	s.clearTimer(id)
	s.log.Info("task cancelled", logx.Int64("id", id))
	return true, nil
}

// UpcomingTasks lists pending and active tasks not yet due, soonest first.
func (s *Service) UpcomingTasks(ctx context.Context, limit int) ([]*storage.Task, error) {
	return s.store.Upcoming(ctx, limit)
}

// RegisterCallback installs the handler for a dispatch event.
func (s *Service) RegisterCallback(ev dispatch.Event, h dispatch.Handler) {
	s.disp.Register(ev, h)
}
