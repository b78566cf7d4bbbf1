package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/internal/dispatch"
	"github.com/shaizee-khan/shadow-ai-main/internal/storage"
	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

func TestNaturalLanguageReminder(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t, Config{Poll: "1h"})

	before := time.Now()
	res := svc.SetReminderFromNaturalLanguage(context.Background(), "remind me in 2 hours take medicine", "en")

	if !res.Success {
		t.Fatalf("result not successful: %s", res.Err)
	}
	if res.TaskID == 0 {
		t.Fatal("no task id")
	}
	if !strings.Contains(res.Message, "take medicine") {
		t.Fatalf("Message = %q", res.Message)
	}
	if res.Confidence <= 0 {
		t.Fatalf("Confidence = %v", res.Confidence)
	}
	if !strings.HasPrefix(res.UserMessage, "Reminder set!") {
		t.Fatalf("UserMessage = %q", res.UserMessage)
	}

	lo, hi := before.Add(2*time.Hour-5*time.Second), time.Now().Add(2*time.Hour+5*time.Second)
	if res.ScheduledAt.Before(lo) || res.ScheduledAt.After(hi) {
		t.Fatalf("ScheduledAt = %v, want about two hours out", res.ScheduledAt)
	}

	task, err := st.Get(context.Background(), res.TaskID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if task.Type != storage.TypeReminder {
		t.Fatalf("type = %q, want reminder", task.Type)
	}
	if task.Status != storage.StatusPending {
		t.Fatalf("status = %q, want pending", task.Status)
	}
}

func TestNaturalLanguageReminderUrdu(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, Config{Poll: "1h"})

	res := svc.SetReminderFromNaturalLanguage(context.Background(), "مجھے 5 منٹ بعد میٹنگ کی یاد دہانی کرو", "ur")
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Err)
	}
	if !strings.HasPrefix(res.UserMessage, successMessages["ur"]) {
		t.Fatalf("UserMessage = %q, want Urdu confirmation", res.UserMessage)
	}
}

func TestNaturalLanguageWithoutParser(t *testing.T) {
	t.Parallel()
	st, err := storage.Open(storage.Config{Driver: "memory"}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	svc, err := New(st, nil, dispatch.New(logx.Nop()), Config{Poll: "1h"}, logx.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	res := svc.SetReminderFromNaturalLanguage(context.Background(), "anything", "ps")
	if res.Success {
		t.Fatal("expected soft failure without a parser")
	}
	if res.Err == "" {
		t.Fatal("missing error detail")
	}
	if res.UserMessage != failureMessages["ps"] {
		t.Fatalf("UserMessage = %q, want Pashto failure text", res.UserMessage)
	}
}

func TestLocalizedMessages(t *testing.T) {
	t.Parallel()
	if got := successMessage("en", "call mom"); got != "Reminder set! I'll remind you: call mom" {
		t.Fatalf("en success = %q", got)
	}
	// Unknown languages fall back to English.
	if got := successMessage("de", "x"); !strings.HasPrefix(got, "Reminder set!") {
		t.Fatalf("fallback success = %q", got)
	}
	if got := failureMessage("zz"); got != failureMessages["en"] {
		t.Fatalf("fallback failure = %q", got)
	}
}

func TestSetReminderRelative(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t, Config{Poll: "1h"})

	id, err := svc.SetReminder(context.Background(), "stretch", "desk break", 30*time.Minute, storage.RecurDaily)
	if err != nil {
		t.Fatalf("set reminder: %v", err)
	}
	task, err := st.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if task.Recurrence != storage.RecurDaily {
		t.Fatalf("recurrence = %q, want daily", task.Recurrence)
	}
	if until := time.Until(task.ScheduledAt); until < 29*time.Minute || until > 31*time.Minute {
		t.Fatalf("scheduled %v out, want about 30m", until)
	}
}
