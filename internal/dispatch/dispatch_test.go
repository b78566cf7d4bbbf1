package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/shaizee-khan/shadow-ai-main/internal/storage"
	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

func TestEventFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typ  storage.TaskType
		want Event
	}{
		{storage.TypeReminder, EventReminder},
		{storage.TypeTimer, EventTimer},
		{storage.TypeAlarm, EventAlarm},
		{storage.TypeScheduled, EventScheduledTask},
		{storage.TaskType("other"), EventScheduledTask},
	}
	for _, tt := range tests {
		if got := EventFor(tt.typ); got != tt.want {
			t.Fatalf("EventFor(%q) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestDispatchRoutesToHandler(t *testing.T) {
	t.Parallel()
	d := New(logx.Nop())

	var got *storage.Task
	d.Register(EventReminder, func(_ context.Context, task *storage.Task) error {
		got = task
		return nil
	})

	task := &storage.Task{ID: 7, Type: storage.TypeReminder, Title: "hi"}
	if err := d.Dispatch(context.Background(), task); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got == nil || got.ID != 7 {
		t.Fatalf("handler saw %+v", got)
	}
}

func TestDispatchMissingHandlerIsNotAnError(t *testing.T) {
	t.Parallel()
	d := New(logx.Nop())
	task := &storage.Task{ID: 1, Type: storage.TypeTimer}
	if err := d.Dispatch(context.Background(), task); err != nil {
		t.Fatalf("headless dispatch must succeed, got %v", err)
	}
}

func TestDispatchWrapsHandlerError(t *testing.T) {
	t.Parallel()
	d := New(logx.Nop())
	boom := errors.New("boom")
	d.Register(EventAlarm, func(context.Context, *storage.Task) error { return boom })

	err := d.Dispatch(context.Background(), &storage.Task{ID: 2, Type: storage.TypeAlarm})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestRegisterReplaceAndClear(t *testing.T) {
	t.Parallel()
	d := New(logx.Nop())

	var first, second int
	d.Register(EventTimer, func(context.Context, *storage.Task) error { first++; return nil })
	d.Register(EventTimer, func(context.Context, *storage.Task) error { second++; return nil })

	task := &storage.Task{ID: 3, Type: storage.TypeTimer}
	if err := d.Dispatch(context.Background(), task); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if first != 0 || second != 1 {
		t.Fatalf("replacement not honored: first=%d second=%d", first, second)
	}

	d.Register(EventTimer, nil)
	if err := d.Dispatch(context.Background(), task); err != nil {
		t.Fatalf("dispatch after clear: %v", err)
	}
	if second != 1 {
		t.Fatal("cleared handler still invoked")
	}
}
