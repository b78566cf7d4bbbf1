package parse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

type stubStrategy struct {
	name string
	res  *ParsedReminder
	err  error
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) Parse(context.Context, Request) (*ParsedReminder, error) {
	return s.res, s.err
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestParserChainFallsThrough(t *testing.T) {
	t.Parallel()
	want := testNow.Add(20 * time.Minute)
	p := New(logx.Nop(),
		stubStrategy{name: "first", err: errors.New("unavailable")},
		stubStrategy{name: "second", res: &ParsedReminder{
			Message:     "call mom",
			ScheduledAt: want,
			Confidence:  0.8,
		}},
	).WithClock(fixedClock(testNow))

	res := p.Parse(context.Background(), "call mom in 20 minutes", "en")
	if res.Source != "second" {
		t.Fatalf("Source = %q, want second", res.Source)
	}
	if !res.ScheduledAt.Equal(want) {
		t.Fatalf("ScheduledAt = %v, want %v", res.ScheduledAt, want)
	}
	if res.Original != "call mom in 20 minutes" {
		t.Fatalf("Original = %q", res.Original)
	}
	if res.Language != "en" {
		t.Fatalf("Language = %q, want en", res.Language)
	}
}

func TestParserFallbackWhenAllTiersFail(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop(),
		stubStrategy{name: "broken", err: errors.New("nope")},
	).WithClock(fixedClock(testNow))

	res := p.Parse(context.Background(), "water the plants", "en")
	if res.Source != "fallback" {
		t.Fatalf("Source = %q, want fallback", res.Source)
	}
	if res.Confidence != fallbackConfidence {
		t.Fatalf("Confidence = %v, want %v", res.Confidence, fallbackConfidence)
	}
	if want := testNow.Add(DefaultOffset); !res.ScheduledAt.Equal(want) {
		t.Fatalf("ScheduledAt = %v, want %v", res.ScheduledAt, want)
	}
	if res.Message != "water the plants" {
		t.Fatalf("Message = %q", res.Message)
	}
}

func TestParserNeverReturnsPastTime(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop(),
		stubStrategy{name: "stale", res: &ParsedReminder{
			Message:     "expired",
			ScheduledAt: testNow.Add(-2 * time.Hour),
			Confidence:  0.9,
		}},
	).WithClock(fixedClock(testNow))

	res := p.Parse(context.Background(), "something", "en")
	if res.ScheduledAt.Before(testNow) {
		t.Fatalf("ScheduledAt = %v is in the past", res.ScheduledAt)
	}
}

func TestParserClampsConfidence(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop(),
		stubStrategy{name: "hot", res: &ParsedReminder{
			Message:     "x",
			ScheduledAt: testNow.Add(time.Minute),
			Confidence:  3.5,
		}},
	).WithClock(fixedClock(testNow))

	res := p.Parse(context.Background(), "x", "en")
	if res.Confidence != 1 {
		t.Fatalf("Confidence = %v, want clamped to 1", res.Confidence)
	}
}

func TestParserDefaultsEmptyMessage(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop(),
		stubStrategy{name: "blank", res: &ParsedReminder{
			ScheduledAt: testNow.Add(time.Minute),
		}},
	).WithClock(fixedClock(testNow))

	res := p.Parse(context.Background(), "  ", "en")
	if res.Message != "Reminder" {
		t.Fatalf("Message = %q, want default", res.Message)
	}
	if res.Reasoning == "" {
		t.Fatal("Reasoning must never be empty")
	}
}

func TestParserNoStrategies(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop()).WithClock(fixedClock(testNow))
	res := p.Parse(context.Background(), "", "ur")
	if res.Source != "fallback" {
		t.Fatalf("Source = %q, want fallback", res.Source)
	}
	if res.Message != "Reminder" {
		t.Fatalf("Message = %q, want default", res.Message)
	}
	if res.Language != "ur" {
		t.Fatalf("Language = %q, want ur", res.Language)
	}
}
