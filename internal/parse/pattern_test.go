package parse

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func patternParse(t *testing.T, text, lang string) *ParsedReminder {
	t.Helper()
	st := NewPattern("en", logx.Nop())
	res, err := st.Parse(context.Background(), Request{Text: text, Language: lang, Now: testNow})
	if err != nil {
		t.Fatalf("pattern parse error: %v", err)
	}
	return res
}

func TestPatternEnglishRelative(t *testing.T) {
	t.Parallel()
	res := patternParse(t, "remind me in 5 minutes about the meeting", "en")

	if res.RelativeMinutes != 5 {
		t.Fatalf("RelativeMinutes = %d, want 5", res.RelativeMinutes)
	}
	if want := testNow.Add(5 * time.Minute); !res.ScheduledAt.Equal(want) {
		t.Fatalf("ScheduledAt = %v, want %v", res.ScheduledAt, want)
	}
	if res.Confidence != patternConfidence {
		t.Fatalf("Confidence = %v, want %v", res.Confidence, patternConfidence)
	}
	if !strings.Contains(res.Message, "meeting") {
		t.Fatalf("Message = %q, want the meeting content", res.Message)
	}
	if strings.Contains(res.Message, "remind") || strings.Contains(res.Message, "5") {
		t.Fatalf("Message = %q, time phrase not stripped", res.Message)
	}
}

func TestPatternEnglishHoursAndDays(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want time.Duration
	}{
		{"remind me in 2 hours take medicine", 2 * time.Hour},
		{"set a reminder for 3 days call home", 3 * 24 * time.Hour},
		{"remind me tomorrow about the doctor", 24 * time.Hour},
	}
	for _, tt := range tests {
		res := patternParse(t, tt.text, "en")
		if want := testNow.Add(tt.want); !res.ScheduledAt.Equal(want) {
			t.Fatalf("%q: ScheduledAt = %v, want %v", tt.text, res.ScheduledAt, want)
		}
	}
}

func TestPatternEnglishClock(t *testing.T) {
	t.Parallel()
	res := patternParse(t, "remind me at 14:30 about standup", "en")
	if res.ClockTime != "14:30" {
		t.Fatalf("ClockTime = %q, want 14:30", res.ClockTime)
	}
	want := time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)
	if !res.ScheduledAt.Equal(want) {
		t.Fatalf("ScheduledAt = %v, want %v", res.ScheduledAt, want)
	}
}

func TestPatternUrdu(t *testing.T) {
	t.Parallel()
	res := patternParse(t, "مجھے 5 منٹ بعد میٹنگ کی یاد دہانی کرو", "ur")

	if res.RelativeMinutes != 5 {
		t.Fatalf("RelativeMinutes = %d, want 5", res.RelativeMinutes)
	}
	if !strings.Contains(res.Message, "میٹنگ") {
		t.Fatalf("Message = %q, want the meeting content", res.Message)
	}
}

func TestPatternPashto(t *testing.T) {
	t.Parallel()
	res := patternParse(t, "ما ته په 2 ساعت کې د پروژې یادونه راکړه", "ps")

	if res.RelativeHours != 2 {
		t.Fatalf("RelativeHours = %d, want 2", res.RelativeHours)
	}
	if want := testNow.Add(2 * time.Hour); !res.ScheduledAt.Equal(want) {
		t.Fatalf("ScheduledAt = %v, want %v", res.ScheduledAt, want)
	}
}

func TestPatternUnknownLanguageUsesDefault(t *testing.T) {
	t.Parallel()
	res := patternParse(t, "remind me in 10 minutes to stretch", "fr")
	if res.RelativeMinutes != 10 {
		t.Fatalf("RelativeMinutes = %d, want 10 (default table)", res.RelativeMinutes)
	}
}

func TestPatternRegisterLanguage(t *testing.T) {
	t.Parallel()
	st := NewPattern("en", logx.Nop())
	st.RegisterLanguage("de", Patterns{
		Minutes: regexp.MustCompile(`(\d+)\s*Minuten`),
		Triggers: []*regexp.Regexp{
			regexp.MustCompile(`erinnere mich an`),
		},
		Fillers: []*regexp.Regexp{
			regexp.MustCompile(`\bin\b`),
		},
	})

	res, err := st.Parse(context.Background(), Request{Text: "erinnere mich an Kaffee in 15 Minuten", Language: "de", Now: testNow})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if res.RelativeMinutes != 15 {
		t.Fatalf("RelativeMinutes = %d, want 15", res.RelativeMinutes)
	}
	if !strings.Contains(res.Message, "Kaffee") {
		t.Fatalf("Message = %q, want Kaffee", res.Message)
	}
}

func TestPatternNoTimeExpression(t *testing.T) {
	t.Parallel()
	res := patternParse(t, "remind me about the thing", "en")
	if want := testNow.Add(DefaultOffset); !res.ScheduledAt.Equal(want) {
		t.Fatalf("ScheduledAt = %v, want default %v", res.ScheduledAt, want)
	}
}
