package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/time/rate"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

// Completer is the external reasoning service, consumed as text-in/text-out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	defaultAITimeout    = 10 * time.Second
	aiDefaultConfidence = 0.5
)

// AIConfig bounds the reasoning-service tier.
type AIConfig struct {
	Timeout    time.Duration // per-call deadline; default 10s
	RatePerSec int           // 0 disables rate limiting
}

// AIStrategy asks the reasoning service to extract reminder components as
// structured JSON. Any failure (timeout, rate limit, unusable output) is an
// error, which sends the request to the next tier.
type AIStrategy struct {
	completer Completer
	timeout   time.Duration
	limiter   *rate.Limiter
	log       logx.Logger
}

func NewAI(completer Completer, cfg AIConfig, log logx.Logger) *AIStrategy {
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return &AIStrategy{completer: completer, timeout: timeout, limiter: limiter, log: log}
}

func (a *AIStrategy) Name() string { return "ai" }

func (a *AIStrategy) Parse(ctx context.Context, req Request) (*ParsedReminder, error) {
	if a.completer == nil {
		return nil, errors.New("no reasoning service configured")
	}
	if a.limiter != nil && !a.limiter.Allow() {
		return nil, errors.New("reasoning call rate limited")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.completer.Complete(ctx, buildPrompt(req.Text, req.Language))
	if err != nil {
		return nil, fmt.Errorf("reasoning call: %w", err)
	}

	data, err := decodeAIResponse(resp)
	if err != nil {
		return nil, err
	}

	c := components{
		minutes: roundInt(data.RelativeMinutes),
		hours:   roundInt(data.RelativeHours),
		days:    roundInt(data.RelativeDays),
		clock:   strings.TrimSpace(data.Time),
	}

	conf := data.Confidence
	if conf == 0 {
		conf = aiDefaultConfidence
	}
	return &ParsedReminder{
		Message:         strings.TrimSpace(data.Message),
		ScheduledAt:     resolveTime(c, req.Now),
		RelativeMinutes: c.minutes,
		RelativeHours:   c.hours,
		RelativeDays:    c.days,
		ClockTime:       c.clock,
		Date:            strings.TrimSpace(data.Date),
		Confidence:      conf,
		Reasoning:       data.Reasoning,
	}, nil
}

// aiResponse mirrors the JSON shape requested by the prompt. Numeric fields
// are float64 because models occasionally emit "5.0".
type aiResponse struct {
	Message         string  `json:"message"`
	Time            string  `json:"time"`
	Date            string  `json:"date"`
	RelativeMinutes float64 `json:"relative_minutes"`
	RelativeHours   float64 `json:"relative_hours"`
	RelativeDays    float64 `json:"relative_days"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// decodeAIResponse pulls the first JSON object out of the response text and
// decodes it, repairing malformed output when plain decoding fails.
func decodeAIResponse(resp string) (*aiResponse, error) {
	blob := jsonObject.FindString(resp)
	if blob == "" {
		return nil, errors.New("response contains no JSON object")
	}

	var data aiResponse
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(blob)
		if rerr != nil {
			return nil, fmt.Errorf("unparseable response: %w", err)
		}
		if jerr := json.Unmarshal([]byte(repaired), &data); jerr != nil {
			return nil, fmt.Errorf("unparseable response after repair: %w", jerr)
		}
	}
	return &data, nil
}

func roundInt(v float64) int {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

var languageNames = map[string]string{
	"en": "English",
	"ur": "Urdu",
	"ps": "Pashto",
}

func buildPrompt(text, language string) string {
	name, ok := languageNames[language]
	if !ok {
		name = "English"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Parse the following %s reminder request and extract:
1. REMINDER MESSAGE: what should be remembered
2. TIME: clock time the reminder should trigger, if mentioned
3. DATE: specific date, if mentioned
4. RELATIVE TIME: offsets like "in 5 minutes"

TEXT: %q
LANGUAGE: %s

Respond with JSON only, exactly this shape:
{
  "message": "the reminder content",
  "time": "HH:MM or null",
  "date": "YYYY-MM-DD or null",
  "relative_minutes": 0,
  "relative_hours": 0,
  "relative_days": 0,
  "confidence": 0.95,
  "reasoning": "explanation of parsing"
}

Example:
"Remind me tomorrow at 3 PM about the doctor appointment" ->
{"message": "doctor appointment", "time": "15:00", "date": null,
 "relative_minutes": 0, "relative_hours": 0, "relative_days": 1,
 "confidence": 0.97, "reasoning": "reminder tomorrow at 3 PM"}
`, name, text, name)
	return b.String()
}
