package parse

import (
	"context"
	"strings"
	"time"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

// ParsedReminder is the result of one parse call. It is consumed immediately
// by the scheduler and never persisted.
type ParsedReminder struct {
	Message         string
	ScheduledAt     time.Time
	RelativeMinutes int
	RelativeHours   int
	RelativeDays    int
	ClockTime       string  // extracted clock token, if any
	Date            string  // raw date token reported by the AI tier, if any
	Confidence      float64 // in [0,1]
	Reasoning       string  // always non-empty
	Language        string
	Source          string // name of the strategy that produced the result
	Original        string
}

// Request is the input handed to each strategy. Now is the call time every
// relative offset resolves against.
type Request struct {
	Text     string
	Language string
	Now      time.Time
}

// Strategy is one parse tier. Returning an error (or nil) passes the request
// to the next tier.
type Strategy interface {
	Name() string
	Parse(ctx context.Context, req Request) (*ParsedReminder, error)
}

const fallbackConfidence = 0.3

// Parser resolves reminder text through a chain of strategies, ending in a
// built-in fallback that always succeeds.
type Parser struct {
	strategies []Strategy
	log        logx.Logger
	now        func() time.Time
}

func New(log logx.Logger, strategies ...Strategy) *Parser {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Parser{strategies: strategies, log: log, now: time.Now}
}

// WithClock overrides the wall clock. Test hook.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// Parse never fails and never returns an unschedulable result: the returned
// reminder always has ScheduledAt >= the call time, a confidence in [0,1] and
// a non-empty reasoning string.
func (p *Parser) Parse(ctx context.Context, text, language string) *ParsedReminder {
	req := Request{Text: text, Language: language, Now: p.now()}

	for _, st := range p.strategies {
		if st == nil {
			continue
		}
		res, err := st.Parse(ctx, req)
		if err != nil {
			p.log.Debug("parse tier failed; trying next",
				logx.String("tier", st.Name()), logx.String("lang", language), logx.Err(err))
			continue
		}
		if res == nil {
			continue
		}
		p.finalize(res, req, st.Name())
		return res
	}

	res := fallbackReminder(req)
	p.log.Debug("all parse tiers failed; using fallback", logx.String("lang", language))
	return res
}

func (p *Parser) finalize(res *ParsedReminder, req Request, source string) {
	if res.Source == "" {
		res.Source = source
	}
	res.Language = req.Language
	res.Original = req.Text
	if strings.TrimSpace(res.Message) == "" {
		res.Message = "Reminder"
	}
	if strings.TrimSpace(res.Reasoning) == "" {
		res.Reasoning = "parsed by " + source
	}
	res.Confidence = clamp01(res.Confidence)
	// Guaranteed-output contract: never hand back a moment in the past.
	if res.ScheduledAt.Before(req.Now) {
		res.ScheduledAt = req.Now.Add(DefaultOffset)
	}
}

func fallbackReminder(req Request) *ParsedReminder {
	msg := strings.TrimSpace(req.Text)
	if msg == "" {
		msg = "Reminder"
	}
	return &ParsedReminder{
		Message:       msg,
		ScheduledAt:   req.Now.Add(DefaultOffset),
		RelativeHours: 1,
		Confidence:    fallbackConfidence,
		Reasoning:     "no time expression recognized; defaulting to one hour",
		Language:      req.Language,
		Source:        "fallback",
		Original:      req.Text,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
