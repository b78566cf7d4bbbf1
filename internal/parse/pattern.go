package parse

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/shaizee-khan/shadow-ai-main/pkg/logx"
)

const patternConfidence = 0.6

// Patterns is the regex table for one language. Minutes/Hours/Days must
// capture the numeric amount in group 1.
type Patterns struct {
	Minutes *regexp.Regexp
	Hours   *regexp.Regexp
	Days    *regexp.Regexp
	Clock   *regexp.Regexp

	Tomorrow *regexp.Regexp
	Today    *regexp.Regexp
	Now      *regexp.Regexp

	// Triggers are request phrases ("remind me to") stripped from the text
	// when recovering the reminder message; Fillers are leftover connective
	// words stripped afterwards.
	Triggers []*regexp.Regexp
	Fillers  []*regexp.Regexp
}

var clockToken = regexp.MustCompile(`(?i)\d{1,2}:\d{2}(?:\s*(?:am|pm))?`)

var builtin = map[string]Patterns{
	"en": {
		Minutes:  regexp.MustCompile(`(?i)(\d+)\s*(?:minutes?|mins?)\b`),
		Hours:    regexp.MustCompile(`(?i)(\d+)\s*(?:hours?|hrs?)\b`),
		Days:     regexp.MustCompile(`(?i)(\d+)\s*days?\b`),
		Clock:    clockToken,
		Tomorrow: regexp.MustCompile(`(?i)\btomorrow\b`),
		Today:    regexp.MustCompile(`(?i)\btoday\b`),
		Now:      regexp.MustCompile(`(?i)\bnow\b`),
		Triggers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bremind me to\b`),
			regexp.MustCompile(`(?i)\bremind me\b`),
			regexp.MustCompile(`(?i)\bset (?:a )?reminder (?:for|to)\b`),
			regexp.MustCompile(`(?i)\bset (?:a )?reminder\b`),
			regexp.MustCompile(`(?i)\balert me (?:about|to)\b`),
			regexp.MustCompile(`(?i)\balert me\b`),
			regexp.MustCompile(`(?i)\bremember to\b`),
			regexp.MustCompile(`(?i)\bremember\b`),
		},
		Fillers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bin\b`),
			regexp.MustCompile(`(?i)\babout\b`),
			regexp.MustCompile(`(?i)\bafter\b`),
			regexp.MustCompile(`(?i)\bat\b`),
		},
	},
	"ur": {
		Minutes:  regexp.MustCompile(`(\d+)\s*(?:منٹ|مِنِٹ)`),
		Hours:    regexp.MustCompile(`(\d+)\s*(?:گھنٹے|گھنٹہ|آور)`),
		Days:     regexp.MustCompile(`(\d+)\s*(?:دن|ڈے)`),
		Clock:    clockToken,
		Tomorrow: regexp.MustCompile(`کل`),
		Today:    regexp.MustCompile(`آج`),
		Now:      regexp.MustCompile(`ابھی|اب`),
		Triggers: []*regexp.Regexp{
			regexp.MustCompile(`مجھے یاد دلاؤ کہ`),
			regexp.MustCompile(`یاد دہانی سیٹ کرو`),
			regexp.MustCompile(`میرے لیے نوٹ کرو`),
			regexp.MustCompile(`یاد دہانی کرو`),
			regexp.MustCompile(`یاد دہانی|یاد دلاؤ|یاد رکھنا|نوٹ کرو|الارم لگاؤ`),
			regexp.MustCompile(`یاد`),
		},
		Fillers: []*regexp.Regexp{
			regexp.MustCompile(`بعد`),
			regexp.MustCompile(`مجھے`),
			regexp.MustCompile(`کی|کے|کا`),
		},
	},
	"ps": {
		Minutes:  regexp.MustCompile(`(\d+)\s*(?:دقيقې|دقيقو|مينټ)`),
		Hours:    regexp.MustCompile(`(\d+)\s*(?:ساعت|ساعتو|گھنٹو|گھنٹے)`),
		Days:     regexp.MustCompile(`(\d+)\s*(?:ورځې|ورځو|ورځ)`),
		Clock:    clockToken,
		Tomorrow: regexp.MustCompile(`سبا`),
		Today:    regexp.MustCompile(`نن`),
		Now:      regexp.MustCompile(`اوس|همالہ`),
		Triggers: []*regexp.Regexp{
			regexp.MustCompile(`ما ته یاد راکړه چې`),
			regexp.MustCompile(`زما لپاره یادونه کړه`),
			regexp.MustCompile(`یادونه راکړه`),
			regexp.MustCompile(`یادونه|یاد راکړه|یاد کړه|یادول`),
			regexp.MustCompile(`یاد`),
		},
		Fillers: []*regexp.Regexp{
			regexp.MustCompile(`ما ته`),
			regexp.MustCompile(`په`),
			regexp.MustCompile(`کې`),
			regexp.MustCompile(`د`),
		},
	},
}

// PatternStrategy is the deterministic fallback tier: per-language regex
// tables extract relative offsets and clock tokens, and the reminder message
// is the text with time phrases and trigger words stripped.
type PatternStrategy struct {
	langs       map[string]Patterns
	defaultLang string
	log         logx.Logger
}

func NewPattern(defaultLang string, log logx.Logger) *PatternStrategy {
	if log.IsZero() {
		log = logx.Nop()
	}
	if _, ok := builtin[defaultLang]; !ok {
		defaultLang = "en"
	}
	langs := make(map[string]Patterns, len(builtin))
	for code, p := range builtin {
		langs[code] = p
	}
	return &PatternStrategy{langs: langs, defaultLang: defaultLang, log: log}
}

// RegisterLanguage adds or replaces the pattern table for a language code.
func (p *PatternStrategy) RegisterLanguage(code string, pt Patterns) {
	p.langs[code] = pt
}

func (p *PatternStrategy) Name() string { return "pattern" }

func (p *PatternStrategy) Parse(_ context.Context, req Request) (*ParsedReminder, error) {
	pt, ok := p.langs[req.Language]
	if !ok {
		pt = p.langs[p.defaultLang]
		p.log.Debug("no pattern table for language; using default",
			logx.String("lang", req.Language), logx.String("default", p.defaultLang))
	}

	c := components{
		minutes: extractAmount(pt.Minutes, req.Text),
		hours:   extractAmount(pt.Hours, req.Text),
		days:    extractAmount(pt.Days, req.Text),
	}
	if pt.Clock != nil {
		c.clock = pt.Clock.FindString(req.Text)
	}
	if c.days == 0 && pt.Tomorrow != nil && pt.Tomorrow.MatchString(req.Text) {
		c.days = 1
	}

	return &ParsedReminder{
		Message:         p.extractMessage(req.Text, pt),
		ScheduledAt:     resolveTime(c, req.Now),
		RelativeMinutes: c.minutes,
		RelativeHours:   c.hours,
		RelativeDays:    c.days,
		ClockTime:       c.clock,
		Confidence:      patternConfidence,
		Reasoning:       "matched language time patterns",
	}, nil
}

func extractAmount(re *regexp.Regexp, text string) int {
	if re == nil {
		return 0
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func (p *PatternStrategy) extractMessage(text string, pt Patterns) string {
	msg := text
	for _, re := range []*regexp.Regexp{pt.Minutes, pt.Hours, pt.Days, pt.Clock, pt.Tomorrow, pt.Today, pt.Now} {
		if re != nil {
			msg = re.ReplaceAllString(msg, " ")
		}
	}
	for _, re := range pt.Triggers {
		msg = re.ReplaceAllString(msg, " ")
	}
	for _, re := range pt.Fillers {
		msg = re.ReplaceAllString(msg, " ")
	}
	msg = strings.Join(strings.Fields(msg), " ")
	return strings.Trim(msg, " .,!؟?")
}
