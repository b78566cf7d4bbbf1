package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type SpecKind int

const (
	SpecInterval SpecKind = iota
	SpecCron
)

// PollSpec is the parsed poll cadence.
//
// Supported formats:
//   - Duration: "30s", "2m30s"
//   - Cron: "*/1 * * * *", "@every 30s", "@hourly"
type PollSpec struct {
	Kind  SpecKind
	Raw   string
	Every time.Duration // interval kind only
}

var pollParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

const defaultPoll = "30s"

func ParsePollSpec(raw string) (PollSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultPoll
	}

	if strings.HasPrefix(raw, "@") || strings.Contains(raw, " ") {
		if _, err := pollParser.Parse(raw); err != nil {
			return PollSpec{}, fmt.Errorf("invalid poll cron spec %q: %w", raw, err)
		}
		return PollSpec{Kind: SpecCron, Raw: raw}, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return PollSpec{}, fmt.Errorf("poll spec %q is neither a duration nor a cron expression", raw)
	}
	if d <= 0 {
		return PollSpec{}, fmt.Errorf("poll interval must be > 0, got %q", raw)
	}
	return PollSpec{Kind: SpecInterval, Raw: raw, Every: d}, nil
}

// horizon is the default deferred-timer window: anything due sooner than the
// next poll tick is worth a precise timer.
func (p PollSpec) horizon() time.Duration {
	if p.Kind == SpecInterval && p.Every > 0 {
		return p.Every
	}
	return 30 * time.Second
}
