package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultOffset is the schedule horizon used when no time expression could be
// extracted at all.
const DefaultOffset = time.Hour

// components is the normalized output of a parse tier before resolution.
type components struct {
	minutes int
	hours   int
	days    int
	clock   string // "HH:MM", "2:30 PM", ...
}

func (c components) hasRelative() bool {
	return c.minutes > 0 || c.hours > 0 || c.days > 0
}

// resolveTime turns extracted components into an absolute time.
//
// Rules: relative offsets win over an absolute clock time; a clock time with
// no date means today, or tomorrow if that moment already passed; nothing
// extracted means now + DefaultOffset.
func resolveTime(c components, now time.Time) time.Time {
	if c.hasRelative() {
		return now.Add(
			time.Duration(c.minutes)*time.Minute +
				time.Duration(c.hours)*time.Hour +
				time.Duration(c.days)*24*time.Hour)
	}
	if c.clock != "" {
		if at, ok := ParseClock(c.clock, now); ok {
			return at
		}
	}
	return now.Add(DefaultOffset)
}

var (
	clockHM = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(?i:(am|pm))?$`)
	clockH  = regexp.MustCompile(`^(\d{1,2})\s*(?i:(am|pm))$`)
)

// ParseClock resolves clock strings like "14:30", "2:30 PM" or "7 am" against
// the day of `now`: today, or tomorrow if the moment has already passed.
func ParseClock(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)

	var hour, minute int
	var period string
	if m := clockHM.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		period = m[3]
	} else if m := clockH.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		period = m[2]
	} else {
		return time.Time{}, false
	}

	switch strings.ToLower(period) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.Add(24 * time.Hour)
	}
	return at, true
}
