// Package recurrence parses the weekly RRULE subset used for class
// schedules and expands it into concrete occurrences.
package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidRule = errors.New("invalid recurrence rule")

type Frequency string

const Weekly Frequency = "WEEKLY"

const (
	untilLayout      = "20060102T150405Z"
	untilLocalLayout = "20060102T150405"
	untilDateLayout  = "20060102"
)

var dayCodes = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var weekdayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// Rule is a parsed recurrence. Nil ByHour/ByMinute and empty ByDay mean the
// value is taken from the start time. Zero Count and Until mean unset.
type Rule struct {
	Frequency Frequency
	ByDay     []time.Weekday
	ByHour    *int
	ByMinute  *int
	Count     int
	Until     time.Time
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}

// Parse reads "FREQ=WEEKLY;BYDAY=MO,WE;BYHOUR=18;BYMINUTE=30;COUNT=8" style
// rules. An "RRULE:" prefix is accepted.
func Parse(s string) (Rule, error) {
	var r Rule

	s = strings.TrimSpace(s)
	if len(s) >= 6 && strings.EqualFold(s[:6], "RRULE:") {
		s = s[6:]
	}
	if s == "" {
		return r, invalid("empty rule")
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return r, invalid("malformed part %q", part)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if seen[key] {
			return r, invalid("duplicate %s", key)
		}
		seen[key] = true

		switch key {
		case "FREQ":
			if Frequency(strings.ToUpper(value)) != Weekly {
				return r, invalid("unsupported frequency %q", value)
			}
			r.Frequency = Weekly
		case "BYDAY":
			days, err := parseDays(value)
			if err != nil {
				return r, err
			}
			r.ByDay = days
		case "BYHOUR":
			h, err := parseBounded(key, value, 0, 23)
			if err != nil {
				return r, err
			}
			r.ByHour = &h
		case "BYMINUTE":
			m, err := parseBounded(key, value, 0, 59)
			if err != nil {
				return r, err
			}
			r.ByMinute = &m
		case "COUNT":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return r, invalid("COUNT must be a positive integer, got %q", value)
			}
			r.Count = n
		case "UNTIL":
			until, err := parseUntil(value)
			if err != nil {
				return r, err
			}
			r.Until = until
		default:
			return r, invalid("unsupported key %s", key)
		}
	}

	if r.Frequency == "" {
		return r, invalid("FREQ is required")
	}
	return r, nil
}

func parseDays(value string) ([]time.Weekday, error) {
	if value == "" {
		return nil, invalid("BYDAY is empty")
	}
	set := make(map[time.Weekday]bool)
	for _, code := range strings.Split(value, ",") {
		d, ok := dayCodes[strings.ToUpper(strings.TrimSpace(code))]
		if !ok {
			return nil, invalid("unknown BYDAY value %q", code)
		}
		set[d] = true
	}
	days := make([]time.Weekday, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

func parseBounded(key, value string, lo, hi int) (int, error) {
	if strings.Contains(value, ",") {
		return 0, invalid("%s takes a single value", key)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < lo || n > hi {
		return 0, invalid("%s must be between %d and %d, got %q", key, lo, hi, value)
	}
	return n, nil
}

// parseUntil treats a date-only value as the end of that day in UTC.
func parseUntil(value string) (time.Time, error) {
	if t, err := time.Parse(untilLayout, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(untilLocalLayout, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(untilDateLayout, value); err == nil {
		return t.Add(24*time.Hour - time.Second).UTC(), nil
	}
	return time.Time{}, invalid("UNTIL %q is not an iCalendar date", value)
}

// String renders the rule back to iCalendar text.
func (r Rule) String() string {
	parts := []string{"FREQ=" + string(r.Frequency)}
	if len(r.ByDay) > 0 {
		codes := make([]string, len(r.ByDay))
		for i, d := range r.ByDay {
			codes[i] = weekdayCodes[d]
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}
	if r.ByHour != nil {
		parts = append(parts, "BYHOUR="+strconv.Itoa(*r.ByHour))
	}
	if r.ByMinute != nil {
		parts = append(parts, "BYMINUTE="+strconv.Itoa(*r.ByMinute))
	}
	if r.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.Count))
	}
	if !r.Until.IsZero() {
		parts = append(parts, "UNTIL="+r.Until.UTC().Format(untilLayout))
	}
	return strings.Join(parts, ";")
}
