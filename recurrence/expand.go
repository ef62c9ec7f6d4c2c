package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	DefaultMaxOccurrences = 24
	DefaultHorizon        = 84 * 24 * time.Hour
)

var rruleDays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Request describes one schedule creation. A nil Rule yields a single
// occurrence. MaxOccurrences overrides the rule's COUNT when positive.
type Request struct {
	Start          time.Time
	Duration       time.Duration
	Rule           *Rule
	MaxOccurrences int
}

// Expand returns the occurrences of req ordered by start time. A rule that
// matches nothing falls back to the single occurrence at req.Start.
//
// BYDAY, BYHOUR and BYMINUTE are read in req.Start's location, so a rule
// keeps its wall-clock time across DST changes. Occurrences are in UTC.
func Expand(req Request) ([]Occurrence, error) {
	start := req.Start.Truncate(time.Second)
	if req.Duration <= 0 {
		return nil, invalid("duration must be positive")
	}

	single := []Occurrence{{Start: start.UTC(), End: start.UTC().Add(req.Duration)}}
	if req.Rule == nil {
		return single, nil
	}
	rule := req.Rule
	if rule.Frequency != Weekly {
		return nil, invalid("unsupported frequency %q", rule.Frequency)
	}

	limit := DefaultMaxOccurrences
	switch {
	case req.MaxOccurrences > 0:
		limit = req.MaxOccurrences
	case rule.Count > 0:
		limit = rule.Count
	}

	until := start.Add(DefaultHorizon)
	if !rule.Until.IsZero() {
		until = rule.Until
	}
	if until.Before(start) {
		return single, nil
	}

	hour, minute := start.Hour(), start.Minute()
	if rule.ByHour != nil {
		hour = *rule.ByHour
	}
	if rule.ByMinute != nil {
		minute = *rule.ByMinute
	}

	days := []rrule.Weekday{rruleDays[start.Weekday()]}
	if len(rule.ByDay) > 0 {
		days = make([]rrule.Weekday, len(rule.ByDay))
		for i, d := range rule.ByDay {
			days[i] = rruleDays[d]
		}
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     until,
		Count:     limit,
		Byweekday: days,
		Byhour:    []int{hour},
		Byminute:  []int{minute},
		Bysecond:  []int{0},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	starts := r.All()
	if len(starts) == 0 {
		return single, nil
	}

	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		s = s.UTC()
		out = append(out, Occurrence{Start: s, End: s.Add(req.Duration)})
	}
	return out, nil
}

// ExpandString parses raw when it is non-empty and expands it.
func ExpandString(start time.Time, duration time.Duration, raw string, maxOccurrences int) ([]Occurrence, error) {
	req := Request{Start: start, Duration: duration, MaxOccurrences: maxOccurrences}
	if raw != "" {
		rule, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		req.Rule = &rule
	}
	return Expand(req)
}
