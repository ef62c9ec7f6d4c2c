package recurrence

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "weekly only", in: "FREQ=WEEKLY", want: "FREQ=WEEKLY"},
		{name: "rrule prefix", in: "RRULE:FREQ=WEEKLY;BYDAY=WE,MO", want: "FREQ=WEEKLY;BYDAY=MO,WE"},
		{name: "lower case values", in: "freq=weekly;byday=tu,th;count=6", want: "FREQ=WEEKLY;BYDAY=TU,TH;COUNT=6"},
		{name: "hour and minute", in: "FREQ=WEEKLY;BYHOUR=18;BYMINUTE=30", want: "FREQ=WEEKLY;BYHOUR=18;BYMINUTE=30"},
		{name: "date only until", in: "FREQ=WEEKLY;UNTIL=20250131", want: "FREQ=WEEKLY;UNTIL=20250131T235959Z"},
		{name: "utc until", in: "FREQ=WEEKLY;UNTIL=20250131T100000Z", want: "FREQ=WEEKLY;UNTIL=20250131T100000Z"},
		{name: "daily rejected", in: "FREQ=DAILY", wantErr: true},
		{name: "missing freq", in: "BYDAY=MO", wantErr: true},
		{name: "empty", in: "  ", wantErr: true},
		{name: "unknown key", in: "FREQ=WEEKLY;INTERVAL=2", wantErr: true},
		{name: "bad day", in: "FREQ=WEEKLY;BYDAY=XX", wantErr: true},
		{name: "ordinal day", in: "FREQ=WEEKLY;BYDAY=1MO", wantErr: true},
		{name: "hour out of range", in: "FREQ=WEEKLY;BYHOUR=24", wantErr: true},
		{name: "minute out of range", in: "FREQ=WEEKLY;BYMINUTE=60", wantErr: true},
		{name: "multiple hours", in: "FREQ=WEEKLY;BYHOUR=9,18", wantErr: true},
		{name: "zero count", in: "FREQ=WEEKLY;COUNT=0", wantErr: true},
		{name: "bad until", in: "FREQ=WEEKLY;UNTIL=tomorrow", wantErr: true},
		{name: "missing equals", in: "FREQ=WEEKLY;BYDAY", wantErr: true},
		{name: "duplicate key", in: "FREQ=WEEKLY;COUNT=2;COUNT=3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRule) {
					t.Fatalf("Parse(%q) error = %v; want ErrInvalidRule", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q).String() = %q; want %q", tt.in, got.String(), tt.want)
			}
		})
	}
}

func mustParse(t *testing.T, s string) *Rule {
	t.Helper()
	r, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return &r
}

func TestExpandMondayWednesdayCount(t *testing.T) {
	// Monday.
	start := time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)

	got, err := Expand(Request{Start: start, Duration: 60 * time.Minute, Rule: mustParse(t, "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=4")})
	if err != nil {
		t.Fatal(err)
	}

	want := []time.Time{
		time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 8, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 13, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences; want %d", len(got), len(want))
	}
	for i, occ := range got {
		if !occ.Start.Equal(want[i]) {
			t.Errorf("occurrence %d start = %v; want %v", i, occ.Start, want[i])
		}
		if occ.End.Sub(occ.Start) != time.Hour {
			t.Errorf("occurrence %d lasts %v; want 1h", i, occ.End.Sub(occ.Start))
		}
	}
}

func TestExpandUsesStartLocation(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	// Monday 10:00 in Nairobi, 07:00 UTC.
	start := time.Date(2025, time.January, 6, 10, 0, 0, 0, nairobi)

	tests := []struct {
		name string
		rule string
		want []time.Time
	}{
		{
			name: "defaults from local start",
			rule: "FREQ=WEEKLY;COUNT=2",
			want: []time.Time{
				time.Date(2025, time.January, 6, 7, 0, 0, 0, time.UTC),
				time.Date(2025, time.January, 13, 7, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "local day and hour cross midnight in UTC",
			rule: "FREQ=WEEKLY;BYDAY=WE;BYHOUR=1;BYMINUTE=0;COUNT=2",
			want: []time.Time{
				time.Date(2025, time.January, 7, 22, 0, 0, 0, time.UTC),
				time.Date(2025, time.January, 14, 22, 0, 0, 0, time.UTC),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(Request{Start: start, Duration: time.Hour, Rule: mustParse(t, tt.rule)})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d occurrences; want %d", len(got), len(tt.want))
			}
			for i, occ := range got {
				if !occ.Start.Equal(tt.want[i]) {
					t.Errorf("occurrence %d start = %v; want %v", i, occ.Start, tt.want[i])
				}
				if occ.Start.Location() != time.UTC {
					t.Errorf("occurrence %d location = %v; want UTC", i, occ.Start.Location())
				}
			}
		})
	}
}

func TestExpand(t *testing.T) {
	start := time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		rule      string
		max       int
		wantCount int
		wantFirst time.Time
		wantLast  time.Time
	}{
		{
			name:      "no rule",
			wantCount: 1,
			wantFirst: start,
			wantLast:  start,
		},
		{
			name:      "default horizon",
			rule:      "FREQ=WEEKLY",
			wantCount: 13,
			wantFirst: start,
			wantLast:  time.Date(2025, time.March, 31, 10, 0, 0, 0, time.UTC),
		},
		{
			name:      "default cap",
			rule:      "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR",
			wantCount: 24,
			wantFirst: start,
			wantLast:  time.Date(2025, time.February, 6, 10, 0, 0, 0, time.UTC),
		},
		{
			name:      "override beats count",
			rule:      "FREQ=WEEKLY;COUNT=10",
			max:       2,
			wantCount: 2,
			wantFirst: start,
			wantLast:  time.Date(2025, time.January, 13, 10, 0, 0, 0, time.UTC),
		},
		{
			name:      "explicit hour",
			rule:      "FREQ=WEEKLY;BYDAY=TU;BYHOUR=18;BYMINUTE=30;COUNT=2",
			wantCount: 2,
			wantFirst: time.Date(2025, time.January, 7, 18, 30, 0, 0, time.UTC),
			wantLast:  time.Date(2025, time.January, 14, 18, 30, 0, 0, time.UTC),
		},
		{
			name:      "earlier hour skips start day",
			rule:      "FREQ=WEEKLY;BYDAY=MO;BYHOUR=8;COUNT=1",
			wantCount: 1,
			wantFirst: time.Date(2025, time.January, 13, 8, 0, 0, 0, time.UTC),
			wantLast:  time.Date(2025, time.January, 13, 8, 0, 0, 0, time.UTC),
		},
		{
			name:      "until inclusive end of day",
			rule:      "FREQ=WEEKLY;UNTIL=20250120",
			wantCount: 3,
			wantFirst: start,
			wantLast:  time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			name:      "no match falls back to start",
			rule:      "FREQ=WEEKLY;BYDAY=FR;UNTIL=20250108",
			wantCount: 1,
			wantFirst: start,
			wantLast:  start,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandString(start, 45*time.Minute, tt.rule, tt.max)
			if err != nil {
				t.Fatalf("ExpandString() error = %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("got %d occurrences; want %d", len(got), tt.wantCount)
			}
			if !got[0].Start.Equal(tt.wantFirst) {
				t.Errorf("first = %v; want %v", got[0].Start, tt.wantFirst)
			}
			if last := got[len(got)-1].Start; !last.Equal(tt.wantLast) {
				t.Errorf("last = %v; want %v", last, tt.wantLast)
			}
			for i := 1; i < len(got); i++ {
				if !got[i].Start.After(got[i-1].Start) {
					t.Fatalf("occurrences not ordered at %d", i)
				}
			}
		})
	}
}

func TestExpandRejects(t *testing.T) {
	start := time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)

	if _, err := ExpandString(start, time.Hour, "FREQ=MONTHLY", 0); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("monthly rule error = %v; want ErrInvalidRule", err)
	}
	if _, err := ExpandString(start, 0, "", 0); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("zero duration error = %v; want ErrInvalidRule", err)
	}
}
