package match

import (
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		name string
		min  *float64
		max  *float64
		want string
	}{
		{"equal bounds keep exact dollars", fp(1000), fp(1000), "$1,000"},
		{"small range", fp(500), fp(1500), "$500 - $1,500"},
		{"thousands range", fp(10000), fp(50000), "$10K - $50K"},
		{"max only", nil, fp(25000), "Up to $25K"},
		{"min only", fp(500), nil, "From $500"},
		{"millions with one decimal", fp(2500000), fp(2500000), "$2.5M"},
		{"no bounds", nil, nil, "Varies"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatAmount(tc.min, tc.max)
			if got != tc.want {
				t.Fatalf("FormatAmount = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatDeadline(t *testing.T) {
	today := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		deadline   string
		want       string
		wantUrgent bool
	}{
		{"empty", "", "TBD — check website", false},
		{"rolling any case", "Rolling", "Rolling deadline", false},
		{"past date closed", "2023-12-01", "Closed: Dec 01, 2023", false},
		{"due within window counts days", "2024-01-15", "Due: Jan 15, 2024 (14 days)", true},
		{"due today", "2024-01-01", "Due: Jan 01, 2024 (0 days)", true},
		{"window boundary is urgent", "2024-01-31", "Due: Jan 31, 2024 (30 days)", true},
		{"beyond window", "2024-06-30", "Due: Jun 30, 2024", false},
		{"long form layout", "June 30, 2024", "Due: Jun 30, 2024", false},
		{"unparseable passes through", "Spring 2026", "Spring 2026", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, urgent := FormatDeadline(tc.deadline, today)
			if got != tc.want {
				t.Fatalf("FormatDeadline = %q, want %q", got, tc.want)
			}
			if urgent != tc.wantUrgent {
				t.Fatalf("urgent = %v, want %v", urgent, tc.wantUrgent)
			}
		})
	}
}

func TestFormatDeadlineIgnoresTimeOfDay(t *testing.T) {
	// 23:59 on the day before the deadline is still a full day away.
	today := time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC)
	got, urgent := FormatDeadline("2024-01-15", today)
	if got != "Due: Jan 15, 2024 (1 days)" {
		t.Fatalf("FormatDeadline = %q", got)
	}
	if !urgent {
		t.Fatal("expected urgent")
	}
}
