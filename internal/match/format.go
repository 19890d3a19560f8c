package match

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const urgentWindowDays = 30

// formatDollars renders a single amount: millions with one decimal,
// ten-thousands and up as whole K, smaller values grouped.
func formatDollars(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("$%dK", int64(math.Round(v/1_000)))
	default:
		return "$" + groupThousands(int64(math.Round(v)))
	}
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		s = s[1:]
	}
	var b strings.Builder
	if n < 0 {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

// FormatAmount turns nullable min/max award amounts into a display string.
// Both equal renders a single amount, both set renders a range, one-sided
// bounds render "Up to"/"From", and neither renders "Varies".
func FormatAmount(min, max *float64) string {
	switch {
	case min != nil && max != nil && *min == *max:
		return formatDollars(*min)
	case min != nil && max != nil:
		return fmt.Sprintf("%s - %s", formatDollars(*min), formatDollars(*max))
	case max != nil:
		return "Up to " + formatDollars(*max)
	case min != nil:
		return "From " + formatDollars(*min)
	default:
		return "Varies"
	}
}

// deadlineFormats are accepted input layouts for grant deadlines.
var deadlineFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

func parseDeadline(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range deadlineFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDeadline renders a deadline for display and reports whether it is
// urgent (due within 30 days of today, inclusive). Pure given the injected
// today; never reads the wall clock.
func FormatDeadline(deadline string, today time.Time) (string, bool) {
	deadline = strings.TrimSpace(deadline)
	if deadline == "" {
		return "TBD — check website", false
	}
	if strings.EqualFold(deadline, "rolling") {
		return "Rolling deadline", false
	}

	due, ok := parseDeadline(deadline)
	if !ok {
		// Unparseable strings pass through verbatim rather than
		// being dropped; the source sheet may carry notes like
		// "Spring 2026".
		return deadline, false
	}

	today = truncateToDay(today)
	due = truncateToDay(due)
	days := int(due.Sub(today).Hours() / 24)

	switch {
	case days < 0:
		return "Closed: " + due.Format("Jan 02, 2006"), false
	case days <= urgentWindowDays:
		return fmt.Sprintf("Due: %s (%d days)", due.Format("Jan 02, 2006"), days), true
	default:
		return "Due: " + due.Format("Jan 02, 2006"), false
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
