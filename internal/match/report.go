package match

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/parishfund/grantmatch/internal/models"
)

// ErrUnsupportedFormat is returned for a format Render does not know.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Report formats.
const (
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// RenderOptions controls a single Render call.
type RenderOptions struct {
	// ShortlistOnly drops every match the user has not shortlisted before
	// rendering. Tier counts are recomputed over the survivors;
	// GrantsEvaluated keeps the session's original total.
	ShortlistOnly bool

	// Now stamps the report header. Zero means time.Now().
	Now time.Time
}

// Render serializes a match result in the requested format. "md" is
// accepted as an alias for markdown.
func Render(result *models.MatchResult, format string, opts RenderOptions) ([]byte, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.ShortlistOnly {
		result = filterShortlisted(result)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, "md":
		return renderMarkdown(result, opts.Now), nil
	case FormatCSV:
		return renderCSV(result)
	case FormatJSON:
		return json.MarshalIndent(result, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ContentType returns the MIME type for a report format, or "" for an
// unknown one.
func ContentType(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, "md":
		return "text/markdown"
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return ""
	}
}

// ExportFilename builds a timestamped download name like
// "grantmatch_results_20240101_093000.csv".
func ExportFilename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_150405"), ext)
}

// filterShortlisted returns a shallow copy of result containing only
// shortlisted matches, with tier counts recomputed over what remains.
func filterShortlisted(r *models.MatchResult) *models.MatchResult {
	filtered := *r
	filtered.Excellent = keepShortlisted(r.Excellent)
	filtered.Good = keepShortlisted(r.Good)
	filtered.Possible = keepShortlisted(r.Possible)
	filtered.Weak = keepShortlisted(r.Weak)
	filtered.NotEligible = keepShortlisted(r.NotEligible)
	filtered.Counts = models.TierCounts{
		Excellent:   len(filtered.Excellent),
		Good:        len(filtered.Good),
		Possible:    len(filtered.Possible),
		Weak:        len(filtered.Weak),
		NotEligible: len(filtered.NotEligible),
	}
	return &filtered
}

func keepShortlisted(matches []models.GrantMatch) []models.GrantMatch {
	kept := make([]models.GrantMatch, 0, len(matches))
	for _, m := range matches {
		if m.IsShortlisted {
			kept = append(kept, m)
		}
	}
	return kept
}

func renderMarkdown(r *models.MatchResult, now time.Time) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# GrantMatch - Match Results\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", now.Format("January 02, 2006 at 3:04 PM"))
	fmt.Fprintf(&b, "**Total Grants Evaluated:** %d\n\n", r.GrantsEvaluated)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Excellent Matches (85-100%%): %d\n", r.Counts.Excellent)
	fmt.Fprintf(&b, "- Good Matches (70-84%%): %d\n", r.Counts.Good)
	fmt.Fprintf(&b, "- Possible Matches (50-69%%): %d\n", r.Counts.Possible)
	fmt.Fprintf(&b, "- Weak Matches (25-49%%): %d\n", r.Counts.Weak)
	fmt.Fprintf(&b, "- Not Eligible (0-24%%): %d\n\n", r.Counts.NotEligible)
	b.WriteString("---\n\n## Match Details\n\n")

	for idx, m := range r.AllMatches() {
		fmt.Fprintf(&b, "### %d. %s\n\n", idx+1, m.GrantName)
		fmt.Fprintf(&b, "**Score:** %s %d%% (%s)\n\n", m.Tier.Emoji(), m.Score, m.Tier.Label())

		b.WriteString("| Field | Value |\n|-------|-------|\n")
		fmt.Fprintf(&b, "| Funder | %s |\n", m.Funder)
		fmt.Fprintf(&b, "| Amount | %s |\n", m.Amount)
		fmt.Fprintf(&b, "| Deadline | %s |\n", m.Deadline)
		fmt.Fprintf(&b, "| Category | %s |\n", titleWords(string(m.Category)))
		fmt.Fprintf(&b, "| Geographic | %s |\n", m.GeoQualified)
		fmt.Fprintf(&b, "| Contact | %s |\n", m.Contact)
		fmt.Fprintf(&b, "| URL | %s |\n\n", m.URL)

		b.WriteString("**Score Breakdown:**\n")
		fmt.Fprintf(&b, "- Eligibility Fit (40%% weight): %d%%\n", m.Breakdown.EligibilityFit)
		fmt.Fprintf(&b, "- Need Alignment (30%% weight): %d%%\n", m.Breakdown.NeedAlignment)
		fmt.Fprintf(&b, "- Capacity Signals (15%% weight): %d%%\n", m.Breakdown.CapacitySignals)
		fmt.Fprintf(&b, "- Timing (10%% weight): %d%%\n", m.Breakdown.Timing)
		fmt.Fprintf(&b, "- Completeness (5%% weight): %d%%\n\n", m.Breakdown.Completeness)

		fmt.Fprintf(&b, "**Why this match:** %s\n\n", m.Explanation)

		if len(m.Evidence) > 0 {
			b.WriteString("**Evidence:**\n")
			for _, e := range m.Evidence {
				fmt.Fprintf(&b, "- %s\n", e)
			}
			b.WriteString("\n")
		}
		if len(m.VerifyItems) > 0 {
			b.WriteString("**Verify before applying:**\n")
			for _, v := range m.VerifyItems {
				fmt.Fprintf(&b, "- %s\n", v)
			}
			b.WriteString("\n")
		}

		b.WriteString("---\n\n")
	}

	b.WriteString("\n---\n\n*Generated by GrantMatch*\n")

	return []byte(b.String())
}

// csvHeader is the fixed column set; consumers key on these names.
var csvHeader = []string{
	"Rank", "Grant Name", "Funder", "Amount", "Deadline",
	"Score (%)", "Tier", "Category", "Geo Qualified",
	"Contact", "URL", "Explanation",
}

func renderCSV(r *models.MatchResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for idx, m := range r.AllMatches() {
		row := []string{
			strconv.Itoa(idx + 1),
			m.GrantName,
			m.Funder,
			m.Amount,
			m.Deadline,
			strconv.Itoa(m.Score),
			string(m.Tier),
			string(m.Category),
			string(m.GeoQualified),
			m.Contact,
			m.URL,
			m.Explanation,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing csv row %d: %w", idx+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

func titleWords(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
