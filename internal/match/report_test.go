package match

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/parishfund/grantmatch/internal/models"
)

func sampleResult() *models.MatchResult {
	return &models.MatchResult{
		SessionID:       "sess-1",
		GrantsEvaluated: 3,
		Excellent: []models.GrantMatch{{
			GrantID:       "g1",
			GrantName:     "Parish Hall Renovation Fund",
			Funder:        "Diocese Foundation",
			Amount:        "$10K - $50K",
			Deadline:      "Due: Mar 01, 2024",
			Score:         92,
			Tier:          models.TierExcellent,
			Breakdown:     models.ScoreBreakdown{EligibilityFit: 38, NeedAlignment: 28, CapacitySignals: 14, Timing: 8, Completeness: 4},
			Explanation:   `Directly funds "capital repairs" for parishes`,
			Evidence:      []string{"Funds building repair"},
			Category:      models.CategoryChurchParish,
			GeoQualified:  models.GeoYes,
			URL:           "https://example.org/hall",
			Contact:       "grants@example.org",
			IsShortlisted: true,
		}},
		Possible: []models.GrantMatch{{
			GrantID:      "g2",
			GrantName:    "General Community Grant",
			Funder:       "Community Trust",
			Amount:       "Varies",
			Deadline:     "Rolling deadline",
			Score:        55,
			Tier:         models.TierPossible,
			Explanation:  "Broad purpose, unclear fit",
			Category:     models.CategoryMixed,
			GeoQualified: models.GeoCheck,
		}},
		NotEligible: []models.GrantMatch{{
			GrantID:      "g3",
			GrantName:    "Public School Technology Grant",
			Funder:       "State Agency",
			Amount:       "Up to $100K",
			Deadline:     "TBD — check website",
			Score:        10,
			Tier:         models.TierNotEligible,
			Explanation:  "Public schools only",
			Category:     models.CategoryNonCatholic,
			GeoQualified: models.GeoNo,
		}},
		Counts:    models.TierCounts{Excellent: 1, Possible: 1, NotEligible: 1},
		CreatedAt: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		ExpiresAt: time.Date(2024, 3, 31, 9, 30, 0, 0, time.UTC),
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	_, err := Render(sampleResult(), "xlsx", RenderOptions{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(sampleResult(), "csv", RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("parsing rendered csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3 matches", len(rows))
	}
	if len(rows[0]) != 12 || rows[0][0] != "Rank" || rows[0][11] != "Explanation" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	// Best tier first, rank from 1.
	if rows[1][0] != "1" || rows[1][1] != "Parish Hall Renovation Fund" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[3][6] != "not_eligible" {
		t.Fatalf("tier column = %q, want not_eligible", rows[3][6])
	}
	// Quoted values survive the round trip intact.
	if rows[1][11] != `Directly funds "capital repairs" for parishes` {
		t.Fatalf("explanation = %q", rows[1][11])
	}
}

func TestRenderMarkdown(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	out, err := Render(sampleResult(), "md", RenderOptions{Now: now})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# GrantMatch - Match Results",
		"**Generated:** January 01, 2024 at 9:30 AM",
		"**Total Grants Evaluated:** 3",
		"- Excellent Matches (85-100%): 1",
		"### 1. Parish Hall Renovation Fund",
		"**Score:** 🟢 92% (Excellent Match)",
		"| Category | Church Parish |",
		"- Eligibility Fit (40% weight): 38%",
		"**Why this match:** Directly funds",
		"**Evidence:**",
		"### 3. Public School Technology Grant",
		"**Score:** ⚫ 10% (Not Eligible)",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestRenderJSONRoundTrips(t *testing.T) {
	out, err := Render(sampleResult(), "json", RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded models.MatchResult
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.SessionID != "sess-1" || decoded.Counts.Total() != 3 {
		t.Fatalf("round trip lost data: %+v", decoded)
	}
}

func TestRenderShortlistOnly(t *testing.T) {
	out, err := Render(sampleResult(), "csv", RenderOptions{ShortlistOnly: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("parsing rendered csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1 shortlisted match", len(rows))
	}
	if rows[1][1] != "Parish Hall Renovation Fund" {
		t.Fatalf("unexpected shortlisted row: %v", rows[1])
	}
}

func TestRenderShortlistOnlyKeepsEvaluatedTotal(t *testing.T) {
	out, err := Render(sampleResult(), "json", RenderOptions{ShortlistOnly: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded models.MatchResult
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.GrantsEvaluated != 3 {
		t.Fatalf("grants_evaluated = %d, want original 3", decoded.GrantsEvaluated)
	}
	if decoded.Counts.Total() != 1 {
		t.Fatalf("counts total = %d, want 1", decoded.Counts.Total())
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	got := ExportFilename("grantmatch_results", "csv", now)
	if got != "grantmatch_results_20240101_093000.csv" {
		t.Fatalf("ExportFilename = %q", got)
	}
}

func TestContentType(t *testing.T) {
	if ct := ContentType("md"); ct != "text/markdown" {
		t.Fatalf("md content type = %q", ct)
	}
	if ct := ContentType("xlsx"); ct != "" {
		t.Fatalf("unknown content type = %q", ct)
	}
}
