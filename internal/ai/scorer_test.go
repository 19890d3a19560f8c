package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/match"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func batchInput() (match.ProfileSummary, []match.GrantSummary) {
	profile := match.ProfileSummary{
		Name:  "St. Mary Parish",
		Type:  "both",
		State: "TX",
		Needs: []string{"Roof repair"},
	}
	grants := []match.GrantSummary{
		{ID: "g1", Name: "Parish Hall Fund", Funder: "Diocese Foundation"},
		{ID: "g2", Name: "STEM Grant", Funder: "Example Foundation"},
	}
	return profile, grants
}

func TestScoreBatchParsesFencedResponse(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + `[
  {
    "grant_id": "g1",
    "score": 88,
    "score_breakdown": {"eligibility_fit": 36, "need_alignment": 27, "capacity_signals": 12, "timing": 9, "completeness": 4},
    "explanation": "Strong fit",
    "evidence": ["Roof repair need matches grant purpose"],
    "verify_items": ["Confirm 501c3 letter"],
    "deadline_urgent": true
  },
  {
    "grant_id": "g2",
    "score": "42",
    "explanation": "Partial fit"
  }
]` + "\n```"}
	scorer := NewScorer(gen, zap.NewNop())

	profile, grants := batchInput()
	proposals, err := scorer.ScoreBatch(context.Background(), profile, grants)
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	if len(proposals) != 2 {
		t.Fatalf("got %d proposals, want 2", len(proposals))
	}

	p := proposals[0]
	if p.GrantID != "g1" || p.Score != 88 {
		t.Fatalf("unexpected first proposal: %+v", p)
	}
	if p.Breakdown.EligibilityFit != 36 || p.Breakdown.Completeness != 4 {
		t.Fatalf("unexpected breakdown: %+v", p.Breakdown)
	}
	if !p.DeadlineUrgent || len(p.Evidence) != 1 || len(p.VerifyItems) != 1 {
		t.Fatalf("unexpected lists: %+v", p)
	}

	// Stringified scores coerce.
	if proposals[1].Score != 42 {
		t.Fatalf("second score = %v, want 42", proposals[1].Score)
	}
}

func TestScoreBatchPromptContainsPayloads(t *testing.T) {
	gen := &stubGenerator{response: "[]"}
	scorer := NewScorer(gen, zap.NewNop())

	profile, grants := batchInput()
	if _, err := scorer.ScoreBatch(context.Background(), profile, grants); err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	for _, want := range []string{"St. Mary Parish", "Parish Hall Fund", "eligibility_fit"} {
		if !strings.Contains(gen.lastPrompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Contains(gen.lastPrompt, "{{PROFILE_JSON}}") || strings.Contains(gen.lastPrompt, "{{GRANTS_JSON}}") {
		t.Fatal("template placeholders not substituted")
	}
}

func TestScoreBatchSkipsEntriesWithoutGrantID(t *testing.T) {
	gen := &stubGenerator{response: `[{"score": 90}, {"grant_id": "g1", "score": 55}]`}
	scorer := NewScorer(gen, zap.NewNop())

	profile, grants := batchInput()
	proposals, err := scorer.ScoreBatch(context.Background(), profile, grants)
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	if len(proposals) != 1 || proposals[0].GrantID != "g1" {
		t.Fatalf("unexpected proposals: %+v", proposals)
	}
}

func TestScoreBatchGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	scorer := NewScorer(gen, zap.NewNop())

	profile, grants := batchInput()
	if _, err := scorer.ScoreBatch(context.Background(), profile, grants); err == nil {
		t.Fatal("expected error")
	}
}

func TestScoreBatchMalformedResponse(t *testing.T) {
	gen := &stubGenerator{response: "I cannot evaluate these grants."}
	scorer := NewScorer(gen, zap.NewNop())

	profile, grants := batchInput()
	if _, err := scorer.ScoreBatch(context.Background(), profile, grants); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExtractJSONNarrowsToBalancedValue(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"fenced array", "```json\n[1, 2]\n```", "[1, 2]"},
		{"prose around object", `Here you go: {"a": "b"} hope that helps`, `{"a": "b"}`},
		{"bracket inside string", `[{"note": "uses ] inside"}]`, `[{"note": "uses ] inside"}]`},
		{"bare value untouched", `"just a string"`, `"just a string"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.in); got != tc.want {
				t.Fatalf("extractJSON = %q, want %q", got, tc.want)
			}
		})
	}
}
