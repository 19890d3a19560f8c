package match

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/models"
)

// scriptedScorer replays one canned response per batch, in call order.
type scriptedScorer struct {
	responses []scriptedResponse
	calls     int
}

type scriptedResponse struct {
	proposals []RawProposal
	err       error
}

func (s *scriptedScorer) ScoreBatch(_ context.Context, _ ProfileSummary, _ []GrantSummary) ([]RawProposal, error) {
	if s.calls >= len(s.responses) {
		return nil, errors.New("unexpected extra batch")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp.proposals, resp.err
}

func testProfile() models.OrganizationProfile {
	return models.OrganizationProfile{
		OrganizationName: "St. Mary Parish",
		OrganizationType: "both",
		City:             "Austin",
		State:            "TX",
		Is501c3:          true,
		HasSchool:        true,
		Needs: []models.ProfileNeed{
			{Text: "Roof repair for the parish hall", SourceType: models.SourceQuestionnaire, Confidence: models.ConfidenceHigh},
		},
	}
}

func makeGrants(n int) []models.Grant {
	grants := make([]models.Grant, 0, n)
	for i := 0; i < n; i++ {
		g := testGrant(fmt.Sprintf("g%d", i+1))
		g.GrantName = fmt.Sprintf("Grant %d", i+1)
		grants = append(grants, g)
	}
	return grants
}

func proposalsFor(grants []models.Grant, score float64) []RawProposal {
	out := make([]RawProposal, 0, len(grants))
	for _, g := range grants {
		out = append(out, RawProposal{GrantID: g.ID, Score: score, Explanation: "scored"})
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMatchEmptyInputs(t *testing.T) {
	m := NewMatcher(&scriptedScorer{}, zap.NewNop())

	if _, err := m.Match(context.Background(), testProfile(), nil); !errors.Is(err, ErrNoGrants) {
		t.Fatalf("err = %v, want ErrNoGrants", err)
	}

	profile := testProfile()
	profile.OrganizationName = "  "
	if _, err := m.Match(context.Background(), profile, makeGrants(1)); !errors.Is(err, ErrIncompleteProfile) {
		t.Fatalf("err = %v, want ErrIncompleteProfile", err)
	}
}

func TestMatchBatchesAndCoversEveryGrant(t *testing.T) {
	grants := makeGrants(15)
	scorer := &scriptedScorer{responses: []scriptedResponse{
		{proposals: proposalsFor(grants[:10], 88)},
		{proposals: proposalsFor(grants[10:], 72)},
	}}
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	m := NewMatcher(scorer, zap.NewNop(), WithClock(fixedClock(now)))

	result, err := m.Match(context.Background(), testProfile(), grants)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	if scorer.calls != 2 {
		t.Fatalf("scorer called %d times, want 2", scorer.calls)
	}
	if result.GrantsEvaluated != 15 {
		t.Fatalf("grants_evaluated = %d, want 15", result.GrantsEvaluated)
	}
	if result.Counts.Total() != 15 {
		t.Fatalf("tier counts total %d, want 15", result.Counts.Total())
	}
	if len(result.Excellent) != 10 || len(result.Good) != 5 {
		t.Fatalf("tiers = %d excellent / %d good, want 10/5", len(result.Excellent), len(result.Good))
	}
	if result.SessionID == "" {
		t.Fatal("missing session id")
	}
	if !result.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", result.CreatedAt, now)
	}
	if want := now.Add(90 * 24 * time.Hour); !result.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", result.ExpiresAt, want)
	}
}

func TestMatchFailedBatchFallsBackNeutral(t *testing.T) {
	grants := makeGrants(15)
	scorer := &scriptedScorer{responses: []scriptedResponse{
		{proposals: proposalsFor(grants[:10], 90)},
		{err: errors.New("model overloaded")},
	}}
	m := NewMatcher(scorer, zap.NewNop())

	result, err := m.Match(context.Background(), testProfile(), grants)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	if result.Counts.Total() != 15 {
		t.Fatalf("tier counts total %d, want 15", result.Counts.Total())
	}
	if len(result.Possible) != 5 {
		t.Fatalf("possible = %d, want 5 fallbacks", len(result.Possible))
	}
	fb := result.Possible[0]
	if fb.Score != 50 {
		t.Fatalf("fallback score = %d, want 50", fb.Score)
	}
	if fb.Explanation != "Unable to fully evaluate — please review manually." {
		t.Fatalf("fallback explanation = %q", fb.Explanation)
	}
	want := models.ScoreBreakdown{EligibilityFit: 20, NeedAlignment: 15, CapacitySignals: 8, Timing: 5, Completeness: 3}
	if fb.Breakdown != want {
		t.Fatalf("fallback breakdown = %+v, want %+v", fb.Breakdown, want)
	}
}

func TestMatchSkippedGrantFallsBackNeutral(t *testing.T) {
	grants := makeGrants(3)
	// Oracle only answers for g1 and g3.
	scorer := &scriptedScorer{responses: []scriptedResponse{
		{proposals: []RawProposal{
			{GrantID: "g1", Score: 91},
			{GrantID: "g3", Score: 30},
		}},
	}}
	m := NewMatcher(scorer, zap.NewNop())

	result, err := m.Match(context.Background(), testProfile(), grants)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	if result.Counts.Total() != 3 {
		t.Fatalf("tier counts total %d, want 3", result.Counts.Total())
	}
	if len(result.Possible) != 1 || result.Possible[0].GrantID != "g2" {
		t.Fatalf("expected g2 to fall back to possible, got %+v", result.Possible)
	}
}

func TestMatchSortsDescendingStableWithinTier(t *testing.T) {
	grants := makeGrants(4)
	scorer := &scriptedScorer{responses: []scriptedResponse{
		{proposals: []RawProposal{
			{GrantID: "g1", Score: 72},
			{GrantID: "g2", Score: 80},
			{GrantID: "g3", Score: 72},
			{GrantID: "g4", Score: 75},
		}},
	}}
	m := NewMatcher(scorer, zap.NewNop())

	result, err := m.Match(context.Background(), testProfile(), grants)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	gotOrder := make([]string, 0, len(result.Good))
	for _, gm := range result.Good {
		gotOrder = append(gotOrder, gm.GrantID)
	}
	want := []string{"g2", "g4", "g1", "g3"}
	for i := range want {
		if gotOrder[i] != want[i] {
			t.Fatalf("good tier order = %v, want %v", gotOrder, want)
		}
	}
}

func TestMatchCustomBatchSize(t *testing.T) {
	grants := makeGrants(5)
	scorer := &scriptedScorer{responses: []scriptedResponse{
		{proposals: proposalsFor(grants[:2], 60)},
		{proposals: proposalsFor(grants[2:4], 60)},
		{proposals: proposalsFor(grants[4:], 60)},
	}}
	m := NewMatcher(scorer, zap.NewNop(), WithBatchSize(2))

	if _, err := m.Match(context.Background(), testProfile(), grants); err != nil {
		t.Fatalf("Match: %v", err)
	}
	if scorer.calls != 3 {
		t.Fatalf("scorer called %d times, want 3", scorer.calls)
	}
}
