package match

import (
	"testing"

	"github.com/parishfund/grantmatch/internal/models"
)

func TestTierForScoreBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  models.MatchTier
	}{
		{100, models.TierExcellent},
		{85, models.TierExcellent},
		{84, models.TierGood},
		{70, models.TierGood},
		{69, models.TierPossible},
		{50, models.TierPossible},
		{49, models.TierWeak},
		{25, models.TierWeak},
		{24, models.TierNotEligible},
		{0, models.TierNotEligible},
	}

	for _, tc := range cases {
		if got := TierForScore(tc.score); got != tc.want {
			t.Fatalf("TierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestTierForScoreOutOfRange(t *testing.T) {
	if got := TierForScore(150); got != models.TierExcellent {
		t.Fatalf("TierForScore(150) = %s, want excellent", got)
	}
	if got := TierForScore(-10); got != models.TierNotEligible {
		t.Fatalf("TierForScore(-10) = %s, want not_eligible", got)
	}
}
