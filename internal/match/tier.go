package match

import "github.com/parishfund/grantmatch/internal/models"

// TierForScore maps an overall score to its tier. Total over all integers:
// out-of-range inputs land in the outer tiers, so no score is ever
// unclassifiable.
func TierForScore(score int) models.MatchTier {
	switch {
	case score >= 85:
		return models.TierExcellent
	case score >= 70:
		return models.TierGood
	case score >= 50:
		return models.TierPossible
	case score >= 25:
		return models.TierWeak
	default:
		return models.TierNotEligible
	}
}
