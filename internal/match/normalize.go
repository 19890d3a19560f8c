package match

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/models"
)

// RawBreakdown carries the oracle's five sub-score proposals before
// clamping. Values arrive as float64 because LLM output is not trusted to
// be integral.
type RawBreakdown struct {
	EligibilityFit  float64 `json:"eligibility_fit"`
	NeedAlignment   float64 `json:"need_alignment"`
	CapacitySignals float64 `json:"capacity_signals"`
	Timing          float64 `json:"timing"`
	Completeness    float64 `json:"completeness"`
}

// RawProposal is one per-grant score proposal as returned by a Scorer.
// Missing or non-numeric fields are zero; the normalizer substitutes safe
// defaults and clamps everything into range.
type RawProposal struct {
	GrantID        string       `json:"grant_id"`
	Score          float64      `json:"score"`
	Breakdown      RawBreakdown `json:"score_breakdown"`
	Explanation    string       `json:"explanation"`
	Evidence       []string     `json:"evidence"`
	VerifyItems    []string     `json:"verify_items"`
	DeadlineUrgent bool         `json:"deadline_urgent"`
}

func clampInt(v float64, max int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	n := int(math.Round(v))
	if n > max {
		return max
	}
	return n
}

// normalizeProposal validates one raw proposal against its source grant and
// denormalizes the grant's display fields into a canonical GrantMatch. The
// tier is always recomputed from the clamped score.
func normalizeProposal(p RawProposal, grant models.Grant, today time.Time) models.GrantMatch {
	score := clampInt(p.Score, 100)

	deadline, urgent := FormatDeadline(grant.Deadline, today)
	if p.DeadlineUrgent {
		urgent = true
	}

	evidence := p.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	verify := p.VerifyItems
	if verify == nil {
		verify = []string{}
	}

	return models.GrantMatch{
		GrantID:      grant.ID,
		GrantName:    grant.GrantName,
		Funder:       grant.Funder,
		Amount:       FormatAmount(grant.AmountMin, grant.AmountMax),
		Deadline:     deadline,
		URL:          grant.URL,
		Contact:      grant.Contact,
		Category:     grant.Category,
		GeoQualified: grant.GeoQualified,

		Score: score,
		Tier:  TierForScore(score),
		Breakdown: models.ScoreBreakdown{
			EligibilityFit:  clampInt(p.Breakdown.EligibilityFit, models.MaxEligibilityFit),
			NeedAlignment:   clampInt(p.Breakdown.NeedAlignment, models.MaxNeedAlignment),
			CapacitySignals: clampInt(p.Breakdown.CapacitySignals, models.MaxCapacitySignals),
			Timing:          clampInt(p.Breakdown.Timing, models.MaxTiming),
			Completeness:    clampInt(p.Breakdown.Completeness, models.MaxCompleteness),
		},
		Explanation:    p.Explanation,
		Evidence:       evidence,
		VerifyItems:    verify,
		DeadlineUrgent: urgent,
	}
}

// resolveProposals maps surviving proposals onto their batch grants.
// Proposals referencing a grant outside the batch are dropped with a log
// entry: without a source Grant there is nothing to denormalize. Duplicate
// proposals for the same grant keep the first occurrence.
func resolveProposals(proposals []RawProposal, batch []models.Grant, logger *zap.Logger) map[string]RawProposal {
	known := make(map[string]bool, len(batch))
	for _, g := range batch {
		known[g.ID] = true
	}

	resolved := make(map[string]RawProposal, len(proposals))
	for _, p := range proposals {
		if !known[p.GrantID] {
			logger.Warn("dropping proposal for unknown grant",
				zap.String("grant_id", p.GrantID))
			continue
		}
		if _, dup := resolved[p.GrantID]; dup {
			logger.Warn("dropping duplicate proposal",
				zap.String("grant_id", p.GrantID))
			continue
		}
		resolved[p.GrantID] = p
	}
	return resolved
}
