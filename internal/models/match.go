package models

import "time"

// MatchTier buckets an overall score into one of five ordered bands.
type MatchTier string

const (
	TierExcellent   MatchTier = "excellent"   // 85-100
	TierGood        MatchTier = "good"        // 70-84
	TierPossible    MatchTier = "possible"    // 50-69
	TierWeak        MatchTier = "weak"        // 25-49
	TierNotEligible MatchTier = "not_eligible" // 0-24
)

// TierOrder lists tiers from best to worst; renderers and aggregation
// iterate in this order.
var TierOrder = []MatchTier{TierExcellent, TierGood, TierPossible, TierWeak, TierNotEligible}

// Label returns the human-readable tier name.
func (t MatchTier) Label() string {
	switch t {
	case TierExcellent:
		return "Excellent Match"
	case TierGood:
		return "Good Match"
	case TierPossible:
		return "Possible Match"
	case TierWeak:
		return "Weak Match"
	default:
		return "Not Eligible"
	}
}

// Emoji returns the tier marker used in rendered reports.
func (t MatchTier) Emoji() string {
	switch t {
	case TierExcellent:
		return "🟢"
	case TierGood:
		return "🟡"
	case TierPossible:
		return "🟠"
	case TierWeak:
		return "🔴"
	case TierNotEligible:
		return "⚫"
	default:
		return "⚪"
	}
}

// ScoreBreakdown holds the five weighted sub-scores. Each value is bounded
// by its declared maximum weight; the overall score is oracle-supplied and
// is NOT derived by summing these.
type ScoreBreakdown struct {
	EligibilityFit  int `json:"eligibility_fit"`  // max 40
	NeedAlignment   int `json:"need_alignment"`   // max 30
	CapacitySignals int `json:"capacity_signals"` // max 15
	Timing          int `json:"timing"`           // max 10
	Completeness    int `json:"completeness"`     // max 5
}

// Maximum weights for the five sub-scores, in declared order.
const (
	MaxEligibilityFit  = 40
	MaxNeedAlignment   = 30
	MaxCapacitySignals = 15
	MaxTiming          = 10
	MaxCompleteness    = 5
)

// GrantMatch is one scored grant with display fields denormalized from the
// source Grant so reports render without another lookup.
type GrantMatch struct {
	GrantID   string        `json:"grant_id"`
	GrantName string        `json:"grant_name"`
	Funder    string        `json:"funder"`
	Amount    string        `json:"amount"`
	Deadline  string        `json:"deadline"`
	URL       string        `json:"url"`
	Contact   string        `json:"contact"`
	Category  GrantCategory `json:"category"`
	GeoQualified GeoQualified `json:"geo_qualified"`

	Score          int            `json:"score"` // 0-100 inclusive
	Tier           MatchTier      `json:"tier"`
	Breakdown      ScoreBreakdown `json:"score_breakdown"`
	Explanation    string         `json:"explanation"`
	Evidence       []string       `json:"evidence"`
	VerifyItems    []string       `json:"verify_items"`
	DeadlineUrgent bool           `json:"deadline_urgent"`
	IsShortlisted  bool           `json:"is_shortlisted"`
}

// TierCounts summarizes a MatchResult. Each count equals the length of the
// corresponding tier slice.
type TierCounts struct {
	Excellent   int `json:"excellent"`
	Good        int `json:"good"`
	Possible    int `json:"possible"`
	Weak        int `json:"weak"`
	NotEligible int `json:"not_eligible"`
}

// Total sums all tiers.
func (c TierCounts) Total() int {
	return c.Excellent + c.Good + c.Possible + c.Weak + c.NotEligible
}

// MatchResult is one matching session's output. Constructed once by the
// matcher and immutable afterwards, except for shortlist flags toggled by
// the owning user.
type MatchResult struct {
	SessionID       string `json:"session_id"`
	GrantsEvaluated int    `json:"grants_evaluated"`

	Excellent   []GrantMatch `json:"excellent_matches"`
	Good        []GrantMatch `json:"good_matches"`
	Possible    []GrantMatch `json:"possible_matches"`
	Weak        []GrantMatch `json:"weak_matches"`
	NotEligible []GrantMatch `json:"not_eligible"`

	Counts    TierCounts `json:"counts"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// TierMatches returns the slice for one tier.
func (r *MatchResult) TierMatches(t MatchTier) []GrantMatch {
	switch t {
	case TierExcellent:
		return r.Excellent
	case TierGood:
		return r.Good
	case TierPossible:
		return r.Possible
	case TierWeak:
		return r.Weak
	default:
		return r.NotEligible
	}
}

// AllMatches returns every match in tier order, best tier first.
func (r *MatchResult) AllMatches() []GrantMatch {
	all := make([]GrantMatch, 0, r.Counts.Total())
	for _, tier := range TierOrder {
		all = append(all, r.TierMatches(tier)...)
	}
	return all
}

// FindMatch locates a match by grant ID across all tiers. The returned
// pointer aliases the result's backing array so shortlist toggles stick.
func (r *MatchResult) FindMatch(grantID string) *GrantMatch {
	for _, tier := range TierOrder {
		matches := r.TierMatches(tier)
		for i := range matches {
			if matches[i].GrantID == grantID {
				return &matches[i]
			}
		}
	}
	return nil
}
