package match

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/models"
)

var (
	ErrNoGrants          = errors.New("no grants to evaluate")
	ErrIncompleteProfile = errors.New("organization profile is missing required identity fields")
)

const (
	// DefaultBatchSize keeps each oracle call inside the upstream
	// token/throughput envelope.
	DefaultBatchSize = 10

	resultTTL = 90 * 24 * time.Hour

	fallbackExplanation = "Unable to fully evaluate — please review manually."
	fallbackScore       = 50
)

// ProfileSummary is the profile slice sent to the scorer oracle.
type ProfileSummary struct {
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	City               string   `json:"city"`
	State              string   `json:"state"`
	HasSchool          bool     `json:"has_school"`
	Is501c3            bool     `json:"is_501c3"`
	Needs              []string `json:"needs"`
	CurrentInitiatives []string `json:"current_initiatives,omitempty"`
	AnnualBudget       string   `json:"annual_budget,omitempty"`
	StudentCount       int      `json:"student_count,omitempty"`
	StaffCount         int      `json:"staff_count,omitempty"`
}

// GrantSummary is the per-grant payload sent to the scorer oracle.
type GrantSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Funder       string `json:"funder"`
	Amount       string `json:"amount"`
	Deadline     string `json:"deadline"`
	Description  string `json:"description"`
	GeoQualified string `json:"geo_qualified"`
	Category     string `json:"category"`
	Eligibility  []string `json:"eligibility,omitempty"`
}

// Scorer is the external oracle seam. Implementations may fail or return
// malformed proposals; the matcher recovers from both.
type Scorer interface {
	ScoreBatch(ctx context.Context, profile ProfileSummary, grants []GrantSummary) ([]RawProposal, error)
}

// Matcher turns (profile, grants) into a tiered MatchResult. It is safe for
// concurrent use across sessions: each Match call builds its result from
// scratch and shares no state beyond the injected scorer.
type Matcher struct {
	scorer    Scorer
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithBatchSize overrides the oracle batch size.
func WithBatchSize(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// WithClock injects the time source, fixing "now" for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMatcher(scorer Scorer, logger *zap.Logger, opts ...Option) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Matcher{
		scorer:    scorer,
		logger:    logger,
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match scores every grant against the profile and returns a complete,
// tiered result. It is total over scorer behavior: a failing batch or a
// grant left unscored by the oracle falls back to a neutral score rather
// than shrinking the result. Every input grant lands in exactly one tier.
func (m *Matcher) Match(ctx context.Context, profile models.OrganizationProfile, grants []models.Grant) (*models.MatchResult, error) {
	if len(grants) == 0 {
		return nil, ErrNoGrants
	}
	if strings.TrimSpace(profile.OrganizationName) == "" {
		return nil, ErrIncompleteProfile
	}

	now := m.now()
	summary := summarizeProfile(profile)

	// Matches indexed by original grant position so concurrency-free
	// re-joining keeps the input order before tier grouping.
	ordered := make([]models.GrantMatch, len(grants))

	for start := 0; start < len(grants); start += m.batchSize {
		end := start + m.batchSize
		if end > len(grants) {
			end = len(grants)
		}
		batch := grants[start:end]

		proposals, err := m.scorer.ScoreBatch(ctx, summary, summarizeGrants(batch, now))
		if err != nil {
			m.logger.Warn("scorer batch failed, using neutral fallback",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			for i, g := range batch {
				ordered[start+i] = fallbackMatch(g, now)
			}
			continue
		}

		resolved := resolveProposals(proposals, batch, m.logger)
		for i, g := range batch {
			p, ok := resolved[g.ID]
			if !ok {
				m.logger.Warn("grant missing from scorer response, using neutral fallback",
					zap.String("grant_id", g.ID),
					zap.String("grant_name", g.GrantName))
				ordered[start+i] = fallbackMatch(g, now)
				continue
			}
			ordered[start+i] = normalizeProposal(p, g, now)
		}
	}

	result := &models.MatchResult{
		SessionID:       uuid.New().String(),
		GrantsEvaluated: len(grants),
		CreatedAt:       now,
		ExpiresAt:       now.Add(resultTTL),
	}

	for _, gm := range ordered {
		switch gm.Tier {
		case models.TierExcellent:
			result.Excellent = append(result.Excellent, gm)
		case models.TierGood:
			result.Good = append(result.Good, gm)
		case models.TierPossible:
			result.Possible = append(result.Possible, gm)
		case models.TierWeak:
			result.Weak = append(result.Weak, gm)
		default:
			result.NotEligible = append(result.NotEligible, gm)
		}
	}

	// Descending score within each tier; SliceStable keeps original grant
	// order on equal scores.
	for _, tier := range []*[]models.GrantMatch{
		&result.Excellent, &result.Good, &result.Possible, &result.Weak, &result.NotEligible,
	} {
		group := *tier
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Score > group[j].Score
		})
	}

	result.Counts = models.TierCounts{
		Excellent:   len(result.Excellent),
		Good:        len(result.Good),
		Possible:    len(result.Possible),
		Weak:        len(result.Weak),
		NotEligible: len(result.NotEligible),
	}

	m.logger.Info("matching session complete",
		zap.String("session_id", result.SessionID),
		zap.Int("grants_evaluated", result.GrantsEvaluated),
		zap.Int("excellent", result.Counts.Excellent),
		zap.Int("good", result.Counts.Good),
		zap.Int("possible", result.Counts.Possible),
		zap.Int("weak", result.Counts.Weak),
		zap.Int("not_eligible", result.Counts.NotEligible))

	return result, nil
}

func summarizeProfile(p models.OrganizationProfile) ProfileSummary {
	return ProfileSummary{
		Name:               p.OrganizationName,
		Type:               p.OrganizationType,
		City:               p.City,
		State:              p.State,
		HasSchool:          p.HasSchool,
		Is501c3:            p.Is501c3,
		Needs:              p.NeedTexts(),
		CurrentInitiatives: p.CurrentInitiatives,
		AnnualBudget:       p.AnnualBudget,
		StudentCount:       p.StudentCount,
		StaffCount:         p.StaffCount,
	}
}

func summarizeGrants(grants []models.Grant, today time.Time) []GrantSummary {
	out := make([]GrantSummary, 0, len(grants))
	for _, g := range grants {
		deadline, _ := FormatDeadline(g.Deadline, today)
		out = append(out, GrantSummary{
			ID:           g.ID,
			Name:         g.GrantName,
			Funder:       g.Funder,
			Amount:       FormatAmount(g.AmountMin, g.AmountMax),
			Deadline:     deadline,
			Description:  g.Description,
			GeoQualified: string(g.GeoQualified),
			Category:     string(g.Category),
			Eligibility:  g.Eligibility,
		})
	}
	return out
}

// fallbackMatch builds the deterministic neutral match used when the oracle
// fails or skips a grant: score 50 (tier possible) with each sub-score at
// half its maximum weight, odd halves rounded up.
func fallbackMatch(g models.Grant, today time.Time) models.GrantMatch {
	p := RawProposal{
		GrantID: g.ID,
		Score:   fallbackScore,
		Breakdown: RawBreakdown{
			EligibilityFit:  float64((models.MaxEligibilityFit + 1) / 2),
			NeedAlignment:   float64((models.MaxNeedAlignment + 1) / 2),
			CapacitySignals: float64((models.MaxCapacitySignals + 1) / 2),
			Timing:          float64((models.MaxTiming + 1) / 2),
			Completeness:    float64((models.MaxCompleteness + 1) / 2),
		},
		Explanation: fallbackExplanation,
	}
	return normalizeProposal(p, g, today)
}
