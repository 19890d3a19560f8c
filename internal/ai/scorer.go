package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/match"
)

// ContentGenerator is the LLM seam shared by the Gemini and Ollama
// backends.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var scoringPrompt string

const defaultMaxLogLength = 200

// Scorer turns one batch of grants into raw score proposals through an LLM
// backend. It implements match.Scorer.
type Scorer struct {
	generator ContentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewScorer(generator ContentGenerator, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		generator: generator,
		logger:    logger,
		maxLogLen: defaultMaxLogLength,
	}
}

// ScoreBatch builds the scoring prompt for one batch and parses the model's
// JSON array reply. Unusable entries are skipped, not fatal: the matcher
// supplies fallbacks for anything missing.
func (s *Scorer) ScoreBatch(ctx context.Context, profile match.ProfileSummary, grants []match.GrantSummary) ([]match.RawProposal, error) {
	if len(grants) == 0 {
		return nil, nil
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}
	grantsJSON, err := json.MarshalIndent(grants, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal grants payload: %w", err)
	}

	prompt := strings.ReplaceAll(scoringPrompt, "{{PROFILE_JSON}}", string(profileJSON))
	prompt = strings.ReplaceAll(prompt, "{{GRANTS_JSON}}", string(grantsJSON))

	s.logger.Debug("scoring batch request",
		zap.Int("batch_size", len(grants)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)))

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scoring batch response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", truncateForLog(raw, s.maxLogLen)))

	return s.parseProposals(raw)
}

func (s *Scorer) parseProposals(raw string) ([]match.RawProposal, error) {
	cleaned := extractJSON(raw)

	var entries []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		return nil, fmt.Errorf("parse scorer response: %w", err)
	}

	proposals := make([]match.RawProposal, 0, len(entries))
	for _, entry := range entries {
		grantID := coerceString(entry["grant_id"])
		if grantID == "" {
			s.logger.Warn("skipping proposal without grant_id")
			continue
		}

		p := match.RawProposal{
			GrantID:        grantID,
			Score:          coerceFloat(entry["score"]),
			Explanation:    coerceString(entry["explanation"]),
			Evidence:       coerceStringSlice(entry["evidence"]),
			VerifyItems:    coerceStringSlice(entry["verify_items"]),
			DeadlineUrgent: coerceBool(entry["deadline_urgent"]),
		}
		if math.IsNaN(p.Score) {
			s.logger.Warn("proposal score is not numeric, treating as zero",
				zap.String("grant_id", grantID))
			p.Score = 0
		}

		if breakdown, ok := entry["score_breakdown"].(map[string]any); ok {
			p.Breakdown = match.RawBreakdown{
				EligibilityFit:  coerceFloat(breakdown["eligibility_fit"]),
				NeedAlignment:   coerceFloat(breakdown["need_alignment"]),
				CapacitySignals: coerceFloat(breakdown["capacity_signals"]),
				Timing:          coerceFloat(breakdown["timing"]),
				Completeness:    coerceFloat(breakdown["completeness"]),
			}
		}

		proposals = append(proposals, p)
	}
	return proposals, nil
}

func truncateForLog(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
