package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/models"
)

const questionnaireGrantSample = 50

// GenerateQuestionnaire builds an eligibility questionnaire tailored to the
// uploaded grant database. If generation or parsing fails it falls back to
// the static default set so the intake flow never dead-ends.
func GenerateQuestionnaire(ctx context.Context, gen ContentGenerator, grants []models.Grant, logger *zap.Logger) *models.Questionnaire {
	if logger == nil {
		logger = zap.NewNop()
	}

	sample := grants
	if len(sample) > questionnaireGrantSample {
		sample = sample[:questionnaireGrantSample]
	}
	summary := make([]map[string]string, 0, len(sample))
	for _, g := range sample {
		desc := g.Description
		if len(desc) > 200 {
			desc = desc[:200]
		}
		summary = append(summary, map[string]string{
			"name":          g.GrantName,
			"funder":        g.Funder,
			"description":   desc,
			"geo_qualified": string(g.GeoQualified),
		})
	}

	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logger.Warn("questionnaire grant summary marshal failed", zap.Error(err))
		return DefaultQuestionnaire()
	}

	prompt := fmt.Sprintf(`You are helping a Catholic parish or school find grant opportunities.

Based on these grants, generate a smart questionnaire to gather information needed to match organizations with appropriate grants. The questionnaire should focus on eligibility criteria commonly found in these grants.

GRANTS DATABASE (sample):
%s

Generate a questionnaire with EXACTLY %d or fewer questions that will help determine:
1. Basic eligibility (501c3 status, Catholic affiliation, location)
2. Organization type and size
3. Current programs and services
4. Facility needs and conditions
5. Security concerns
6. Financial capacity
7. Past grant experience

Return a JSON array of questions:
[
  {
    "id": 1,
    "question": "Question text",
    "question_type": "boolean|text|select|multiselect",
    "options": ["option1", "option2"],
    "required": true,
    "grant_relevance": ["Grant names this question helps evaluate"]
  }
]

Make questions clear, specific, and relevant to Catholic parish/school contexts.
Return ONLY the JSON array, no other text.`, summaryJSON, models.MaxQuestionnaireQuestions)

	raw, err := gen.GenerateContent(ctx, prompt)
	if err != nil {
		logger.Warn("questionnaire generation failed, using default set", zap.Error(err))
		return DefaultQuestionnaire()
	}

	var questions []models.Question
	if err := json.Unmarshal([]byte(extractJSON(raw)), &questions); err != nil {
		logger.Warn("questionnaire response parse failed, using default set", zap.Error(err))
		return DefaultQuestionnaire()
	}
	if len(questions) == 0 {
		return DefaultQuestionnaire()
	}
	if len(questions) > models.MaxQuestionnaireQuestions {
		questions = questions[:models.MaxQuestionnaireQuestions]
	}

	return &models.Questionnaire{Questions: questions, TotalQuestions: len(questions)}
}

// DefaultQuestionnaire is the static fallback intake set.
func DefaultQuestionnaire() *models.Questionnaire {
	questions := []models.Question{
		{ID: 1, Question: "Is your organization a registered 501(c)(3) nonprofit?", Type: models.QuestionBoolean, Required: true, GrantRelevance: []string{"All grants"}},
		{ID: 2, Question: "What type of organization are you?", Type: models.QuestionSelect, Options: []string{"Parish only", "School only", "Parish with school"}, Required: true, GrantRelevance: []string{"All grants"}},
		{ID: 3, Question: "In which state is your organization located?", Type: models.QuestionText, Required: true, GrantRelevance: []string{"Geographic grants"}},
		{ID: 4, Question: "What is your approximate annual operating budget?", Type: models.QuestionSelect, Options: []string{"Under $250,000", "$250,000-$500,000", "$500,000-$1M", "Over $1M"}, Required: true, GrantRelevance: []string{"Capacity-based grants"}},
		{ID: 5, Question: "Do you have any current facility repair or renovation needs?", Type: models.QuestionBoolean, Required: true, GrantRelevance: []string{"Facility grants"}},
		{ID: 6, Question: "Do you operate a food pantry or food assistance program?", Type: models.QuestionBoolean, Required: true, GrantRelevance: []string{"Hunger relief grants"}},
		{ID: 7, Question: "Have you received grant funding in the past 3 years?", Type: models.QuestionBoolean, Required: true, GrantRelevance: []string{"All grants"}},
		{ID: 8, Question: "Do you have security concerns or need security improvements?", Type: models.QuestionBoolean, Required: true, GrantRelevance: []string{"Security grants"}},
	}
	return &models.Questionnaire{Questions: questions, TotalQuestions: len(questions)}
}
