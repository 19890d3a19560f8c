package profile

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/ai"
	"github.com/parishfund/grantmatch/internal/models"
)

// Builder merges contributions from website scans, documents and the
// questionnaire into one organization profile. Sources only ever fill gaps
// or append; nothing a user typed is overwritten by a scan.
type Builder struct {
	logger *zap.Logger
}

func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// ApplyWebsiteScan folds scanned facts into the profile. Scalar fields are
// only set when currently empty.
func (b *Builder) ApplyWebsiteScan(p *models.OrganizationProfile, scan *ai.WebsiteScan) {
	if scan == nil {
		return
	}

	setIfEmpty(&p.OrganizationName, scan.OrganizationBasics.Name)
	setIfEmpty(&p.City, scan.OrganizationBasics.City)
	setIfEmpty(&p.State, scan.OrganizationBasics.State)
	setIfEmpty(&p.Diocese, scan.OrganizationBasics.Diocese)
	setIfEmpty(&p.PastorName, scan.Leadership.Pastor)
	setIfEmpty(&p.PrincipalName, scan.Leadership.Principal)

	if scan.SchoolInfo != nil {
		p.HasSchool = true
		if p.StudentCount == 0 && scan.SchoolInfo.StudentCount > 0 {
			p.StudentCount = scan.SchoolInfo.StudentCount
		}
	}

	for _, initiative := range scan.CurrentInitiatives {
		p.CurrentInitiatives = appendUnique(p.CurrentInitiatives, initiative)
	}
	for _, facility := range scan.Facilities {
		b.addNeed(p, models.ProfileNeed{
			Text:       facility,
			Source:     "website scan",
			SourceType: models.SourceWebsite,
			Confidence: models.ConfidenceLow,
		})
	}

	b.touch(p)
}

// ApplyDocumentSignals appends the needs extracted from one document.
// Needs stated in a document the org uploaded carry high confidence.
func (b *Builder) ApplyDocumentSignals(p *models.OrganizationProfile, filename string, signals *ai.DocumentSignals) {
	if signals == nil {
		return
	}

	source := "document: " + filename
	for _, groups := range []struct {
		needs      []string
		confidence models.NeedConfidence
	}{
		{signals.FacilityNeeds, models.ConfidenceHigh},
		{signals.ProgramNeeds, models.ConfidenceHigh},
		{signals.SecurityConcerns, models.ConfidenceHigh},
		{signals.OtherSignals, models.ConfidenceMedium},
	} {
		for _, text := range groups.needs {
			b.addNeed(p, models.ProfileNeed{
				Text:       text,
				Source:     source,
				SourceType: models.SourceDocument,
				Confidence: groups.confidence,
			})
		}
	}

	b.touch(p)
}

// ApplyQuestionnaire maps answers from the default question set onto
// profile fields, and records free-form notes as a need. Unknown question
// IDs are kept as questionnaire needs when they carry text.
func (b *Builder) ApplyQuestionnaire(p *models.OrganizationProfile, submission models.QuestionnaireSubmission) {
	for _, answer := range submission.Answers {
		b.applyAnswer(p, answer)
	}

	if text := strings.TrimSpace(submission.FreeFormText); text != "" {
		b.addNeed(p, models.ProfileNeed{
			Text:       text,
			Source:     "questionnaire free-form notes",
			SourceType: models.SourceNotes,
			Confidence: models.ConfidenceMedium,
		})
	}

	b.touch(p)
}

func (b *Builder) applyAnswer(p *models.OrganizationProfile, answer models.Answer) {
	switch answer.QuestionID {
	case 1:
		p.Is501c3 = answerBool(answer.Value)
	case 2:
		switch strings.ToLower(answerString(answer.Value)) {
		case "parish only":
			p.OrganizationType = "parish"
		case "school only":
			p.OrganizationType = "school"
			p.HasSchool = true
		case "parish with school":
			p.OrganizationType = "both"
			p.HasSchool = true
		}
	case 3:
		setIfEmpty(&p.State, strings.ToUpper(answerString(answer.Value)))
	case 4:
		p.AnnualBudget = answerString(answer.Value)
	case 5:
		if answerBool(answer.Value) {
			b.addNeed(p, models.ProfileNeed{
				Text:       "Facility repair or renovation needs",
				Source:     "questionnaire",
				SourceType: models.SourceQuestionnaire,
				Confidence: models.ConfidenceMedium,
			})
		}
	case 6:
		p.HasFoodPantry = answerBool(answer.Value)
	case 7:
		if answerBool(answer.Value) {
			p.PreviousGrants = appendUnique(p.PreviousGrants, "Received grant funding in the past 3 years")
		}
	case 8:
		if answerBool(answer.Value) {
			b.addNeed(p, models.ProfileNeed{
				Text:       "Security concerns or security improvement needs",
				Source:     "questionnaire",
				SourceType: models.SourceQuestionnaire,
				Confidence: models.ConfidenceMedium,
			})
		}
	default:
		if text := answerString(answer.Value); text != "" {
			b.addNeed(p, models.ProfileNeed{
				Text:       text,
				Source:     "questionnaire",
				SourceType: models.SourceQuestionnaire,
				Confidence: models.ConfidenceLow,
			})
		}
	}
}

// addNeed appends a need unless the same text is already present from any
// source.
func (b *Builder) addNeed(p *models.OrganizationProfile, need models.ProfileNeed) {
	need.Text = strings.TrimSpace(need.Text)
	if need.Text == "" {
		return
	}
	for _, existing := range p.Needs {
		if strings.EqualFold(existing.Text, need.Text) {
			return
		}
	}
	p.Needs = append(p.Needs, need)
}

func (b *Builder) touch(p *models.OrganizationProfile) {
	now := time.Now().UTC()
	p.LastUpdated = &now
}

func setIfEmpty(dst *string, value string) {
	if strings.TrimSpace(*dst) == "" {
		if value = strings.TrimSpace(value); value != "" {
			*dst = value
		}
	}
}

func appendUnique(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, value) {
			return list
		}
	}
	return append(list, value)
}

func answerBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	default:
		return false
	}
}

func answerString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
