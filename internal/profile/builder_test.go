package profile

import (
	"testing"

	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/ai"
	"github.com/parishfund/grantmatch/internal/models"
)

func TestApplyWebsiteScanFillsEmptyFieldsOnly(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	p := &models.OrganizationProfile{OrganizationName: "St. Mary Parish"}

	scan := &ai.WebsiteScan{}
	scan.OrganizationBasics.Name = "Saint Mary Catholic Church"
	scan.OrganizationBasics.City = "Austin"
	scan.OrganizationBasics.State = "TX"
	scan.Leadership.Pastor = "Fr. John Doe"
	scan.CurrentInitiatives = []string{"Food pantry expansion", "Food pantry expansion"}

	b.ApplyWebsiteScan(p, scan)

	if p.OrganizationName != "St. Mary Parish" {
		t.Fatalf("existing name overwritten: %q", p.OrganizationName)
	}
	if p.City != "Austin" || p.State != "TX" || p.PastorName != "Fr. John Doe" {
		t.Fatalf("empty fields not filled: %+v", p)
	}
	if len(p.CurrentInitiatives) != 1 {
		t.Fatalf("initiatives = %v, want deduplicated single entry", p.CurrentInitiatives)
	}
	if p.LastUpdated == nil {
		t.Fatal("last_updated not set")
	}
}

func TestApplyWebsiteScanSchoolInfo(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	p := &models.OrganizationProfile{}

	scan := &ai.WebsiteScan{SchoolInfo: &struct {
		Name          string `json:"name"`
		Grades        string `json:"grades"`
		StudentCount  int    `json:"student_count"`
		Accreditation string `json:"accreditation"`
	}{Name: "St. Mary School", StudentCount: 240}}

	b.ApplyWebsiteScan(p, scan)

	if !p.HasSchool || p.StudentCount != 240 {
		t.Fatalf("school info not applied: %+v", p)
	}
}

func TestApplyDocumentSignalsAddsNeedsWithProvenance(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	p := &models.OrganizationProfile{}

	b.ApplyDocumentSignals(p, "bulletin.pdf", &ai.DocumentSignals{
		FacilityNeeds:    []string{"Roof repair over the parish hall"},
		SecurityConcerns: []string{"Broken exterior lighting"},
		OtherSignals:     []string{"Growing hispanic ministry"},
	})

	if len(p.Needs) != 3 {
		t.Fatalf("needs = %d, want 3", len(p.Needs))
	}
	first := p.Needs[0]
	if first.SourceType != models.SourceDocument || first.Source != "document: bulletin.pdf" {
		t.Fatalf("unexpected provenance: %+v", first)
	}
	if first.Confidence != models.ConfidenceHigh {
		t.Fatalf("facility need confidence = %s, want high", first.Confidence)
	}
	if p.Needs[2].Confidence != models.ConfidenceMedium {
		t.Fatalf("other signal confidence = %s, want medium", p.Needs[2].Confidence)
	}
}

func TestApplyDocumentSignalsDeduplicatesNeeds(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	p := &models.OrganizationProfile{}

	signals := &ai.DocumentSignals{FacilityNeeds: []string{"Roof repair"}}
	b.ApplyDocumentSignals(p, "a.pdf", signals)
	b.ApplyDocumentSignals(p, "b.pdf", signals)

	if len(p.Needs) != 1 {
		t.Fatalf("needs = %d, want 1 after dedupe", len(p.Needs))
	}
}

func TestApplyQuestionnaireMapsDefaultQuestions(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	p := &models.OrganizationProfile{}

	b.ApplyQuestionnaire(p, models.QuestionnaireSubmission{
		Answers: []models.Answer{
			{QuestionID: 1, Value: true},
			{QuestionID: 2, Value: "Parish with school"},
			{QuestionID: 3, Value: "tx"},
			{QuestionID: 4, Value: "$500,000-$1M"},
			{QuestionID: 5, Value: true},
			{QuestionID: 6, Value: false},
			{QuestionID: 8, Value: "yes"},
		},
		FreeFormText: "We want to start an after-school tutoring program.",
	})

	if !p.Is501c3 || p.OrganizationType != "both" || !p.HasSchool {
		t.Fatalf("eligibility answers not applied: %+v", p)
	}
	if p.State != "TX" {
		t.Fatalf("state = %q, want TX", p.State)
	}
	if p.AnnualBudget != "$500,000-$1M" {
		t.Fatalf("budget = %q", p.AnnualBudget)
	}
	if p.HasFoodPantry {
		t.Fatal("food pantry should stay false")
	}

	// Facility need, security need, and the free-form note.
	if len(p.Needs) != 3 {
		t.Fatalf("needs = %d, want 3", len(p.Needs))
	}
	last := p.Needs[len(p.Needs)-1]
	if last.SourceType != models.SourceNotes {
		t.Fatalf("free-form note source type = %s", last.SourceType)
	}
}
