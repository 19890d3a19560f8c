package models

import "time"

// NeedSourceType identifies which upstream collaborator contributed a need.
type NeedSourceType string

const (
	SourceDocument      NeedSourceType = "document"
	SourceWebsite       NeedSourceType = "website"
	SourceQuestionnaire NeedSourceType = "questionnaire"
	SourceNotes         NeedSourceType = "notes"
)

// NeedConfidence grades how directly the need was stated in its source.
type NeedConfidence string

const (
	ConfidenceHigh   NeedConfidence = "high"
	ConfidenceMedium NeedConfidence = "medium"
	ConfidenceLow    NeedConfidence = "low"
)

// ProfileNeed is one free-text need with its provenance.
type ProfileNeed struct {
	Text       string         `json:"text"`
	Source     string         `json:"source"`
	SourceType NeedSourceType `json:"source_type"`
	Quote      string         `json:"quote,omitempty"`
	Confidence NeedConfidence `json:"confidence"`
}

// OrganizationProfile is the matching subject. It accumulates contributions
// from documents, website scans and the questionnaire before being handed,
// read-only, into matching.
type OrganizationProfile struct {
	ID               string `json:"id,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	OrganizationName string `json:"organization_name"`
	OrganizationType string `json:"organization_type"` // "parish", "school", "both"
	Diocese          string `json:"diocese,omitempty"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZipCode          string `json:"zip_code,omitempty"`

	WebsiteURL       string `json:"website_url,omitempty"`
	SchoolWebsiteURL string `json:"school_website_url,omitempty"`
	PastorName       string `json:"pastor_name,omitempty"`
	PrincipalName    string `json:"principal_name,omitempty"`

	StaffCount   int    `json:"staff_count,omitempty"`
	StudentCount int    `json:"student_count,omitempty"`
	ParishSize   string `json:"parish_size,omitempty"` // "small", "medium", "large"
	AnnualBudget string `json:"annual_budget,omitempty"`

	Is501c3            bool `json:"is_501c3"`
	HasSchool          bool `json:"has_school"`
	HasFoodPantry      bool `json:"has_food_pantry"`
	HasOutreachPrograms bool `json:"has_outreach_programs"`

	Needs              []ProfileNeed `json:"needs"`
	CurrentInitiatives []string      `json:"current_initiatives,omitempty"`
	PreviousGrants     []string      `json:"previous_grants,omitempty"`

	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// NeedTexts flattens the needs list for prompt building.
func (p *OrganizationProfile) NeedTexts() []string {
	if len(p.Needs) == 0 {
		return nil
	}
	texts := make([]string, 0, len(p.Needs))
	for _, n := range p.Needs {
		texts = append(texts, n.Text)
	}
	return texts
}
