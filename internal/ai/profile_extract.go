package ai

import (
	"context"
	"encoding/json"
	"fmt"
)

const maxDocumentChars = 30000

// WebsiteScan is the structured output of a parish/school website scan.
type WebsiteScan struct {
	OrganizationBasics struct {
		Name    string `json:"name"`
		City    string `json:"city"`
		State   string `json:"state"`
		Diocese string `json:"diocese"`
		Address string `json:"address"`
	} `json:"organization_basics"`
	Leadership struct {
		Pastor    string   `json:"pastor"`
		Principal string   `json:"principal"`
		Staff     []string `json:"staff"`
	} `json:"leadership"`
	SchoolInfo *struct {
		Name          string `json:"name"`
		Grades        string `json:"grades"`
		StudentCount  int    `json:"student_count"`
		Accreditation string `json:"accreditation"`
	} `json:"school_info"`
	Facilities         []string `json:"facilities"`
	CurrentInitiatives []string `json:"current_initiatives"`
}

// DocumentSignals are the grant-relevant needs extracted from one uploaded
// document.
type DocumentSignals struct {
	FacilityNeeds    []string `json:"facility_needs"`
	ProgramNeeds     []string `json:"program_needs"`
	SecurityConcerns []string `json:"security_concerns"`
	OtherSignals     []string `json:"other_signals"`
}

// ScanWebsiteText extracts structured organization facts from already
// fetched website text. labeled is the concatenated per-site text with
// section headers, produced by the profile scanner.
func ScanWebsiteText(ctx context.Context, gen ContentGenerator, labeled string) (*WebsiteScan, error) {
	prompt := fmt.Sprintf(`Analyze these Catholic parish/school website(s) and extract structured information.

%s

Extract and return a JSON object with:
{
  "organization_basics": {
    "name": "Parish/School name",
    "city": "City",
    "state": "State (2-letter code)",
    "diocese": "Diocese name if mentioned",
    "address": "Full address if found"
  },
  "leadership": {
    "pastor": "Pastor name if found",
    "principal": "Principal name if found",
    "staff": ["Other key staff mentioned"]
  },
  "school_info": {
    "name": "School name",
    "grades": "Grade levels served",
    "student_count": 0,
    "accreditation": "Accreditation info if mentioned"
  },
  "facilities": ["List of facilities/buildings mentioned"],
  "current_initiatives": ["List of programs, projects, or initiatives mentioned"]
}

If no school information is found, set school_info to null.
Return ONLY the JSON object, no other text.`, labeled)

	raw, err := gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var scan WebsiteScan
	if err := json.Unmarshal([]byte(extractJSON(raw)), &scan); err != nil {
		return nil, fmt.Errorf("parse website scan response: %w", err)
	}
	return &scan, nil
}

// ExtractDocumentSignals pulls grant-relevant needs out of one document's
// text. Mass times, prayer intentions and event announcements are ignored
// by the prompt.
func ExtractDocumentSignals(ctx context.Context, gen ContentGenerator, filename, text string) (*DocumentSignals, error) {
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	prompt := fmt.Sprintf(`Analyze this document from a Catholic parish or school and extract information relevant to grant applications.

DOCUMENT: %s
CONTENT:
%s

Extract and categorize any mentions of:
1. Facility needs (repairs, renovations, equipment)
2. Program needs (new programs, program expansions, staffing)
3. Security concerns (safety issues, security equipment needs)
4. Other grant-relevant signals (financial challenges, growth opportunities, community needs)

IMPORTANT: Ignore irrelevant content like mass times, prayer intentions, event announcements.
Focus on actionable needs that could be addressed with grant funding.

Return a JSON object:
{
  "facility_needs": ["List of specific facility needs mentioned"],
  "program_needs": ["List of specific program needs mentioned"],
  "security_concerns": ["List of specific security concerns mentioned"],
  "other_signals": ["Other relevant information for grant matching"]
}

Return ONLY the JSON object, no other text.`, filename, text)

	raw, err := gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var signals DocumentSignals
	if err := json.Unmarshal([]byte(extractJSON(raw)), &signals); err != nil {
		return nil, fmt.Errorf("parse document extraction response: %w", err)
	}
	return &signals, nil
}
