package models

import "time"

// GrantCategory is the five-category grant database structure.
type GrantCategory string

const (
	CategoryChurchParish   GrantCategory = "church_parish"
	CategoryCatholicSchool GrantCategory = "catholic_school"
	CategoryMixed          GrantCategory = "mixed"
	CategoryNonCatholic    GrantCategory = "non_catholic"
	CategoryFoundations    GrantCategory = "foundations"
)

// GrantStatus is the application status as stated by the source sheet.
type GrantStatus string

const (
	StatusOpen          GrantStatus = "OPEN"
	StatusRolling       GrantStatus = "Rolling"
	StatusCheckDeadline GrantStatus = "Check deadline"
	StatusClosed        GrantStatus = "CLOSED"
)

// GeoQualified captures geographic qualification for the organization's state.
type GeoQualified string

const (
	GeoYes    GeoQualified = "Yes"
	GeoNo     GeoQualified = "No"
	GeoTXOnly GeoQualified = "Yes - TX Only"
	GeoCheck  GeoQualified = "Check eligibility"
)

// Grant is one funding opportunity loaded from the grant database.
// Immutable once parsed.
type Grant struct {
	ID          string        `json:"id"`
	GrantName   string        `json:"grant_name"`
	Funder      string        `json:"funder"`
	Description string        `json:"description"`
	// Deadline holds an ISO date ("2006-01-02"), the literal "Rolling",
	// or "" when the source sheet gives no date.
	Deadline    string        `json:"deadline"`
	AmountMin   *float64      `json:"amount_min"`
	AmountMax   *float64      `json:"amount_max"`
	Eligibility []string      `json:"eligibility"`
	GeoQualified GeoQualified `json:"geo_qualified"`
	Purposes    []string      `json:"purposes"`
	Category    GrantCategory `json:"category"`
	Status      GrantStatus   `json:"status"`
	URL         string        `json:"url"`
	Contact     string        `json:"contact"`
	FunderStats string        `json:"funder_stats,omitempty"`
	SourceRow   int           `json:"source_row,omitempty"`
	Embedding   []float32     `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
}
