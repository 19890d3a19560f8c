package models

import "time"

// Foundation is a Catholic foundation entry from the database's fifth
// category. Foundations are relationship targets rather than scored
// opportunities, so they sit outside matching.
type Foundation struct {
	ID               string    `json:"id"`
	FoundationName   string    `json:"foundation_name"`
	ApplicationCycle string    `json:"application_cycle"`
	FocusAreas       string    `json:"focus_areas"`
	Location         string    `json:"location"`
	Contact          string    `json:"contact"`
	Website          string    `json:"website"`
	AnnualGiving     string    `json:"annual_giving"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
