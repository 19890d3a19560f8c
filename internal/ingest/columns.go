package ingest

import "strings"

// columnAliases maps the header spellings seen in circulating grant
// database sheets onto canonical column names.
var columnAliases = map[string]string{
	"grant name": "grant_name",
	"grant_name": "grant_name",
	"name":       "grant_name",

	"deadline": "deadline",
	"due date": "deadline",
	"due_date": "deadline",

	"amount":       "amount",
	"grant amount": "amount",
	"award":        "amount",

	"funder":      "funder",
	"funding org": "funder",
	"organization": "funder",

	"description": "description",
	"desc":        "description",
	"details":     "description",

	"contact":      "contact",
	"contact info": "contact",
	"email":        "contact",

	"url":             "url",
	"link":            "url",
	"website":         "url",
	"application url": "url",

	"status":       "status",
	"grant status": "status",

	"geo qualified": "geo_qualified",
	"geo_qualified": "geo_qualified",
	"geographic":    "geo_qualified",
	"geography":     "geo_qualified",

	"funder stats": "funder_stats",
	"funder_stats": "funder_stats",
	"stats":        "funder_stats",

	"category":       "category",
	"grant category": "category",
	"sheet":          "category",

	// Foundation columns
	"foundation name": "foundation_name",
	"foundation_name": "foundation_name",

	"application cycle": "application_cycle",
	"application_cycle": "application_cycle",
	"cycle":             "application_cycle",

	"focus areas": "focus_areas",
	"focus_areas": "focus_areas",
	"focus":       "focus_areas",

	"location": "location",
	"city":     "location",

	"annual giving": "annual_giving",
	"annual_giving": "annual_giving",
	"giving":        "annual_giving",

	"notes": "notes",
}

// normalizeColumn maps a raw header cell to its canonical column name.
// Unknown headers survive in snake_case so extra columns are preserved in
// row data rather than dropped.
func normalizeColumn(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := columnAliases[normalized]; ok {
		return canonical
	}
	return strings.ReplaceAll(normalized, " ", "_")
}
