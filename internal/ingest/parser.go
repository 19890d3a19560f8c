package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/models"
)

// categoryLabels maps the sheet/category names found in circulating grant
// databases onto the five canonical categories.
var categoryLabels = map[string]models.GrantCategory{
	"church/parish grants": models.CategoryChurchParish,
	"category 1":           models.CategoryChurchParish,
	"parish grants":        models.CategoryChurchParish,
	"church_parish":        models.CategoryChurchParish,

	"catholic school grants": models.CategoryCatholicSchool,
	"category 2":             models.CategoryCatholicSchool,
	"school grants":          models.CategoryCatholicSchool,
	"catholic_school":        models.CategoryCatholicSchool,

	"mixed church-school": models.CategoryMixed,
	"category 3":          models.CategoryMixed,
	"mixed":               models.CategoryMixed,

	"non-catholic qualifying": models.CategoryNonCatholic,
	"category 4":              models.CategoryNonCatholic,
	"non-catholic":            models.CategoryNonCatholic,
	"secular grants":          models.CategoryNonCatholic,
	"non_catholic":            models.CategoryNonCatholic,

	"catholic foundations": models.CategoryFoundations,
	"category 5":           models.CategoryFoundations,
	"foundations":          models.CategoryFoundations,
}

// ParseResult is the outcome of one grant database upload.
type ParseResult struct {
	UploadID       string
	Grants         []models.Grant
	Foundations    []models.Foundation
	CategoryCounts map[models.GrantCategory]int
	SkippedRows    int
}

// Parser reads the five-category grant database from CSV.
type Parser struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger, now: time.Now}
}

// Parse reads a grant database CSV. The first row is the header; each data
// row carries a category column naming its sheet of origin. Category 5
// rows become foundations, everything else becomes grants. Rows without a
// name are skipped, not fatal.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, cell := range header {
		columns[i] = normalizeColumn(cell)
	}

	result := &ParseResult{
		UploadID:       uuid.New().String(),
		CategoryCounts: make(map[models.GrantCategory]int),
	}

	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNum, err)
		}

		row := make(map[string]string, len(columns))
		empty := true
		for i, cell := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			row[columns[i]] = cell
		}
		if empty {
			continue
		}

		category, ok := resolveCategory(row["category"])
		if !ok {
			p.logger.Warn("skipping row with unknown category",
				zap.Int("row", rowNum),
				zap.String("category", row["category"]))
			result.SkippedRows++
			continue
		}

		if category == models.CategoryFoundations {
			if foundation, ok := p.parseFoundationRow(row); ok {
				result.Foundations = append(result.Foundations, foundation)
			} else {
				result.SkippedRows++
			}
			continue
		}

		grant, ok := p.parseGrantRow(row, category, rowNum)
		if !ok {
			result.SkippedRows++
			continue
		}
		result.Grants = append(result.Grants, grant)
		result.CategoryCounts[category]++
	}

	p.logger.Info("grant database parsed",
		zap.String("upload_id", result.UploadID),
		zap.Int("grants", len(result.Grants)),
		zap.Int("foundations", len(result.Foundations)),
		zap.Int("skipped_rows", result.SkippedRows))

	return result, nil
}

func resolveCategory(raw string) (models.GrantCategory, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", false
	}
	if cat, ok := categoryLabels[normalized]; ok {
		return cat, true
	}
	// Sheet names sometimes carry decorations like "Category 2 - Schools".
	for label, cat := range categoryLabels {
		if strings.Contains(normalized, label) {
			return cat, true
		}
	}
	return "", false
}

func (p *Parser) parseGrantRow(row map[string]string, category models.GrantCategory, rowNum int) (models.Grant, bool) {
	name := row["grant_name"]
	if name == "" {
		p.logger.Warn("skipping grant row without name", zap.Int("row", rowNum))
		return models.Grant{}, false
	}

	amountMin, amountMax := parseAmountRange(row["amount"])

	return models.Grant{
		ID:           "grant_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		GrantName:    name,
		Funder:       defaultString(row["funder"], "Unknown"),
		Description:  row["description"],
		Deadline:     normalizeDeadline(row["deadline"]),
		AmountMin:    amountMin,
		AmountMax:    amountMax,
		GeoQualified: parseGeoQualified(row["geo_qualified"]),
		Category:     category,
		Status:       parseStatus(row["status"]),
		URL:          row["url"],
		Contact:      defaultString(row["contact"], "See website"),
		FunderStats:  row["funder_stats"],
		SourceRow:    rowNum,
		CreatedAt:    p.now().UTC(),
	}, true
}

func (p *Parser) parseFoundationRow(row map[string]string) (models.Foundation, bool) {
	name := row["foundation_name"]
	if name == "" {
		// Foundation sheets occasionally reuse the grant name header.
		name = row["grant_name"]
	}
	if name == "" {
		return models.Foundation{}, false
	}

	return models.Foundation{
		ID:               "foundation_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		FoundationName:   name,
		ApplicationCycle: defaultString(row["application_cycle"], "Check website"),
		FocusAreas:       row["focus_areas"],
		Location:         row["location"],
		Contact:          defaultString(row["contact"], "See website"),
		Website:          row["url"],
		AnnualGiving:     row["annual_giving"],
		Notes:            row["notes"],
		CreatedAt:        p.now().UTC(),
	}, true
}

func parseStatus(value string) models.GrantStatus {
	upper := strings.ToUpper(strings.TrimSpace(value))
	switch {
	case strings.Contains(upper, "OPEN"):
		return models.StatusOpen
	case strings.Contains(upper, "ROLL"):
		return models.StatusRolling
	case strings.Contains(upper, "CLOSE"):
		return models.StatusClosed
	default:
		return models.StatusCheckDeadline
	}
}

func parseGeoQualified(value string) models.GeoQualified {
	upper := strings.ToUpper(strings.TrimSpace(value))
	switch {
	case upper == "":
		return models.GeoCheck
	case strings.Contains(upper, "TX") || strings.Contains(upper, "TEXAS"):
		return models.GeoTXOnly
	case upper == "YES" || upper == "Y" || upper == "TRUE" || upper == "1":
		return models.GeoYes
	case upper == "NO" || upper == "N" || upper == "FALSE" || upper == "0":
		return models.GeoNo
	default:
		return models.GeoCheck
	}
}

var deadlineLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// normalizeDeadline converts parseable dates to ISO, recognizes rolling
// deadlines, and keeps anything else verbatim so sheet notes like
// "Spring 2026" survive to display.
func normalizeDeadline(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(raw), "rolling") {
		return "Rolling"
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
