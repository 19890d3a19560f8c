package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var amountNumberRegex = regexp.MustCompile(`[\d][\d,]*(?:\.\d+)?\s*[kKmM]?`)

// parseAmountRange extracts the award bounds from free text like
// "Up to $25,000", "$5K-$50K" or "Varies". Text with no usable number
// returns (nil, nil).
func parseAmountRange(text string) (min, max *float64) {
	lower := strings.ToLower(text)

	var amounts []float64
	for _, m := range amountNumberRegex.FindAllString(text, -1) {
		multiplier := 1.0
		m = strings.TrimSpace(m)
		switch {
		case strings.HasSuffix(strings.ToLower(m), "k"):
			multiplier = 1_000
			m = strings.TrimSpace(m[:len(m)-1])
		case strings.HasSuffix(strings.ToLower(m), "m"):
			multiplier = 1_000_000
			m = strings.TrimSpace(m[:len(m)-1])
		}
		clean := strings.ReplaceAll(m, ",", "")
		if val, err := strconv.ParseFloat(clean, 64); err == nil && val > 0 {
			amounts = append(amounts, val*multiplier)
		}
	}

	if len(amounts) == 0 {
		return nil, nil
	}

	if len(amounts) == 1 {
		v := amounts[0]
		switch {
		case strings.Contains(lower, "up to") || strings.Contains(lower, "maximum") || strings.Contains(lower, "max"):
			return nil, &v
		case strings.Contains(lower, "minimum") || strings.Contains(lower, "at least") || strings.Contains(lower, "from"):
			return &v, nil
		default:
			// A lone figure is both bounds: "awards of $10,000".
			v2 := v
			return &v, &v2
		}
	}

	lo, hi := amounts[0], amounts[0]
	for _, a := range amounts {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	return &lo, &hi
}
