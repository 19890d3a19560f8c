package ingest

import "testing"

func TestParseAmountRange(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantMin float64
		wantMax float64
		hasMin  bool
		hasMax  bool
	}{
		{"range with separators", "$10,000 - $50,000", 10000, 50000, true, true},
		{"k suffix range", "$5K-$50K", 5000, 50000, true, true},
		{"up to", "Up to $25,000", 0, 25000, false, true},
		{"minimum", "Minimum $1,000 award", 1000, 0, true, false},
		{"single figure is both bounds", "awards of $10,000", 10000, 10000, true, true},
		{"millions suffix", "Up to $1.5M", 0, 1500000, false, true},
		{"no numbers", "Varies", 0, 0, false, false},
		{"empty", "", 0, 0, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			min, max := parseAmountRange(tc.in)
			if (min != nil) != tc.hasMin || (max != nil) != tc.hasMax {
				t.Fatalf("presence = %v/%v, want %v/%v", min != nil, max != nil, tc.hasMin, tc.hasMax)
			}
			if tc.hasMin && *min != tc.wantMin {
				t.Fatalf("min = %v, want %v", *min, tc.wantMin)
			}
			if tc.hasMax && *max != tc.wantMax {
				t.Fatalf("max = %v, want %v", *max, tc.wantMax)
			}
		})
	}
}
