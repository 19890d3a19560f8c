// match_preview scores a grant database CSV against a profile JSON without
// touching the database, and prints the tiered results as a table.
//
// Usage:
//
//	match_preview -grants database.csv -profile profile.json [-export results.md]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/ai"
	"github.com/parishfund/grantmatch/internal/ingest"
	"github.com/parishfund/grantmatch/internal/match"
	"github.com/parishfund/grantmatch/internal/models"
)

func main() {
	grantsPath := flag.String("grants", "", "grant database CSV")
	profilePath := flag.String("profile", "", "organization profile JSON")
	exportPath := flag.String("export", "", "optional report output (.md, .csv or .json)")
	flag.Parse()

	if *grantsPath == "" || *profilePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	f, err := os.Open(*grantsPath)
	if err != nil {
		log.Fatalf("open grants: %v", err)
	}
	defer f.Close()

	parsed, err := ingest.NewParser(logger).Parse(f)
	if err != nil {
		log.Fatalf("parse grants: %v", err)
	}
	fmt.Printf("Parsed %d grants, %d foundations (%d rows skipped)\n",
		len(parsed.Grants), len(parsed.Foundations), parsed.SkippedRows)

	profileData, err := os.ReadFile(*profilePath)
	if err != nil {
		log.Fatalf("read profile: %v", err)
	}
	var profile models.OrganizationProfile
	if err := json.Unmarshal(profileData, &profile); err != nil {
		log.Fatalf("parse profile: %v", err)
	}

	ctx := context.Background()
	generator, err := buildGenerator(ctx)
	if err != nil {
		log.Fatal(err)
	}

	matcher := match.NewMatcher(ai.NewScorer(generator, logger), logger)
	result, err := matcher.Match(ctx, profile, parsed.Grants)
	if err != nil {
		log.Fatalf("match: %v", err)
	}

	printResult(result)

	if *exportPath != "" {
		writeExport(result, *exportPath)
	}
}

func buildGenerator(ctx context.Context) (ai.ContentGenerator, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return ai.NewGeminiGenerator(ctx, key, os.Getenv("GEMINI_MODEL"))
	}
	return ai.NewOllamaClient(os.Getenv("OLLAMA_BASE_URL"), "", os.Getenv("OLLAMA_GEN_MODEL")), nil
}

func printResult(result *models.MatchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Grant", "Funder", "Score", "Tier", "Deadline", "Amount"})

	rank := 0
	for _, tier := range models.TierOrder {
		for _, m := range result.TierMatches(tier) {
			rank++
			t.AppendRow(table.Row{
				rank, m.GrantName, m.Funder,
				fmt.Sprintf("%d%%", m.Score),
				fmt.Sprintf("%s %s", m.Tier.Emoji(), m.Tier.Label()),
				m.Deadline, m.Amount,
			})
		}
	}
	t.Render()

	fmt.Printf("\nEvaluated %d grants: %d excellent, %d good, %d possible, %d weak, %d not eligible\n",
		result.GrantsEvaluated,
		result.Counts.Excellent, result.Counts.Good, result.Counts.Possible,
		result.Counts.Weak, result.Counts.NotEligible)
}

func writeExport(result *models.MatchResult, path string) {
	format := match.FormatMarkdown
	switch {
	case strings.HasSuffix(path, ".csv"):
		format = match.FormatCSV
	case strings.HasSuffix(path, ".json"):
		format = match.FormatJSON
	}

	body, err := match.Render(result, format, match.RenderOptions{Now: time.Now()})
	if err != nil {
		log.Fatalf("render export: %v", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		log.Fatalf("write export: %v", err)
	}
	fmt.Printf("Report written to %s\n", path)
}
