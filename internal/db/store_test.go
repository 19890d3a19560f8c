package db

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/parishfund/grantmatch/internal/models"
)

func TestBuildGrantListQuery_DefaultOrderIsSheetOrder(t *testing.T) {
	userID := uuid.New()
	sql, args := buildGrantListQuery(userID, ListParams{})

	if !strings.Contains(sql, "ORDER BY source_row ASC, created_at ASC") {
		t.Fatalf("expected sheet ordering, got: %s", sql)
	}
	if strings.Contains(sql, "embedding <=>") {
		t.Fatalf("no-embedding query must not order by similarity: %s", sql)
	}
	if len(args) != 1 || args[0] != userID {
		t.Fatalf("expected only user arg, got %v", args)
	}
}

func TestBuildGrantListQuery_EmbeddingOrdersBySimilarity(t *testing.T) {
	sql, args := buildGrantListQuery(uuid.New(), ListParams{
		QueryEmbedding: []float32{0.1, 0.2, 0.3},
	})

	mustContain := []string{
		"CASE WHEN embedding IS NULL THEN 1 ELSE 0 END ASC",
		"COALESCE(1 - (embedding <=> $2), -1) DESC",
	}
	for _, token := range mustContain {
		if !strings.Contains(sql, token) {
			t.Fatalf("similarity query missing token %q: %s", token, sql)
		}
	}
	if len(args) != 2 {
		t.Fatalf("expected user + vector args, got %v", args)
	}
}

func TestBuildGrantListQuery_CategoryAndLimitPlaceholders(t *testing.T) {
	sql, args := buildGrantListQuery(uuid.New(), ListParams{
		Category:       models.CategoryCatholicSchool,
		QueryEmbedding: []float32{0.5},
		Limit:          25,
	})

	if !strings.Contains(sql, "AND category = $2") {
		t.Fatalf("category filter misnumbered: %s", sql)
	}
	if !strings.Contains(sql, "embedding <=> $3") {
		t.Fatalf("vector placeholder misnumbered after category: %s", sql)
	}
	if !strings.Contains(sql, "LIMIT $4") {
		t.Fatalf("limit placeholder misnumbered: %s", sql)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d: %v", len(args), args)
	}
	if args[3] != 25 {
		t.Fatalf("expected limit arg 25, got %v", args[3])
	}
}
