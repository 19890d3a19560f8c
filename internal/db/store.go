package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/parishfund/grantmatch/internal/models"
)

var (
	ErrSessionNotFound = errors.New("match session not found")
	ErrSessionExpired  = errors.New("match session has expired")
	ErrProfileNotFound = errors.New("organization profile not found")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListParams filters a grant listing. A non-empty QueryEmbedding switches
// the ordering to vector similarity.
type ListParams struct {
	Category       models.GrantCategory
	QueryEmbedding []float32
	Limit          int
}

const grantCols = `id, grant_name, funder, description, deadline,
	amount_min, amount_max, eligibility, purposes, geo_qualified,
	category, status, url, contact, funder_stats, source_row, created_at`

func scanGrant(scan func(dest ...any) error) (models.Grant, error) {
	var g models.Grant
	var funderStats *string
	var sourceRow *int

	err := scan(
		&g.ID, &g.GrantName, &g.Funder, &g.Description, &g.Deadline,
		&g.AmountMin, &g.AmountMax, &g.Eligibility, &g.Purposes, &g.GeoQualified,
		&g.Category, &g.Status, &g.URL, &g.Contact, &funderStats, &sourceRow, &g.CreatedAt,
	)
	if err != nil {
		return g, err
	}
	if funderStats != nil {
		g.FunderStats = *funderStats
	}
	if sourceRow != nil {
		g.SourceRow = *sourceRow
	}
	return g, nil
}

// ReplaceGrantDatabase swaps the user's grant database for the freshly
// parsed upload in one transaction. Previous match sessions stay valid;
// they carry denormalized copies of what they scored.
func (s *Store) ReplaceGrantDatabase(ctx context.Context, userID uuid.UUID, grants []models.Grant, foundations []models.Foundation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM grants WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("clear grants: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM foundations WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("clear foundations: %w", err)
	}

	for _, g := range grants {
		var funderStats *string
		if g.FunderStats != "" {
			funderStats = &g.FunderStats
		}
		eligibility := g.Eligibility
		if eligibility == nil {
			eligibility = []string{}
		}
		purposes := g.Purposes
		if purposes == nil {
			purposes = []string{}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO grants (id, user_id, grant_name, funder, description, deadline,
				amount_min, amount_max, eligibility, purposes, geo_qualified,
				category, status, url, contact, funder_stats, source_row, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`, g.ID, userID, g.GrantName, g.Funder, g.Description, g.Deadline,
			g.AmountMin, g.AmountMax, eligibility, purposes, g.GeoQualified,
			g.Category, g.Status, g.URL, g.Contact, funderStats, g.SourceRow, g.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert grant %s: %w", g.ID, err)
		}
	}

	for _, f := range foundations {
		var notes *string
		if f.Notes != "" {
			notes = &f.Notes
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO foundations (id, user_id, foundation_name, application_cycle,
				focus_areas, location, contact, website, annual_giving, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, f.ID, userID, f.FoundationName, f.ApplicationCycle,
			f.FocusAreas, f.Location, f.Contact, f.Website, f.AnnualGiving, notes, f.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert foundation %s: %w", f.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateGrantEmbedding stores the semantic search vector for one grant.
func (s *Store) UpdateGrantEmbedding(ctx context.Context, grantID string, embedding []float32) error {
	_, err := s.pool.Exec(ctx, "UPDATE grants SET embedding = $1 WHERE id = $2",
		pgvector.NewVector(embedding), grantID)
	if err != nil {
		return fmt.Errorf("update embedding for %s: %w", grantID, err)
	}
	return nil
}

// buildGrantListQuery assembles the listing SQL. With a query embedding the
// ordering switches to vector similarity, grants without an embedding last;
// otherwise the database sheet order is preserved.
func buildGrantListQuery(userID uuid.UUID, params ListParams) (string, []any) {
	sql := "SELECT " + grantCols + " FROM grants WHERE user_id = $1"
	args := []any{userID}
	argIdx := 2

	if params.Category != "" {
		sql += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, params.Category)
		argIdx++
	}

	if len(params.QueryEmbedding) > 0 {
		sql += fmt.Sprintf(`
			ORDER BY
				CASE WHEN embedding IS NULL THEN 1 ELSE 0 END ASC,
				COALESCE(1 - (embedding <=> $%d), -1) DESC,
				source_row ASC`, argIdx)
		args = append(args, pgvector.NewVector(params.QueryEmbedding))
		argIdx++
	} else {
		sql += " ORDER BY source_row ASC, created_at ASC"
	}

	if params.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, params.Limit)
	}

	return sql, args
}

// ListGrants returns the user's grants, see buildGrantListQuery for ordering.
func (s *Store) ListGrants(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.Grant, error) {
	sql, args := buildGrantListQuery(userID, params)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []models.Grant
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// ListFoundations returns the user's Catholic foundation entries.
func (s *Store) ListFoundations(ctx context.Context, userID uuid.UUID) ([]models.Foundation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, foundation_name, application_cycle, focus_areas, location,
			contact, website, annual_giving, notes, created_at
		FROM foundations WHERE user_id = $1 ORDER BY foundation_name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list foundations: %w", err)
	}
	defer rows.Close()

	var foundations []models.Foundation
	for rows.Next() {
		var f models.Foundation
		var notes *string
		if err := rows.Scan(&f.ID, &f.FoundationName, &f.ApplicationCycle, &f.FocusAreas,
			&f.Location, &f.Contact, &f.Website, &f.AnnualGiving, &notes, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan foundation: %w", err)
		}
		if notes != nil {
			f.Notes = *notes
		}
		foundations = append(foundations, f)
	}
	return foundations, rows.Err()
}

// GrantStats aggregates the user's database by category, status and geo
// qualification.
type GrantStats struct {
	TotalGrants      int            `json:"total_grants"`
	TotalFoundations int            `json:"total_foundations"`
	ByCategory       map[string]int `json:"by_category"`
	ByStatus         map[string]int `json:"by_status"`
	ByGeoQualified   map[string]int `json:"by_geo_qualified"`
}

func (s *Store) GetGrantStats(ctx context.Context, userID uuid.UUID) (*GrantStats, error) {
	stats := &GrantStats{
		ByCategory:     make(map[string]int),
		ByStatus:       make(map[string]int),
		ByGeoQualified: make(map[string]int),
	}

	rows, err := s.pool.Query(ctx,
		"SELECT category, status, geo_qualified FROM grants WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("grant stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, status, geo string
		if err := rows.Scan(&category, &status, &geo); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.TotalGrants++
		stats.ByCategory[category]++
		stats.ByStatus[status]++
		stats.ByGeoQualified[geo]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM foundations WHERE user_id = $1", userID).Scan(&stats.TotalFoundations); err != nil {
		return nil, fmt.Errorf("foundation count: %w", err)
	}

	return stats, nil
}

// SaveProfile upserts the user's organization profile as JSONB.
func (s *Store) SaveProfile(ctx context.Context, userID uuid.UUID, profile *models.OrganizationProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, userID, data)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (*models.OrganizationProfile, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT data FROM profiles WHERE user_id = $1", userID).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var profile models.OrganizationProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &profile, nil
}

// SaveMatchResult persists one session's result as JSONB.
func (s *Store) SaveMatchResult(ctx context.Context, userID uuid.UUID, result *models.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal match result: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO match_sessions (session_id, user_id, result, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET result = EXCLUDED.result
	`, result.SessionID, userID, data, result.CreatedAt, result.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save match result: %w", err)
	}
	return nil
}

// GetMatchResult loads one session, enforcing ownership and expiry.
func (s *Store) GetMatchResult(ctx context.Context, userID uuid.UUID, sessionID string) (*models.MatchResult, error) {
	var data []byte
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT result, expires_at FROM match_sessions
		WHERE session_id = $1 AND user_id = $2
	`, sessionID, userID).Scan(&data, &expiresAt)
	if err == pgx.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match result: %w", err)
	}
	if time.Now().After(expiresAt) {
		return nil, ErrSessionExpired
	}

	var result models.MatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal match result: %w", err)
	}
	return &result, nil
}

// DeleteExpiredSessions purges sessions past their expiry and returns the
// number removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM match_sessions WHERE expires_at < NOW()")
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
