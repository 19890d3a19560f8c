package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/ai"
	"github.com/parishfund/grantmatch/internal/auth"
	"github.com/parishfund/grantmatch/internal/db"
	"github.com/parishfund/grantmatch/internal/ingest"
	"github.com/parishfund/grantmatch/internal/match"
	"github.com/parishfund/grantmatch/internal/models"
	"github.com/parishfund/grantmatch/internal/profile"
)

const maxUploadBytes = 20 << 20

// Server wires the HTTP surface. All state lives in the store; handlers are
// stateless apart from the shared collaborators below.
type Server struct {
	Echo        *echo.Echo
	Store       *db.Store
	AuthService *auth.Service
	Matcher     *match.Matcher
	Generator   ai.ContentGenerator
	Embedder    ai.Embedder // nil when no embedding backend is configured
	Scanner     *profile.Scanner
	Builder     *profile.Builder
	Parser      *ingest.Parser

	logger *zap.Logger
}

// Deps carries the collaborators NewServer needs.
type Deps struct {
	Store       *db.Store
	AuthService *auth.Service
	Matcher     *match.Matcher
	Generator   ai.ContentGenerator
	Embedder    ai.Embedder
	Logger      *zap.Logger
	CORSOrigins []string
}

func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	origins := []string{"http://localhost:4200"}
	origins = append(origins, deps.CORSOrigins...)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		Echo:        e,
		Store:       deps.Store,
		AuthService: deps.AuthService,
		Matcher:     deps.Matcher,
		Generator:   deps.Generator,
		Embedder:    deps.Embedder,
		Scanner:     profile.NewScanner(deps.Generator, logger),
		Builder:     profile.NewBuilder(logger),
		Parser:      ingest.NewParser(logger),
		logger:      logger,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	protected := api.Group("")
	protected.Use(auth.Middleware)

	protected.POST("/grants/upload", s.handleUploadGrants)
	protected.GET("/grants", s.handleListGrants)
	protected.GET("/grants/stats", s.handleGrantStats)
	protected.GET("/foundations", s.handleListFoundations)

	protected.GET("/profile", s.handleGetProfile)
	protected.PUT("/profile", s.handleUpdateProfile)
	protected.POST("/profile/scan-website", s.handleScanWebsite)
	protected.POST("/profile/documents", s.handleUploadDocument)

	protected.GET("/questionnaire", s.handleGetQuestionnaire)
	protected.POST("/questionnaire", s.handleSubmitQuestionnaire)

	protected.POST("/match", s.handleRunMatch)
	protected.GET("/match/:session", s.handleGetMatch)
	protected.PATCH("/match/:session/shortlist", s.handleShortlist)
	protected.GET("/match/:session/export", s.handleExportMatch)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleSignup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// handleUploadGrants replaces the user's grant database from a CSV upload.
// Embedding generation runs in the background so the upload response stays
// fast; search falls back to sheet order until vectors land.
func (s *Server) handleUploadGrants(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing file upload"})
	}
	if fileHeader.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "File too large"})
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Only CSV uploads are supported"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not read upload"})
	}
	defer f.Close()

	result, err := s.Parser.Parse(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if len(result.Grants) == 0 && len(result.Foundations) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No grants found in upload"})
	}

	if err := s.Store.ReplaceGrantDatabase(c.Request().Context(), userID, result.Grants, result.Foundations); err != nil {
		s.logger.Error("replace grant database", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	if s.Embedder != nil {
		go s.embedGrants(result.Grants)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"upload_id":       result.UploadID,
		"grants":          len(result.Grants),
		"foundations":     len(result.Foundations),
		"skipped_rows":    result.SkippedRows,
		"category_counts": result.CategoryCounts,
	})
}

func (s *Server) embedGrants(grants []models.Grant) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	embedded := 0
	for _, g := range grants {
		text := g.GrantName + "\n" + g.Funder + "\n" + g.Description
		vec, err := s.Embedder.GenerateEmbedding(ctx, text)
		if err != nil {
			s.logger.Warn("embed grant", zap.String("grant_id", g.ID), zap.Error(err))
			continue
		}
		if err := s.Store.UpdateGrantEmbedding(ctx, g.ID, vec); err != nil {
			s.logger.Warn("store embedding", zap.String("grant_id", g.ID), zap.Error(err))
			continue
		}
		embedded++
	}
	s.logger.Info("grant embeddings generated",
		zap.Int("embedded", embedded), zap.Int("total", len(grants)))
}

func (s *Server) handleListGrants(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	params := db.ListParams{
		Category: models.GrantCategory(c.QueryParam("category")),
		Limit:    100,
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 500 {
		params.Limit = l
	}

	if q := c.QueryParam("q"); q != "" && s.Embedder != nil {
		aiCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		vec, err := s.Embedder.GenerateEmbedding(aiCtx, q)
		if err != nil {
			s.logger.Warn("query embedding failed, using sheet order", zap.Error(err))
		} else {
			params.QueryEmbedding = vec
		}
	}

	grants, err := s.Store.ListGrants(c.Request().Context(), userID, params)
	if err != nil {
		s.logger.Error("list grants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"grants": grants, "count": len(grants)})
}

func (s *Server) handleGrantStats(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	stats, err := s.Store.GetGrantStats(c.Request().Context(), userID)
	if err != nil {
		s.logger.Error("grant stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListFoundations(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	foundations, err := s.Store.ListFoundations(c.Request().Context(), userID)
	if err != nil {
		s.logger.Error("list foundations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"foundations": foundations, "count": len(foundations)})
}

func (s *Server) handleGetProfile(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	p, err := s.Store.GetProfile(c.Request().Context(), userID)
	if errors.Is(err, db.ErrProfileNotFound) {
		return c.JSON(http.StatusOK, &models.OrganizationProfile{})
	}
	if err != nil {
		s.logger.Error("get profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var p models.OrganizationProfile
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid profile"})
	}

	if err := s.Store.SaveProfile(c.Request().Context(), userID, &p); err != nil {
		s.logger.Error("save profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, &p)
}

type scanWebsiteRequest struct {
	ChurchURL string `json:"church_url"`
	SchoolURL string `json:"school_url"`
}

func (s *Server) handleScanWebsite(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req scanWebsiteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.ChurchURL == "" && req.SchoolURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "At least one URL is required"})
	}

	scan, err := s.Scanner.ScanWebsites(c.Request().Context(), req.ChurchURL, req.SchoolURL)
	if err != nil {
		s.logger.Warn("website scan failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Could not scan the provided websites"})
	}

	p := s.loadOrNewProfile(c.Request().Context(), userID)
	if req.ChurchURL != "" {
		p.WebsiteURL = req.ChurchURL
	}
	if req.SchoolURL != "" {
		p.SchoolWebsiteURL = req.SchoolURL
	}
	s.Builder.ApplyWebsiteScan(p, scan)

	if err := s.Store.SaveProfile(c.Request().Context(), userID, p); err != nil {
		s.logger.Error("save profile after scan", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUploadDocument(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing file upload"})
	}
	if fileHeader.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "File too large"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not read upload"})
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not read upload"})
	}

	text, err := profile.ExtractText(fileHeader.Filename, content)
	if errors.Is(err, profile.ErrUnsupportedDocument) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unsupported document type"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not extract text from document"})
	}

	signals, err := ai.ExtractDocumentSignals(c.Request().Context(), s.Generator, fileHeader.Filename, text)
	if err != nil {
		s.logger.Warn("document signal extraction failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Could not analyze document"})
	}

	p := s.loadOrNewProfile(c.Request().Context(), userID)
	s.Builder.ApplyDocumentSignals(p, fileHeader.Filename, signals)

	if err := s.Store.SaveProfile(c.Request().Context(), userID, p); err != nil {
		s.logger.Error("save profile after document", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleGetQuestionnaire(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	grants, err := s.Store.ListGrants(c.Request().Context(), userID, db.ListParams{})
	if err != nil {
		s.logger.Error("list grants for questionnaire", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	q := ai.GenerateQuestionnaire(c.Request().Context(), s.Generator, grants, s.logger)
	return c.JSON(http.StatusOK, q)
}

func (s *Server) handleSubmitQuestionnaire(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var submission models.QuestionnaireSubmission
	if err := c.Bind(&submission); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid submission"})
	}

	p := s.loadOrNewProfile(c.Request().Context(), userID)
	s.Builder.ApplyQuestionnaire(p, submission)

	if err := s.Store.SaveProfile(c.Request().Context(), userID, p); err != nil {
		s.logger.Error("save profile after questionnaire", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleRunMatch(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()

	p, err := s.Store.GetProfile(ctx, userID)
	if errors.Is(err, db.ErrProfileNotFound) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Complete your organization profile before matching"})
	}
	if err != nil {
		s.logger.Error("load profile for match", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	grants, err := s.Store.ListGrants(ctx, userID, db.ListParams{})
	if err != nil {
		s.logger.Error("load grants for match", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	result, err := s.Matcher.Match(ctx, *p, grants)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrNoGrants):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Upload a grant database before matching"})
		case errors.Is(err, match.ErrIncompleteProfile):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Complete your organization profile before matching"})
		default:
			s.logger.Error("match run", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		}
	}

	if err := s.Store.SaveMatchResult(ctx, userID, result); err != nil {
		s.logger.Error("save match result", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetMatch(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	result, err := s.loadSession(c.Request().Context(), userID, c.Param("session"))
	if err != nil {
		return s.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type shortlistRequest struct {
	GrantID     string `json:"grant_id"`
	Shortlisted bool   `json:"shortlisted"`
}

func (s *Server) handleShortlist(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req shortlistRequest
	if err := c.Bind(&req); err != nil || req.GrantID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	ctx := c.Request().Context()
	result, err := s.loadSession(ctx, userID, c.Param("session"))
	if err != nil {
		return s.sessionError(c, err)
	}

	m := result.FindMatch(req.GrantID)
	if m == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Grant not found in this session"})
	}
	m.IsShortlisted = req.Shortlisted

	if err := s.Store.SaveMatchResult(ctx, userID, result); err != nil {
		s.logger.Error("save shortlist", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleExportMatch(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	result, err := s.loadSession(c.Request().Context(), userID, c.Param("session"))
	if err != nil {
		return s.sessionError(c, err)
	}

	format := c.QueryParam("format")
	if format == "" {
		format = match.FormatMarkdown
	}

	body, err := match.Render(result, format, match.RenderOptions{
		ShortlistOnly: c.QueryParam("shortlist_only") == "true",
		Now:           time.Now(),
	})
	if errors.Is(err, match.ErrUnsupportedFormat) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unsupported export format"})
	}
	if err != nil {
		s.logger.Error("render export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	ext := format
	if ext == "markdown" {
		ext = "md"
	}
	filename := match.ExportFilename("grantmatch_results", ext, time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, match.ContentType(format), body)
}

func (s *Server) loadSession(ctx context.Context, userID uuid.UUID, sessionID string) (*models.MatchResult, error) {
	return s.Store.GetMatchResult(ctx, userID, sessionID)
}

func (s *Server) sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, db.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	case errors.Is(err, db.ErrSessionExpired):
		return c.JSON(http.StatusGone, map[string]string{"error": "Session has expired"})
	default:
		s.logger.Error("load match session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
}

// loadOrNewProfile returns the stored profile or a fresh one; profile
// contributions never require an existing record.
func (s *Server) loadOrNewProfile(ctx context.Context, userID uuid.UUID) *models.OrganizationProfile {
	p, err := s.Store.GetProfile(ctx, userID)
	if err != nil {
		return &models.OrganizationProfile{UserID: userID.String()}
	}
	return p
}
